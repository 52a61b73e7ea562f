package rvm

import "fmt"

// Registry is the Processor Registry: an identity-keyed map from a
// currently-running PackedProgram to the Processor evaluating it. It breaks
// cycles in mutually (or self) recursive type programs the same way the
// teacher's ClassTable breaks cycles between mutually referential classes —
// a lookup that finds an in-flight entry returns that entry's live result
// anchor instead of recursing into Run again.
//
// A Registry is created fresh for each top-level ResolveType/ResolveTypeOf
// call and threaded by parameter passing into every nested evaluation it
// triggers (classReference, inline, inlineCall). Per spec.md §5 it must
// never be shared between goroutines.
type Registry struct {
	inflight map[*PackedProgram]*Processor
}

// NewRegistry creates an empty Processor Registry for one evaluation tree.
func NewRegistry() *Registry {
	return &Registry{inflight: make(map[*PackedProgram]*Processor)}
}

// lookup returns the Processor currently evaluating program, if any.
func (r *Registry) lookup(program *PackedProgram) (*Processor, bool) {
	p, ok := r.inflight[program]
	return p, ok
}

// register marks program as being evaluated by p. Callers must call
// unregister once p.Run returns, success or failure.
func (r *Registry) register(program *PackedProgram, p *Processor) {
	r.inflight[program] = p
}

func (r *Registry) unregister(program *PackedProgram) {
	delete(r.inflight, program)
}

// ResolveRuntimeType evaluates program with the given type arguments,
// sharing this Registry so any cycle back to program (directly or through a
// chain of classReference/inline calls) observes the in-flight Processor's
// result anchor by identity instead of looping forever.
func ResolveRuntimeType(registry *Registry, program *PackedProgram, inputs []*Node) (*Node, error) {
	if existing, ok := registry.lookup(program); ok {
		return existing.resultType, nil
	}

	proc := NewProcessor(registry)
	registry.register(program, proc)
	defer registry.unregister(program)

	result, err := proc.Run(program, inputs)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResolveTypeOf is spec.md §6's second external entry point: resolve a
// class/function handle's own embedded Packed Program rather than one the
// caller already extracted. handle may be:
//   - a TypeCarrier, whose EmbeddedType() supplies the program directly (the
//     same interface resolveClassReference already consults for a
//     classReference opcode's thunked handle);
//   - a *PackedProgram, used as-is;
//   - a program array itself: a RawProgram, or the []any/[]interface{}
//     shape a JSON-decoded handle arrives as ("handle... is itself a
//     program array", spec.md §6);
//   - a map[string]any carrying its program under a "__type" property
//     ("handle carries its program under __type", spec.md §6), in any of
//     the shapes above.
func ResolveTypeOf(registry *Registry, handle any, args []*Node) (*Node, error) {
	program, err := programFromHandle(handle)
	if err != nil {
		return nil, err
	}
	return ResolveRuntimeType(registry, program, args)
}

func programFromHandle(handle any) (*PackedProgram, error) {
	switch h := handle.(type) {
	case nil:
		return nil, fmt.Errorf("rvm: nil handle carries no __type")
	case *PackedProgram:
		return h, nil
	case TypeCarrier:
		if embedded := h.EmbeddedType(); embedded != nil {
			return embedded, nil
		}
		return nil, fmt.Errorf("rvm: handle's EmbeddedType() returned nil")
	case RawProgram:
		return DecodeProgram(h), nil
	case []any:
		return DecodeProgram(RawProgram(h)), nil
	case map[string]any:
		t, ok := h["__type"]
		if !ok {
			return nil, fmt.Errorf("rvm: handle has no __type property")
		}
		return programFromHandle(t)
	default:
		return nil, fmt.Errorf("rvm: handle of type %T carries no __type program", handle)
	}
}
