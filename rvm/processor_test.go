package rvm

import "testing"

func mustRun(t *testing.T, program *PackedProgram, inputs []*Node) *Node {
	t.Helper()
	result, err := NewProcessor(NewRegistry()).Run(program, inputs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return result
}

func TestRunScalarSingleton(t *testing.T) {
	program := &PackedProgram{Ops: []Opcode{OpString}}
	got := mustRun(t, program, nil)
	if got != StringNode {
		t.Errorf("got %v, want the shared StringNode singleton", got)
	}
}

func TestRunLiteral(t *testing.T) {
	program := &PackedProgram{
		Pool: []PoolEntry{NumberEntry(42)},
		Ops:  []Opcode{OpLiteral, 0},
	}
	got := mustRun(t, program, nil)
	if got.Kind != KindLiteral || got.Literal != 42.0 {
		t.Errorf("got %v, want literal 42", got)
	}
}

func TestRunEmptyProgramFails(t *testing.T) {
	program := &PackedProgram{}
	_, err := NewProcessor(NewRegistry()).Run(program, nil)
	if err == nil {
		t.Fatal("expected an error for a program that leaves the stack empty")
	}
	rvmErr, ok := err.(*Error)
	if !ok || rvmErr.Kind != ErrInvalidProgram {
		t.Errorf("err = %v, want *Error{Kind: ErrInvalidProgram}", err)
	}
}

// A union built inside an explicit frame: frame, string, literal("foo"), union.
func TestRunUnionOfStringAndLiteral(t *testing.T) {
	program := &PackedProgram{
		Pool: []PoolEntry{StringEntry("foo")},
		Ops: []Opcode{
			OpFrame,
			OpString,
			OpLiteral, 0,
			OpUnion,
		},
	}
	got := mustRun(t, program, nil)
	if got.Kind != KindUnion || len(got.Types) != 2 {
		t.Fatalf("got %v, want a 2-member union", got)
	}
	if got.Types[0] != StringNode {
		t.Errorf("Types[0] = %v, want StringNode", got.Types[0])
	}
	if got.Types[1].Kind != KindLiteral || got.Types[1].Literal != "foo" {
		t.Errorf("Types[1] = %v, want literal(\"foo\")", got.Types[1])
	}
}

// { x: string } via frame, string, property("x"), objectLiteral.
func TestRunObjectLiteralWithProperty(t *testing.T) {
	program := &PackedProgram{
		Pool: []PoolEntry{StringEntry("x")},
		Ops: []Opcode{
			OpFrame,
			OpString,
			OpProperty, 0,
			OpObjectLiteral,
		},
	}
	got := mustRun(t, program, nil)
	if got.Kind != KindObjectLiteral || len(got.Properties) != 1 {
		t.Fatalf("got %v, want a 1-property objectLiteral", got)
	}
	prop := got.Properties[0]
	if prop.Name != "x" || prop.Return != StringNode {
		t.Errorf("Properties[0] = %+v, want property x: string", prop)
	}
	if !prop.HasVisibility || prop.Visibility != VisibilityPublic {
		t.Error("a bare `property` opcode should default to public visibility")
	}
}

func TestRunExtendsLiteralTrue(t *testing.T) {
	program := &PackedProgram{
		Ops: []Opcode{OpString, OpAny, OpExtends},
	}
	got := mustRun(t, program, nil)
	if got.Kind != KindLiteral || got.Literal != true {
		t.Errorf("got %v, want literal true (string extends any)", got)
	}
}

func TestRunExtendsLiteralFalse(t *testing.T) {
	program := &PackedProgram{
		Ops: []Opcode{OpNumber, OpString, OpExtends},
	}
	got := mustRun(t, program, nil)
	if got.Kind != KindLiteral || got.Literal != false {
		t.Errorf("got %v, want literal false (number does not extend string)", got)
	}
}

// Distributes a union of two literals through a subprogram that returns its
// candidate unchanged (an identity map), exercising the loop-by-return
// re-entry: the subprogram physically sits ahead of the main flow, jumped
// past on the way in and jumped into by distribute on every iteration.
func TestRunDistributeIdentity(t *testing.T) {
	program := &PackedProgram{
		Pool: []PoolEntry{StringEntry("a"), StringEntry("b")},
		Ops: []Opcode{
			/*0*/ OpJump, 3,
			/*2*/ OpReturn,
			/*3*/ OpFrame,
			/*4*/ OpLiteral, 0,
			/*6*/ OpLiteral, 1,
			/*8*/ OpUnion,
			/*9*/ OpDistribute, 2,
		},
	}
	got := mustRun(t, program, nil)
	if got.Kind != KindUnion || len(got.Types) != 2 {
		t.Fatalf("got %v, want the original 2-member union back", got)
	}
	if got.Types[0].Literal != "a" || got.Types[1].Literal != "b" {
		t.Errorf("got %v, want [\"a\" \"b\"]", got)
	}
}

func TestRunTypeParameterConsumesInput(t *testing.T) {
	program := &PackedProgram{
		Pool: []PoolEntry{StringEntry("T")},
		Ops:  []Opcode{OpTypeParameter, 0},
	}
	got := mustRun(t, program, []*Node{NumberNode})
	if got != NumberNode {
		t.Errorf("got %v, want the supplied NumberNode input", got)
	}
}

func TestRunTypeParameterFallsBackToAnyWithNoInput(t *testing.T) {
	program := &PackedProgram{
		Pool: []PoolEntry{StringEntry("T")},
		Ops:  []Opcode{OpTypeParameter, 0},
	}
	got := mustRun(t, program, nil)
	if got != AnyNode {
		t.Errorf("got %v, want AnyNode when no type argument was supplied", got)
	}
}

func TestRunTypeParameterDefaultUsesPrecomputedDefaultWhenExhausted(t *testing.T) {
	program := &PackedProgram{
		Pool: []PoolEntry{StringEntry("T")},
		Ops: []Opcode{
			OpBoolean, // the pre-evaluated default sitting on the stack
			OpTypeParameterDefault, 0,
		},
	}
	got := mustRun(t, program, nil)
	if got != BooleanNode {
		t.Errorf("got %v, want BooleanNode (the default) with no input supplied", got)
	}
}

func TestRunTypeParameterDefaultPrefersSuppliedInput(t *testing.T) {
	program := &PackedProgram{
		Pool: []PoolEntry{StringEntry("T")},
		Ops: []Opcode{
			OpBoolean,
			OpTypeParameterDefault, 0,
		},
	}
	got := mustRun(t, program, []*Node{NumberNode})
	if got != NumberNode {
		t.Errorf("got %v, want the supplied NumberNode, ignoring the default", got)
	}
}

func TestRegistryBreaksCyclesByIdentity(t *testing.T) {
	registry := NewRegistry()

	// A program whose literal pool holds a ProgramThunk pointing back at
	// itself: resolving it drives a recursive ResolveRuntimeType call for
	// the same *PackedProgram pointer while the outer call is still
	// in-flight. The Registry must short-circuit that inner call by
	// returning the outer Processor's live result anchor rather than
	// recursing forever.
	outer := &PackedProgram{}
	outer.Pool = []PoolEntry{ProgramThunkEntry(func() *PackedProgram { return outer })}
	outer.Ops = []Opcode{
		OpFrame,
		OpString,
		OpInlineCall, 0, 0,
		OpUnion,
	}

	got, err := ResolveRuntimeType(registry, outer, nil)
	if err != nil {
		t.Fatalf("ResolveRuntimeType failed: %v", err)
	}
	if got.Kind != KindUnion || len(got.Types) != 2 {
		t.Fatalf("got %v, want a 2-member union (string plus the cyclic placeholder)", got)
	}
}

// TestExtractConstructorParams covers spec.md §8's constructor-projection
// property: a public constructor parameter produces an additional property
// member carrying the same name, type, optional, and readonly flags; a
// parameter with no visibility adjective is not projected at all.
func TestExtractConstructorParams(t *testing.T) {
	tests := []struct {
		name   string
		params []*Node
		want   []*Node
	}{
		{
			name: "public parameter is projected",
			params: []*Node{
				{Kind: KindParameter, Name: "id", Return: StringNode, Visibility: VisibilityPublic, HasVisibility: true},
			},
			want: []*Node{
				{Kind: KindProperty, Name: "id", Return: StringNode, Visibility: VisibilityPublic, HasVisibility: true},
			},
		},
		{
			name: "readonly and optional flags carry through",
			params: []*Node{
				{Kind: KindParameter, Name: "count", Return: NumberNode, Visibility: VisibilityPrivate, HasVisibility: true, Readonly: true, Optional: true},
			},
			want: []*Node{
				{Kind: KindProperty, Name: "count", Return: NumberNode, Visibility: VisibilityPrivate, HasVisibility: true, Readonly: true, Optional: true},
			},
		},
		{
			name: "parameter with no visibility adjective is not projected",
			params: []*Node{
				{Kind: KindParameter, Name: "scratch", Return: StringNode},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctor := &Node{Kind: KindMethod, Name: "constructor", Parameters: tt.params}
			got := extractConstructorParams([]*Node{ctor})
			if len(got) != len(tt.want) {
				t.Fatalf("got %d projected properties, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				g := got[i]
				if g.Kind != KindProperty || g.Name != w.Name || g.Return != w.Return ||
					g.Visibility != w.Visibility || g.HasVisibility != w.HasVisibility ||
					g.Readonly != w.Readonly || g.Optional != w.Optional {
					t.Errorf("got %+v, want %+v", g, w)
				}
			}
		})
	}
}

// TestMatchInferSitesBindsDirectInferSite covers the structural walk that
// backs `T extends infer U ? U : never`: when the extends' right-hand side
// is the infer placeholder itself, U binds directly to whatever left is.
func TestMatchInferSitesBindsDirectInferSite(t *testing.T) {
	setter := &InferSetter{FrameOffset: 0, Slot: 1}
	right := &Node{Kind: KindInfer, InferSetter: setter}

	bindings := matchInferSites(StringNode, right)
	if bindings[setter] != StringNode {
		t.Errorf("bindings[setter] = %v, want StringNode", bindings[setter])
	}
}

// TestMatchInferSitesBindsNestedInferSite covers `T extends (infer U)[]
// ? U : never`-shaped structural matching: infer buried inside an array
// element still binds against the corresponding position on the left.
func TestMatchInferSitesBindsNestedInferSite(t *testing.T) {
	setter := &InferSetter{FrameOffset: 0, Slot: 2}
	right := &Node{Kind: KindArray, Elem: &Node{Kind: KindInfer, InferSetter: setter}}
	left := &Node{Kind: KindArray, Elem: StringNode}

	bindings := matchInferSites(left, right)
	if bindings[setter] != StringNode {
		t.Errorf("bindings[setter] = %v, want StringNode", bindings[setter])
	}
}

// TestRunConditionalInferBindsAndSelectsTrueBranch is a full processor-level
// run of `T extends infer U ? U : never` instantiated with T = string,
// exercising spec.md Scenario 4/5's condition+extends+infer interaction
// end to end: a root-frame local slot holds the inference variable, extends
// binds it in place via matchInferSites, and the condition frame reads it
// back out through loads once the true branch is selected.
func TestRunConditionalInferBindsAndSelectsTrueBranch(t *testing.T) {
	program := &PackedProgram{
		Pool: []PoolEntry{StringEntry("T")},
		Ops: []Opcode{
			/*0*/ OpTypeParameter, 0, // slot 0: T, consumes the caller's input
			/*2*/ OpVar, // slot 1: U, starts as never until extends binds it
			/*3*/ OpLoads, 0, 0, // push a fresh copy of T (extends' left operand)
			/*6*/ OpInfer, 0, 1, // push infer U (setter: root frame, slot 1)
			/*9*/ OpExtends, // binds slot 1 to T, pushes literal(true)
			/*10*/ OpFrame, // condition frame opens with cond at its StartIndex
			/*11*/ OpLoads, 1, 1, // true branch: push U (root frame is one ancestor up)
			/*14*/ OpNever, // false branch
			/*15*/ OpCondition,
		},
	}
	got := mustRun(t, program, []*Node{StringNode})
	if got != StringNode {
		t.Errorf("got %v, want StringNode (U bound to T, true branch selected)", got)
	}
}
