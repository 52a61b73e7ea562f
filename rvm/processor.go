package rvm

import (
	"fmt"

	"github.com/google/uuid"
)

const initialStackSize = 128

// mappedType modifier bits, applied to the optional/readonly flags of each
// produced member. The transformer packs these two independent +/- toggles
// into a single immediate the same way the teacher's OpCreateObject packs a
// class index and a slot count into one instruction.
const (
	mappedAddOptional = 1 << iota
	mappedRemoveOptional
	mappedAddReadonly
	mappedRemoveReadonly
)

// TypeCarrier is implemented by a class handle that owns its own embedded
// Packed Program (a generic class whose shape is itself computed at
// runtime rather than fixed). classReference resolves through it instead
// of pushing a bare class node.
type TypeCarrier interface {
	EmbeddedType() *PackedProgram
}

// EnumEntry is one member produced by an EnumSource, in declaration order.
type EnumEntry struct {
	Name  string
	Value *float64 // nil means "auto-increment from the previous member"
}

// EnumSource is what an `enum` opcode's class thunk is expected to resolve
// to when the enum isn't already a plain map or string slice.
type EnumSource func() []EnumEntry

// Processor is the RVM stack machine: a growable operand stack of Type IR
// nodes, a linked Frame chain, a program counter, and the per-run result
// anchor. Layout mirrors the teacher's Interpreter (stack/sp/frames/fp),
// adapted to a single Frame linked list instead of a flat frame slice since
// RVM's call depths are shallow and recursive-descent-shaped rather than
// the deep, loop-driven message-send stacks a Smalltalk VM sees.
type Processor struct {
	ID string

	stack []*Node
	sp    int

	frame *Frame

	program *PackedProgram
	pc      int

	resultType *Node
	forType    *PackedProgram
	registry   *Registry

	initialInputs   []*Node
	callDepth       int
	finalOpcodeIndex int
}

// NewProcessor creates a Processor sharing the given Registry. Registries
// are always shared across the whole evaluation tree a single top-level
// ResolveType call spawns; a Processor never owns its own.
func NewProcessor(registry *Registry) *Processor {
	return &Processor{
		stack:    make([]*Node, initialStackSize),
		sp:       -1,
		registry: registry,
		ID:       uuid.NewString(),
	}
}

// Run executes program to completion and returns its resolved Type IR, or
// an *Error if the program was malformed or a class accessor thunk failed.
// Run recovers any internal panic raised via Processor.fail and converts it
// to a returned error at this boundary; any other panic is re-raised to the
// caller unchanged.
func (p *Processor) Run(program *PackedProgram, initialInputs []*Node) (result *Node, err error) {
	p.program = program
	p.forType = program
	p.initialInputs = initialInputs
	p.resultType = &Node{Kind: KindAny}
	p.frame = &Frame{Index: 0, StartIndex: -1, Inputs: initialInputs}
	p.finalOpcodeIndex = lastOpcodeIndex(program.Ops)

	defer func() {
		if r := recover(); r != nil {
			sig, ok := r.(panicSignal)
			if !ok {
				panic(r)
			}
			err = sig.err
			result = nil
		}
	}()

	p.pc = 0
	for p.pc < len(program.Ops) {
		p.step()
	}

	if p.sp < 0 {
		p.fail(newInvalidProgram(p.pc, OpReturn, p.frame.Index, "program completed with an empty stack"))
	}
	return NarrowOriginalLiteral(p.top()), nil
}

func lastOpcodeIndex(ops []Opcode) int {
	last := -1
	for i := 0; i < len(ops); {
		last = i
		i += 1 + ops[i].OperandCount()
	}
	return last
}

// ---------------------------------------------------------------------------
// Stack primitives
// ---------------------------------------------------------------------------

func (p *Processor) push(n *Node) {
	p.sp++
	if p.sp >= len(p.stack) {
		grown := make([]*Node, len(p.stack)*2)
		copy(grown, p.stack)
		p.stack = grown
	}
	p.stack[p.sp] = n
}

func (p *Processor) pop() *Node {
	if p.sp < 0 {
		p.fail(newInvalidProgram(p.pc, p.currentOp(), p.frame.Index, "stack underflow"))
	}
	n := p.stack[p.sp]
	p.stack[p.sp] = nil
	p.sp--
	return n
}

func (p *Processor) top() *Node {
	if p.sp < 0 {
		p.fail(newInvalidProgram(p.pc, p.currentOp(), p.frame.Index, "stack underflow"))
	}
	return p.stack[p.sp]
}

func (p *Processor) at(i int) *Node {
	if i < 0 || i > p.sp {
		p.fail(newInvalidProgram(p.pc, p.currentOp(), p.frame.Index, "stack index %d out of range (sp=%d)", i, p.sp))
	}
	return p.stack[i]
}

func (p *Processor) setAt(i int, n *Node) {
	if i < 0 || i >= len(p.stack) {
		p.fail(newInvalidProgram(p.pc, p.currentOp(), p.frame.Index, "stack index %d out of range", i))
	}
	p.stack[i] = n
}

func (p *Processor) truncateTo(sp int) {
	for i := sp + 1; i <= p.sp && i < len(p.stack); i++ {
		p.stack[i] = nil
	}
	p.sp = sp
}

func (p *Processor) currentOp() Opcode {
	if p.pc < 0 || p.pc >= len(p.program.Ops) {
		return OpNever
	}
	return p.program.Ops[p.pc]
}

func (p *Processor) fail(err *Error) {
	panic(panicSignal{err: err})
}

// popFrame implements the shared "close a variadic Frame region" operation
// every aggregate opcode uses: the slice of values pushed since the frame
// was opened (skipping the slots var/typeParameter claimed as locals)
// becomes the produced member list, the stack truncates back to where the
// frame started, and the parent frame is restored. It returns the frame
// being closed too, since some callers (class) still need its Inputs after
// the parent frame has been restored.
func (p *Processor) popFrame() ([]*Node, *Frame) {
	f := p.frame
	start := f.StartIndex + f.Variables + 1
	var members []*Node
	if start <= p.sp {
		members = make([]*Node, p.sp-start+1)
		copy(members, p.stack[start:p.sp+1])
	}
	p.truncateTo(f.StartIndex)
	p.frame = f.Previous
	return members, f
}

func (p *Processor) consumeInput() *Node {
	var t *Node
	if p.frame.Variables < len(p.frame.Inputs) {
		t = p.frame.Inputs[p.frame.Variables]
	}
	p.frame.Variables++
	return t
}

// ---------------------------------------------------------------------------
// Literal pool access
// ---------------------------------------------------------------------------

func (p *Processor) poolEntry(idx int) PoolEntry {
	if idx < 0 || idx >= len(p.program.Pool) {
		p.fail(newInvalidProgram(p.pc, p.currentOp(), p.frame.Index, "literal pool index %d out of range (pool size %d)", idx, len(p.program.Pool)))
	}
	return p.program.Pool[idx]
}

func (p *Processor) poolString(idx int) string {
	return p.poolEntry(idx).Str
}

func (p *Processor) poolValue(idx int) any {
	e := p.poolEntry(idx)
	switch e.Kind {
	case PoolString:
		return e.Str
	case PoolNumber:
		return e.Num
	case PoolBool:
		return e.Bool
	case PoolBigInt:
		return e.BigInt
	default:
		return nil
	}
}

// poolThunkValue invokes a class-accessor thunk stored at idx. A failing
// thunk fails the whole Run with RVMClassResolutionFailure; it never
// returns an error to the caller since every call site would just fail
// identically.
func (p *Processor) poolThunkValue(idx int) any {
	e := p.poolEntry(idx)
	if e.Kind != PoolClassThunk || e.Thunk == nil {
		p.fail(newInvalidProgram(p.pc, p.currentOp(), p.frame.Index, "literal pool index %d is not a class accessor", idx))
	}
	var v any
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("class accessor panicked: %v", r)
			}
		}()
		v, err = e.Thunk()
	}()
	if err != nil {
		p.fail(newClassResolutionFailure(p.pc, p.currentOp(), p.frame.Index, idx, err))
	}
	return v
}

func (p *Processor) poolProgram(e PoolEntry) *PackedProgram {
	switch e.Kind {
	case PoolProgram:
		return e.Program
	case PoolProgramThunk:
		return e.PThunk()
	default:
		p.fail(newInvalidProgram(p.pc, p.currentOp(), p.frame.Index, "expected a nested program in the literal pool"))
		return nil
	}
}

// ---------------------------------------------------------------------------
// Main dispatch loop
// ---------------------------------------------------------------------------

// step decodes and executes the instruction at p.pc, then advances p.pc.
// Instructions that transfer control (jump/call/return/distribute/
// mappedType/condition family) set p.pc themselves; everything else falls
// through to the default "skip past my own operands" advance.
func (p *Processor) step() {
	startPC := p.pc
	op := p.program.Ops[startPC]
	if !op.valid() {
		p.fail(newInvalidProgram(startPC, op, p.frame.Index, "unknown opcode"))
	}
	n := op.OperandCount()
	if startPC+n >= len(p.program.Ops) {
		p.fail(newInvalidProgram(startPC, op, p.frame.Index, "opcode truncated: expected %d operands", n))
	}
	operands := make([]int, n)
	for k := 0; k < n; k++ {
		operands[k] = int(p.program.Ops[startPC+1+k])
	}
	next := startPC + 1 + n

	switch op {

	// --- scalar singletons ---
	case OpNever:
		p.push(NeverNode)
	case OpAny:
		p.push(AnyNode)
	case OpUnknown:
		p.push(UnknownNode)
	case OpVoid:
		p.push(VoidNode)
	case OpObject:
		p.push(ObjectNode)
	case OpUndefined:
		p.push(UndefinedNode)
	case OpNull:
		p.push(NullNode)
	case OpString:
		p.push(StringNode)
	case OpNumber:
		p.push(NumberNode)
	case OpBigInt:
		p.push(BigIntNode)
	case OpBoolean:
		p.push(BooleanNode)
	case OpSymbol:
		p.push(SymbolNode)
	case OpRegExp:
		p.push(RegExpNode)

	case OpLiteral:
		p.push(newLiteral(p.poolValue(operands[0])))

	// --- special-class opcodes ---
	case OpDate:
		p.push(&Node{Kind: KindDate, TypeName: "Date"})
	case OpUint8Array, OpUint8ClampedArray, OpInt8Array, OpUint16Array, OpInt16Array,
		OpUint32Array, OpInt32Array, OpFloat32Array, OpFloat64Array, OpBigInt64Array:
		p.push(&Node{Kind: KindTypedArray, TypeName: op.Name()})
	case OpArrayBuffer:
		p.push(&Node{Kind: KindArrayBuffer, TypeName: "ArrayBuffer"})
	case OpSet:
		elem := p.pop()
		p.push(&Node{Kind: KindSet, TypeName: "Set", Elem: elem})
	case OpMap:
		v := p.pop()
		k := p.pop()
		p.push(&Node{Kind: KindMap, TypeName: "Map", Types: []*Node{k, v}})
	case OpPromise:
		p.push(newPromise(p.pop()))
	case OpArray:
		p.push(newArray(p.pop()))

	// --- tuple ---
	case OpTuple:
		members, _ := p.popFrame()
		p.push(&Node{Kind: KindTuple, Members: wrapTupleAdjectives(members)})
	case OpTupleMember:
		if p.top().Kind != KindTupleMember {
			p.wrapTop(KindTupleMember)
		}
	case OpNamedTupleMember:
		name := p.poolString(operands[0])
		top := p.top()
		if top.Kind != KindTupleMember {
			top = p.wrapTop(KindTupleMember)
		}
		top.Name = name
	case OpRest:
		p.wrapTop(KindRest)

	// --- adjectives ---
	//
	// Every case here clones top-of-stack before mutating it: top() may be a
	// shared package-level singleton (StringNode, NumberNode, ...) rather
	// than a freshly allocated node, and mutating a singleton in place would
	// corrupt every future push of that scalar for the rest of the process.
	case OpOptional:
		t := p.top().clone()
		t.Optional = true
		p.setAt(p.sp, t)
	case OpReadonly:
		t := p.top().clone()
		t.Readonly = true
		p.setAt(p.sp, t)
	case OpPublic:
		t := p.top().clone()
		t.Visibility, t.HasVisibility = VisibilityPublic, true
		p.setAt(p.sp, t)
	case OpProtected:
		t := p.top().clone()
		t.Visibility, t.HasVisibility = VisibilityProtected, true
		p.setAt(p.sp, t)
	case OpPrivate:
		t := p.top().clone()
		t.Visibility, t.HasVisibility = VisibilityPrivate, true
		p.setAt(p.sp, t)
	case OpAbstract:
		t := p.top().clone()
		setAnnotation(t, "abstract", true)
		p.setAt(p.sp, t)
	case OpDefaultValue:
		t := p.top().clone()
		t.Default = p.poolValue(operands[0])
		p.setAt(p.sp, t)
	case OpDescription:
		t := p.top().clone()
		t.Description = p.poolString(operands[0])
		p.setAt(p.sp, t)

	case OpIndexSignature:
		valueType := p.pop()
		indexType := p.pop()
		p.push(&Node{Kind: KindIndexSignature, Index: indexType, Return: valueType})

	// --- aggregates ---
	case OpObjectLiteral:
		members, _ := p.popFrame()
		node := &Node{Kind: KindObjectLiteral, Properties: normalizeMembers(members)}
		p.push(p.publishIfOutermost(node, startPC))
	case OpClass:
		members, popped := p.popFrame()
		props := normalizeMembers(members)
		props = append(props, extractConstructorParams(props)...)
		node := &Node{Kind: KindClass, Properties: props, Arguments: cloneNodes(popped.Inputs)}
		p.push(p.publishIfOutermost(node, startPC))

	case OpParameter:
		name := p.poolString(operands[0])
		t := p.pop()
		p.push(&Node{Kind: KindParameter, Name: name, Return: t})
	case OpProperty, OpPropertySignature:
		p.push(p.buildProperty(op, p.poolString(operands[0]), p.pop()))
	case OpMethod, OpMethodSignature, OpFunction:
		members, _ := p.popFrame()
		p.push(p.buildCallable(op, p.poolString(operands[0]), members))

	case OpEnum:
		p.push(buildEnumNode(p.poolThunkValue(operands[0])))
	case OpEnumMember:
		// Never emitted at the top level of a program; present only as a
		// bookkeeping marker inside enum construction handled by OpEnum.
		p.push(NeverNode)

	case OpClassReference:
		p.push(p.resolveClassReference(operands[0]))
	case OpInline:
		p.push(p.resolveInline(operands[0]))
	case OpInlineCall:
		p.push(p.resolveInlineCall(operands[0], operands[1]))

	case OpTypeParameter, OpTemplate:
		_ = p.poolString(operands[0])
		t := p.consumeInput()
		if t == nil {
			t = AnyNode
		}
		p.push(t)
	case OpTypeParameterDefault:
		_ = p.poolString(operands[0])
		def := p.pop()
		t := p.consumeInput()
		if t == nil {
			t = def
		}
		p.push(t)

	case OpUnion:
		members, _ := p.popFrame()
		p.push(buildUnion(members))
	case OpIntersection:
		members, _ := p.popFrame()
		p.push(buildIntersection(members))
	case OpTemplateLiteral:
		members, _ := p.popFrame()
		p.push(buildTemplateLiteral(members))

	case OpInfer:
		p.push(&Node{Kind: KindInfer, InferSetter: &InferSetter{FrameOffset: operands[0], Slot: operands[1]}})
	case OpExtends:
		p.doExtends()
	case OpIndexAccess:
		idx := p.pop()
		base := p.pop()
		result, indexable := IndexAccessOK(base, idx)
		if !indexable {
			p.fail(&Error{Kind: ErrUnresolvedIndex, Opcode: op, OpcodeIndex: startPC, FrameDepth: p.frame.Index,
				Message: "index access against a non-indexable base"})
		}
		p.push(result)
	case OpTypeOf:
		p.push(TypeInfer(p.poolThunkValue(operands[0])))
	case OpKeyOf:
		p.push(p.doKeyOf())
	case OpNumberBrand:
		p.push(&Node{Kind: KindNumberBrand, Brand: p.poolString(operands[0])})

	case OpVar:
		p.push(NeverNode)
		p.frame.Variables++
	case OpArg:
		p.push(p.at(p.frame.StartIndex - operands[0]))
	case OpLoads:
		target := p.frame.ancestor(operands[0])
		if target == nil {
			p.fail(newInvalidProgram(startPC, op, p.frame.Index, "loads: frame offset %d has no ancestor", operands[0]))
		}
		p.push(p.at(target.StartIndex + 1 + operands[1]))

	case OpJump:
		next = operands[0]
	case OpCall:
		p.enterCall(operands[0], next)
		next = operands[0]
	case OpReturn:
		next = p.doReturn()
	case OpFrame:
		p.frame = &Frame{Index: p.frame.Index + 1, StartIndex: p.sp, Previous: p.frame, Inputs: p.frame.Inputs}
	case OpMoveFrame:
		val := p.pop()
		p.truncateTo(p.frame.StartIndex)
		p.push(val)
		p.frame = p.frame.Previous
	case OpJumpCondition:
		cond := p.pop()
		target := operands[1]
		if truthy(cond) {
			target = operands[0]
		}
		p.enterCall(target, next)
		next = target
	case OpCondition:
		members, _ := p.popFrame()
		cond := p.pop()
		if len(members) < 2 {
			p.fail(newInvalidProgram(startPC, op, p.frame.Index, "condition: expected a 2-member frame, got %d", len(members)))
		}
		if truthy(cond) {
			p.push(members[0])
		} else {
			p.push(members[1])
		}
	case OpDistribute:
		next = p.doDistribute(startPC, operands[0], next)
	case OpMappedType:
		next = p.doMappedType(startPC, operands[0], operands[1], next)

	default:
		p.fail(newInvalidProgram(startPC, op, p.frame.Index, "opcode not implemented"))
	}

	p.pc = next
}

// publishIfOutermost decides whether node is the current program's
// outermost, program-final aggregate — in which case it aliases the shared
// result anchor in place (so a self-reference elsewhere in the same
// program observes the exact same *Node once evaluation completes) —
// or, otherwise, is a freshly allocated node.
func (p *Processor) publishIfOutermost(node *Node, startPC int) *Node {
	if p.callDepth == 0 && startPC == p.finalOpcodeIndex {
		*p.resultType = *node
		return p.resultType
	}
	return node
}

func (p *Processor) buildProperty(op Opcode, name string, t *Node) *Node {
	optional := false
	if t.Kind == KindUnion && len(t.Types) == 2 {
		for i, m := range t.Types {
			if m.IsUndefined() {
				t = t.Types[1-i]
				optional = true
				break
			}
		}
	}
	kind := KindPropertySignature
	if op == OpProperty {
		kind = KindProperty
	}
	node := &Node{Kind: kind, Name: name, Return: t, Optional: optional}
	if op == OpProperty {
		node.Visibility, node.HasVisibility = VisibilityPublic, true
	}
	return node
}

func (p *Processor) buildCallable(op Opcode, name string, members []*Node) *Node {
	ret := VoidNode
	var params []*Node
	if len(members) > 0 {
		ret = members[len(members)-1]
		params = members[:len(members)-1]
	}
	kind := KindMethod
	switch op {
	case OpMethodSignature:
		kind = KindMethodSignature
	case OpFunction:
		kind = KindFunction
	}
	return &Node{Kind: kind, Name: name, Return: ret, Parameters: params}
}

func (p *Processor) resolveClassReference(poolIdx int) *Node {
	handle := p.poolThunkValue(poolIdx)
	args, _ := p.popFrame()
	if carrier, ok := handle.(TypeCarrier); ok {
		if embedded := carrier.EmbeddedType(); embedded != nil {
			result, err := ResolveRuntimeType(p.registry, embedded, args)
			if err != nil {
				if rvmErr, ok := err.(*Error); ok {
					p.fail(rvmErr)
				}
				p.fail(newClassResolutionFailure(p.pc, p.currentOp(), p.frame.Index, poolIdx, err))
			}
			return result
		}
	}
	name := ""
	if named, ok := handle.(interface{ TypeName() string }); ok {
		name = named.TypeName()
	}
	return &Node{Kind: KindClass, ClassHandle: handle, TypeName: name, Arguments: args}
}

func (p *Processor) resolveInline(poolIdx int) *Node {
	entry := p.poolEntry(poolIdx)
	if entry.Kind == PoolNumber {
		return p.resultType
	}
	prog := p.poolProgram(entry)
	result, err := ResolveRuntimeType(p.registry, prog, p.initialInputs)
	if err != nil {
		if rvmErr, ok := err.(*Error); ok {
			p.fail(rvmErr)
		}
	}
	return result
}

func (p *Processor) resolveInlineCall(poolIdx, argCount int) *Node {
	entry := p.poolEntry(poolIdx)
	args := make([]*Node, argCount)
	for i := argCount - 1; i >= 0; i-- {
		v := p.pop()
		if v.IsUndefined() && i < len(p.initialInputs) {
			v = p.initialInputs[i]
		}
		args[i] = v
	}
	if entry.Kind == PoolNumber && argCount == 0 {
		return p.resultType
	}
	prog := p.poolProgram(entry)
	result, err := ResolveRuntimeType(p.registry, prog, args)
	if err != nil {
		if rvmErr, ok := err.(*Error); ok {
			p.fail(rvmErr)
		}
	}
	return result
}

func (p *Processor) doExtends() {
	right := p.pop()
	left := p.pop()
	ok := IsExtendable(left, right)
	if ok {
		for setter, val := range matchInferSites(left, right) {
			target := p.frame.ancestor(setter.FrameOffset)
			if target != nil {
				p.setAt(target.StartIndex+1+setter.Slot, val)
			}
		}
	}
	p.push(newLiteral(ok))
}

func (p *Processor) doKeyOf() *Node {
	base := p.pop()
	switch base.Kind {
	case KindObjectLiteral, KindClass:
		var lits []*Node
		for _, m := range base.Properties {
			switch m.Kind {
			case KindProperty, KindPropertySignature, KindMethod, KindMethodSignature:
				lits = append(lits, newLiteral(m.Name))
			}
		}
		return buildUnion(lits)
	default:
		warnEmptyKeyof()
		return NeverNode
	}
}

// enterCall pushes a new call frame targeting a jump to target, resuming at
// returnPC once the callee's Return opcode fires.
func (p *Processor) enterCall(target, returnPC int) {
	p.frame = &Frame{Index: p.frame.Index + 1, StartIndex: p.sp, Previous: p.frame, ReturnPC: returnPC, Inputs: p.frame.Inputs}
	p.callDepth++
}

func (p *Processor) doReturn() int {
	retVal := p.pop()
	target := p.frame.ReturnPC
	p.truncateTo(p.frame.StartIndex)
	p.push(retVal)
	p.frame = p.frame.Previous
	p.callDepth--
	return target
}

// doDistribute implements `T extends U ? X : Y` distribution: the first
// entry pops the type to distribute over and starts a loop cursor; each
// re-entry (via Return rewinding the program counter back to startPC, the
// "loop-by-return" idiom) consumes the previous iteration's result before
// advancing the cursor.
func (p *Processor) doDistribute(startPC, target, fallthroughPC int) int {
	if p.frame.Distributive == nil {
		p.frame.Distributive = newLoopCursor(p.pop())
	} else {
		iterResult := p.pop()
		if !iterResult.IsNever() {
			p.frame.Distributive.results = append(p.frame.Distributive.results, iterResult)
		}
	}
	cursor := p.frame.Distributive
	cand, ok := cursor.next()
	if !ok {
		results := cursor.results
		p.frame.Distributive = nil
		p.push(buildUnion(results))
		return fallthroughPC
	}
	p.push(cand)
	p.enterCall(target, startPC)
	return target
}

// doMappedType implements `{ [K in Keys]: F(K) }`: identical loop-by-return
// shape to doDistribute, but the mapper's own result gets classified into a
// property-signature or index-signature member (per whether the key that
// produced it was a literal) instead of being unioned.
func (p *Processor) doMappedType(startPC, functionPointer, modifier, fallthroughPC int) int {
	if p.frame.Mapped == nil {
		p.frame.Mapped = newLoopCursor(p.pop())
	} else {
		produced := p.pop()
		if !produced.IsNever() {
			member := buildMappedMember(p.frame.Mapped.lastKey, produced, modifier)
			p.frame.Mapped.results = append(p.frame.Mapped.results, member)
		}
	}
	cursor := p.frame.Mapped
	key, ok := cursor.next()
	if !ok {
		members := cursor.results
		p.frame.Mapped = nil
		p.push(&Node{Kind: KindObjectLiteral, Properties: members})
		return fallthroughPC
	}
	cursor.lastKey = key
	p.push(key)
	p.enterCall(functionPointer, startPC)
	return functionPointer
}

// ---------------------------------------------------------------------------
// Free helper functions
// ---------------------------------------------------------------------------

func truthy(n *Node) bool {
	if n == nil || n.Kind != KindLiteral {
		return false
	}
	b, ok := n.Literal.(bool)
	return ok && b
}

func setAnnotation(n *Node, key string, val any) {
	if n.Annotations == nil {
		n.Annotations = make(map[string]any)
	}
	n.Annotations[key] = val
}

// wrapTop replaces the top-of-stack slot with a freshly allocated kind
// wrapper around the current top and returns the wrapper. The wrapped node
// itself is never modified, so a shared singleton on top stays intact.
func (p *Processor) wrapTop(kind Kind) *Node {
	w := &Node{Kind: kind, Elem: p.top()}
	p.setAt(p.sp, w)
	return w
}

func wrapTupleAdjectives(members []*Node) []*Node {
	out := make([]*Node, len(members))
	for i, m := range members {
		if m.Kind == KindTupleMember || m.Kind == KindRest {
			out[i] = m
		} else {
			out[i] = &Node{Kind: KindTupleMember, Elem: m}
		}
	}
	return out
}

func normalizeMembers(members []*Node) []*Node {
	out := make([]*Node, 0, len(members))
	for _, m := range members {
		switch m.Kind {
		case KindProperty, KindPropertySignature, KindMethod, KindMethodSignature, KindIndexSignature:
			out = append(out, m)
		}
	}
	return out
}

func extractConstructorParams(props []*Node) []*Node {
	var extra []*Node
	for _, m := range props {
		if m.Kind != KindMethod || m.Name != "constructor" {
			continue
		}
		for _, param := range m.Parameters {
			if !param.HasVisibility {
				continue
			}
			extra = append(extra, &Node{
				Kind:          KindProperty,
				Name:          param.Name,
				Return:        param.Return,
				Visibility:    param.Visibility,
				HasVisibility: true,
				Readonly:      param.Readonly,
				Optional:      param.Optional,
			})
		}
	}
	return extra
}

func cloneNodes(ns []*Node) []*Node {
	if ns == nil {
		return nil
	}
	out := make([]*Node, len(ns))
	copy(out, ns)
	return out
}

func buildMappedMember(key, valueType *Node, modifier int) *Node {
	var member *Node
	if key != nil && key.Kind == KindLiteral {
		name, _ := key.Literal.(string)
		member = &Node{Kind: KindPropertySignature, Name: name, Return: valueType}
	} else {
		member = &Node{Kind: KindIndexSignature, Index: key, Return: valueType}
	}
	if modifier&mappedAddOptional != 0 {
		member.Optional = true
	}
	if modifier&mappedRemoveOptional != 0 {
		member.Optional = false
	}
	if modifier&mappedAddReadonly != 0 {
		member.Readonly = true
	}
	if modifier&mappedRemoveReadonly != 0 {
		member.Readonly = false
	}
	return member
}

func buildEnumNode(raw any) *Node {
	node := &Node{Kind: KindEnum, EnumMembers: map[string]float64{}}
	next := 0.0
	switch src := raw.(type) {
	case EnumSource:
		for _, e := range src() {
			v := next
			if e.Value != nil {
				v = *e.Value
			}
			node.EnumMembers[e.Name] = v
			node.EnumOrder = append(node.EnumOrder, e.Name)
			next = v + 1
		}
	case map[string]float64:
		for name, v := range src {
			node.EnumMembers[name] = v
			node.EnumOrder = append(node.EnumOrder, name)
			next = v + 1
		}
	case []string:
		for _, name := range src {
			node.EnumMembers[name] = next
			node.EnumOrder = append(node.EnumOrder, name)
			next++
		}
	}
	return node
}

func buildIntersection(members []*Node) *Node {
	var primitives, mergeCandidates []*Node
	var decorators []string
	for _, m := range members {
		switch {
		case IsDecoratorLiteral(m):
			decorators = append(decorators, decoratorName(m))
		case m.Kind == KindObjectLiteral || m.Kind == KindClass:
			mergeCandidates = append(mergeCandidates, m)
		default:
			primitives = append(primitives, m)
		}
	}

	var result *Node
	switch {
	case len(primitives) > 0:
		result = primitives[0].clone()
		if len(mergeCandidates) > 0 {
			setAnnotation(result, "intersectionMembers", Merge(mergeCandidates))
		}
	case len(mergeCandidates) > 0:
		result = Merge(mergeCandidates)
	default:
		result = NeverNode.clone()
	}
	if len(decorators) > 0 {
		result.Decorators = append(result.Decorators, decorators...)
	}
	return result
}

// IsDecoratorLiteral is a registration point a host can override to teach
// the intersection opcode which object-literal operands are actually
// decorator applications rather than structural merge candidates. RVM
// itself has no concept of decorator syntax, so the default never matches.
var IsDecoratorLiteral = func(n *Node) bool { return false }

func decoratorName(n *Node) string {
	if n.TypeName != "" {
		return n.TypeName
	}
	if name, ok := n.Annotations["name"].(string); ok {
		return name
	}
	return ""
}

func buildTemplateCombo(combo []*Node) *Node {
	var merged []*Node
	var buf string
	hasBuf := false
	flush := func() {
		if hasBuf {
			merged = append(merged, newLiteral(buf))
			buf, hasBuf = "", false
		}
	}
	allLiteralStrings := true
	for _, part := range combo {
		if part.Kind == KindLiteral {
			if s, ok := part.Literal.(string); ok {
				if intr, ok2 := part.Annotations["intrinsic"].(TemplateIntrinsic); ok2 {
					s = applyIntrinsic(intr, s)
				}
				buf += s
				hasBuf = true
				continue
			}
		}
		allLiteralStrings = false
		flush()
		merged = append(merged, part)
	}
	flush()
	if allLiteralStrings {
		return newLiteral(buf)
	}
	if len(merged) == 1 {
		return merged[0]
	}
	return &Node{Kind: KindTemplateLiteral, Types: merged}
}

func buildTemplateLiteral(parts []*Node) *Node {
	slots := make([][]*Node, len(parts))
	for i, part := range parts {
		if part.Kind == KindUnion {
			slots[i] = part.Types
		} else {
			slots[i] = []*Node{part}
		}
	}
	combos := CartesianProduct(slots)
	results := make([]*Node, len(combos))
	for i, combo := range combos {
		results[i] = buildTemplateCombo(combo)
	}
	return buildUnion(results)
}

func matchInferSites(left, right *Node) map[*InferSetter]*Node {
	out := map[*InferSetter]*Node{}
	var walk func(l, r *Node)
	walk = func(l, r *Node) {
		if r == nil {
			return
		}
		if r.Kind == KindInfer {
			if r.InferSetter != nil {
				out[r.InferSetter] = l
			}
			return
		}
		if l == nil {
			return
		}
		switch r.Kind {
		case KindArray:
			if l.Kind == KindArray {
				walk(l.Elem, r.Elem)
			}
		case KindPromise:
			if l.Kind == KindPromise {
				walk(l.Elem, r.Elem)
			}
		case KindTuple:
			if l.Kind == KindTuple {
				for i, rm := range r.Members {
					if i < len(l.Members) {
						walk(memberElem(l.Members[i]), memberElem(rm))
					}
				}
			}
		case KindObjectLiteral, KindClass:
			if l.Kind == KindObjectLiteral || l.Kind == KindClass {
				for _, rp := range r.Properties {
					for _, lp := range l.Properties {
						if lp.Name == rp.Name {
							walk(propertyType(lp), propertyType(rp))
						}
					}
				}
			}
		case KindUnion:
			for _, rt := range r.Types {
				walk(l, rt)
			}
		}
	}
	walk(left, right)
	return out
}
