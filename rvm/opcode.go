package rvm

import "fmt"

// Opcode is a single RVM instruction. Values are stable across releases:
// the compile-time transformer that emits Packed Programs encodes each
// opcode as the character `rune(int(op) + 33)`, so renumbering an opcode
// here is a wire-format break.
type Opcode int

// The enumeration order below is dictated by spec.md's opcode-family list,
// not by convenience of grouping: it must match the compile-time
// transformer's own ordering exactly, since opcode identity is positional
// (iota-based) and wire-encoded as char = opcode + 33.
const (
	// Primitive kinds. Each pushes a shared singleton node; none reads the
	// literal pool or consumes stack.
	OpString Opcode = iota
	OpNumber
	OpBoolean
	OpBigInt
	OpVoid
	OpUnknown
	OpObject
	OpNever
	OpUndefined
	OpSymbol
	OpNull
	OpAny

	OpLiteral         // (poolIndex) push a literal node
	OpTemplateLiteral
	OpRegExp
	OpDate

	// Typed-array and buffer opcodes: pre-canonicalized nodes for built-in
	// runtime classes.
	OpUint8Array
	OpUint8ClampedArray
	OpInt8Array
	OpUint16Array
	OpInt16Array
	OpUint32Array
	OpInt32Array
	OpFloat32Array
	OpFloat64Array
	OpBigInt64Array
	OpArrayBuffer

	OpClass          // finalize frame into a class (or resultType)
	OpParameter      // (poolIndex name) pop type, build parameter
	OpClassReference // (poolIndex) resolve class thunk, pop frame as args
	OpEnum           // (poolIndex) resolve enum-like value, push enum node
	OpEnumMember     // internal use only, never emitted at top level

	OpTuple            // finalize frame into a tuple
	OpTupleMember      // adjective: mark top-of-stack as a tuple member
	OpNamedTupleMember // (poolIndex name) adjective
	OpRest             // adjective

	OpSet     // pop 1
	OpMap     // pop 2
	OpPromise

	OpUnion
	OpIntersection
	OpFunction // (poolIndex name) pop frame, build function
	OpArray    // pop 1, wrap as array element

	OpProperty          // (poolIndex name) pop type, build property
	OpPropertySignature // (poolIndex name) pop type, build propertySignature
	OpMethod            // (poolIndex name) pop frame, build method
	OpMethodSignature   // (poolIndex name) pop frame, build methodSignature

	OpOptional  // adjective
	OpReadonly  // adjective
	OpPublic    // adjective
	OpProtected // adjective
	OpPrivate   // adjective
	OpAbstract  // adjective

	OpDefaultValue // (poolIndex) adjective: set Default on top-of-stack
	OpDescription  // (poolIndex) adjective: set Description on top-of-stack

	OpIndexSignature // pop value type, pop index type
	OpObjectLiteral  // finalize frame into an objectLiteral (or resultType)

	OpDistribute    // (target) distributive conditional loop entry
	OpCondition     // pop a frame, then cond; push selected branch
	OpJumpCondition // (targetIfTrue, targetIfFalse) pop bool, call the chosen target

	OpInfer  // (frameOffset, slot)
	OpExtends
	OpIndexAccess
	OpTypeOf // (poolIndex) invoke runtime-value thunk, push typeInfer(value)
	OpKeyOf
	OpVar     // push never, grow frame.variables
	OpMappedType // (functionPointer, modifier)
	OpLoads   // (frameOffset, slot) walk frame chain and push
	OpArg     // (n) push stack[frame.startIndex-n]

	OpReturn
	OpFrame
	OpMoveFrame
	OpJump // (target)
	OpCall // (target)

	OpInline     // (poolIndex) inline referenced program's type
	OpInlineCall // (poolIndex, argCount) inline with explicit type args

	OpNumberBrand // (poolIndex brand)

	OpTypeParameter        // (poolIndex name) consume next frame.Inputs slot
	OpTypeParameterDefault // (poolIndex name) consume-or-default
	OpTemplate             // alias of OpTypeParameter, for compile output

	opcodeCount
)

// opcodeInfo describes one opcode's decode shape, mirroring the teacher's
// OpcodeInfo/opcodeTable split between "what does this instruction look
// like" and "what does it do".
type opcodeInfo struct {
	Name         string
	OperandCount int // number of following stream slots that are immediates, not opcodes
}

var opcodeTable = [opcodeCount]opcodeInfo{
	OpString:  {"string", 0},
	OpNumber:  {"number", 0},
	OpBoolean: {"boolean", 0},
	OpBigInt:  {"bigint", 0},
	OpVoid:    {"void", 0},
	OpUnknown: {"unknown", 0},
	OpObject:  {"object", 0},
	OpNever:   {"never", 0},
	OpUndefined: {"undefined", 0},
	OpSymbol:  {"symbol", 0},
	OpNull:    {"null", 0},
	OpAny:     {"any", 0},

	OpLiteral:         {"literal", 1},
	OpTemplateLiteral: {"templateLiteral", 0},
	OpRegExp:          {"regexp", 0},
	OpDate:            {"date", 0},

	OpUint8Array:        {"uint8Array", 0},
	OpUint8ClampedArray: {"uint8ClampedArray", 0},
	OpInt8Array:         {"int8Array", 0},
	OpUint16Array:       {"uint16Array", 0},
	OpInt16Array:        {"int16Array", 0},
	OpUint32Array:       {"uint32Array", 0},
	OpInt32Array:        {"int32Array", 0},
	OpFloat32Array:      {"float32Array", 0},
	OpFloat64Array:      {"float64Array", 0},
	OpBigInt64Array:     {"bigInt64Array", 0},
	OpArrayBuffer:       {"arrayBuffer", 0},

	OpClass:          {"class", 0},
	OpParameter:      {"parameter", 1},
	OpClassReference: {"classReference", 1},
	OpEnum:           {"enum", 1},
	OpEnumMember:     {"enumMember", 0},

	OpTuple:            {"tuple", 0},
	OpTupleMember:      {"tupleMember", 0},
	OpNamedTupleMember: {"namedTupleMember", 1},
	OpRest:             {"rest", 0},

	OpSet:     {"set", 0},
	OpMap:     {"map", 0},
	OpPromise: {"promise", 0},

	OpUnion:        {"union", 0},
	OpIntersection: {"intersection", 0},
	OpFunction:     {"function", 1},
	OpArray:        {"array", 0},

	OpProperty:          {"property", 1},
	OpPropertySignature: {"propertySignature", 1},
	OpMethod:            {"method", 1},
	OpMethodSignature:   {"methodSignature", 1},

	OpOptional:  {"optional", 0},
	OpReadonly:  {"readonly", 0},
	OpPublic:    {"public", 0},
	OpProtected: {"protected", 0},
	OpPrivate:   {"private", 0},
	OpAbstract:  {"abstract", 0},

	OpDefaultValue: {"defaultValue", 1},
	OpDescription:  {"description", 1},

	OpIndexSignature: {"indexSignature", 0},
	OpObjectLiteral:  {"objectLiteral", 0},

	OpDistribute:    {"distribute", 1},
	OpCondition:     {"condition", 0},
	OpJumpCondition: {"jumpCondition", 2},

	OpInfer:       {"infer", 2},
	OpExtends:     {"extends", 0},
	OpIndexAccess: {"indexAccess", 0},
	OpTypeOf:      {"typeof", 1},
	OpKeyOf:       {"keyof", 0},
	OpVar:         {"var", 0},
	OpMappedType:  {"mappedType", 2},
	OpLoads:       {"loads", 2},
	OpArg:         {"arg", 1},

	OpReturn:    {"return", 0},
	OpFrame:     {"frame", 0},
	OpMoveFrame: {"moveFrame", 0},
	OpJump:      {"jump", 1},
	OpCall:      {"call", 1},

	OpInline:     {"inline", 1},
	OpInlineCall: {"inlineCall", 2},

	OpNumberBrand: {"numberBrand", 1},

	OpTypeParameter:        {"typeParameter", 1},
	OpTypeParameterDefault: {"typeParameterDefault", 1},
	OpTemplate:             {"template", 1},
}

func (op Opcode) info() opcodeInfo {
	if op < 0 || int(op) >= len(opcodeTable) {
		return opcodeInfo{Name: fmt.Sprintf("UNKNOWN_%d", int(op))}
	}
	return opcodeTable[op]
}

// Name returns the human-readable opcode mnemonic.
func (op Opcode) Name() string { return op.info().Name }

// OperandCount returns how many following stream slots are immediate
// operands rather than further opcodes.
func (op Opcode) OperandCount() int { return op.info().OperandCount }

func (op Opcode) String() string { return op.Name() }

func (op Opcode) valid() bool { return op >= 0 && int(op) < len(opcodeTable) }

// Instruction is one decoded, disassembled instruction: an opcode plus its
// immediate operands (if any), and the stream index it started at.
type Instruction struct {
	Index    int
	Op       Opcode
	Operands []int
}

// Disassemble walks a decoded opcode stream and groups it into
// Instructions, consuming each opcode's OperandCount as immediates. This
// mirrors the teacher's DisassembleInstruction/Disassemble split, adapted
// to a stream of ints instead of a byte buffer.
func Disassemble(ops []Opcode) []Instruction {
	var out []Instruction
	for i := 0; i < len(ops); {
		op := ops[i]
		n := op.OperandCount()
		operands := make([]int, 0, n)
		for k := 1; k <= n && i+k < len(ops); k++ {
			operands = append(operands, int(ops[i+k]))
		}
		out = append(out, Instruction{Index: i, Op: op, Operands: operands})
		i += 1 + n
	}
	return out
}

func (ins Instruction) String() string {
	if len(ins.Operands) == 0 {
		return fmt.Sprintf("%04d  %s", ins.Index, ins.Op.Name())
	}
	return fmt.Sprintf("%04d  %s %v", ins.Index, ins.Op.Name(), ins.Operands)
}
