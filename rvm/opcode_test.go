package rvm

import "testing"

func TestDisassembleGroupsImmediateOperands(t *testing.T) {
	// literal(0), then property("x") pop's a type and reads pool index 1.
	ops := []Opcode{OpLiteral, 0, OpProperty, 1}
	instr := Disassemble(ops)

	if len(instr) != 2 {
		t.Fatalf("len(instr) = %d, want 2", len(instr))
	}
	if instr[0].Op != OpLiteral || len(instr[0].Operands) != 1 || instr[0].Operands[0] != 0 {
		t.Errorf("instr[0] = %+v, want literal(0)", instr[0])
	}
	if instr[1].Index != 2 {
		t.Errorf("instr[1].Index = %d, want 2", instr[1].Index)
	}
	if instr[1].Op != OpProperty || instr[1].Operands[0] != 1 {
		t.Errorf("instr[1] = %+v, want property(1)", instr[1])
	}
}

func TestOpcodeNameAndOperandCount(t *testing.T) {
	if OpUnion.Name() != "union" {
		t.Errorf("OpUnion.Name() = %q, want %q", OpUnion.Name(), "union")
	}
	if OpMappedType.OperandCount() != 2 {
		t.Errorf("OpMappedType.OperandCount() = %d, want 2", OpMappedType.OperandCount())
	}
	if !OpCall.valid() {
		t.Error("OpCall.valid() = false, want true")
	}
	if Opcode(-1).valid() || Opcode(opcodeCount).valid() {
		t.Error("out-of-range opcodes should not be valid")
	}
}
