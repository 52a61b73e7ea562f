package rvm

import "testing"

func TestDecodeOpcodeString(t *testing.T) {
	// '!' (33) decodes to opcode 0 (OpString); '"' (34) decodes to opcode 1 (OpNumber).
	ops := decodeOpcodeString("!\"")
	if len(ops) != 2 {
		t.Fatalf("len(ops) = %d, want 2", len(ops))
	}
	if ops[0] != OpString || ops[1] != OpNumber {
		t.Errorf("ops = %v, want [OpString OpNumber]", ops)
	}
}

func TestDecodeProgramSplitsPoolFromOps(t *testing.T) {
	raw := RawProgram{"hello", 42.0, true, "!"}
	p := DecodeProgram(raw)

	if len(p.Pool) != 3 {
		t.Fatalf("len(Pool) = %d, want 3", len(p.Pool))
	}
	if p.Pool[0].Kind != PoolString || p.Pool[0].Str != "hello" {
		t.Errorf("Pool[0] = %+v, want string %q", p.Pool[0], "hello")
	}
	if p.Pool[1].Kind != PoolNumber || p.Pool[1].Num != 42.0 {
		t.Errorf("Pool[1] = %+v, want number 42", p.Pool[1])
	}
	if p.Pool[2].Kind != PoolBool || p.Pool[2].Bool != true {
		t.Errorf("Pool[2] = %+v, want bool true", p.Pool[2])
	}
	if len(p.Ops) != 1 || p.Ops[0] != OpString {
		t.Errorf("Ops = %v, want [OpString]", p.Ops)
	}
}

func TestDecodeProgramNoOpcodeStringIsNotAnError(t *testing.T) {
	raw := RawProgram{"a", 2.0}
	p := DecodeProgram(raw)
	if len(p.Ops) != 0 {
		t.Errorf("Ops = %v, want empty since no trailing opcode string was present", p.Ops)
	}
	if len(p.Pool) != 2 {
		t.Errorf("len(Pool) = %d, want 2", len(p.Pool))
	}
}

func TestNestedRawProgramDecodesToProgramEntry(t *testing.T) {
	nested := RawProgram{"x", "!"} // trailing "!" decodes to OpString
	raw := RawProgram{nested, "!"}
	p := DecodeProgram(raw)

	if p.Pool[0].Kind != PoolProgram || p.Pool[0].Program == nil {
		t.Fatalf("Pool[0] = %+v, want a nested PoolProgram entry", p.Pool[0])
	}
	if len(p.Pool[0].Program.Pool) != 1 || p.Pool[0].Program.Pool[0].Str != "x" {
		t.Errorf("nested program pool = %+v, want [\"x\"]", p.Pool[0].Program.Pool)
	}
}
