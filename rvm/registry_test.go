package rvm

import "testing"

func TestResolveTypeOfBareProgramArray(t *testing.T) {
	// "handle... is itself a program array": a raw []any, the shape a
	// JSON-decoded handle arrives in.
	handle := []any{"x", "("} // OpNever
	got, err := ResolveTypeOf(NewRegistry(), handle, nil)
	if err != nil {
		t.Fatalf("ResolveTypeOf failed: %v", err)
	}
	if !got.IsNever() {
		t.Errorf("got %v, want never", got)
	}
}

func TestResolveTypeOfHandleWithEmbeddedTypeProperty(t *testing.T) {
	// "handle carries its program under __type": a map with a "__type" key,
	// the shape a JSON-decoded class/function record arrives in.
	handle := map[string]any{
		"name":   "Widget",
		"__type": []any{","}, // OpAny
	}
	got, err := ResolveTypeOf(NewRegistry(), handle, nil)
	if err != nil {
		t.Fatalf("ResolveTypeOf failed: %v", err)
	}
	if got != AnyNode {
		t.Errorf("got %v, want AnyNode", got)
	}
}

func TestResolveTypeOfTypeCarrier(t *testing.T) {
	program := &PackedProgram{Ops: []Opcode{OpString}}
	handle := carrierStub{embedded: program}
	got, err := ResolveTypeOf(NewRegistry(), handle, nil)
	if err != nil {
		t.Fatalf("ResolveTypeOf failed: %v", err)
	}
	if got != StringNode {
		t.Errorf("got %v, want StringNode", got)
	}
}

func TestResolveTypeOfMissingTypePropertyFails(t *testing.T) {
	_, err := ResolveTypeOf(NewRegistry(), map[string]any{"name": "Widget"}, nil)
	if err == nil {
		t.Fatal("expected an error for a handle with no __type property")
	}
}

type carrierStub struct{ embedded *PackedProgram }

func (c carrierStub) EmbeddedType() *PackedProgram { return c.embedded }
