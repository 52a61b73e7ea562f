package rvm

import "testing"

func TestFlattenUnionTypesDropsNeverAndInlinesNested(t *testing.T) {
	inner := newUnion([]*Node{StringNode, NeverNode})
	flat := FlattenUnionTypes([]*Node{inner, BooleanNode, NeverNode})
	if len(flat) != 2 {
		t.Fatalf("flat = %v, want 2 members", flat)
	}
	if flat[0] != StringNode || flat[1] != BooleanNode {
		t.Errorf("flat = %v, want [StringNode BooleanNode]", flat)
	}
}

func TestBuildUnionUnboxesSingleMember(t *testing.T) {
	got := buildUnion([]*Node{StringNode, NeverNode})
	if got != StringNode {
		t.Errorf("buildUnion([string, never]) = %v, want the bare StringNode", got)
	}
}

func TestBuildUnionOfAllNeverIsNever(t *testing.T) {
	got := buildUnion([]*Node{NeverNode, NeverNode})
	if !got.IsNever() {
		t.Errorf("buildUnion([never, never]) = %v, want never", got)
	}
}

func TestIsExtendablePrimitives(t *testing.T) {
	cases := []struct {
		name        string
		left, right *Node
		want        bool
	}{
		{"string extends any", StringNode, AnyNode, true},
		{"never extends string", NeverNode, StringNode, true},
		{"string extends never", StringNode, NeverNode, false},
		{"literal extends its widened primitive", newLiteral("a"), StringNode, true},
		{"string does not extend a literal", StringNode, newLiteral("a"), false},
		{"matching literals extend each other", newLiteral("a"), newLiteral("a"), true},
		{"different literals don't extend", newLiteral("a"), newLiteral("b"), false},
		{"boolean does not extend number", BooleanNode, NumberNode, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsExtendable(c.left, c.right); got != c.want {
				t.Errorf("IsExtendable(%v, %v) = %v, want %v", c.left, c.right, got, c.want)
			}
		})
	}
}

func TestIsExtendableUnionDistributesOverLeft(t *testing.T) {
	u := newUnion([]*Node{newLiteral("a"), newLiteral("b")})
	if !IsExtendable(u, StringNode) {
		t.Error("(\"a\" | \"b\") extends string should be true")
	}
	if IsExtendable(u, newLiteral("a")) {
		t.Error("(\"a\" | \"b\") extends \"a\" should be false since \"b\" doesn't match")
	}
}

func TestIndexAccessOKTuple(t *testing.T) {
	tup := newTuple([]*Node{
		{Kind: KindTupleMember, Elem: StringNode},
		{Kind: KindTupleMember, Elem: NumberNode},
	})
	result, ok := IndexAccessOK(tup, newLiteral(1.0))
	if !ok {
		t.Fatal("tuple should be indexable")
	}
	if result != NumberNode {
		t.Errorf("tup[1] = %v, want NumberNode", result)
	}
}

func TestIndexAccessOKObjectLiteralMissingMemberIsNeverNotError(t *testing.T) {
	obj := &Node{Kind: KindObjectLiteral, Properties: []*Node{
		{Kind: KindPropertySignature, Name: "x", Return: StringNode},
	}}
	result, ok := IndexAccessOK(obj, newLiteral("y"))
	if !ok {
		t.Fatal("object literal should be indexable")
	}
	if !result.IsNever() {
		t.Errorf("obj[\"y\"] = %v, want never", result)
	}
}

func TestIndexAccessOKPrimitiveBaseIsNotIndexable(t *testing.T) {
	_, ok := IndexAccessOK(StringNode, newLiteral(0.0))
	if ok {
		t.Error("a bare string type should not be reported as indexable")
	}
}

func TestCartesianProduct(t *testing.T) {
	slots := [][]*Node{
		{StringNode, NumberNode},
		{BooleanNode},
	}
	combos := CartesianProduct(slots)
	if len(combos) != 2 {
		t.Fatalf("len(combos) = %d, want 2", len(combos))
	}
	if combos[0][0] != StringNode || combos[0][1] != BooleanNode {
		t.Errorf("combos[0] = %v", combos[0])
	}
	if combos[1][0] != NumberNode || combos[1][1] != BooleanNode {
		t.Errorf("combos[1] = %v", combos[1])
	}
}

func TestTypeInferLiteralsAndSlices(t *testing.T) {
	if got := TypeInfer("hi"); got.Kind != KindLiteral || got.Literal != "hi" {
		t.Errorf("TypeInfer(\"hi\") = %v", got)
	}
	got := TypeInfer([]string{"a", "b"})
	if got.Kind != KindTuple || len(got.Members) != 2 {
		t.Fatalf("TypeInfer([]string) = %v, want a 2-member tuple", got)
	}
}
