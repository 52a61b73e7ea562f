package rvm

import "reflect"

// FlattenUnionTypes recursively inlines nested unions into a single member
// list and drops never, exactly as a union opcode expects its operand list
// prepared. Order is preserved except for the dropped never members.
func FlattenUnionTypes(types []*Node) []*Node {
	out := make([]*Node, 0, len(types))
	for _, t := range types {
		if t == nil || t.IsNever() {
			continue
		}
		if t.Kind == KindUnion {
			out = append(out, FlattenUnionTypes(t.Types)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

// UnboxUnion returns u.Types[0] if u is a single-member union, NeverNode if
// u is a union with zero members, and u itself otherwise.
func UnboxUnion(u *Node) *Node {
	if u == nil || u.Kind != KindUnion {
		return u
	}
	switch len(u.Types) {
	case 0:
		return NeverNode
	case 1:
		return u.Types[0]
	default:
		return u
	}
}

// buildUnion is the shared "flatten, wrap, unbox" sequence every opcode
// that produces a union (union, distribute, templateLiteral, keyof) runs.
func buildUnion(members []*Node) *Node {
	flat := FlattenUnionTypes(members)
	if len(flat) == 0 {
		return NeverNode
	}
	return UnboxUnion(newUnion(flat))
}

// NarrowOriginalLiteral is the identity function unless t is a widening
// candidate produced internally by the machine (a bare literal wrapper with
// no caller-visible provenance). RVM never widens a literal the caller
// explicitly pushed; this hook exists so Run's return path has a single
// place to apply that rule, per spec.md §2's "top-of-stack narrowed by
// literal widening rules before being returned".
func NarrowOriginalLiteral(t *Node) *Node { return t }

// IsExtendable implements the structural half of `T extends U`: primitive
// subtyping, literal-to-primitive widening comparisons, and structural
// checks for tuples/arrays/object-literals/classes. A union on the left
// extends right only when every one of its members does. Distributing a
// conditional type over a union, one result per member, is the distribute
// opcode's job, not this function's.
func IsExtendable(left, right *Node) bool {
	if left == nil || right == nil {
		return false
	}
	switch right.Kind {
	case KindAny, KindUnknown:
		return true
	case KindNever:
		return left.Kind == KindNever
	case KindInfer:
		// An infer placeholder always matches structurally; binding the
		// inference variable to left is matchInferSites's job, run by the
		// caller once IsExtendable has already returned true.
		return true
	}
	if left.Kind == KindNever {
		return true
	}
	if left.Kind == KindAny {
		return true
	}

	if left.Kind == KindUnion {
		for _, m := range left.Types {
			if !IsExtendable(m, right) {
				return false
			}
		}
		return true
	}

	switch right.Kind {
	case KindLiteral:
		return left.Kind == KindLiteral && literalEqual(left.Literal, right.Literal)
	case KindString:
		return left.Kind == KindString || (left.Kind == KindLiteral && isStringLiteral(left.Literal))
	case KindNumber:
		return left.Kind == KindNumber || (left.Kind == KindLiteral && isNumberLiteral(left.Literal))
	case KindBoolean:
		return left.Kind == KindBoolean || (left.Kind == KindLiteral && isBoolLiteral(left.Literal))
	case KindBigInt:
		return left.Kind == KindBigInt
	case KindObject:
		return isObjectLike(left.Kind)
	}

	switch {
	case left.Kind == KindArray && right.Kind == KindArray:
		return IsExtendable(left.Elem, right.Elem)
	case left.Kind == KindTuple && right.Kind == KindTuple:
		return tupleExtends(left, right)
	case (left.Kind == KindObjectLiteral || left.Kind == KindClass) &&
		(right.Kind == KindObjectLiteral || right.Kind == KindClass):
		return cueSubsume(left, right)
	case left.Kind == right.Kind:
		return true
	}
	return false
}

func isObjectLike(k Kind) bool {
	switch k {
	case KindObject, KindObjectLiteral, KindClass, KindArray, KindTuple, KindFunction:
		return true
	default:
		return false
	}
}

func tupleExtends(left, right *Node) bool {
	if len(left.Members) < requiredTupleLen(right) {
		return false
	}
	for i, rm := range right.Members {
		if i >= len(left.Members) {
			return rm.Optional
		}
		if !IsExtendable(memberElem(left.Members[i]), memberElem(rm)) {
			return false
		}
	}
	return true
}

func requiredTupleLen(t *Node) int {
	n := 0
	for _, m := range t.Members {
		if m.Optional || m.Kind == KindRest {
			break
		}
		n++
	}
	return n
}

func memberElem(m *Node) *Node {
	if m.Kind == KindTupleMember || m.Kind == KindRest {
		return m.Elem
	}
	return m
}

func literalEqual(a, b any) bool { return a == b }

func isStringLiteral(v any) bool { _, ok := v.(string); return ok }
func isNumberLiteral(v any) bool { _, ok := v.(float64); return ok }
func isBoolLiteral(v any) bool   { _, ok := v.(bool); return ok }

// IndexAccess implements `T[K]`. An index that doesn't resolve against the
// base's member list downgrades to never (per spec.md §7,
// RVMUnresolvedIndex only ever fires when the base isn't indexable at all —
// that case is reported by the caller via IndexAccessOK).
func IndexAccess(base, index *Node) *Node {
	result, _ := IndexAccessOK(base, index)
	return result
}

// IndexAccessOK is IndexAccess plus an explicit "was the base indexable at
// all" flag, used by the processor to decide whether an unresolved index is
// a silent never or an RVMUnresolvedIndex.
func IndexAccessOK(base, index *Node) (*Node, bool) {
	if base == nil {
		return NeverNode, false
	}
	switch base.Kind {
	case KindArray:
		if index.Kind == KindNumber || (index.Kind == KindLiteral && isNumberLiteral(index.Literal)) {
			return base.Elem, true
		}
		return NeverNode, true
	case KindTuple:
		if index.Kind == KindLiteral {
			if n, ok := index.Literal.(float64); ok {
				i := int(n)
				if i >= 0 && i < len(base.Members) {
					return memberElem(base.Members[i]), true
				}
			}
		}
		return NeverNode, true
	case KindObjectLiteral, KindClass:
		if index.Kind != KindLiteral {
			return NeverNode, true
		}
		name, ok := index.Literal.(string)
		if !ok {
			return NeverNode, true
		}
		for _, p := range base.Properties {
			if p.Name == name {
				return propertyType(p), true
			}
		}
		return NeverNode, true
	default:
		return NeverNode, false
	}
}

func propertyType(p *Node) *Node {
	switch p.Kind {
	case KindProperty, KindPropertySignature, KindParameter:
		return p.Return
	case KindMethod, KindMethodSignature:
		return &Node{Kind: KindFunction, Parameters: p.Parameters, Return: p.Return}
	default:
		return NeverNode
	}
}

// Merge implements the structural intersection merge for object-literal and
// class operands: a member present in more than one input is retained once.
// Its definitions are combined by CUE unification (see cue_extends.go), so a
// required field wins over an optional one; if unification fails, each
// member keeps the definition from the first input that has it.
func Merge(nodes []*Node) *Node {
	if len(nodes) == 0 {
		return &Node{Kind: KindObjectLiteral}
	}
	if len(nodes) == 1 {
		return nodes[0]
	}
	return cueMerge(nodes)
}

// CartesianProduct accumulates a list of "slots", each either a fixed
// single value or a set of alternatives (a union), into every combination.
// templateLiteral uses this to enumerate all placeholder substitutions.
func CartesianProduct(slots [][]*Node) [][]*Node {
	if len(slots) == 0 {
		return [][]*Node{{}}
	}
	rest := CartesianProduct(slots[1:])
	out := make([][]*Node, 0, len(slots[0])*len(rest))
	for _, choice := range slots[0] {
		for _, tail := range rest {
			combo := make([]*Node, 0, 1+len(tail))
			combo = append(combo, choice)
			combo = append(combo, tail...)
			out = append(out, combo)
		}
	}
	return out
}

// TypeInfer maps a runtime Go value to the Type IR node that best describes
// it, backing the typeof opcode. Protobuf messages are handled specially
// (see protoinfer.go) since they carry their own structural descriptors;
// everything else falls back to reflection.
func TypeInfer(value any) *Node {
	if node, ok := protoTypeInfer(value); ok {
		return node
	}
	if value == nil {
		return UndefinedNode
	}
	switch v := value.(type) {
	case string:
		return newLiteral(v)
	case bool:
		return newLiteral(v)
	case float64:
		return newLiteral(v)
	case int:
		return newLiteral(float64(v))
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return newLiteral(rv.String())
	case reflect.Bool:
		return newLiteral(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return newLiteral(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return newLiteral(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return newLiteral(rv.Float())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return newArray(NeverNode)
		}
		members := make([]*Node, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			members = append(members, TypeInfer(rv.Index(i).Interface()))
		}
		return newTuple(wrapTupleMembers(members))
	case reflect.Map:
		props := make([]*Node, 0, rv.Len())
		for _, key := range rv.MapKeys() {
			props = append(props, &Node{
				Kind: KindPropertySignature,
				Name: keyString(key),
				Return: TypeInfer(rv.MapIndex(key).Interface()),
			})
		}
		return &Node{Kind: KindObjectLiteral, Properties: props}
	case reflect.Struct:
		return structTypeInfer(rv)
	case reflect.Ptr:
		if rv.IsNil() {
			return NullNode
		}
		return TypeInfer(rv.Elem().Interface())
	default:
		return UnknownNode
	}
}

func keyString(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return reflectString(v)
}

func reflectString(v reflect.Value) string {
	iv := v.Interface()
	if s, ok := iv.(string); ok {
		return s
	}
	return "" // non-string map keys are rare enough in this domain to not warrant fmt.Sprintf overhead here
}

func structTypeInfer(rv reflect.Value) *Node {
	t := rv.Type()
	props := make([]*Node, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		props = append(props, &Node{
			Kind:   KindPropertySignature,
			Name:   f.Name,
			Return: TypeInfer(rv.Field(i).Interface()),
		})
	}
	return &Node{Kind: KindObjectLiteral, Properties: props}
}

func wrapTupleMembers(elems []*Node) []*Node {
	out := make([]*Node, len(elems))
	for i, e := range elems {
		out[i] = &Node{Kind: KindTupleMember, Elem: e}
	}
	return out
}
