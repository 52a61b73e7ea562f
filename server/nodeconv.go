package server

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/typeir/rvm/rvm"
)

// nodeToStruct renders a resolved Type IR node as a structpb.Struct, the
// same JSON-shaped payload the request side accepts. Kept intentionally
// close to a plain JSON tree: {"kind": "...", ...fields...} so a client
// speaking Connect's JSON codec never has to link a generated message type.
func nodeToStruct(n *rvm.Node) *structpb.Struct {
	if n == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{"kind": structpb.NewStringValue("undefined")}}
	}
	fields := map[string]*structpb.Value{
		"kind": structpb.NewStringValue(n.Kind.String()),
	}
	if n.Kind == rvm.KindLiteral {
		fields["literal"] = literalToValue(n.Literal)
	}
	if n.Name != "" {
		fields["name"] = structpb.NewStringValue(n.Name)
	}
	if n.TypeName != "" {
		fields["typeName"] = structpb.NewStringValue(n.TypeName)
	}
	if n.Optional {
		fields["optional"] = structpb.NewBoolValue(true)
	}
	if n.Readonly {
		fields["readonly"] = structpb.NewBoolValue(true)
	}
	if n.Elem != nil {
		fields["elem"] = structpb.NewStructValue(nodeToStruct(n.Elem))
	}
	if n.Return != nil {
		fields["return"] = structpb.NewStructValue(nodeToStruct(n.Return))
	}
	if n.Index != nil {
		fields["index"] = structpb.NewStructValue(nodeToStruct(n.Index))
	}
	if len(n.Types) > 0 {
		fields["types"] = nodesToListValue(n.Types)
	}
	if len(n.Members) > 0 {
		fields["members"] = nodesToListValue(n.Members)
	}
	if len(n.Properties) > 0 {
		fields["properties"] = nodesToListValue(n.Properties)
	}
	if len(n.Parameters) > 0 {
		fields["parameters"] = nodesToListValue(n.Parameters)
	}
	if len(n.EnumMembers) > 0 {
		enumFields := make(map[string]*structpb.Value, len(n.EnumMembers))
		for name, v := range n.EnumMembers {
			enumFields[name] = structpb.NewNumberValue(v)
		}
		fields["enumMembers"] = structpb.NewStructValue(&structpb.Struct{Fields: enumFields})
	}
	return &structpb.Struct{Fields: fields}
}

func nodesToListValue(nodes []*rvm.Node) *structpb.Value {
	vs := make([]*structpb.Value, len(nodes))
	for i, m := range nodes {
		vs[i] = structpb.NewStructValue(nodeToStruct(m))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vs})
}

func literalToValue(v any) *structpb.Value {
	switch t := v.(type) {
	case string:
		return structpb.NewStringValue(t)
	case float64:
		return structpb.NewNumberValue(t)
	case bool:
		return structpb.NewBoolValue(t)
	default:
		return structpb.NewNullValue()
	}
}

// rawProgramFromValue decodes the "program" field of a ResolveType request
// (a JSON array whose last element is the packed opcode string) into an
// rvm.RawProgram. Nested arrays decode recursively into nested programs so a
// client can send a class/inline pool entry inline without a second round
// trip.
func rawProgramFromValue(v *structpb.Value) (rvm.RawProgram, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("server: program must be a JSON array")
	}
	raw := make(rvm.RawProgram, len(list.Values))
	for i, item := range list.Values {
		raw[i] = poolValueFromStructValue(item)
	}
	return raw, nil
}

func poolValueFromStructValue(v *structpb.Value) any {
	switch kind := v.Kind.(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return kind.NumberValue
	case *structpb.Value_BoolValue:
		return kind.BoolValue
	case *structpb.Value_ListValue:
		nested := make(rvm.RawProgram, len(kind.ListValue.Values))
		for i, item := range kind.ListValue.Values {
			nested[i] = poolValueFromStructValue(item)
		}
		return nested
	default:
		return nil
	}
}

// inputsFromValue decodes the "inputs" field: a JSON array of literal
// values, each becoming a Type IR literal node. ResolveType has no way to
// accept a caller-supplied structural type (only literal type arguments),
// which matches how spec.md's external interface is scoped.
func inputsFromValue(v *structpb.Value) []*rvm.Node {
	list := v.GetListValue()
	if list == nil {
		return nil
	}
	inputs := make([]*rvm.Node, len(list.Values))
	for i, item := range list.Values {
		inputs[i] = literalNodeFromValue(item)
	}
	return inputs
}

// anyFromStructValue renders a structpb.Value as a plain Go value (string,
// float64, bool, nil, map[string]any, or []any), the shape rvm.ResolveTypeOf
// expects a JSON-decoded handle to arrive in.
func anyFromStructValue(v *structpb.Value) any {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return kind.NumberValue
	case *structpb.Value_BoolValue:
		return kind.BoolValue
	case *structpb.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for name, f := range fields {
			out[name] = anyFromStructValue(f)
		}
		return out
	case *structpb.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]any, len(values))
		for i, item := range values {
			out[i] = anyFromStructValue(item)
		}
		return out
	default:
		return nil
	}
}

func literalNodeFromValue(v *structpb.Value) *rvm.Node {
	switch kind := v.Kind.(type) {
	case *structpb.Value_StringValue:
		return rvm.NewLiteralNode(kind.StringValue)
	case *structpb.Value_NumberValue:
		return rvm.NewLiteralNode(kind.NumberValue)
	case *structpb.Value_BoolValue:
		return rvm.NewLiteralNode(kind.BoolValue)
	case *structpb.Value_NullValue:
		return rvm.NullNode
	default:
		return rvm.UndefinedNode
	}
}
