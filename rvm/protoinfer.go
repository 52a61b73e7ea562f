package rvm

import (
	"github.com/jhump/protoreflect/desc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// protoTypeInfer is TypeInfer's protobuf-aware fast path. Descriptors are
// walked with jhump/protoreflect's desc package the same way the teacher's
// grpc_primitives.go walks descriptors to convert a Dictionary to a dynamic
// proto message, just in the opposite direction: proto shape to Type IR.
func protoTypeInfer(value any) (*Node, bool) {
	switch v := value.(type) {
	case *structpb.Struct:
		return structpbToNode(v), true
	case *structpb.Value:
		return structpbValueToNode(v), true
	case proto.Message:
		md, err := desc.LoadMessageDescriptorForMessage(protoadapt.MessageV1Of(v))
		if err != nil || md == nil {
			return nil, false
		}
		return messageDescriptorToNode(md, map[string]bool{}), true
	default:
		return nil, false
	}
}

func messageDescriptorToNode(md *desc.MessageDescriptor, visiting map[string]bool) *Node {
	// Recursive message types (a message that (transitively) contains
	// itself) would otherwise loop forever here; short-circuit to a bare
	// class reference the second time we see the same fully-qualified name.
	full := md.GetFullyQualifiedName()
	if visiting[full] {
		return &Node{Kind: KindClass, TypeName: md.GetName()}
	}
	visiting[full] = true
	defer delete(visiting, full)

	fields := md.GetFields()
	props := make([]*Node, 0, len(fields))
	for _, fd := range fields {
		props = append(props, &Node{
			Kind:   KindPropertySignature,
			Name:   fd.GetName(),
			Return: fieldDescriptorToNode(fd, visiting),
		})
	}
	return &Node{Kind: KindObjectLiteral, TypeName: md.GetName(), Properties: props}
}

func fieldDescriptorToNode(fd *desc.FieldDescriptor, visiting map[string]bool) *Node {
	elem := scalarFieldToNode(fd, visiting)
	if fd.IsMap() {
		valueField := fd.GetMessageType().FindFieldByName("value")
		return &Node{
			Kind: KindObjectLiteral,
			Properties: []*Node{{
				Kind:  KindIndexSignature,
				Index: StringNode,
				Return: fieldDescriptorToNode(valueField, visiting),
			}},
		}
	}
	if fd.IsRepeated() {
		return newArray(elem)
	}
	return elem
}

func scalarFieldToNode(fd *desc.FieldDescriptor, visiting map[string]bool) *Node {
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_STRING, descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return StringNode
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return BooleanNode
	case descriptorpb.FieldDescriptorProto_TYPE_INT32, descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_UINT32, descriptorpb.FieldDescriptorProto_TYPE_UINT64,
		descriptorpb.FieldDescriptorProto_TYPE_SINT32, descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED32, descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32, descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
		descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		return NumberNode
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		return messageDescriptorToNode(fd.GetMessageType(), visiting)
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		return enumDescriptorToNode(fd.GetEnumType())
	default:
		return UnknownNode
	}
}

func enumDescriptorToNode(ed *desc.EnumDescriptor) *Node {
	members := make([]*Node, 0, len(ed.GetValues()))
	for _, v := range ed.GetValues() {
		members = append(members, newLiteral(v.GetName()))
	}
	return buildUnion(members)
}

func structpbToNode(s *structpb.Struct) *Node {
	if s == nil {
		return NullNode
	}
	props := make([]*Node, 0, len(s.GetFields()))
	for name, v := range s.GetFields() {
		props = append(props, &Node{
			Kind:   KindPropertySignature,
			Name:   name,
			Return: structpbValueToNode(v),
		})
	}
	return &Node{Kind: KindObjectLiteral, Properties: props}
}

func structpbValueToNode(v *structpb.Value) *Node {
	switch v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return NullNode
	case *structpb.Value_NumberValue:
		return newLiteral(v.GetNumberValue())
	case *structpb.Value_StringValue:
		return newLiteral(v.GetStringValue())
	case *structpb.Value_BoolValue:
		return newLiteral(v.GetBoolValue())
	case *structpb.Value_StructValue:
		return structpbToNode(v.GetStructValue())
	case *structpb.Value_ListValue:
		list := v.GetListValue().GetValues()
		members := make([]*Node, len(list))
		for i, item := range list {
			members[i] = structpbValueToNode(item)
		}
		return newTuple(wrapTupleMembers(members))
	default:
		return UnknownNode
	}
}
