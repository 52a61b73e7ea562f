package cli

import "github.com/typeir/rvm/rvm"

// nodeToMap renders a Type IR node into a plain JSON-marshalable tree, the
// CLI's counterpart to the server package's nodeToStruct — same shape,
// native Go values instead of structpb wrappers since the CLI writes
// straight to encoding/json rather than a Connect wire response.
func nodeToMap(n *rvm.Node) map[string]any {
	if n == nil {
		return map[string]any{"kind": "undefined"}
	}
	out := map[string]any{"kind": n.Kind.String()}
	if n.Kind == rvm.KindLiteral {
		out["literal"] = n.Literal
	}
	if n.Name != "" {
		out["name"] = n.Name
	}
	if n.TypeName != "" {
		out["typeName"] = n.TypeName
	}
	if n.Optional {
		out["optional"] = true
	}
	if n.Readonly {
		out["readonly"] = true
	}
	if n.Elem != nil {
		out["elem"] = nodeToMap(n.Elem)
	}
	if n.Return != nil {
		out["return"] = nodeToMap(n.Return)
	}
	if n.Index != nil {
		out["index"] = nodeToMap(n.Index)
	}
	if len(n.Types) > 0 {
		out["types"] = nodesToMaps(n.Types)
	}
	if len(n.Members) > 0 {
		out["members"] = nodesToMaps(n.Members)
	}
	if len(n.Properties) > 0 {
		out["properties"] = nodesToMaps(n.Properties)
	}
	if len(n.Parameters) > 0 {
		out["parameters"] = nodesToMaps(n.Parameters)
	}
	if len(n.EnumMembers) > 0 {
		out["enumMembers"] = n.EnumMembers
	}
	return out
}

func nodesToMaps(nodes []*rvm.Node) []map[string]any {
	out := make([]map[string]any, len(nodes))
	for i, m := range nodes {
		out[i] = nodeToMap(m)
	}
	return out
}
