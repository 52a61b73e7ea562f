package rvm

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// cueCtx is a single shared CUE context. CUE contexts are safe for
// concurrent read-only compilation but Run never calls into this file from
// more than one goroutine per Processor, matching the single-threaded
// contract of spec.md §5.
var cueCtx = cuecontext.New()

// cueSubsume decides structural extends-compatibility for object-literal
// and class operands by compiling both sides to a CUE schema and asking CUE
// whether the right-hand schema subsumes the left-hand one — CUE's
// subsumption relation is exactly TypeScript's structural assignability for
// the shapes RVM produces (required/optional fields, nested objects,
// primitive constraints).
func cueSubsume(left, right *Node) bool {
	lv := cueCtx.CompileString(nodeToCueSchema(left))
	rv := cueCtx.CompileString(nodeToCueSchema(right))
	if lv.Err() != nil || rv.Err() != nil {
		return false
	}
	return rv.Subsume(lv, cue.Schema(), cue.Final()) == nil
}

// cueMerge structurally merges object-literal/class operands the way an
// intersection of object types merges: unify their CUE schemas and read the
// resulting fields back into a fresh objectLiteral node.
func cueMerge(nodes []*Node) *Node {
	unified := cueCtx.CompileString("_")
	for _, n := range nodes {
		v := cueCtx.CompileString(nodeToCueSchema(n))
		unified = unified.Unify(v)
	}
	if unified.Err() != nil {
		// Structural merge failure collapses to a plain union of the
		// inputs' properties rather than propagating a CUE-internal error
		// into RVM's error surface — intersection merge failures are a
		// recoverable local condition, not an RVMInvalidProgram.
		return concatProperties(nodes)
	}

	result := &Node{Kind: KindObjectLiteral}
	iter, err := unified.Fields(cue.Optional(true))
	if err != nil {
		return concatProperties(nodes)
	}
	for iter.Next() {
		label := iter.Selector().String()
		result.Properties = append(result.Properties, &Node{
			Kind:     KindPropertySignature,
			Name:     label,
			Return:   cueValueToNode(iter.Value()),
			Optional: iter.IsOptional(),
		})
	}
	return result
}

func concatProperties(nodes []*Node) *Node {
	result := &Node{Kind: KindObjectLiteral}
	seen := map[string]bool{}
	for _, n := range nodes {
		for _, p := range n.Properties {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			result.Properties = append(result.Properties, p)
		}
	}
	return result
}

// nodeToCueSchema renders a Node's shape as CUE source text. This is a
// one-way, lossy projection used purely to drive Subsume/Unify; the only way
// back is cueValueToNode, which reads a unified value's primitive, struct
// and list kinds into fresh nodes.
func nodeToCueSchema(n *Node) string {
	if n == nil {
		return "_"
	}
	switch n.Kind {
	case KindAny, KindUnknown:
		return "_"
	case KindNever:
		return "_|_"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "bool"
	case KindBigInt:
		return "int"
	case KindNull, KindUndefined, KindVoid:
		return "null"
	case KindLiteral:
		return cueLiteral(n.Literal)
	case KindArray:
		return "[..." + nodeToCueSchema(n.Elem) + "]"
	case KindTuple:
		parts := make([]string, len(n.Members))
		for i, m := range n.Members {
			parts[i] = nodeToCueSchema(memberElem(m))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindUnion:
		parts := make([]string, len(n.Types))
		for i, t := range n.Types {
			parts[i] = nodeToCueSchema(t)
		}
		return "(" + strings.Join(parts, " | ") + ")"
	case KindObjectLiteral, KindClass:
		var b strings.Builder
		b.WriteString("{")
		for _, p := range n.Properties {
			fieldToCue(&b, p)
		}
		b.WriteString("}")
		return b.String()
	default:
		return "_"
	}
}

func fieldToCue(b *strings.Builder, p *Node) {
	name := cueLabel(p.Name)
	switch p.Kind {
	case KindProperty, KindPropertySignature, KindParameter:
		if p.Optional {
			fmt.Fprintf(b, "%s?: %s\n", name, nodeToCueSchema(p.Return))
		} else {
			fmt.Fprintf(b, "%s: %s\n", name, nodeToCueSchema(p.Return))
		}
	case KindMethod, KindMethodSignature:
		fmt.Fprintf(b, "%s: {}\n", name)
	case KindIndexSignature:
		fmt.Fprintf(b, "[%s]: %s\n", nodeToCueSchema(p.Index), nodeToCueSchema(p.Return))
	}
}

func cueLabel(name string) string {
	if name == "" {
		return `"_"`
	}
	return strconv.Quote(name)
}

func cueLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return "_"
	}
}

func cueValueToNode(v cue.Value) *Node {
	switch v.IncompleteKind() {
	case cue.StringKind:
		if s, err := v.String(); err == nil {
			return newLiteral(s)
		}
		return StringNode
	case cue.NumberKind, cue.IntKind, cue.FloatKind:
		return NumberNode
	case cue.BoolKind:
		return BooleanNode
	case cue.StructKind:
		result := &Node{Kind: KindObjectLiteral}
		iter, err := v.Fields(cue.Optional(true))
		if err != nil {
			return result
		}
		for iter.Next() {
			result.Properties = append(result.Properties, &Node{
				Kind:     KindPropertySignature,
				Name:     iter.Selector().String(),
				Return:   cueValueToNode(iter.Value()),
				Optional: iter.IsOptional(),
			})
		}
		return result
	case cue.ListKind:
		elem, err := v.List()
		if err != nil {
			return newArray(AnyNode)
		}
		var elemNode *Node = NeverNode
		for elem.Next() {
			elemNode = cueValueToNode(elem.Value())
		}
		return newArray(elemNode)
	default:
		return AnyNode
	}
}
