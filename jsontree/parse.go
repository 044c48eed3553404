package jsontree

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
)

// Parse parses JSON or YAML input into a [Value], preserving object key
// order. Multi-document YAML input yields only the first document.
func Parse(data []byte) (Value, error) {
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return nil, fmt.Errorf("%w: empty document", ErrParse)
	}

	return fromNode(file.Docs[0].Body, make(map[string]ast.Node))
}

// fromNode converts a YAML AST node to a [Value]. Anchors encountered along
// the way are recorded so later aliases can resolve them.
func fromNode(node ast.Node, anchors map[string]ast.Node) (Value, error) {
	switch n := node.(type) {
	case *ast.MappingNode:
		return fromMappingValues(n.Values, anchors)

	case *ast.MappingValueNode:
		// A single-pair mapping is parsed as a bare MappingValueNode.
		return fromMappingValues([]*ast.MappingValueNode{n}, anchors)

	case *ast.SequenceNode:
		arr := &Array{Items: make([]Value, 0, len(n.Values))}

		for _, item := range n.Values {
			v, err := fromNode(item, anchors)
			if err != nil {
				return nil, err
			}

			arr.Items = append(arr.Items, v)
		}

		return arr, nil

	case *ast.StringNode:
		return String(n.Value), nil

	case *ast.LiteralNode:
		return String(n.Value.Value), nil

	case *ast.IntegerNode:
		return integerValue(n), nil

	case *ast.FloatNode:
		return floatValue(n), nil

	case *ast.BoolNode:
		return Bool(n.Value), nil

	case *ast.NullNode:
		return Null{}, nil

	case *ast.TagNode:
		return fromNode(n.Value, anchors)

	case *ast.AnchorNode:
		name := anchorName(n)
		if name != "" {
			anchors[name] = n.Value
		}

		return fromNode(n.Value, anchors)

	case *ast.AliasNode:
		name := anchorName(n)

		target, ok := anchors[name]
		if !ok {
			return nil, fmt.Errorf("%w: undefined alias %q", ErrParse, name)
		}

		return fromNode(target, anchors)
	}

	return nil, fmt.Errorf("%w: %T node", ErrUnsupportedValue, node)
}

// fromMappingValues builds an [*Object] from mapping pairs, resolving YAML
// merge keys (<<) against already-recorded anchors. Duplicate keys follow
// last-writer-wins without disturbing the first key's position.
func fromMappingValues(values []*ast.MappingValueNode, anchors map[string]ast.Node) (Value, error) {
	obj := NewObject()

	for _, mvn := range values {
		if _, ok := mvn.Key.(*ast.MergeKeyNode); ok {
			err := mergeInto(obj, mvn.Value, anchors)
			if err != nil {
				return nil, err
			}

			continue
		}

		key, err := keyText(mvn.Key)
		if err != nil {
			return nil, err
		}

		v, err := fromNode(mvn.Value, anchors)
		if err != nil {
			return nil, err
		}

		obj.Set(key, v)
	}

	return obj, nil
}

// mergeInto merges a merge-key target mapping into obj. Existing keys win
// over merged ones, per YAML merge semantics.
func mergeInto(obj *Object, node ast.Node, anchors map[string]ast.Node) error {
	merged, err := fromNode(node, anchors)
	if err != nil {
		return err
	}

	mergedObj, ok := merged.(*Object)
	if !ok {
		return fmt.Errorf("%w: merge key target is %s, want object", ErrParse, merged.Kind())
	}

	for _, k := range mergedObj.Keys() {
		if !obj.Has(k) {
			v, _ := mergedObj.Get(k)
			obj.Set(k, v)
		}
	}

	return nil
}

// keyText extracts the string form of a mapping key node.
func keyText(key ast.MapKeyNode) (string, error) {
	switch k := key.(type) {
	case *ast.StringNode:
		return k.Value, nil
	case *ast.IntegerNode:
		return k.GetToken().Value, nil
	case *ast.FloatNode:
		return k.GetToken().Value, nil
	case *ast.BoolNode:
		return k.GetToken().Value, nil
	case *ast.NullNode:
		return "null", nil
	}

	return "", fmt.Errorf("%w: %T mapping key", ErrUnsupportedValue, key)
}

// anchorName returns the name of an anchor or alias node.
func anchorName(node ast.Node) string {
	var name ast.Node

	switch n := node.(type) {
	case *ast.AnchorNode:
		name = n.Name
	case *ast.AliasNode:
		name = n.Value
	default:
		return ""
	}

	if sn, ok := name.(*ast.StringNode); ok {
		return sn.Value
	}

	return name.GetToken().Value
}

// integerValue keeps the source literal when it is already a valid JSON
// number; non-JSON forms (hex, octal, underscores) are re-rendered in
// decimal from the parsed value.
func integerValue(n *ast.IntegerNode) Number {
	raw := n.GetToken().Value
	if json.Valid([]byte(raw)) {
		return Number(raw)
	}

	switch v := n.Value.(type) {
	case int64:
		return Number(strconv.FormatInt(v, 10))
	case uint64:
		return Number(strconv.FormatUint(v, 10))
	case int:
		return Number(strconv.Itoa(v))
	}

	return Number(fmt.Sprintf("%v", n.Value))
}

// floatValue keeps the source literal when it is a valid JSON number;
// YAML-only spellings (".5", "1.") are re-rendered.
func floatValue(n *ast.FloatNode) Number {
	raw := n.GetToken().Value
	if json.Valid([]byte(raw)) {
		return Number(raw)
	}

	return Number(strconv.FormatFloat(n.Value, 'g', -1, 64))
}
