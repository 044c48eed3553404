package resolver

import "github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"

// closeUnknownProperties closes object schemas against unknown fields.
//
// Simple object schemas get `additionalProperties: false`. Schemas using a
// composition keyword get `unevaluatedProperties: false` instead: the
// 2020-12 keyword sees across subschemas, so $ref/allOf inheritance keeps
// working in strict mode. A pre-existing non-boolean value is left alone;
// an explicit `true` is overwritten.
//
// inBranch is true for direct children of allOf/anyOf/oneOf arrays. Those
// are never closed: each branch is validated independently and does not see
// sibling branches' properties.
func closeUnknownProperties(value jsontree.Value, inBranch bool) {
	obj, ok := value.(*jsontree.Object)
	if !ok {
		return
	}

	hasComposition := obj.Has("allOf") || obj.Has("anyOf") || obj.Has("oneOf")

	typeStr, _ := obj.GetString("type")
	isObjectSchema := typeStr == "object" || obj.Has("properties")

	if !inBranch && (isObjectSchema || hasComposition) {
		key := "additionalProperties"
		if hasComposition {
			key = "unevaluatedProperties"
		}

		current, present := obj.Get(key)
		if !present || current == jsontree.Bool(true) {
			obj.Set(key, jsontree.Bool(false))
		}
	}

	for _, key := range obj.Keys() {
		child, _ := obj.Get(key)

		switch key {
		case "properties", "$defs", "definitions":
			members, ok := child.(*jsontree.Object)
			if !ok {
				continue
			}

			for _, name := range members.Keys() {
				member, _ := members.Get(name)
				closeUnknownProperties(member, false)
			}

		case "items", "additionalProperties", "unevaluatedProperties":
			closeUnknownProperties(child, false)

		case "allOf", "anyOf", "oneOf":
			arr, ok := child.(*jsontree.Array)
			if !ok {
				continue
			}

			for _, item := range arr.Items {
				closeUnknownProperties(item, true)
			}
		}
	}
}
