package resolver

import "github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"

// StripAnnotations returns a copy of the value with every `ucp_request` and
// `ucp_response` key removed, at any depth. All other structure is
// preserved.
func StripAnnotations(value jsontree.Value) jsontree.Value {
	switch v := value.(type) {
	case *jsontree.Object:
		result := jsontree.NewObject()

		for _, key := range v.Keys() {
			if IsAnnotationKey(key) {
				continue
			}

			child, _ := v.Get(key)
			result.Set(key, StripAnnotations(child))
		}

		return result

	case *jsontree.Array:
		result := jsontree.NewArray()

		for _, item := range v.Items {
			result.Items = append(result.Items, StripAnnotations(item))
		}

		return result
	}

	return value.Clone()
}
