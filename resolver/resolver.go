package resolver

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
)

// Resolve rewrites a UCP-annotated schema into standard JSON Schema for the
// direction and operation in opts. The input is not modified; the result is
// a freshly built tree with all UCP annotations removed. When opts.Strict
// is set, every object schema in the result is closed against unknown
// properties, except the direct branches of allOf/anyOf/oneOf arrays.
func Resolve(schema jsontree.Value, opts Options) (jsontree.Value, error) {
	resolved, err := resolveValue(schema, opts, "")
	if err != nil {
		return nil, err
	}

	if opts.Strict {
		closeUnknownProperties(resolved, false)
	}

	slog.Debug("resolved schema",
		"direction", opts.Direction, "operation", opts.Operation, "strict", opts.Strict)

	return resolved, nil
}

func resolveValue(value jsontree.Value, opts Options, path string) (jsontree.Value, error) {
	switch v := value.(type) {
	case *jsontree.Object:
		return resolveObject(v, opts, path)
	case *jsontree.Array:
		return resolveArray(v, opts, path)
	}

	return value.Clone(), nil
}

func resolveObject(obj *jsontree.Object, opts Options, path string) (jsontree.Value, error) {
	result := jsontree.NewObject()

	// Working copy of the required array, updated by the properties pass.
	required := requiredNames(obj)

	var propNames []string

	hasProperties := false

	for _, key := range obj.Keys() {
		// Annotations never appear in output.
		if IsAnnotationKey(key) {
			continue
		}

		value, _ := obj.Get(key)
		childPath := path + "/" + key

		switch key {
		case "properties":
			resolved, names, err := resolveProperties(value, opts, childPath, &required)
			if err != nil {
				return nil, err
			}

			result.Set(key, resolved)

			if _, ok := value.(*jsontree.Object); ok {
				hasProperties = true
				propNames = names
			}

		case "$defs", "definitions":
			resolved, err := resolveDefs(value, opts, childPath)
			if err != nil {
				return nil, err
			}

			result.Set(key, resolved)

		case "allOf":
			// Annotations from later branches propagate to earlier ones,
			// letting extension schemas control visibility of inherited
			// fields.
			resolved, err := resolveAllOf(value, opts, childPath)
			if err != nil {
				return nil, err
			}

			result.Set(key, resolved)

		case "anyOf", "oneOf":
			// Independent alternatives: element-wise recursion, no
			// cross-branch propagation.
			resolved, err := resolveComposition(value, opts, childPath)
			if err != nil {
				return nil, err
			}

			result.Set(key, resolved)

		case "additionalProperties":
			if _, ok := value.(*jsontree.Object); ok {
				resolved, err := resolveValue(value, opts, childPath)
				if err != nil {
					return nil, err
				}

				result.Set(key, resolved)
			} else {
				result.Set(key, value.Clone())
			}

		case "required":
			// Recomputed after the properties pass.
			continue

		default:
			resolved, err := resolveValue(value, opts, childPath)
			if err != nil {
				return nil, err
			}

			result.Set(key, resolved)
		}
	}

	// Emit the updated required array when non-empty, or when the input
	// carried a required key (full omission yields "required": []).
	if len(required) > 0 || obj.Has("required") {
		if hasProperties {
			required = slices.DeleteFunc(required, func(name string) bool {
				return !slices.Contains(propNames, name)
			})
		}

		arr := jsontree.NewArray()
		for _, name := range required {
			arr.Items = append(arr.Items, jsontree.String(name))
		}

		result.Set("required", arr)
	}

	return result, nil
}

// resolveProperties applies the visibility rules to each property and
// updates the enclosing object's required list. It returns the resolved
// properties and the surviving property names in order.
func resolveProperties(value jsontree.Value, opts Options, path string, required *[]string) (jsontree.Value, []string, error) {
	props, ok := value.(*jsontree.Object)
	if !ok {
		return value.Clone(), nil, nil
	}

	result := jsontree.NewObject()

	var names []string

	for _, name := range props.Keys() {
		propValue, _ := props.Get(name)
		propPath := path + "/" + name

		visibility, transition, err := GetVisibility(propValue, opts.Direction, opts.Operation, propPath)
		if err != nil {
			return nil, nil, err
		}

		if visibility == VisibilityOmit {
			*required = removeName(*required, name)

			continue
		}

		resolved, err := resolveValue(propValue, opts, propPath)
		if err != nil {
			return nil, nil, err
		}

		stripped := StripAnnotations(resolved)
		applyTransitionMetadata(stripped, transition)
		result.Set(name, stripped)
		names = append(names, name)

		switch visibility { //nolint:exhaustive // Omit returned above.
		case VisibilityRequired:
			if !slices.Contains(*required, name) {
				*required = append(*required, name)
			}

		case VisibilityOptional:
			*required = removeName(*required, name)

		case VisibilityInclude:
			// Original required status preserved.
		}
	}

	return result, names, nil
}

func resolveDefs(value jsontree.Value, opts Options, path string) (jsontree.Value, error) {
	defs, ok := value.(*jsontree.Object)
	if !ok {
		return value.Clone(), nil
	}

	result := jsontree.NewObject()

	for _, name := range defs.Keys() {
		def, _ := defs.Get(name)

		resolved, err := resolveValue(def, opts, path+"/"+name)
		if err != nil {
			return nil, err
		}

		result.Set(name, resolved)
	}

	return result, nil
}

func resolveArray(arr *jsontree.Array, opts Options, path string) (jsontree.Value, error) {
	result := jsontree.NewArray()

	for i, item := range arr.Items {
		resolved, err := resolveValue(item, opts, path+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}

		result.Items = append(result.Items, resolved)
	}

	return result, nil
}

func resolveComposition(value jsontree.Value, opts Options, path string) (jsontree.Value, error) {
	arr, ok := value.(*jsontree.Array)
	if !ok {
		return value.Clone(), nil
	}

	return resolveArray(arr, opts, path)
}

// resolveAllOf resolves an allOf array with cross-branch annotation
// propagation:
//
//  1. Collect annotations from every branch's properties, last writer wins.
//  2. Validate that branches agree on string-form property types.
//  3. Inject collected annotations into branches that lack them, enforcing
//     monotonicity, then resolve each branch.
//
// Last-writer-wins matches the UCP allOf convention: the base schema is
// allOf[0] and extensions follow, so extensions override the base.
func resolveAllOf(value jsontree.Value, opts Options, path string) (jsontree.Value, error) {
	arr, ok := value.(*jsontree.Array)
	if !ok {
		return value.Clone(), nil
	}

	annKey := opts.Direction.AnnotationKey()
	merged := collectAllOfAnnotations(arr, annKey)

	err := validateAllOfTypes(arr, path)
	if err != nil {
		return nil, err
	}

	result := jsontree.NewArray()

	for i, branch := range arr.Items {
		branchPath := path + "/" + strconv.Itoa(i)

		if merged.Len() > 0 {
			branch, err = injectAnnotations(branch, merged, annKey, opts, branchPath)
			if err != nil {
				return nil, err
			}
		}

		resolved, err := resolveValue(branch, opts, branchPath)
		if err != nil {
			return nil, err
		}

		result.Items = append(result.Items, resolved)
	}

	return result, nil
}

// collectAllOfAnnotations gathers per-property annotations across branches.
// When several branches annotate the same property, the last branch wins;
// the property keeps its first-seen position so injection order stays
// input-derived.
func collectAllOfAnnotations(branches *jsontree.Array, annKey string) *jsontree.Object {
	merged := jsontree.NewObject()

	for _, branch := range branches.Items {
		obj, ok := branch.(*jsontree.Object)
		if !ok {
			continue
		}

		props := obj.GetObject("properties")
		if props == nil {
			continue
		}

		for _, name := range props.Keys() {
			prop := props.GetObject(name)
			if prop == nil {
				continue
			}

			if ann, ok := prop.Get(annKey); ok {
				merged.Set(name, ann)
			}
		}
	}

	return merged
}

// injectAnnotations copies collected annotations into a branch's properties
// where the property does not carry its own. A field listed in the branch's
// required array cannot be weakened to omit or optional:
//
//	| base required? | annotation resolves to | result |
//	|----------------|------------------------|--------|
//	| yes            | required               | OK     |
//	| yes            | optional               | error  |
//	| yes            | omit                   | error  |
//	| no             | any                    | OK     |
func injectAnnotations(branch jsontree.Value, annotations *jsontree.Object, annKey string, opts Options, path string) (jsontree.Value, error) {
	obj, ok := branch.(*jsontree.Object)
	if !ok {
		return branch, nil
	}

	clone, ok := obj.Clone().(*jsontree.Object)
	if !ok {
		return branch, nil
	}

	props := clone.GetObject("properties")
	if props == nil {
		return clone, nil
	}

	baseRequired := requiredNames(clone)

	for _, name := range annotations.Keys() {
		prop := props.GetObject(name)
		if prop == nil {
			continue
		}

		// The branch's own annotation takes precedence.
		if prop.Has(annKey) {
			continue
		}

		ann, _ := annotations.Get(name)
		propPath := path + "/properties/" + name

		if slices.Contains(baseRequired, name) {
			vis, _, err := visibilityFromAnnotation(ann, opts.Operation, propPath)
			if err != nil {
				return nil, err
			}

			if vis == VisibilityOmit || vis == VisibilityOptional {
				return nil, fmt.Errorf("%w at %s: field %q has base status %q, extension attempts %q",
					ErrMonotonicityViolation, propPath, name, "required", vis)
			}
		}

		prop.Set(annKey, ann.Clone())
	}

	return clone, nil
}

// validateAllOfTypes rejects branches that declare contradictory string-form
// types for the same property. Array-form types (e.g. ["string", "null"])
// are skipped.
func validateAllOfTypes(branches *jsontree.Array, path string) error {
	types := make(map[string]string)

	for _, branch := range branches.Items {
		obj, ok := branch.(*jsontree.Object)
		if !ok {
			continue
		}

		props := obj.GetObject("properties")
		if props == nil {
			continue
		}

		for _, name := range props.Keys() {
			prop := props.GetObject(name)
			if prop == nil {
				continue
			}

			typeStr, ok := prop.GetString("type")
			if !ok {
				continue
			}

			existing, seen := types[name]
			if seen && existing != typeStr {
				return fmt.Errorf("%w at %s/properties/%s: base type %q, extension type %q",
					ErrTypeConflict, path, name, existing, typeStr)
			}

			if !seen {
				types[name] = typeStr
			}
		}
	}

	return nil
}

// applyTransitionMetadata attaches transition info to a resolved property.
func applyTransitionMetadata(value jsontree.Value, transition *Transition) {
	obj, ok := value.(*jsontree.Object)
	if !ok || transition == nil {
		return
	}

	info := jsontree.NewObject()
	info.Set("from", jsontree.String(transition.From))
	info.Set("to", jsontree.String(transition.To))
	info.Set("description", jsontree.String(transition.Description))

	obj.Set(transitionKey, info)

	if transition.To == VisibilityOmit.String() {
		obj.Set("deprecated", jsontree.Bool(true))
	}
}

// requiredNames returns the string entries of an object's required array,
// deduplicated in first-seen order. Non-string entries are dropped.
func requiredNames(obj *jsontree.Object) []string {
	arr := obj.GetArray("required")
	if arr == nil {
		return nil
	}

	var names []string

	for _, item := range arr.Items {
		s, ok := item.(jsontree.String)
		if ok && !slices.Contains(names, string(s)) {
			names = append(names, string(s))
		}
	}

	return names
}

func removeName(names []string, name string) []string {
	return slices.DeleteFunc(names, func(s string) bool { return s == name })
}
