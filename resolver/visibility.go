package resolver

import (
	"fmt"
	"log/slog"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
)

// GetVisibility determines the visibility of a property for the given
// direction and operation, along with any declared transition. A property
// without the direction's annotation is included as-is.
func GetVisibility(prop jsontree.Value, direction Direction, operation, path string) (Visibility, *Transition, error) {
	obj, ok := prop.(*jsontree.Object)
	if !ok {
		return VisibilityInclude, nil, nil
	}

	annotation, ok := obj.Get(direction.AnnotationKey())
	if !ok {
		return VisibilityInclude, nil, nil
	}

	return visibilityFromAnnotation(annotation, operation, path)
}

// visibilityFromAnnotation parses visibility (and optional transition) from
// a raw annotation value. Shared between [GetVisibility] and the allOf
// injection pass, which already holds the annotation.
func visibilityFromAnnotation(annotation jsontree.Value, operation, path string) (Visibility, *Transition, error) {
	switch ann := annotation.(type) {
	case jsontree.String:
		// Shorthand: "ucp_request": "omit" applies to all operations.
		vis, err := parseVisibility(string(ann), path)
		if err != nil {
			return VisibilityInclude, nil, err
		}

		return vis, nil, nil

	case *jsontree.Object:
		// Operation map: "ucp_request": { "create": "omit", ... }.
		// The operation is already lowercase from NewOptions.
		entry, ok := ann.Get(operation)
		if !ok {
			// Shorthand transition form applies to all operations.
			if t := ann.GetObject("transition"); t != nil {
				return parseTransition(t, path)
			}

			return VisibilityInclude, nil, nil
		}

		if ann.Has("transition") {
			// The operation entry wins over a sibling transition key.
			// Surfaced rather than silently changing semantics.
			slog.Debug("operation entry shadows sibling transition",
				"path", path, "operation", operation)
		}

		switch e := entry.(type) {
		case jsontree.String:
			vis, err := parseVisibility(string(e), path)
			if err != nil {
				return VisibilityInclude, nil, err
			}

			return vis, nil, nil

		case *jsontree.Object:
			return parseTransition(e, path+"/"+operation)
		}

		return VisibilityInclude, nil, fmt.Errorf("%w at %s/%s: got %s",
			ErrInvalidAnnotationType, path, operation, entry.Kind())
	}

	return VisibilityInclude, nil, fmt.Errorf("%w at %s: got %s",
		ErrInvalidAnnotationType, path, annotation.Kind())
}

// parseTransition parses a transition descriptor. The descriptor either
// wraps its fields under a "transition" key or carries them directly. The
// returned visibility is the transition's from-state.
func parseTransition(obj *jsontree.Object, path string) (Visibility, *Transition, error) {
	if inner := obj.GetObject("transition"); inner != nil {
		obj = inner
	}

	from, _ := obj.GetString("from")
	to, _ := obj.GetString("to")
	description, _ := obj.GetString("description")

	if description == "" {
		return VisibilityInclude, nil, fmt.Errorf("%w at %s: missing required field %q",
			ErrInvalidSchemaTransition, path, "description")
	}

	fromVis, fromOK := ParseVisibility(from)
	_, toOK := ParseVisibility(to)

	if !fromOK || !toOK || from == to {
		return VisibilityInclude, nil, fmt.Errorf("%w at %s: %q (from) and %q (to) must be distinct visibility values",
			ErrInvalidSchemaTransition, path, from, to)
	}

	return fromVis, &Transition{From: from, To: to, Description: description}, nil
}

func parseVisibility(s, path string) (Visibility, error) {
	vis, ok := ParseVisibility(s)
	if !ok {
		return VisibilityInclude, fmt.Errorf("%w at %s: %q", ErrUnknownVisibility, path, s)
	}

	return vis, nil
}
