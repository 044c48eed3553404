package jsontree

import (
	"fmt"
	"strconv"
	"strings"
)

// ResolvePointer evaluates an RFC 6901 JSON Pointer against root. The empty
// pointer returns root itself.
func ResolvePointer(root Value, pointer string) (Value, error) {
	if pointer == "" {
		return root, nil
	}

	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("%w: %q must start with \"/\"", ErrInvalidPointer, pointer)
	}

	current := root

	for _, token := range strings.Split(pointer[1:], "/") {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")

		switch node := current.(type) {
		case *Object:
			next, ok := node.Get(token)
			if !ok {
				return nil, fmt.Errorf("%w: %q (no key %q)", ErrPointerNotFound, pointer, token)
			}

			current = next

		case *Array:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node.Items) {
				return nil, fmt.Errorf("%w: %q (bad index %q)", ErrPointerNotFound, pointer, token)
			}

			current = node.Items[idx]

		default:
			return nil, fmt.Errorf("%w: %q (cannot descend into %s)", ErrPointerNotFound, pointer, current.Kind())
		}
	}

	return current, nil
}
