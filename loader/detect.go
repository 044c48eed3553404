package loader

import (
	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
)

// DetectDirection classifies a document by its UCP metadata. A document
// carrying a non-empty `ucp.capabilities` mapping is a response; one
// carrying a `meta.profile` URL string is a JSONRPC-style request. The
// second return is false for plain schemas and anything else.
func DetectDirection(value jsontree.Value) (resolver.Direction, bool) {
	obj, ok := value.(*jsontree.Object)
	if !ok {
		return resolver.Request, false
	}

	if caps := capabilitiesOf(obj); caps != nil && caps.Len() > 0 {
		return resolver.Response, true
	}

	if meta := obj.GetObject("meta"); meta != nil {
		if profile, ok := meta.GetString("profile"); ok && profile != "" {
			return resolver.Request, true
		}
	}

	return resolver.Request, false
}

// IsSelfDescribing reports whether the document carries a `ucp.capabilities`
// mapping at all, even an empty one. Used for mode selection so that an
// empty mapping surfaces as a composition error rather than an inference
// failure.
func IsSelfDescribing(value jsontree.Value) bool {
	obj, ok := value.(*jsontree.Object)
	if !ok {
		return false
	}

	return capabilitiesOf(obj) != nil
}

// ProfileURL returns the document's `meta.profile` URL, if present.
func ProfileURL(value jsontree.Value) (string, bool) {
	obj, ok := value.(*jsontree.Object)
	if !ok {
		return "", false
	}

	meta := obj.GetObject("meta")
	if meta == nil {
		return "", false
	}

	profile, ok := meta.GetString("profile")

	return profile, ok && profile != ""
}

func capabilitiesOf(obj *jsontree.Object) *jsontree.Object {
	ucp := obj.GetObject("ucp")
	if ucp == nil {
		return nil
	}

	return ucp.GetObject("capabilities")
}
