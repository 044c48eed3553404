// Package resolver rewrites UCP-annotated JSON Schemas into standard JSON
// Schema for a specific direction and operation.
//
// UCP schemas carry per-direction visibility annotations (`ucp_request`,
// `ucp_response`) on property nodes. Resolution interprets those
// annotations, removes them from the output, and adjusts `properties` and
// `required` accordingly. In strict mode a post-pass closes every object
// schema against unknown fields, except the direct branches of
// allOf/anyOf/oneOf arrays.
package resolver

import "strings"

// Direction selects which annotation key the resolver reads.
type Direction int

// The two message directions.
const (
	Request Direction = iota
	Response
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	if d == Response {
		return "response"
	}

	return "request"
}

// AnnotationKey returns the schema key carrying this direction's
// annotations.
func (d Direction) AnnotationKey() string {
	if d == Response {
		return annotationResponse
	}

	return annotationRequest
}

const (
	annotationRequest  = "ucp_request"
	annotationResponse = "ucp_response"

	// transitionKey is the output-only metadata key for schema transitions.
	transitionKey = "x-ucp-schema-transition"
)

// IsAnnotationKey reports whether key is a UCP annotation key.
func IsAnnotationKey(key string) bool {
	return key == annotationRequest || key == annotationResponse
}

// Visibility is a property's resolved visibility for one (direction,
// operation) pair.
type Visibility int

// Visibility values, from most permissive to removed.
const (
	// VisibilityInclude keeps the property with its original required
	// status. This is the default when no annotation applies.
	VisibilityInclude Visibility = iota
	// VisibilityRequired keeps the property and ensures it is listed in
	// `required`.
	VisibilityRequired
	// VisibilityOptional keeps the property and ensures it is absent from
	// `required`.
	VisibilityOptional
	// VisibilityOmit removes the property and its `required` entry.
	VisibilityOmit
)

// String returns the lowercase visibility name.
func (v Visibility) String() string {
	switch v {
	case VisibilityRequired:
		return "required"
	case VisibilityOptional:
		return "optional"
	case VisibilityOmit:
		return "omit"
	case VisibilityInclude:
	}

	return "include"
}

// ParseVisibility parses a visibility string. The second return is false
// for unknown values.
func ParseVisibility(s string) (Visibility, bool) {
	switch s {
	case "include":
		return VisibilityInclude, true
	case "required":
		return VisibilityRequired, true
	case "optional":
		return VisibilityOptional, true
	case "omit":
		return VisibilityOmit, true
	}

	return VisibilityInclude, false
}

// Transition describes a declared visibility change for a property. It is
// emitted on resolved properties as `x-ucp-schema-transition`, plus
// `deprecated: true` when To is "omit".
type Transition struct {
	From        string
	To          string
	Description string
}

// Options configures a resolution pass.
//
// Create instances with [NewOptions]; the operation is canonicalized to
// lowercase there, making operation matching case-insensitive.
type Options struct {
	Direction Direction
	Operation string
	Strict    bool
}

// NewOptions creates [Options] for the given direction and operation.
func NewOptions(direction Direction, operation string) Options {
	return Options{
		Direction: direction,
		Operation: strings.ToLower(operation),
	}
}

// WithStrict returns a copy of the options with strict mode set.
func (o Options) WithStrict(strict bool) Options {
	o.Strict = strict

	return o
}
