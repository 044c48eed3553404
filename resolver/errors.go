package resolver

import "errors"

// Sentinel errors returned by resolution. Each wrapped error message
// carries the slash-delimited schema path where the defect was found.
var (
	// ErrInvalidAnnotationType indicates an annotation value that is
	// neither a string nor an object.
	ErrInvalidAnnotationType = errors.New("invalid annotation type")
	// ErrUnknownVisibility indicates a visibility string outside
	// include|required|optional|omit.
	ErrUnknownVisibility = errors.New("unknown visibility")
	// ErrInvalidSchemaTransition indicates a malformed transition
	// descriptor: missing description, equal from/to, or unparseable
	// visibility values.
	ErrInvalidSchemaTransition = errors.New("invalid schema transition")
	// ErrTypeConflict indicates two allOf branches declaring different
	// string-form types for the same property.
	ErrTypeConflict = errors.New("type conflict")
	// ErrMonotonicityViolation indicates an allOf extension weakening a
	// field that a base branch lists as required.
	ErrMonotonicityViolation = errors.New("monotonicity violation")
)
