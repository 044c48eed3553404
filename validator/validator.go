// Package validator checks payloads against resolved schemas.
//
// It is a thin façade over the kaptinlin/jsonschema engine, chosen because
// strict mode emits `unevaluatedProperties` and therefore needs a full
// draft 2020-12 implementation.
package validator

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kaptinlin/jsonschema"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
)

// Sentinel errors returned by validation.
var (
	// ErrInvalid indicates the payload failed schema validation; the
	// accompanying issues carry the details.
	ErrInvalid = errors.New("payload invalid")
	// ErrCompile indicates the resolved schema was rejected by the
	// validator engine.
	ErrCompile = errors.New("compile schema")
)

// Issue is a single validation failure location.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String renders the issue as "path: message", or just the message for
// root-level issues.
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}

	return i.Path + ": " + i.Message
}

// Validate resolves the annotated schema for opts and checks payload
// against the result. A failing payload returns the issues along with
// [ErrInvalid]; resolution errors pass through unwrapped so callers can
// classify them.
func Validate(schema, payload jsontree.Value, opts resolver.Options) ([]Issue, error) {
	resolved, err := resolver.Resolve(schema, opts)
	if err != nil {
		return nil, err
	}

	return ValidateResolved(resolved, payload)
}

// ValidateResolved checks payload against an already-resolved schema.
func ValidateResolved(resolved, payload jsontree.Value) ([]Issue, error) {
	data, err := jsontree.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}

	compiled, err := jsonschema.NewCompiler().Compile(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}

	result := compiled.Validate(jsontree.Interface(payload))
	if result.IsValid() {
		return nil, nil
	}

	issues := collectIssues(result.ToList(), nil)
	slog.Debug("payload failed validation", "issues", len(issues))

	return issues, ErrInvalid
}

// collectIssues flattens the engine's hierarchical result into issues,
// keyed by instance location. Error maps are emitted in sorted keyword
// order so output is deterministic.
func collectIssues(list *jsonschema.List, issues []Issue) []Issue {
	if list == nil || list.Valid {
		return issues
	}

	keywords := make([]string, 0, len(list.Errors))
	for keyword := range list.Errors {
		keywords = append(keywords, keyword)
	}

	sort.Strings(keywords)

	for _, keyword := range keywords {
		issues = append(issues, Issue{
			Path:    list.InstanceLocation,
			Message: list.Errors[keyword],
		})
	}

	for i := range list.Details {
		issues = collectIssues(&list.Details[i], issues)
	}

	return issues
}
