package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
	"github.com/Universal-Commerce-Protocol/ucp-schema/validator"
)

func parse(t *testing.T, input string) jsontree.Value {
	t.Helper()

	value, err := jsontree.Parse([]byte(input))
	require.NoError(t, err)

	return value
}

const checkoutSchema = `{
	"type": "object",
	"required": ["line_items"],
	"properties": {
		"id": {"type": "string", "ucp_request": {"create": "omit", "update": "required"}},
		"line_items": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["sku", "quantity"],
				"properties": {
					"sku": {"type": "string"},
					"quantity": {"type": "integer", "minimum": 1}
				}
			}
		}
	}
}`

func TestValidateAcceptsValidPayload(t *testing.T) {
	t.Parallel()

	payload := parse(t, `{"line_items": [{"sku": "ABC123", "quantity": 2}]}`)

	issues, err := validator.Validate(parse(t, checkoutSchema), payload, resolver.NewOptions(resolver.Request, "create"))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidateMissingRequiredField(t *testing.T) {
	t.Parallel()

	payload := parse(t, `{}`)

	issues, err := validator.Validate(parse(t, checkoutSchema), payload, resolver.NewOptions(resolver.Request, "create"))
	require.ErrorIs(t, err, validator.ErrInvalid)
	require.NotEmpty(t, issues)

	found := false

	for _, issue := range issues {
		if issue.Message != "" {
			found = true
		}
	}

	assert.True(t, found)
}

func TestValidateWrongType(t *testing.T) {
	t.Parallel()

	payload := parse(t, `{"line_items": [{"sku": "ABC123", "quantity": "two"}]}`)

	issues, err := validator.Validate(parse(t, checkoutSchema), payload, resolver.NewOptions(resolver.Request, "create"))
	require.ErrorIs(t, err, validator.ErrInvalid)
	assert.NotEmpty(t, issues)
}

func TestValidatePerOperationRequired(t *testing.T) {
	t.Parallel()

	// id is omitted for create but required for update.
	payload := parse(t, `{"line_items": [{"sku": "A", "quantity": 1}]}`)

	_, err := validator.Validate(parse(t, checkoutSchema), payload, resolver.NewOptions(resolver.Request, "update"))
	assert.ErrorIs(t, err, validator.ErrInvalid)

	withID := parse(t, `{"id": "c1", "line_items": [{"sku": "A", "quantity": 1}]}`)

	_, err = validator.Validate(parse(t, checkoutSchema), withID, resolver.NewOptions(resolver.Request, "update"))
	assert.NoError(t, err)
}

func TestValidateStrictRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	payload := parse(t, `{"line_items": [{"sku": "A", "quantity": 1}], "surprise": true}`)

	opts := resolver.NewOptions(resolver.Request, "create")

	_, err := validator.Validate(parse(t, checkoutSchema), payload, opts)
	require.NoError(t, err)

	_, err = validator.Validate(parse(t, checkoutSchema), payload, opts.WithStrict(true))
	assert.ErrorIs(t, err, validator.ErrInvalid)
}

func TestValidateStrictAllOfSeesAcrossBranches(t *testing.T) {
	t.Parallel()

	// unevaluatedProperties at the composition node accepts properties
	// declared in either branch, while still rejecting unknowns.
	schema := parse(t, `{
		"allOf": [
			{"type": "object", "properties": {"id": {"type": "string"}}},
			{"type": "object", "properties": {"discounts": {"type": "array"}}}
		]
	}`)

	opts := resolver.NewOptions(resolver.Response, "read").WithStrict(true)

	ok := parse(t, `{"id": "1", "discounts": []}`)

	_, err := validator.Validate(schema, ok, opts)
	require.NoError(t, err)

	unknown := parse(t, `{"id": "1", "mystery": 1}`)

	_, err = validator.Validate(schema, unknown, opts)
	assert.ErrorIs(t, err, validator.ErrInvalid)
}

func TestValidateResolutionErrorsPassThrough(t *testing.T) {
	t.Parallel()

	schema := parse(t, `{"type": "object", "properties": {"id": {"type": "string", "ucp_request": "readonly"}}}`)

	_, err := validator.Validate(schema, parse(t, `{}`), resolver.NewOptions(resolver.Request, "create"))
	assert.ErrorIs(t, err, resolver.ErrUnknownVisibility)
}

func TestValidateIssuesCarryInstancePaths(t *testing.T) {
	t.Parallel()

	payload := parse(t, `{"line_items": [{"sku": 7, "quantity": 1}]}`)

	issues, err := validator.Validate(parse(t, checkoutSchema), payload, resolver.NewOptions(resolver.Request, "create"))
	require.ErrorIs(t, err, validator.ErrInvalid)
	require.NotEmpty(t, issues)

	found := false

	for _, issue := range issues {
		if issue.Path != "" {
			found = true
		}
	}

	assert.True(t, found, "at least one issue should point below the root")
}

func TestIssueString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", validator.Issue{Message: "boom"}.String())
	assert.Equal(t, "/line_items/0: boom", validator.Issue{Path: "/line_items/0", Message: "boom"}.String())
}
