package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
)

func resolveStrict(t *testing.T, input string) *jsontree.Object {
	t.Helper()

	opts := resolver.NewOptions(resolver.Request, "create").WithStrict(true)

	got, err := resolver.Resolve(parse(t, input), opts)
	require.NoError(t, err)

	return asObject(t, got)
}

func TestStrictClosesSimpleObjectSchemas(t *testing.T) {
	t.Parallel()

	got := resolveStrict(t, `{
		"type": "object",
		"properties": {
			"buyer": {
				"type": "object",
				"properties": {"email": {"type": "string"}}
			},
			"note": {"type": "string"}
		}
	}`)

	closed, ok := got.Get("additionalProperties")
	require.True(t, ok)
	assert.Equal(t, jsontree.Bool(false), closed)

	buyer := got.GetObject("properties").GetObject("buyer")
	closed, ok = buyer.Get("additionalProperties")
	require.True(t, ok)
	assert.Equal(t, jsontree.Bool(false), closed)

	// Non-object property schemas are untouched.
	note := got.GetObject("properties").GetObject("note")
	assert.False(t, note.Has("additionalProperties"))
}

func TestStrictCompositionUsesUnevaluatedProperties(t *testing.T) {
	t.Parallel()

	got := resolveStrict(t, `{
		"allOf": [
			{
				"type": "object",
				"properties": {
					"shipping": {
						"type": "object",
						"properties": {"method": {"type": "string"}}
					}
				}
			},
			{
				"type": "object",
				"properties": {"gift": {"type": "boolean"}}
			}
		]
	}`)

	// The composition node is closed with unevaluatedProperties, which
	// sees across subschemas.
	closed, ok := got.Get("unevaluatedProperties")
	require.True(t, ok)
	assert.Equal(t, jsontree.Bool(false), closed)
	assert.False(t, got.Has("additionalProperties"))

	branches := got.GetArray("allOf")
	require.Len(t, branches.Items, 2)

	// Direct branches are never closed: each is validated independently
	// and must not reject sibling branches' properties.
	for _, branch := range branches.Items {
		obj := asObject(t, branch)
		assert.False(t, obj.Has("additionalProperties"))
		assert.False(t, obj.Has("unevaluatedProperties"))
	}

	// Objects nested inside branches do get closed.
	shipping := asObject(t, branches.Items[0]).GetObject("properties").GetObject("shipping")
	closed, ok = shipping.Get("additionalProperties")
	require.True(t, ok)
	assert.Equal(t, jsontree.Bool(false), closed)
}

func TestStrictOverwriteRules(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		schema string
		check  func(*testing.T, *jsontree.Object)
	}{
		"explicit true overwritten": {
			schema: `{"type": "object", "additionalProperties": true}`,
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()

				v, ok := got.Get("additionalProperties")
				require.True(t, ok)
				assert.Equal(t, jsontree.Bool(false), v)
			},
		},
		"explicit false kept": {
			schema: `{"type": "object", "additionalProperties": false}`,
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()

				v, ok := got.Get("additionalProperties")
				require.True(t, ok)
				assert.Equal(t, jsontree.Bool(false), v)
			},
		},
		"schema-valued additionalProperties kept and closed inside": {
			schema: `{
				"type": "object",
				"additionalProperties": {"type": "object", "properties": {"x": {"type": "string"}}}
			}`,
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()

				ap := got.GetObject("additionalProperties")
				require.NotNil(t, ap)

				v, ok := ap.Get("additionalProperties")
				require.True(t, ok)
				assert.Equal(t, jsontree.Bool(false), v)
			},
		},
		"defs are closed": {
			schema: `{
				"type": "object",
				"$defs": {"item": {"type": "object", "properties": {"sku": {"type": "string"}}}}
			}`,
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()

				item := got.GetObject("$defs").GetObject("item")
				v, ok := item.Get("additionalProperties")
				require.True(t, ok)
				assert.Equal(t, jsontree.Bool(false), v)
			},
		},
		"anyOf branches not closed": {
			schema: `{
				"anyOf": [
					{"type": "object", "properties": {"a": {"type": "string"}}},
					{"type": "string"}
				]
			}`,
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()

				v, ok := got.Get("unevaluatedProperties")
				require.True(t, ok)
				assert.Equal(t, jsontree.Bool(false), v)

				branch := asObject(t, got.GetArray("anyOf").Items[0])
				assert.False(t, branch.Has("additionalProperties"))
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tc.check(t, resolveStrict(t, tc.schema))
		})
	}
}

func TestNonStrictLeavesSchemasOpen(t *testing.T) {
	t.Parallel()

	got, err := resolver.Resolve(
		parse(t, `{"type": "object", "properties": {"a": {"type": "string"}}}`),
		resolver.NewOptions(resolver.Request, "create"))
	require.NoError(t, err)

	assert.False(t, asObject(t, got).Has("additionalProperties"))
}
