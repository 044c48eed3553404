package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
)

func parse(t *testing.T, input string) jsontree.Value {
	t.Helper()

	value, err := jsontree.Parse([]byte(input))
	require.NoError(t, err)

	return value
}

func asObject(t *testing.T, value jsontree.Value) *jsontree.Object {
	t.Helper()

	obj, ok := value.(*jsontree.Object)
	require.True(t, ok)

	return obj
}

func requiredList(t *testing.T, obj *jsontree.Object) []string {
	t.Helper()

	arr := obj.GetArray("required")
	if arr == nil {
		return nil
	}

	names := make([]string, 0, len(arr.Items))

	for _, item := range arr.Items {
		s, ok := item.(jsontree.String)
		require.True(t, ok)

		names = append(names, string(s))
	}

	return names
}

func TestResolveOmitRemovesFieldAndRequiredEntry(t *testing.T) {
	t.Parallel()

	schema := parse(t, `{
		"type": "object",
		"required": ["id", "name"],
		"properties": {
			"id": {"type": "string", "ucp_request": "omit"},
			"name": {"type": "string"}
		}
	}`)

	got, err := resolver.Resolve(schema, resolver.NewOptions(resolver.Request, "create"))
	require.NoError(t, err)

	obj := asObject(t, got)
	props := obj.GetObject("properties")
	require.NotNil(t, props)

	assert.False(t, props.Has("id"))
	assert.True(t, props.Has("name"))
	assert.Equal(t, []string{"name"}, requiredList(t, obj))

	out, err := jsontree.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`, string(out))
}

func TestResolveVisibilityRules(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		schema string
		op     string
		check  func(*testing.T, *jsontree.Object)
	}{
		"required adds to required": {
			schema: `{
				"type": "object",
				"properties": {"id": {"type": "string", "ucp_request": "required"}}
			}`,
			op: "create",
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()
				assert.Equal(t, []string{"id"}, requiredList(t, got))
			},
		},
		"optional removes from required": {
			schema: `{
				"type": "object",
				"required": ["id"],
				"properties": {"id": {"type": "string", "ucp_request": "optional"}}
			}`,
			op: "create",
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()
				assert.Empty(t, requiredList(t, got))
				assert.True(t, got.GetObject("properties").Has("id"))
			},
		},
		"include preserves original status": {
			schema: `{
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "string"},
					"name": {"type": "string"}
				}
			}`,
			op: "create",
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()
				assert.Equal(t, []string{"id"}, requiredList(t, got))
				assert.True(t, got.GetObject("properties").Has("name"))
			},
		},
		"other direction annotation ignored": {
			schema: `{
				"type": "object",
				"properties": {"id": {"type": "string", "ucp_response": "omit"}}
			}`,
			op: "create",
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()
				assert.True(t, got.GetObject("properties").Has("id"))
			},
		},
		"full omission emits empty required": {
			schema: `{
				"type": "object",
				"required": ["id"],
				"properties": {"id": {"type": "string", "ucp_request": "omit"}}
			}`,
			op: "create",
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()

				props := got.GetObject("properties")
				require.NotNil(t, props)
				assert.Equal(t, 0, props.Len())

				arr := got.GetArray("required")
				require.NotNil(t, arr)
				assert.Empty(t, arr.Items)
			},
		},
		"required names outside properties dropped": {
			schema: `{
				"type": "object",
				"required": ["id", "ghost"],
				"properties": {"id": {"type": "string"}}
			}`,
			op: "create",
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()
				assert.Equal(t, []string{"id"}, requiredList(t, got))
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := resolver.Resolve(parse(t, tc.schema), resolver.NewOptions(resolver.Request, tc.op))
			require.NoError(t, err)
			tc.check(t, asObject(t, got))
		})
	}
}

func TestResolvePerOperationDispatch(t *testing.T) {
	t.Parallel()

	schema := parse(t, `{
		"type": "object",
		"properties": {
			"id": {"type": "string", "ucp_request": {"create": "omit", "update": "required"}}
		}
	}`)

	// Operation comparison is case-insensitive.
	got, err := resolver.Resolve(schema, resolver.NewOptions(resolver.Request, "CREATE"))
	require.NoError(t, err)
	assert.False(t, asObject(t, got).GetObject("properties").Has("id"))

	got, err = resolver.Resolve(schema, resolver.NewOptions(resolver.Request, "update"))
	require.NoError(t, err)

	obj := asObject(t, got)
	assert.True(t, obj.GetObject("properties").Has("id"))
	assert.Equal(t, []string{"id"}, requiredList(t, obj))

	// Operations absent from the map default to include.
	got, err = resolver.Resolve(schema, resolver.NewOptions(resolver.Request, "read"))
	require.NoError(t, err)
	assert.True(t, asObject(t, got).GetObject("properties").Has("id"))
}

func TestResolveStripsAllAnnotations(t *testing.T) {
	t.Parallel()

	schema := parse(t, `{
		"type": "object",
		"properties": {
			"id": {"type": "string", "ucp_request": "required", "ucp_response": "omit"},
			"nested": {
				"type": "object",
				"properties": {
					"inner": {"type": "string", "ucp_response": "optional"}
				}
			}
		}
	}`)

	got, err := resolver.Resolve(schema, resolver.NewOptions(resolver.Request, "create"))
	require.NoError(t, err)

	out, err := jsontree.Marshal(got)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "ucp_request")
	assert.NotContains(t, string(out), "ucp_response")
}

func TestResolveTransitions(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		schema string
		op     string
		check  func(*testing.T, *jsontree.Object)
	}{
		"emits transition metadata": {
			schema: `{
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {
						"type": "string",
						"ucp_request": {
							"transition": {"from": "required", "to": "optional", "description": "Will become optional in v2."}
						}
					}
				}
			}`,
			op: "create",
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()

				prop := got.GetObject("properties").GetObject("id")
				require.NotNil(t, prop)

				info := prop.GetObject("x-ucp-schema-transition")
				require.NotNil(t, info)

				from, _ := info.GetString("from")
				to, _ := info.GetString("to")
				desc, _ := info.GetString("description")
				assert.Equal(t, "required", from)
				assert.Equal(t, "optional", to)
				assert.Equal(t, "Will become optional in v2.", desc)

				// from-state governs required membership.
				assert.Equal(t, []string{"id"}, requiredList(t, got))
				assert.False(t, prop.Has("deprecated"))
			},
		},
		"deprecated set when to is omit": {
			schema: `{
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {
						"type": "string",
						"ucp_request": {
							"transition": {"from": "optional", "to": "omit", "description": "Will be removed in v2."}
						}
					}
				}
			}`,
			op: "create",
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()

				prop := got.GetObject("properties").GetObject("id")
				require.NotNil(t, prop)
				assert.True(t, prop.Has("x-ucp-schema-transition"))

				deprecated, ok := prop.Get("deprecated")
				require.True(t, ok)
				assert.Equal(t, jsontree.Bool(true), deprecated)

				assert.Empty(t, requiredList(t, got))
			},
		},
		"per-operation transition": {
			schema: `{
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {
						"type": "string",
						"ucp_request": {
							"create": "omit",
							"update": {"transition": {"from": "required", "to": "omit", "description": "Removing in v2."}}
						}
					}
				}
			}`,
			op: "update",
			check: func(t *testing.T, got *jsontree.Object) {
				t.Helper()

				prop := got.GetObject("properties").GetObject("id")
				require.NotNil(t, prop)
				assert.Equal(t, []string{"id"}, requiredList(t, got))

				info := prop.GetObject("x-ucp-schema-transition")
				require.NotNil(t, info)

				desc, _ := info.GetString("description")
				assert.Equal(t, "Removing in v2.", desc)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := resolver.Resolve(parse(t, tc.schema), resolver.NewOptions(resolver.Request, tc.op))
			require.NoError(t, err)
			tc.check(t, asObject(t, got))
		})
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		schema string
		want   error
	}{
		"numeric annotation": {
			schema: `{"type":"object","properties":{"id":{"type":"string","ucp_request":123}}}`,
			want:   resolver.ErrInvalidAnnotationType,
		},
		"array annotation": {
			schema: `{"type":"object","properties":{"id":{"type":"string","ucp_request":["omit"]}}}`,
			want:   resolver.ErrInvalidAnnotationType,
		},
		"numeric operation entry": {
			schema: `{"type":"object","properties":{"id":{"type":"string","ucp_request":{"create":1}}}}`,
			want:   resolver.ErrInvalidAnnotationType,
		},
		"unknown visibility": {
			schema: `{"type":"object","properties":{"id":{"type":"string","ucp_request":"readonly"}}}`,
			want:   resolver.ErrUnknownVisibility,
		},
		"unknown visibility in map": {
			schema: `{"type":"object","properties":{"id":{"type":"string","ucp_request":{"create":"maybe"}}}}`,
			want:   resolver.ErrUnknownVisibility,
		},
		"transition missing description": {
			schema: `{"type":"object","properties":{"id":{"type":"string","ucp_request":{"transition":{"from":"required","to":"omit"}}}}}`,
			want:   resolver.ErrInvalidSchemaTransition,
		},
		"transition equal from and to": {
			schema: `{"type":"object","properties":{"id":{"type":"string","ucp_request":{"transition":{"from":"omit","to":"omit","description":"x"}}}}}`,
			want:   resolver.ErrInvalidSchemaTransition,
		},
		"transition unparseable visibility": {
			schema: `{"type":"object","properties":{"id":{"type":"string","ucp_request":{"transition":{"from":"hidden","to":"omit","description":"x"}}}}}`,
			want:   resolver.ErrInvalidSchemaTransition,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := resolver.Resolve(parse(t, tc.schema), resolver.NewOptions(resolver.Request, "create"))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResolvePreservesKeyOrderAndUnknownKeys(t *testing.T) {
	t.Parallel()

	schema := parse(t, `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"title": "Checkout",
		"type": "object",
		"x-vendor-extension": {"keep": true},
		"properties": {
			"zebra": {"type": "string"},
			"alpha": {"type": "string"}
		}
	}`)

	got, err := resolver.Resolve(schema, resolver.NewOptions(resolver.Request, "create"))
	require.NoError(t, err)

	obj := asObject(t, got)
	assert.Equal(t, []string{"$schema", "title", "type", "x-vendor-extension", "properties"}, obj.Keys())
	assert.Equal(t, []string{"zebra", "alpha"}, obj.GetObject("properties").Keys())
}

func TestResolveDefsAndCompositions(t *testing.T) {
	t.Parallel()

	schema := parse(t, `{
		"type": "object",
		"$defs": {
			"item": {
				"type": "object",
				"properties": {"sku": {"type": "string", "ucp_request": "omit"}}
			}
		},
		"properties": {
			"choice": {
				"anyOf": [
					{"type": "object", "properties": {"a": {"type": "string", "ucp_request": "omit"}}},
					{"type": "string"}
				]
			},
			"list": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {"hidden": {"type": "string", "ucp_request": "omit"}}
				}
			}
		}
	}`)

	got, err := resolver.Resolve(schema, resolver.NewOptions(resolver.Request, "create"))
	require.NoError(t, err)

	obj := asObject(t, got)

	defItem := obj.GetObject("$defs").GetObject("item")
	require.NotNil(t, defItem)
	assert.False(t, defItem.GetObject("properties").Has("sku"))

	choice := obj.GetObject("properties").GetObject("choice")
	require.NotNil(t, choice)

	branch := asObject(t, choice.GetArray("anyOf").Items[0])
	assert.False(t, branch.GetObject("properties").Has("a"))

	items := obj.GetObject("properties").GetObject("list").GetObject("items")
	require.NotNil(t, items)
	assert.False(t, items.GetObject("properties").Has("hidden"))
}
