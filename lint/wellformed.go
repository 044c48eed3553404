package lint

import (
	json "github.com/goccy/go-json"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/resolver"
)

// schemaMarkers identify documents worth running the well-formedness check
// on; payloads and fixtures are skipped.
var schemaMarkers = []string{"$schema", "type", "properties", "allOf", "$defs", "definitions"}

// checkWellFormed runs the document through a JSON Schema implementation to
// catch keyword values of the wrong shape (e.g. a numeric `required`). The
// finding is a warning: the document may be intended for an engine with
// different extensions. Documents with external references are skipped,
// since those cannot resolve without fetching.
func (c *checker) checkWellFormed(root jsontree.Value, hasExternalRefs bool) {
	obj, ok := root.(*jsontree.Object)
	if !ok || hasExternalRefs {
		return
	}

	isSchema := false

	for _, marker := range schemaMarkers {
		if obj.Has(marker) {
			isSchema = true

			break
		}
	}

	if !isSchema {
		return
	}

	// Annotations are UCP dialect, not JSON Schema; strip before checking.
	data, err := jsontree.Marshal(resolver.StripAnnotations(root))
	if err != nil {
		return
	}

	var schema jsonschema.Schema

	err = json.Unmarshal(data, &schema)
	if err != nil {
		c.add(SeverityWarning, "schema-shape", "", err.Error())

		return
	}

	_, err = schema.Resolve(nil)
	if err != nil {
		c.add(SeverityWarning, "schema-shape", "", err.Error())
	}
}
