// Package normalize flattens a JSON:API compound document into an index.
//
// [Normalize] walks the primary data and the included sideloads once and
// records every resource under its (type, id) key, together with a [Result]
// that preserves the shape of the primary data. No relationship is resolved
// here; see package deserialize for that.
//
// When the same key appears more than once, primary data wins over included
// data, and otherwise the first occurrence wins.
package normalize

import (
	"github.com/matzehuels/twill/pkg/jsonapi"
)

// Normalized is the flat form of a document.
type Normalized struct {
	// Result references the primary data, preserving its cardinality,
	// order and duplicates.
	Result jsonapi.Result

	// Resources indexes every primary and included resource.
	Resources jsonapi.Index
}

// Normalize builds the index and result reference for doc.
//
// It returns a [jsonapi.MalformedDocumentError] when doc is nil, when the
// top-level data member is absent, or when a resource lacks a type or id.
// data: null is not an error and yields a null Result.
func Normalize(doc *jsonapi.Document) (*Normalized, error) {
	if doc == nil {
		return nil, jsonapi.Malformed("document is nil")
	}
	if !doc.Data.Present {
		return nil, jsonapi.Malformed("top-level data member is missing")
	}

	primary := doc.Data.Items
	if !doc.Data.Many && doc.Data.One != nil {
		primary = []jsonapi.RawResource{*doc.Data.One}
	}

	n := &Normalized{
		Resources: make(jsonapi.Index, len(primary)+len(doc.Included)),
	}

	ids := make([]jsonapi.Identifier, 0, len(primary))
	for i := range primary {
		raw := &primary[i]
		id := raw.Identifier()
		if !id.Valid() {
			return nil, jsonapi.Malformed("primary resource at index %d has no type or id", i)
		}
		if _, seen := n.Resources[id]; !seen {
			n.Resources[id] = raw
		}
		ids = append(ids, id)
	}

	for i := range doc.Included {
		raw := &doc.Included[i]
		id := raw.Identifier()
		if !id.Valid() {
			return nil, jsonapi.Malformed("included resource at index %d has no type or id", i)
		}
		if _, seen := n.Resources[id]; !seen {
			n.Resources[id] = raw
		}
	}

	switch {
	case doc.Data.Many:
		n.Result = jsonapi.Result{Many: true, Items: ids}
	case len(ids) == 1:
		n.Result = jsonapi.Result{One: &ids[0]}
	}
	return n, nil
}
