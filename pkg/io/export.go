package io

import (
	"fmt"
	"io"
	"maps"
	"os"
	"reflect"
	"slices"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/twill/pkg/deserialize"
	"github.com/matzehuels/twill/pkg/jsonapi"
)

// Options configures [WriteJSON].
type Options struct {
	// Indent pretty-prints the output with two-space indentation.
	Indent bool

	// MaxDepth limits how many relationship levels are expanded below a
	// primary resource; deeper resources are written as identifiers.
	// Zero means unlimited. Negative values are treated as zero.
	MaxDepth int
}

// WriteJSON encodes out and writes it to w.
func WriteJSON(w io.Writer, out deserialize.Output, opts Options) error {
	tree := ToTree(out, opts.MaxDepth)

	var (
		data []byte
		err  error
	)
	if opts.Indent {
		data, err = json.MarshalIndent(tree, "", "  ")
	} else {
		data, err = json.Marshal(tree)
	}
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ExportJSON writes out to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(out deserialize.Output, path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(f, out, opts)
}

// ToTree converts out into acyclic plain values (maps, slices, scalars)
// ready for any JSON encoder. maxDepth has the meaning of Options.MaxDepth.
//
// Each primary resource is expanded in full. Below the primary level a
// resource is expanded at its first position in key order; later positions,
// and positions that would close a cycle, hold its identifier. The output
// therefore grows with the number of resources and references, not with the
// number of paths through the graph.
func ToTree(out deserialize.Output, maxDepth int) any {
	t := treeWriter{
		onPath:   make(map[uintptr]bool),
		written:  make(map[uintptr]bool),
		maxDepth: maxDepth,
	}
	if out.Many {
		items := make([]any, len(out.Items))
		for i, r := range out.Items {
			items[i] = t.expand(r, 0)
		}
		return items
	}
	if out.One == nil {
		return nil
	}
	return t.expand(out.One, 0)
}

type treeWriter struct {
	onPath   map[uintptr]bool
	written  map[uintptr]bool
	maxDepth int
}

func (t *treeWriter) resource(r jsonapi.Resource, depth int) any {
	if r == nil {
		return nil
	}
	ptr := reflect.ValueOf(r).Pointer()
	if t.onPath[ptr] || t.written[ptr] || (t.maxDepth > 0 && depth > t.maxDepth) {
		return identifier(r)
	}
	return t.expand(r, depth)
}

func (t *treeWriter) expand(r jsonapi.Resource, depth int) any {
	if r == nil {
		return nil
	}
	ptr := reflect.ValueOf(r).Pointer()
	t.onPath[ptr] = true
	t.written[ptr] = true
	defer delete(t.onPath, ptr)

	out := make(map[string]any, len(r))
	for _, k := range slices.Sorted(maps.Keys(r)) {
		out[k] = t.value(r[k], depth)
	}
	return out
}

func (t *treeWriter) value(v any, depth int) any {
	switch v := v.(type) {
	case jsonapi.Resource:
		return t.resource(v, depth+1)
	case []jsonapi.Resource:
		items := make([]any, len(v))
		for i, r := range v {
			items[i] = t.resource(r, depth+1)
		}
		return items
	}
	return v
}

func identifier(r jsonapi.Resource) map[string]any {
	return map[string]any{jsonapi.FieldID: r.ID(), jsonapi.FieldType: r.Type()}
}
