package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/twill/pkg/deserialize"
	"github.com/matzehuels/twill/pkg/jsonapi"
)

// Options configures relationship graph rendering.
type Options struct {
	// LabelFields are tried in order for a human-readable node label.
	// The first string attribute found is shown below "type:id".
	LabelFields []string

	// Detailed includes every scalar attribute in node labels.
	Detailed bool
}

// DefaultLabelFields are used when Options.LabelFields is empty.
var DefaultLabelFields = []string{"title", "name", "label", "slug"}

// ToDOT converts the resources reachable from out to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Node and edge order is deterministic: nodes follow a breadth-first walk
// from the primary resources, edges follow relationship names in order.
func ToDOT(out deserialize.Output, opts Options) string {
	if len(opts.LabelFields) == 0 {
		opts.LabelFields = DefaultLabelFields
	}

	primary := make(map[string]bool)
	for _, r := range out.Slice() {
		primary[r.Identifier().Key()] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10, color=\"#555555\"];\n")
	buf.WriteString("\n")

	var edges []string
	_ = jsonapi.Walk(out.Slice(), func(r jsonapi.Resource) error {
		key := r.Identifier().Key()
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(r, opts))}
		if primary[key] {
			attrs = append(attrs, "penwidth=2.5")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", key, strings.Join(attrs, ", "))

		for _, name := range r.Related() {
			for _, target := range targets(r[name]) {
				edges = append(edges, fmt.Sprintf("  %q -> %q [label=%q];\n", key, target.Identifier().Key(), name))
			}
		}
		return nil
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func targets(v any) []jsonapi.Resource {
	switch v := v.(type) {
	case jsonapi.Resource:
		if v != nil {
			return []jsonapi.Resource{v}
		}
	case []jsonapi.Resource:
		seen := make(map[string]bool, len(v))
		out := make([]jsonapi.Resource, 0, len(v))
		for _, r := range v {
			if r == nil || seen[r.Identifier().Key()] {
				continue
			}
			seen[r.Identifier().Key()] = true
			out = append(out, r)
		}
		return out
	}
	return nil
}

func fmtLabel(r jsonapi.Resource, opts Options) string {
	label := r.Identifier().Key()
	for _, f := range opts.LabelFields {
		if s := r.StringAttr(f); s != "" {
			label += "\n" + s
			break
		}
	}
	if !opts.Detailed {
		return label
	}

	var parts []string
	for _, k := range slices.Sorted(maps.Keys(r)) {
		if k == jsonapi.FieldID || k == jsonapi.FieldType {
			continue
		}
		switch v := r[k].(type) {
		case string, float64, int, int64, bool:
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}
