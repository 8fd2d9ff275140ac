package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/twill/pkg/deserialize"
	"github.com/matzehuels/twill/pkg/io"
	"github.com/matzehuels/twill/pkg/render"
)

// RenderOptions controls how a transform output is encoded.
type RenderOptions struct {
	// Indent pretty-prints JSON output.
	Indent bool `json:"indent,omitempty"`
	// MaxDepth limits relationship expansion in JSON output. Zero is unlimited.
	MaxDepth int `json:"max_depth,omitempty"`
	// Detailed adds scalar attributes to graph node labels.
	Detailed bool `json:"detailed,omitempty"`
	// LabelFields overrides the attributes used for graph node labels.
	LabelFields []string `json:"label_fields,omitempty"`
}

// ContentTypes maps output formats to HTTP content types.
var ContentTypes = map[string]string{
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
	FormatSVG:  "image/svg+xml",
}

// Render encodes out in the given format.
func Render(ctx context.Context, out deserialize.Output, format string, opts RenderOptions) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := io.WriteJSON(&buf, out, io.Options{Indent: opts.Indent, MaxDepth: opts.MaxDepth}); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return buf.Bytes(), nil
	case FormatDOT:
		return []byte(render.ToDOT(out, graphOptions(opts))), nil
	case FormatSVG:
		data, err := render.RenderSVG(ctx, render.ToDOT(out, graphOptions(opts)))
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		return data, nil
	}
	return nil, ValidateFormat(format)
}

// RenderAll encodes out in every requested format.
// The DOT source is built once and shared by the dot and svg formats.
func RenderAll(ctx context.Context, out deserialize.Output, formats []string, opts RenderOptions) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))
	var dot string
	for _, format := range formats {
		if err := ValidateFormat(format); err != nil {
			return nil, err
		}
		if format == FormatJSON {
			data, err := Render(ctx, out, format, opts)
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
			continue
		}

		if dot == "" {
			dot = render.ToDOT(out, graphOptions(opts))
		}
		if format == FormatDOT {
			artifacts[format] = []byte(dot)
			continue
		}
		data, err := render.RenderSVG(ctx, dot)
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func graphOptions(opts RenderOptions) render.Options {
	return render.Options{LabelFields: opts.LabelFields, Detailed: opts.Detailed}
}
