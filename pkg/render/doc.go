// Package render draws the relationship graph of transformed resources.
//
// # Overview
//
// Every resource reachable from the primary data becomes a node; every
// relationship field becomes an edge labelled with the field name. Primary
// resources are drawn with a bold outline.
//
//	dot := render.ToDOT(out, render.Options{LabelFields: []string{"title", "name"}})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [ToDOT] returns Graphviz DOT source and needs nothing else. [RenderSVG]
// lays out and renders the DOT source with the embedded Graphviz from
// github.com/goccy/go-graphviz.
package render
