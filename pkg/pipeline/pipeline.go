// Package pipeline runs the normalize → deserialize → extract transform.
//
// This package is the single entry point used by the CLI, the HTTP server
// and the API client. By centralizing the stage wiring here, every entry
// point produces the same graph for the same document.
//
// # Architecture
//
// The transform consists of three stages:
//
//  1. Normalize: index primary and included resources by (type, id)
//  2. Deserialize: materialize the primary data into a Resource graph
//  3. Extract: merge per-type computed fields onto a copy of each primary
//     resource
//
// # Usage
//
// Transform a decoded document directly:
//
//	out, err := pipeline.Transform(doc, pipeline.Options{Extractor: registry})
//
// Or use a Runner, which adds logging, observability hooks and structured
// error codes:
//
//	runner := pipeline.NewRunner(pipeline.Options{Extractor: registry}, logger)
//	result, err := runner.TransformBytes(ctx, "posts.json", data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, post := range result.Output.Slice() {
//	    fmt.Println(post["title"])
//	}
package pipeline

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/twill/pkg/deserialize"
	"github.com/matzehuels/twill/pkg/extract"
	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/normalize"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Server
// =============================================================================

// DefaultMaxResources bounds the resources materialized from one document.
const DefaultMaxResources = 100_000

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// =============================================================================
// Options - Transform Configuration
// =============================================================================

// Options contains all configuration for a transform.
// The serializable fields can be loaded from a config file or an API request.
type Options struct {
	// MaxResources bounds the number of materialized resources.
	// SetDefaults turns zero into DefaultMaxResources; zero or negative at
	// transform time means unbounded.
	MaxResources int `json:"max_resources,omitempty" toml:"max_resources" yaml:"max_resources"`

	// RelationshipLinks copies relationship links onto resources as
	// "<name>Links".
	RelationshipLinks bool `json:"relationship_links,omitempty" toml:"relationship_links" yaml:"relationship_links"`

	// ResourceLinks copies resource-level links and meta onto resources.
	ResourceLinks bool `json:"resource_links,omitempty" toml:"resource_links" yaml:"resource_links"`

	// Runtime options (not serialized)
	Extractor extract.Extractor `json:"-" toml:"-" yaml:"-"`
	Logger    *log.Logger       `json:"-" toml:"-" yaml:"-"`
}

// SetDefaults fills unset fields. It is idempotent.
func (o *Options) SetDefaults() {
	if o.MaxResources == 0 {
		o.MaxResources = DefaultMaxResources
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// DeserializeOptions converts o into deserializer options.
func (o Options) DeserializeOptions() []deserialize.Option {
	var opts []deserialize.Option
	if o.MaxResources > 0 {
		opts = append(opts, deserialize.WithMaxResources(o.MaxResources))
	}
	if o.RelationshipLinks {
		opts = append(opts, deserialize.WithRelationshipLinks())
	}
	if o.ResourceLinks {
		opts = append(opts, deserialize.WithResourceLinks())
	}
	return opts
}

// =============================================================================
// Transform
// =============================================================================

// Transform normalizes doc, deserializes its primary data and merges the
// extraction patch of each primary resource onto a copy of it.
//
// The result mirrors the cardinality of the primary data. Transform holds no
// state between calls and is safe for concurrent use.
func Transform(doc *jsonapi.Document, opts Options) (deserialize.Output, error) {
	n, err := normalize.Normalize(doc)
	if err != nil {
		return deserialize.Output{}, err
	}
	out, err := deserialize.Deserialize(n, opts.DeserializeOptions()...)
	if err != nil {
		return deserialize.Output{}, err
	}
	return Extract(out, opts.Extractor)
}

// Extract applies x to the primary resources of out.
//
// Each primary resource is replaced by a merged copy; the deserialized
// instance is never written to. A primary resource that appears at several
// positions of a collection is extracted once and every position holds the
// same merged copy. Related resources are not extracted.
// A nil extractor returns out unchanged.
func Extract(out deserialize.Output, x extract.Extractor) (deserialize.Output, error) {
	if x == nil || out.IsNull() {
		return out, nil
	}

	merged := make(map[jsonapi.Identifier]jsonapi.Resource)
	apply := func(r jsonapi.Resource) (jsonapi.Resource, error) {
		key := r.Identifier()
		if m, ok := merged[key]; ok {
			return m, nil
		}
		patch, err := x.Extract(r)
		if err != nil {
			return nil, err
		}
		m := r.Merge(patch)
		merged[key] = m
		return m, nil
	}

	if !out.Many {
		r, err := apply(out.One)
		if err != nil {
			return deserialize.Output{}, err
		}
		return deserialize.Output{One: r}, nil
	}

	items := make([]jsonapi.Resource, 0, len(out.Items))
	for _, r := range out.Items {
		m, err := apply(r)
		if err != nil {
			return deserialize.Output{}, err
		}
		items = append(items, m)
	}
	return deserialize.Output{Many: true, Items: items}, nil
}
