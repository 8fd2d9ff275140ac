// Package extract derives computed fields for materialized resources.
//
// A [Registry] maps a resource type to a [Rule]. [Registry.Extract] returns
// the patch produced by the rule registered for the resource's type; types
// without a rule yield an empty patch. The caller merges the patch onto a
// copy of the resource (see [jsonapi.Resource.Merge]); extraction never
// writes to the resource it is given.
//
// # Rules
//
// Rules are plain functions. The package ships constructors for the common
// cases:
//
//   - [Translated]: hoist localized fields to the top level
//   - [Join]: build a display string from several attributes
//   - [Expressions]: compute fields with CEL expressions
//   - [Chain]: combine several rules
//
// Rule errors are not contained. They are returned to the caller wrapped
// with the identifier of the resource being extracted.
package extract

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/twill/pkg/jsonapi"
)

// Rule computes derived fields for one resource. A rule must not mutate r.
type Rule func(r jsonapi.Resource) (map[string]any, error)

// Extractor produces the patch to merge onto a resource.
type Extractor interface {
	Extract(r jsonapi.Resource) (map[string]any, error)
}

// Registry dispatches extraction by resource type.
// A nil *Registry is valid and extracts nothing.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register sets the rule for resourceType, replacing any previous one.
// A nil rule removes the registration.
func (x *Registry) Register(resourceType string, rule Rule) *Registry {
	if rule == nil {
		delete(x.rules, resourceType)
		return x
	}
	x.rules[resourceType] = rule
	return x
}

// Types returns the registered resource types, sorted.
func (x *Registry) Types() []string {
	if x == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(x.rules))
}

// Extract runs the rule registered for r's type. The rule sees a shallow
// copy of r, so top-level writes by a careless rule cannot reach the shared
// instance.
func (x *Registry) Extract(r jsonapi.Resource) (map[string]any, error) {
	if x == nil || r == nil {
		return map[string]any{}, nil
	}
	rule, ok := x.rules[r.Type()]
	if !ok {
		return map[string]any{}, nil
	}
	patch, err := rule(r.Clone())
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", r.Identifier(), err)
	}
	if patch == nil {
		patch = map[string]any{}
	}
	return patch, nil
}

// Chain runs rules in order and merges their patches; later rules win.
func Chain(rules ...Rule) Rule {
	return func(r jsonapi.Resource) (map[string]any, error) {
		out := make(map[string]any)
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			patch, err := rule(r)
			if err != nil {
				return nil, err
			}
			maps.Copy(out, patch)
		}
		return out, nil
	}
}

var _ Extractor = (*Registry)(nil)
