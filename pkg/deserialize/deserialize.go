// Package deserialize materializes a normalized JSON:API document into a
// graph of [jsonapi.Resource] values.
//
// # Materialization
//
// Each identifier is materialized at most once per call. The record is put
// into the cache before any of its relationships are resolved, so a
// relationship that leads back to it (directly or through a cycle) finds the
// same, possibly still incomplete, instance. Relationship resolution is
// driven by an explicit work stack rather than recursion, so the depth of an
// acyclic relationship chain is not limited by the goroutine stack.
//
// Relationships resolve as follows:
//
//   - to-one linkage: the related Resource, or nil for an explicit null
//   - to-many linkage: a []Resource in server order, duplicates kept
//   - links only, no data member: nil
//
// An identifier that is referenced but was not sideloaded resolves to a
// placeholder holding only id and type.
package deserialize

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/normalize"
)

// ErrTooManyResources is returned when a document materializes more
// resources than allowed by [WithMaxResources].
var ErrTooManyResources = errors.New("too many resources")

// LinksSuffix is appended to a relationship name to form the field that
// carries its links when [WithRelationshipLinks] is set.
const LinksSuffix = "Links"

// Output mirrors the cardinality of the primary data.
type Output struct {
	// Many is true for a collection response.
	Many bool

	// One is the primary resource of a single response, nil for data: null.
	One jsonapi.Resource

	// Items holds the primary resources of a collection response.
	Items []jsonapi.Resource
}

// IsNull reports whether the primary data was null.
func (o Output) IsNull() bool { return !o.Many && o.One == nil }

// Slice returns the primary resources as a slice: empty for null, one
// element for a single response.
func (o Output) Slice() []jsonapi.Resource {
	switch {
	case o.Many:
		return o.Items
	case o.One != nil:
		return []jsonapi.Resource{o.One}
	}
	return []jsonapi.Resource{}
}

// Len returns the number of primary resources.
func (o Output) Len() int { return len(o.Slice()) }

// Option configures [Deserialize].
type Option func(*options)

type options struct {
	maxResources      int
	relationshipLinks bool
	resourceLinks     bool
}

// WithMaxResources bounds the number of resources materialized in one call.
// Zero or negative means unbounded.
func WithMaxResources(n int) Option {
	return func(o *options) { o.maxResources = n }
}

// WithRelationshipLinks copies each relationship's links onto the
// materialized resource under "<name>Links".
func WithRelationshipLinks() Option {
	return func(o *options) { o.relationshipLinks = true }
}

// WithResourceLinks copies resource-level links and meta onto the
// materialized resource under "links" and "meta".
func WithResourceLinks() Option {
	return func(o *options) { o.resourceLinks = true }
}

// Deserialize materializes the primary data of n.
//
// A fresh cache is used for every call: deserializing the same input twice
// yields deep-equal graphs that share no instances.
func Deserialize(n *normalize.Normalized, opts ...Option) (Output, error) {
	if n == nil {
		return Output{}, jsonapi.Malformed("normalized document is nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := &deserializer{
		index: n.Resources,
		cache: make(map[jsonapi.Identifier]jsonapi.Resource, len(n.Resources)),
		opts:  o,
	}

	if n.Result.Many {
		items := make([]jsonapi.Resource, 0, len(n.Result.Items))
		for _, id := range n.Result.Items {
			r, err := d.materialize(id)
			if err != nil {
				return Output{}, err
			}
			items = append(items, r)
		}
		return Output{Many: true, Items: items}, nil
	}
	if n.Result.One == nil {
		return Output{}, nil
	}
	r, err := d.materialize(*n.Result.One)
	if err != nil {
		return Output{}, err
	}
	return Output{One: r}, nil
}

// frame is a cached resource whose relationship fields are not filled yet.
type frame struct {
	res jsonapi.Resource
	raw *jsonapi.RawResource
}

type deserializer struct {
	index jsonapi.Index
	cache map[jsonapi.Identifier]jsonapi.Resource
	stack []frame
	opts  options
}

// materialize returns the complete resource for id.
func (d *deserializer) materialize(id jsonapi.Identifier) (jsonapi.Resource, error) {
	r, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := d.drain(); err != nil {
		return nil, err
	}
	return r, nil
}

// lookup returns the cached instance for id, creating and caching it with
// attributes only when first seen. New records are pushed onto the stack
// for relationship resolution.
func (d *deserializer) lookup(id jsonapi.Identifier) (jsonapi.Resource, error) {
	if r, ok := d.cache[id]; ok {
		return r, nil
	}
	if d.opts.maxResources > 0 && len(d.cache) >= d.opts.maxResources {
		return nil, fmt.Errorf("%w: limit %d reached at %s", ErrTooManyResources, d.opts.maxResources, id)
	}

	raw, ok := d.index[id]
	if !ok {
		r := jsonapi.NewResource(id)
		d.cache[id] = r
		return r, nil
	}

	r := make(jsonapi.Resource, len(raw.Attributes)+len(raw.Relationships)+2)
	for name, v := range raw.Attributes {
		if name == jsonapi.FieldID || name == jsonapi.FieldType {
			continue
		}
		r[name] = v
	}
	r[jsonapi.FieldID] = id.ID
	r[jsonapi.FieldType] = id.Type
	if d.opts.resourceLinks {
		if len(raw.Links) > 0 {
			r["links"] = raw.Links
		}
		if len(raw.Meta) > 0 {
			r["meta"] = raw.Meta
		}
	}

	d.cache[id] = r
	if len(raw.Relationships) > 0 {
		d.stack = append(d.stack, frame{res: r, raw: raw})
	}
	return r, nil
}

// drain fills relationship fields until no pending record remains.
func (d *deserializer) drain() error {
	for len(d.stack) > 0 {
		f := d.stack[len(d.stack)-1]
		d.stack = d.stack[:len(d.stack)-1]

		for _, name := range slices.Sorted(maps.Keys(f.raw.Relationships)) {
			if err := d.resolve(f.res, name, f.raw.Relationships[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *deserializer) resolve(r jsonapi.Resource, name string, rel jsonapi.Relationship) error {
	if d.opts.relationshipLinks && len(rel.Links) > 0 {
		r[name+LinksSuffix] = rel.Links
	}

	switch {
	case !rel.Data.Present, rel.Data.IsNull():
		r[name] = nil
	case rel.Data.Many:
		items := make([]jsonapi.Resource, 0, len(rel.Data.Items))
		for _, id := range rel.Data.Items {
			related, err := d.lookup(id)
			if err != nil {
				return err
			}
			items = append(items, related)
		}
		r[name] = items
	default:
		related, err := d.lookup(*rel.Data.One)
		if err != nil {
			return err
		}
		r[name] = related
	}
	return nil
}
