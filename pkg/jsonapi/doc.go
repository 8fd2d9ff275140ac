// Package jsonapi defines the wire types of a JSON:API compound document and
// the materialized [Resource] produced from it.
//
// # Wire Types
//
// A [Document] holds the primary data (absent, null, a single resource, or a
// collection) and the optional included sideloads. Every [RawResource] is
// addressed by an [Identifier], a (type, id) pair. Integral numeric ids
// received over the wire are canonicalised to their plain decimal string, so
// 7, 7.0, 7e0 and "7" address the same resource. Fractional numeric ids keep
// their literal text.
//
// Relationship linkage keeps three states apart: links-only (no data member),
// explicit null, and present linkage. See [Linkage].
//
// # Materialized Resources
//
// A [Resource] is a plain map holding id, type, flattened attributes, and
// relationship fields that point at other Resources. Maps are reference
// values in Go, so two relationship fields that hold the same Resource share
// one instance; use [Resource.Same] to check identity.
//
// Decoding uses github.com/goccy/go-json.
package jsonapi
