// Package pkg provides the libraries behind twill, a client-side JSON:API
// transform pipeline.
//
// # Overview
//
// A JSON:API document keeps resources flat: primary data refers to related
// resources by {type, id}, and the related resources themselves sit in the
// "included" member. Twill turns such a document into linked objects:
//
//	JSON:API document
//	         ↓
//	    [jsonapi] package (decode, types)
//	         ↓
//	    [normalize] package (index data + included by identifier)
//	         ↓
//	    [deserialize] package (flatten attributes, resolve relationships)
//	         ↓
//	    [extract] package (derived fields for primary resources)
//	         ↓
//	    single resource, slice, or null
//
// [pipeline] orchestrates the stages and is used by the CLI and the HTTP
// server alike.
//
// # Quick Start
//
//	doc, _ := jsonapi.Decode(data)
//	out, _ := pipeline.Transform(doc, pipeline.Options{})
//	for _, post := range out.Slice() {
//	    author := post.One("author")
//	    fmt.Println(post["title"], author["name"])
//	}
//
// Resources that appear several times in a document are materialized once:
// every relationship naming them points at the same [jsonapi.Resource], and
// cycles are represented as cycles.
//
// # Main Packages
//
// ## Core
//
// [jsonapi] - Document types, decoding, identifiers and the materialized
// Resource type.
//
// [normalize] - Builds the identifier index over data and included.
//
// [deserialize] - Materializes resources with an explicit work stack, so deep
// relationship chains never exhaust the goroutine stack.
//
// [extract] - Per-type extraction rules: translations, joins, renames and
// CEL expressions.
//
// [pipeline] - Transform, Runner (logging, hooks, error codes) and output
// rendering.
//
// ## Access
//
// [client] - HTTP client for JSON:API servers with query building, caching
// and retries.
//
// [cache] - Cache backends: null, file and Redis.
//
// [config] - TOML and YAML configuration files.
//
// ## Output
//
// [io] - Cycle-safe JSON encoding of transformed resources.
//
// [render] - Relationship graphs as Graphviz DOT and SVG.
//
// [sink] - Persist resources to MongoDB or newline-delimited JSON.
//
// ## Support
//
// [errors] - Structured error codes and input validation.
//
// [httputil] - Retry helpers.
//
// [observability] - Hook registry with an OpenTelemetry implementation.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/deserialize/...        # Specific package
//
// [jsonapi]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/jsonapi
// [normalize]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/normalize
// [deserialize]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/deserialize
// [extract]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/extract
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/pipeline
// [client]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/client
// [cache]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/config
// [io]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/render
// [sink]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/sink
// [errors]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/twill/pkg/buildinfo
package pkg
