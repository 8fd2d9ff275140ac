// Package sink persists transformed resources.
//
// A [Sink] receives the primary resources of a transform and stores every
// resource reachable from them exactly once. Relationship fields are stored
// as identifiers rather than embedded documents, so cyclic graphs serialize
// without special handling:
//
//	{"_id": "1", "type": "posts", "title": "Hello",
//	 "author": {"type": "people", "id": "9"},
//	 "tags": [{"type": "tags", "id": "a"}]}
//
// [MongoSink] upserts documents into one collection per resource type.
// [LinesSink] writes newline-delimited JSON to any io.Writer.
package sink

import (
	"context"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/observability"
)

// Sink stores the resources reachable from roots.
type Sink interface {
	Write(ctx context.Context, roots []jsonapi.Resource) (int, error)
	Close(ctx context.Context) error
}

// IDField is the document key holding the resource id.
const IDField = "_id"

// ToDocument flattens r into a storable document. Relationship fields become
// identifier objects (to-one) or identifier lists (to-many); nil
// relationships stay nil.
func ToDocument(r jsonapi.Resource) map[string]any {
	doc := make(map[string]any, len(r))
	for k, v := range r {
		switch v := v.(type) {
		case jsonapi.Resource:
			doc[k] = identifier(v)
		case []jsonapi.Resource:
			ids := make([]map[string]any, 0, len(v))
			for _, rel := range v {
				ids = append(ids, identifier(rel))
			}
			doc[k] = ids
		default:
			doc[k] = v
		}
	}
	delete(doc, jsonapi.FieldID)
	doc[IDField] = r.ID()
	return doc
}

func identifier(r jsonapi.Resource) map[string]any {
	if r == nil {
		return nil
	}
	return map[string]any{jsonapi.FieldType: r.Type(), jsonapi.FieldID: r.ID()}
}

// LinesSink writes one JSON document per line.
type LinesSink struct {
	enc *json.Encoder
}

// NewLinesSink returns a sink writing newline-delimited JSON to w.
func NewLinesSink(w io.Writer) *LinesSink {
	return &LinesSink{enc: json.NewEncoder(w)}
}

// Write encodes every reachable resource in breadth-first order.
func (s *LinesSink) Write(ctx context.Context, roots []jsonapi.Resource) (n int, err error) {
	start := time.Now()
	defer func() {
		observability.Sink().OnSinkWrite(ctx, "jsonl", n, time.Since(start), err)
	}()

	err = jsonapi.Walk(roots, func(r jsonapi.Resource) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.enc.Encode(ToDocument(r)); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// Close is a no-op; the caller owns the writer.
func (s *LinesSink) Close(context.Context) error { return nil }

var (
	_ Sink = (*LinesSink)(nil)
	_ Sink = (*MongoSink)(nil)
)
