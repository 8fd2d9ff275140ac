package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/pipeline"
)

// Query builds the query string of one GET request.
//
// Builder methods return the receiver so calls can be chained. An invalid
// argument is remembered and reported by URL, Fetch and Transform.
type Query struct {
	client *Client
	target *url.URL
	err    error

	include []string
	fields  map[string][]string
	params  url.Values
	sort    []string
}

// Include requests related resources to be sideloaded.
// Dotted paths such as "comments.author" are passed through.
func (q *Query) Include(paths ...string) *Query {
	q.include = append(q.include, paths...)
	return q
}

// Fields restricts the fields returned for resources of type typ.
func (q *Query) Fields(typ string, fields ...string) *Query {
	if q.fields == nil {
		q.fields = make(map[string][]string)
	}
	q.fields[typ] = append(q.fields[typ], fields...)
	return q
}

// Filter adds filter[key]=value.
func (q *Query) Filter(key, value string) *Query {
	return q.Param("filter["+key+"]", value)
}

// Sort sets the sort order; prefix a field with '-' for descending.
func (q *Query) Sort(fields ...string) *Query {
	q.sort = append(q.sort, fields...)
	return q
}

// Page sets page[number] and page[size]. Non-positive values are omitted.
func (q *Query) Page(number, size int) *Query {
	if number > 0 {
		q.Param("page[number]", strconv.Itoa(number))
	}
	if size > 0 {
		q.Param("page[size]", strconv.Itoa(size))
	}
	return q
}

// Param sets an arbitrary query parameter, replacing earlier values.
func (q *Query) Param(key, value string) *Query {
	if q.params == nil {
		q.params = make(url.Values)
	}
	q.params.Set(key, value)
	return q
}

// Err returns the first invalid argument recorded by the builder.
func (q *Query) Err() error { return q.err }

// URL renders the request URL. Parameters are sorted by key, so equal
// queries render equal URLs and share cache entries.
func (q *Query) URL() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	u := *q.target
	values := u.Query()
	for k, vs := range q.params {
		values[k] = vs
	}
	if len(q.include) > 0 {
		values.Set("include", strings.Join(q.include, ","))
	}
	for typ, fields := range q.fields {
		values.Set("fields["+typ+"]", strings.Join(fields, ","))
	}
	if len(q.sort) > 0 {
		values.Set("sort", strings.Join(q.sort, ","))
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// FetchBytes performs the request and returns the raw body.
func (q *Query) FetchBytes(ctx context.Context) ([]byte, error) {
	u, err := q.URL()
	if err != nil {
		return nil, err
	}
	return q.client.fetch(ctx, u)
}

// Fetch performs the request and decodes the document.
func (q *Query) Fetch(ctx context.Context) (*jsonapi.Document, error) {
	body, err := q.FetchBytes(ctx)
	if err != nil {
		return nil, err
	}
	return jsonapi.Decode(body)
}

// Transform fetches the document and runs it through r.
func (q *Query) Transform(ctx context.Context, r *pipeline.Runner) (*pipeline.Result, error) {
	u, err := q.URL()
	if err != nil {
		return nil, err
	}
	body, err := q.client.fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	return r.TransformBytes(ctx, u, body)
}
