package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/twill/pkg/jsonapi"
)

func decode(t *testing.T, s string) *jsonapi.Document {
	t.Helper()
	doc, err := jsonapi.Decode([]byte(s))
	require.NoError(t, err)
	return doc
}

func TestNormalize_Single(t *testing.T) {
	doc := decode(t, `{
		"data": {"type":"posts","id":"1","attributes":{"title":"A"}},
		"included": [{"type":"people","id":"9"}]
	}`)

	n, err := Normalize(doc)
	require.NoError(t, err)

	assert.False(t, n.Result.Many)
	require.NotNil(t, n.Result.One)
	assert.Equal(t, jsonapi.Identifier{Type: "posts", ID: "1"}, *n.Result.One)
	assert.Len(t, n.Resources, 2)

	raw, ok := n.Resources.Lookup(jsonapi.Identifier{Type: "people", ID: "9"})
	require.True(t, ok)
	assert.Equal(t, "people", raw.Type)
}

func TestNormalize_CollectionKeepsOrderAndDuplicates(t *testing.T) {
	doc := decode(t, `{"data":[
		{"type":"posts","id":"x"},
		{"type":"posts","id":"y"},
		{"type":"posts","id":"x"}
	]}`)

	n, err := Normalize(doc)
	require.NoError(t, err)

	assert.True(t, n.Result.Many)
	assert.Equal(t, []jsonapi.Identifier{
		{Type: "posts", ID: "x"},
		{Type: "posts", ID: "y"},
		{Type: "posts", ID: "x"},
	}, n.Result.Identifiers())
	assert.Len(t, n.Resources, 2)
}

func TestNormalize_EmptyCollection(t *testing.T) {
	n, err := Normalize(decode(t, `{"data":[]}`))
	require.NoError(t, err)
	assert.True(t, n.Result.Many)
	assert.Empty(t, n.Result.Items)
	assert.False(t, n.Result.IsNull())
}

func TestNormalize_Null(t *testing.T) {
	n, err := Normalize(decode(t, `{"data":null,"included":[{"type":"people","id":"1"}]}`))
	require.NoError(t, err)
	assert.True(t, n.Result.IsNull())
	assert.Len(t, n.Resources, 1)
}

func TestNormalize_MissingData(t *testing.T) {
	_, err := Normalize(decode(t, `{"included":[]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, jsonapi.ErrMalformedDocument))

	var mde *jsonapi.MalformedDocumentError
	assert.True(t, errors.As(err, &mde))
}

func TestNormalize_NilDocument(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, jsonapi.ErrMalformedDocument)
}

func TestNormalize_ResourceWithoutID(t *testing.T) {
	_, err := Normalize(decode(t, `{"data":{"type":"posts"}}`))
	assert.ErrorIs(t, err, jsonapi.ErrMalformedDocument)

	_, err = Normalize(decode(t, `{"data":null,"included":[{"id":"1"}]}`))
	assert.ErrorIs(t, err, jsonapi.ErrMalformedDocument)
}

func TestNormalize_PrimaryWinsOverIncluded(t *testing.T) {
	doc := decode(t, `{
		"data": {"type":"posts","id":"1","attributes":{"title":"primary"}},
		"included": [
			{"type":"posts","id":"1","attributes":{"title":"included"}},
			{"type":"people","id":"2","attributes":{"name":"first"}},
			{"type":"people","id":"2","attributes":{"name":"second"}}
		]
	}`)

	n, err := Normalize(doc)
	require.NoError(t, err)

	post, _ := n.Resources.Lookup(jsonapi.Identifier{Type: "posts", ID: "1"})
	assert.Equal(t, "primary", post.Attributes["title"])

	person, _ := n.Resources.Lookup(jsonapi.Identifier{Type: "people", ID: "2"})
	assert.Equal(t, "first", person.Attributes["name"])
}

func TestNormalize_ColonsInTypeAndID(t *testing.T) {
	n, err := Normalize(decode(t, `{"data":[
		{"type":"a","id":"b:c","attributes":{"name":"first"}},
		{"type":"a:b","id":"c","attributes":{"name":"second"}}
	]}`))
	require.NoError(t, err)
	assert.Len(t, n.Resources, 2)

	first, ok := n.Resources.Lookup(jsonapi.Identifier{Type: "a", ID: "b:c"})
	require.True(t, ok)
	assert.Equal(t, "first", first.Attributes["name"])

	second, ok := n.Resources.Lookup(jsonapi.Identifier{Type: "a:b", ID: "c"})
	require.True(t, ok)
	assert.Equal(t, "second", second.Attributes["name"])
}
