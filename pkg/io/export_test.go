package io

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/twill/pkg/deserialize"
	"github.com/matzehuels/twill/pkg/jsonapi"
)

func cyclicPost() jsonapi.Resource {
	post := jsonapi.Resource{"id": "1", "type": "posts", "title": "Hello"}
	author := jsonapi.Resource{"id": "9", "type": "people", "name": "Ada", "posts": []jsonapi.Resource{post}}
	post["author"] = author
	post["editor"] = nil
	return post
}

func TestWriteJSON_CycleBecomesIdentifier(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, deserialize.Output{One: cyclicPost()}, Options{}))

	assert.JSONEq(t, `{
		"id": "1", "type": "posts", "title": "Hello", "editor": null,
		"author": {"id": "9", "type": "people", "name": "Ada", "posts": [{"id": "1", "type": "posts"}]}
	}`, buf.String())
}

func TestWriteJSON_SharedResourceExpandedOnce(t *testing.T) {
	author := jsonapi.Resource{"id": "9", "type": "people", "name": "Ada"}
	a := jsonapi.Resource{"id": "1", "type": "posts", "author": author}
	b := jsonapi.Resource{"id": "2", "type": "posts", "author": author, "next": a}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, deserialize.Output{Many: true, Items: []jsonapi.Resource{a, b}}, Options{}))
	assert.JSONEq(t, `[
		{"id":"1","type":"posts","author":{"id":"9","type":"people","name":"Ada"}},
		{"id":"2","type":"posts","author":{"id":"9","type":"people"},"next":{"id":"1","type":"posts"}}
	]`, buf.String())
}

// layeredGraph links every node of a layer to both nodes of the next one.
func layeredGraph(layers int) jsonapi.Resource {
	var next []jsonapi.Resource
	for l := layers - 1; l >= 0; l-- {
		layer := make([]jsonapi.Resource, 2)
		for i := range layer {
			layer[i] = jsonapi.Resource{
				"id":       fmt.Sprintf("%d-%d", l, i),
				"type":     "nodes",
				"v":        l,
				"children": slices.Clone(next),
			}
		}
		next = layer
	}
	return jsonapi.Resource{"id": "root", "type": "nodes", "children": next}
}

func TestWriteJSON_DiamondsStayLinear(t *testing.T) {
	const layers = 24
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, deserialize.Output{One: layeredGraph(layers)}, Options{}))

	assert.Equal(t, 2*layers, strings.Count(buf.String(), `"v":`), "each node is expanded once")
	assert.Less(t, buf.Len(), 16*1024)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &tree))
	first := tree["children"].([]any)[0].(map[string]any)
	assert.Equal(t, "0-0", first["id"])
	assert.Len(t, first["children"], 2)
}

func TestWriteJSON_DiamondsAreDeterministic(t *testing.T) {
	graph := layeredGraph(6)
	var first, second bytes.Buffer
	require.NoError(t, WriteJSON(&first, deserialize.Output{One: graph}, Options{}))
	require.NoError(t, WriteJSON(&second, deserialize.Output{One: graph}, Options{}))
	assert.Equal(t, first.String(), second.String())
}

func TestWriteJSON_SelfReference(t *testing.T) {
	n := jsonapi.Resource{"id": "1", "type": "nodes"}
	n["self"] = n

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, deserialize.Output{One: n}, Options{}))
	assert.JSONEq(t, `{"id":"1","type":"nodes","self":{"id":"1","type":"nodes"}}`, buf.String())
}

func TestWriteJSON_MaxDepth(t *testing.T) {
	c := jsonapi.Resource{"id": "c", "type": "n", "v": 3}
	b := jsonapi.Resource{"id": "b", "type": "n", "v": 2, "next": c}
	a := jsonapi.Resource{"id": "a", "type": "n", "v": 1, "next": b}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, deserialize.Output{One: a}, Options{MaxDepth: 1}))
	assert.JSONEq(t, `{"id":"a","type":"n","v":1,"next":{"id":"b","type":"n","v":2,"next":{"id":"c","type":"n"}}}`, buf.String())
}

func TestWriteJSON_Cardinality(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, deserialize.Output{}, Options{}))
	assert.Equal(t, "null\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, deserialize.Output{Many: true, Items: []jsonapi.Resource{}}, Options{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteJSON_IndentIsDeterministic(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, WriteJSON(&first, deserialize.Output{One: cyclicPost()}, Options{Indent: true}))
	require.NoError(t, WriteJSON(&second, deserialize.Output{One: cyclicPost()}, Options{Indent: true}))
	assert.Equal(t, first.String(), second.String())
	assert.True(t, strings.HasPrefix(first.String(), "{\n  \"author\""))
}

func TestExportAndImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, ExportJSON(deserialize.Output{One: cyclicPost()}, path, Options{}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":"Hello"`)

	docPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(docPath, []byte(`{"data":{"type":"posts","id":7}}`), 0o644))
	doc, err := ImportDocument(docPath)
	require.NoError(t, err)
	assert.Equal(t, "7", doc.Data.One.ID)

	_, err = ImportDocument(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = ReadDocument(strings.NewReader(`{`))
	assert.Error(t, err)
}
