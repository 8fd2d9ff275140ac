package deserialize

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/normalize"
)

func normalized(t *testing.T, s string) *normalize.Normalized {
	t.Helper()
	doc, err := jsonapi.Decode([]byte(s))
	require.NoError(t, err)
	n, err := normalize.Normalize(doc)
	require.NoError(t, err)
	return n
}

func TestDeserialize_FlattensAttributes(t *testing.T) {
	out, err := Deserialize(normalized(t, `{"data":{"type":"people","id":"1","attributes":{"name":"A","age":3}}}`))
	require.NoError(t, err)

	require.NotNil(t, out.One)
	assert.Equal(t, "A", out.One["name"])
	assert.Equal(t, "1", out.One.ID())
	assert.Equal(t, "people", out.One.Type())
	assert.NotContains(t, out.One, "attributes")
}

func TestDeserialize_AttributesCannotOverrideIdentity(t *testing.T) {
	out, err := Deserialize(normalized(t, `{"data":{"type":"people","id":"1","attributes":{"id":"x","type":"y"}}}`))
	require.NoError(t, err)
	assert.Equal(t, jsonapi.Identifier{Type: "people", ID: "1"}, out.One.Identifier())
}

func TestDeserialize_IdentitySharing(t *testing.T) {
	n := normalized(t, `{
		"data": [
			{"type":"posts","id":"1","relationships":{"author":{"data":{"type":"people","id":"9"}}}},
			{"type":"posts","id":"2","relationships":{"author":{"data":{"type":"people","id":"9"}}}}
		],
		"included": [{"type":"people","id":"9","attributes":{"name":"Ada"}}]
	}`)

	out, err := Deserialize(n)
	require.NoError(t, err)
	require.Len(t, out.Items, 2)

	a1 := out.Items[0].One("author")
	a2 := out.Items[1].One("author")
	require.NotNil(t, a1)
	assert.True(t, a1.Same(a2), "both posts must share one author instance")
	assert.Equal(t, "Ada", a1["name"])
}

func TestDeserialize_CycleTerminates(t *testing.T) {
	n := normalized(t, `{
		"data": {"type":"a","id":"1","relationships":{"b":{"data":{"type":"b","id":"1"}}}},
		"included": [{"type":"b","id":"1","relationships":{"a":{"data":{"type":"a","id":"1"}}}}]
	}`)

	out, err := Deserialize(n)
	require.NoError(t, err)

	a := out.One
	b := a.One("b")
	require.NotNil(t, b)
	assert.True(t, b.One("a").Same(a))
}

func TestDeserialize_SelfReference(t *testing.T) {
	out, err := Deserialize(normalized(t, `{"data":{"type":"nodes","id":"1","relationships":{"self":{"data":{"type":"nodes","id":"1"}}}}}`))
	require.NoError(t, err)
	assert.True(t, out.One.One("self").Same(out.One))
}

func TestDeserialize_OrderPreservation(t *testing.T) {
	out, err := Deserialize(normalized(t, `{"data":[
		{"type":"posts","id":"x"},
		{"type":"posts","id":"y"},
		{"type":"posts","id":"x"}
	]}`))
	require.NoError(t, err)

	require.Len(t, out.Items, 3)
	assert.Equal(t, "x", out.Items[0].ID())
	assert.Equal(t, "y", out.Items[1].ID())
	assert.True(t, out.Items[0].Same(out.Items[2]))
}

func TestDeserialize_ToManyKeepsOrderAndDuplicates(t *testing.T) {
	out, err := Deserialize(normalized(t, `{
		"data": {"type":"posts","id":"1","relationships":{"tags":{"data":[
			{"type":"tags","id":"b"},{"type":"tags","id":"a"},{"type":"tags","id":"b"}
		]}}},
		"included": [{"type":"tags","id":"a"},{"type":"tags","id":"b"}]
	}`))
	require.NoError(t, err)

	tags := out.One.Many("tags")
	require.Len(t, tags, 3)
	assert.Equal(t, []string{"b", "a", "b"}, []string{tags[0].ID(), tags[1].ID(), tags[2].ID()})
	assert.True(t, tags[0].Same(tags[2]))
}

func TestDeserialize_EmptyToMany(t *testing.T) {
	out, err := Deserialize(normalized(t, `{"data":{"type":"posts","id":"1","relationships":{"tags":{"data":[]}}}}`))
	require.NoError(t, err)

	tags, ok := out.One["tags"].([]jsonapi.Resource)
	require.True(t, ok)
	assert.Empty(t, tags)
}

func TestDeserialize_MissingSideload(t *testing.T) {
	out, err := Deserialize(normalized(t, `{"data":{"type":"posts","id":"1","relationships":{"author":{"data":{"type":"people","id":"404"}}}}}`))
	require.NoError(t, err)

	author := out.One.One("author")
	assert.Equal(t, jsonapi.Resource{"id": "404", "type": "people"}, author)
}

func TestDeserialize_NullLinkage(t *testing.T) {
	out, err := Deserialize(normalized(t, `{"data":{"type":"posts","id":"1","relationships":{"author":{"data":null}}}}`))
	require.NoError(t, err)

	v, ok := out.One["author"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestDeserialize_LinksOnlyRelationship(t *testing.T) {
	n := normalized(t, `{"data":{"type":"posts","id":"1","relationships":{
		"comments":{"links":{"related":"/posts/1/comments"}}
	}}}`)

	out, err := Deserialize(n)
	require.NoError(t, err)
	assert.Nil(t, out.One["comments"])
	assert.NotContains(t, out.One, "comments"+LinksSuffix)

	out, err = Deserialize(n, WithRelationshipLinks())
	require.NoError(t, err)
	assert.Nil(t, out.One["comments"])
	assert.Equal(t, jsonapi.Links{"related": "/posts/1/comments"}, out.One["comments"+LinksSuffix])
}

func TestDeserialize_ResourceLinks(t *testing.T) {
	n := normalized(t, `{"data":{"type":"posts","id":"1","links":{"self":"/posts/1"},"meta":{"rev":2}}}`)

	out, err := Deserialize(n)
	require.NoError(t, err)
	assert.NotContains(t, out.One, "links")

	out, err = Deserialize(n, WithResourceLinks())
	require.NoError(t, err)
	assert.Equal(t, jsonapi.Links{"self": "/posts/1"}, out.One["links"])
	assert.Equal(t, map[string]any{"rev": float64(2)}, out.One["meta"])
}

func TestDeserialize_Null(t *testing.T) {
	out, err := Deserialize(normalized(t, `{"data":null}`))
	require.NoError(t, err)
	assert.True(t, out.IsNull())
	assert.Empty(t, out.Slice())
	assert.Equal(t, 0, out.Len())
}

func TestDeserialize_Idempotent(t *testing.T) {
	n := normalized(t, `{
		"data": {"type":"a","id":"1","attributes":{"x":1},"relationships":{"b":{"data":{"type":"b","id":"1"}}}},
		"included": [{"type":"b","id":"1","attributes":{"y":2}}]
	}`)

	first, err := Deserialize(n)
	require.NoError(t, err)
	second, err := Deserialize(n)
	require.NoError(t, err)

	assert.Equal(t, first.One, second.One)
	assert.False(t, first.One.Same(second.One))
	assert.False(t, first.One.One("b").Same(second.One.One("b")))
}

func TestDeserialize_DeepChain(t *testing.T) {
	const depth = 10000

	var sb strings.Builder
	sb.WriteString(`{"data":{"type":"n","id":"0","relationships":{"next":{"data":{"type":"n","id":"1"}}}},"included":[`)
	for i := 1; i < depth; i++ {
		if i > 1 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, `{"type":"n","id":"%d","relationships":{"next":{"data":{"type":"n","id":"%d"}}}}`, i, i+1)
	}
	sb.WriteString(`]}`)

	out, err := Deserialize(normalized(t, sb.String()))
	require.NoError(t, err)

	count := 0
	for r := out.One; r != nil; r = r.One("next") {
		count++
		if count > depth+1 {
			t.Fatal("chain longer than expected")
		}
	}
	// the last link points at an unsideloaded placeholder
	assert.Equal(t, depth+1, count)
}

func TestDeserialize_MaxResources(t *testing.T) {
	n := normalized(t, `{"data":[{"type":"a","id":"1"},{"type":"a","id":"2"},{"type":"a","id":"3"}]}`)

	_, err := Deserialize(n, WithMaxResources(2))
	assert.ErrorIs(t, err, ErrTooManyResources)

	out, err := Deserialize(n, WithMaxResources(3))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
}

func TestDeserialize_NilInput(t *testing.T) {
	_, err := Deserialize(nil)
	assert.ErrorIs(t, err, jsonapi.ErrMalformedDocument)
}

func TestDeserialize_ColonsInTypeAndID(t *testing.T) {
	out, err := Deserialize(normalized(t, `{"data":[
		{"type":"a","id":"b:c","attributes":{"name":"first"},"relationships":{"peer":{"data":{"type":"a:b","id":"c"}}}},
		{"type":"a:b","id":"c","attributes":{"name":"second"}}
	]}`))
	require.NoError(t, err)
	require.Len(t, out.Items, 2)

	assert.Equal(t, "a", out.Items[0].Type())
	assert.Equal(t, "first", out.Items[0]["name"])
	assert.Equal(t, "a:b", out.Items[1].Type())
	assert.Equal(t, "c", out.Items[1].ID())
	assert.Equal(t, "second", out.Items[1]["name"])
	assert.True(t, out.Items[0].One("peer").Same(out.Items[1]))
}
