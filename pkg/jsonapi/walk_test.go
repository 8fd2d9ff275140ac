package jsonapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_CycleAndSharing(t *testing.T) {
	a := Resource{"id": "1", "type": "a"}
	b := Resource{"id": "1", "type": "b", "a": a}
	tag := Resource{"id": "t", "type": "tags"}
	a["b"] = b
	a["tags"] = []Resource{tag, tag}
	a["editor"] = nil

	var visited []string
	err := Walk([]Resource{a, a}, func(r Resource) error {
		visited = append(visited, r.Identifier().Key())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "b:1", "tags:t"}, visited)
	assert.Equal(t, 3, Count([]Resource{a}))
	assert.Equal(t, []string{"b", "tags"}, a.Related())
}

func TestWalk_RootWins(t *testing.T) {
	original := Resource{"id": "1", "type": "posts"}
	other := Resource{"id": "2", "type": "posts", "prev": original}
	merged := original.Merge(map[string]any{"extra": true})

	var got []Resource
	require.NoError(t, Walk([]Resource{merged, other}, func(r Resource) error {
		got = append(got, r)
		return nil
	}))
	require.Len(t, got, 2)
	assert.True(t, got[0].Same(merged))
}

func TestWalk_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	r := Resource{"id": "1", "type": "a", "next": Resource{"id": "2", "type": "a"}}

	calls := 0
	err := Walk([]Resource{r}, func(Resource) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
