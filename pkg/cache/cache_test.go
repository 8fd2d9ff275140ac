package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "http:cms:/articles", []byte("value"), time.Hour))
	data, hit, err := c.Get(ctx, "http:cms:/articles")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)
	assert.NoError(t, c.Delete(ctx, "http:cms:/articles"))

	_, clears := c.(Clearer)
	assert.False(t, clears)
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	assert.Equal(t, h, Hash([]byte("hello")))
	assert.NotEqual(t, h, Hash([]byte("world")))
	assert.Len(t, h, 64)
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	assert.Equal(t, "http:cms.example.com:/api/articles?include=author",
		k.HTTPKey("cms.example.com", "/api/articles?include=author"))

	base := DocumentKeyOpts{Format: "json"}
	key := k.DocumentKey("abc", base)
	assert.True(t, strings.HasPrefix(key, "doc:"))
	assert.Equal(t, key, k.DocumentKey("abc", base))
	assert.NotEqual(t, key, k.DocumentKey("abd", base))

	for name, opts := range map[string]DocumentKeyOpts{
		"format":         {Format: "dot"},
		"max resources":  {Format: "json", MaxResources: 10},
		"resource links": {Format: "json", ResourceLinks: true},
		"rel links":      {Format: "json", RelationshipLinks: true},
		"rules":          {Format: "json", Rules: []string{"r1"}},
	} {
		assert.NotEqual(t, key, k.DocumentKey("abc", opts), name)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "tenant:1:")
	assert.Equal(t, "tenant:1:http:cms:/articles", scoped.HTTPKey("cms", "/articles"))
	assert.True(t, strings.HasPrefix(scoped.DocumentKey("abc", DocumentKeyOpts{}), "tenant:1:doc:"))

	assert.Equal(t, "p:http:cms:/x", NewScopedKeyer(nil, "p:").HTTPKey("cms", "/x"))
}

func TestTokenScope(t *testing.T) {
	scope := TokenScope("secret-token")
	assert.True(t, strings.HasPrefix(scope, "token:"))
	assert.True(t, strings.HasSuffix(scope, ":"))
	assert.NotContains(t, scope, "secret")
	assert.Len(t, scope, len("token:")+16+1)
	assert.NotEqual(t, scope, TokenScope("other-token"))
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "http:a"); hit {
		t.Error("empty cache should miss")
	}

	if err := c.Set(ctx, "http:a", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "http:a")
	if err != nil || !hit || string(data) != "payload" {
		t.Errorf("Get = %q, %v, %v; want payload, true, nil", data, hit, err)
	}

	// Expired entries are misses
	if err := c.Set(ctx, "http:old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "http:old"); hit {
		t.Error("expired entry should miss")
	}

	if err := c.Delete(ctx, "http:a"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "http:a"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "http:a"); hit {
		t.Error("deleted entry should miss")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	require.NoError(t, err)

	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("mine"), 0o644))

	require.NoError(t, c.Set(ctx, "k1", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "k2", []byte("2"), 0))
	require.NoError(t, c.Clear(ctx))

	for _, k := range []string{"k1", "k2"} {
		_, hit, _ := c.Get(ctx, k)
		assert.False(t, hit, k)
	}
	assert.FileExists(t, keep)
	assert.NoError(t, c.Set(ctx, "k3", []byte("3"), 0))
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "http:a", []byte("payload"), 0))
	path := c.path("http:a")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, hit, err := c.Get(ctx, "http:a")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoFileExists(t, path)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Config{Backend: BackendNone})
	if err != nil {
		t.Fatalf("Open none: %v", err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("Open none = %T, want NullCache", c)
	}

	dir := t.TempDir()
	c, err = Open(ctx, Config{Dir: dir})
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if fc, ok := c.(*FileCache); !ok || fc.Dir() != dir {
		t.Errorf("Open file = %T, want *FileCache in %s", c, dir)
	}

	if _, err := Open(ctx, Config{Backend: "memcached"}); err == nil {
		t.Error("Open with unknown backend should fail")
	}
}
