package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/twill/pkg/errors"
	"github.com/matzehuels/twill/pkg/jsonapi"
)

const blogDoc = `{
	"data": [
		{"type":"posts","id":"1","attributes":{"title":"Hello"},"relationships":{
			"author":{"data":{"type":"people","id":"9"}}}},
		{"type":"posts","id":"2","attributes":{"title":"Again"},"relationships":{
			"author":{"data":{"type":"people","id":"9"}}}}
	],
	"included": [{"type":"people","id":"9","attributes":{"first":"Ada","last":"Lovelace"}}]
}`

// run executes the root command with args and returns stdout.
func run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.stdin = stdin
	c.stdout = &out
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func writeDoc(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "posts.json")
	require.NoError(t, os.WriteFile(path, []byte(blogDoc), 0o644))
	return path
}

func TestTransformCommand_File(t *testing.T) {
	dir := isolate(t)
	out, err := run(t, nil, "transform", writeDoc(t, dir))
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Hello", items[0]["title"])
	author := items[0]["author"].(map[string]any)
	assert.Equal(t, "Ada", author["first"])
}

func TestTransformCommand_Stdin(t *testing.T) {
	isolate(t)
	out, err := run(t, strings.NewReader(blogDoc), "transform", "-", "--indent=false")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `[{`))
}

func TestTransformCommand_Rules(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, `
[rules.posts.expressions]
byline = 'resource.title + " by " + resource.author.first'
`)

	out, err := run(t, nil, "transform", writeDoc(t, dir))
	require.NoError(t, err)
	assert.Contains(t, out, `"byline": "Hello by Ada"`)

	out, err = run(t, nil, "transform", writeDoc(t, dir), "--no-rules")
	require.NoError(t, err)
	assert.NotContains(t, out, "byline")
}

func TestTransformCommand_MaxResources(t *testing.T) {
	dir := isolate(t)
	_, err := run(t, nil, "transform", writeDoc(t, dir), "--max-resources", "2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTooLarge))
}

func TestTransformCommand_Errors(t *testing.T) {
	dir := isolate(t)

	_, err := run(t, nil, "transform", filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	_, err = run(t, strings.NewReader(`{"meta":{}}`), "transform")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidDocument))

	_, err = run(t, nil, "transform", writeDoc(t, dir), "-f", "json,dot")
	assert.Error(t, err, "multiple formats need --output")

	_, err = run(t, nil, "transform", writeDoc(t, dir), "-f", "png")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))

	_, err = run(t, nil, "transform", writeDoc(t, dir), "--store", "s3")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestTransformCommand_MultipleFormats(t *testing.T) {
	dir := isolate(t)
	base := filepath.Join(dir, "out", "posts")
	require.NoError(t, os.MkdirAll(filepath.Dir(base), 0o755))

	_, err := run(t, nil, "transform", writeDoc(t, dir), "-f", "json,dot", "-o", base)
	require.NoError(t, err)
	assert.FileExists(t, base+".json")
	assert.FileExists(t, base+".dot")
}

func TestTransformCommand_StoreJSONL(t *testing.T) {
	dir := isolate(t)
	output := filepath.Join(dir, "result.json")
	_, err := run(t, nil, "transform", writeDoc(t, dir), "-o", output, "--store", "jsonl")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "result.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3, "two posts and one shared author")
	assert.FileExists(t, output)
}

func TestGraphCommand_DOT(t *testing.T) {
	dir := isolate(t)
	out, err := run(t, nil, "graph", writeDoc(t, dir), "-f", "dot")
	require.NoError(t, err)
	assert.Contains(t, out, `"posts:1" -> "people:9" [label="author"];`)
	assert.Contains(t, out, `"posts:2" -> "people:9" [label="author"];`)
}

func TestFetchCommand(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		w.Header().Set("Content-Type", jsonapi.MediaType)
		switch r.URL.Query().Get("page[number]") {
		case "", "1":
			_, _ = w.Write([]byte(`{
				"data": [{"type":"posts","id":"1","attributes":{"title":"One"}}],
				"links": {"next": "` + "http://" + r.Host + `/api/posts?page%5Bnumber%5D=2"}
			}`))
		default:
			_, _ = w.Write([]byte(`{"data": [{"type":"posts","id":"2","attributes":{"title":"Two"}}]}`))
		}
	}))
	defer srv.Close()

	dir := isolate(t)
	writeConfig(t, dir, "[api]\nurl = \""+srv.URL+"\"\nprefix = \"/api\"\n\n[cache]\nbackend = \"none\"\n")

	out, err := run(t, nil, "fetch", "posts", "--sort", "-title", "--filter", "status=published", "--pages", "2")
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "One", items[0]["title"])
	assert.Equal(t, "Two", items[1]["title"])

	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], "filter%5Bstatus%5D=published")
	assert.Contains(t, paths[0], "sort=-title")
}

func TestFetchCommand_Errors(t *testing.T) {
	isolate(t)

	_, err := run(t, nil, "fetch", "posts")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "no API URL configured")

	_, err = run(t, nil, "fetch", "posts", "--related", "author")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestParseFormats(t *testing.T) {
	assert.Equal(t, []string{"svg"}, parseFormats("", "svg"))
	assert.Equal(t, []string{"json", "dot"}, parseFormats("json, dot", "svg"))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "out.json", outputPath("out.json", "json", false))
	assert.Equal(t, "out.json", outputPath("out", "json", true))
	assert.Equal(t, "out.dot", outputPath("out.dot", "dot", true))
	assert.Equal(t, "out.jsonl", outputPath("out.json", "jsonl", true))
	assert.Equal(t, "out.v2.svg", outputPath("out.v2", "svg", true))
}

func TestResourceListModel(t *testing.T) {
	author := jsonapi.Resource{"id": "9", "type": "people", "name": "Ada"}
	posts := []jsonapi.Resource{
		{"id": "1", "type": "posts", "title": "Hello", "author": author},
		{"id": "2", "type": "posts", "title": "Again", "author": author},
	}

	var m tea.Model = NewResourceListModel("posts.json", posts)
	key := func(s string) tea.KeyMsg {
		switch s {
		case "enter":
			return tea.KeyMsg{Type: tea.KeyEnter}
		case "backspace":
			return tea.KeyMsg{Type: tea.KeyBackspace}
		}
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}

	m, _ = m.Update(key("j"))
	assert.Equal(t, 1, m.(ResourceListModel).Cursor)
	assert.Contains(t, m.View(), "Again")

	m, _ = m.Update(key("enter"))
	lm := m.(ResourceListModel)
	assert.Equal(t, "posts:2", lm.Title)
	require.Len(t, lm.Items, 1)
	assert.True(t, lm.Items[0].Same(author))

	// people:9 has no relationships
	m, _ = m.Update(key("enter"))
	assert.Equal(t, "posts:2", m.(ResourceListModel).Title)

	m, _ = m.Update(key("backspace"))
	lm = m.(ResourceListModel)
	assert.Equal(t, "posts.json", lm.Title)
	assert.Equal(t, 1, lm.Cursor)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
}

func TestFieldSummary(t *testing.T) {
	r := jsonapi.Resource{"id": "1", "type": "tags"}
	assert.Equal(t, "null", fieldSummary(nil))
	assert.Equal(t, "→ tags:1", fieldSummary(r))
	assert.Equal(t, "→ [tags:1, tags:1]", fieldSummary([]jsonapi.Resource{r, r}))
	assert.Equal(t, "42", fieldSummary(float64(42)))
	assert.Equal(t, "a b", fieldSummary("a\nb"))
	assert.Len(t, []rune(fieldSummary(strings.Repeat("x", 100))), 60)
}

func TestCompleteFormats(t *testing.T) {
	got, dir := completeFormats(nil, nil, "")
	assert.Equal(t, []string{"json", "dot", "svg"}, got)
	assert.NotZero(t, dir&cobra.ShellCompDirectiveNoFileComp)

	got, _ = completeFormats(nil, nil, "json,d")
	assert.Equal(t, []string{"json,dot", "json,svg"}, got)
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, nil, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "twill")
}
