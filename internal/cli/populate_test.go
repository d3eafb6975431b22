package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relgraph/internal/ir"
	"github.com/roach88/relgraph/internal/registry"
)

type populateResponse struct {
	Status string         `json:"status"`
	Data   PopulateResult `json:"data"`
	Error  *CLIError      `json:"error"`
}

func runPopulateJSON(t *testing.T, dir string, args ...string) populateResponse {
	t.Helper()
	out, err := execute(NewPopulateCommand(&RootOptions{Format: "json"}), append([]string{dir}, args...)...)
	require.NoError(t, err)

	var resp populateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp
}

func TestPopulateCommand_Text(t *testing.T) {
	dir := writeProject(t, blogProject)

	out, err := execute(NewPopulateCommand(&RootOptions{Format: "text"}), dir,
		"--root", "User", "--populate", "posts.comments")
	require.NoError(t, err)

	want := "User\n" +
		"  posts (Post)\n" +
		"    comments (Comment)\n" +
		"      author (User)\n" +
		"        profile (Profile)\n" +
		"    author (User)\n" +
		"      profile (Profile)\n" +
		"  profile (Profile)\n"
	assert.Equal(t, want, out)
}

func TestPopulateCommand_JSON(t *testing.T) {
	dir := writeProject(t, blogProject)

	resp := runPopulateJSON(t, dir, "--root", "Post", "--populate", "tags")

	assert.Equal(t, []string{"tags", "author", "author.profile"}, resp.Data.Paths)
	assert.Len(t, resp.Data.Hash, 64)

	want := `{"entity":"Post","include":[` +
		`{"alias":"tags","entity":"Tag","include":[],"required":false},` +
		`{"alias":"author","entity":"User","include":[` +
		`{"alias":"profile","entity":"Profile","include":[],"required":false}` +
		`],"required":false}]}`
	assert.JSONEq(t, want, string(resp.Data.Tree))
}

func TestPopulateCommand_HashIsStable(t *testing.T) {
	dir := writeProject(t, blogProject)

	a := runPopulateJSON(t, dir, "--root", "User", "--populate", "posts,profile")
	b := runPopulateJSON(t, dir, "--root", "User", "--populate", " posts , profile ")
	assert.Equal(t, a.Data.Hash, b.Data.Hash)

	c := runPopulateJSON(t, dir, "--root", "User", "--populate", "profile,posts")
	assert.NotEqual(t, a.Data.Hash, c.Data.Hash, "include order is significant")
}

func TestPopulateCommand_DeadEndPath(t *testing.T) {
	dir := writeProject(t, blogProject)

	resp := runPopulateJSON(t, dir, "--root", "User", "--populate", "posts.missing.deeper")
	assert.Equal(t, []string{"posts", "posts.author", "posts.author.profile", "profile"}, resp.Data.Paths)
}

func TestPopulateCommand_Filters(t *testing.T) {
	dir := writeProject(t, blogProject)

	out, err := execute(NewPopulateCommand(&RootOptions{Format: "text"}), dir,
		"--root", "User", "--populate", "posts",
		"--filter", `Post={"published":true}`,
		"--any-of", `Post=[{"draft":false},{"pinned":true}]`,
		"--filter", `User={"active":true}`,
	)
	require.NoError(t, err)

	assert.Contains(t, out, `User where {"active":true}`)
	assert.Contains(t, out, `  posts (Post) where {"$or":[{"draft":false},{"pinned":true}],"published":true}`)
	assert.Contains(t, out, `    author (User) where {"active":true}`)
	assert.Contains(t, out, "  profile (Profile)\n")
}

func TestPopulateCommand_WildcardFilter(t *testing.T) {
	dir := writeProject(t, blogProject)

	resp := runPopulateJSON(t, dir, "--root", "Comment", "--filter", `*={"deleted":false}`)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(resp.Data.Tree, &tree))
	assert.Equal(t, map[string]any{"deleted": false}, tree["where"])

	include := tree["include"].([]any)
	require.Len(t, include, 1)
	author := include[0].(map[string]any)
	assert.Equal(t, "author", author["alias"])
	assert.Equal(t, map[string]any{"deleted": false}, author["where"])
}

func TestPopulateCommand_MandatoryCycle(t *testing.T) {
	src := `entities: {Node: {}}
associations: "Node.parent -> Node"
mandatory: ["Node.parent"]
`
	dir := writeProject(t, src)

	resp := runPopulateJSON(t, dir, "--root", "Node")
	assert.Empty(t, resp.Data.Paths)

	// An explicit path still expands; mandatory injection stops below it.
	resp = runPopulateJSON(t, dir, "--root", "Node", "--populate", "parent.parent")
	assert.Equal(t, []string{"parent", "parent.parent"}, resp.Data.Paths)
}

func TestPopulateCommand_InitialTree(t *testing.T) {
	dir := writeProject(t, blogProject)
	initial := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(initial, []byte(`where:
  id: 1
include:
  - alias: posts
    entity: Post
    required: true
limit: 10
`), 0644))

	resp := runPopulateJSON(t, dir, "--root", "User", "--initial", initial, "--populate", "posts.comments")
	assert.Equal(t, []string{
		"posts",
		"posts.comments",
		"posts.comments.author",
		"posts.comments.author.profile",
		"posts.author",
		"posts.author.profile",
		"profile",
	}, resp.Data.Paths)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(resp.Data.Tree, &tree))
	assert.Equal(t, float64(10), tree["limit"])
	assert.Equal(t, map[string]any{"id": float64(1)}, tree["where"])
	posts := tree["include"].([]any)[0].(map[string]any)
	assert.Equal(t, true, posts["required"])
}

func TestPopulateCommand_Errors(t *testing.T) {
	dir := writeProject(t, blogProject)

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing root", nil, "--root is required"},
		{"unknown root", []string{"--root", "Editor"}, `unknown root entity "Editor"`},
		{"filter without entity", []string{"--root", "User", "--filter", `{"a":1}`}, "expected Entity=<json>"},
		{"filter not an object", []string{"--root", "User", "--filter", `User=[1]`}, "condition must be a JSON object"},
		{"filter bad json", []string{"--root", "User", "--filter", `User={`}, "--filter"},
		{"any-of not an array", []string{"--root", "User", "--any-of", `User={"a":1}`}, "non-empty JSON array"},
		{"any-of empty", []string{"--root", "User", "--any-of", `User=[]`}, "non-empty JSON array"},
		{"any-of scalar alternative", []string{"--root", "User", "--any-of", `User=[{"a":1},2]`}, "alternative 1 is not an object"},
		{"initial missing", []string{"--root", "User", "--initial", "/nonexistent/tree.yaml"}, "initial tree"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewPopulateCommand(&RootOptions{Format: "json"}), append([]string{dir}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp populateResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Contains(t, resp.Error.Message, tt.msg)
		})
	}
}

func TestRenderTree(t *testing.T) {
	reg := registry.New()
	user := reg.MustDefine("User", "users")
	post := reg.MustDefine("Post", "posts")

	tree := ir.NewQueryTree(user)
	tree.Extra = ir.IRObject{"limit": ir.IRInt(5)}
	tree.Include = []*ir.IncludeNode{{
		Entity:   post,
		Alias:    "posts",
		Required: true,
		Where:    ir.IRObject{"published": ir.IRBool(true)},
	}}

	assert.Equal(t, "User {\"limit\":5}\n  posts (Post) required where {\"published\":true}", RenderTree(tree))
}
