package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// blogProject is the CUE source of a project with the blog entities.
const blogProject = `entities: {
	User: {table: "users"}
	Profile: {table: "profiles"}
	Post: {table: "posts"}
	Comment: {table: "comments"}
	Tag: {table: "tags"}
	Tagging: {table: "taggings"}
}

associations: """
	# blog
	User.posts[] -> Post
	User.profile -> Profile
	Post.author -> User foreignKey:authorId
	Post.comments[] -> Comment
	Post.tags[] -> Tagging -> Tag
	Comment.author -> User foreignKey:authorId
	Comment -> Post
	"""

mandatory: ["Post.author", "Comment.author", "User.profile"]
`

// writeProject writes src as project.cue in a fresh directory.
func writeProject(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.cue"), []byte(src), 0644))
	return dir
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
