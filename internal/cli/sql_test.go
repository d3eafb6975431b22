package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLCommand_JSON(t *testing.T) {
	dir := writeProject(t, blogProject)

	out, err := execute(NewSQLCommand(&RootOptions{Format: "json"}), dir,
		"--root", "User", "--populate", "posts", "--filter", `Post={"published":true}`)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   SQLResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	query := resp.Data.SQL
	assert.Contains(t, query, `FROM "users"`)
	assert.Contains(t, query, `LEFT JOIN "posts" AS "posts" ON "posts"."userId" = "users"."id"`)
	assert.Contains(t, query, `"posts"."published" = ?`)
	assert.Contains(t, query, `LEFT JOIN "users" AS "posts.author" ON "posts.author"."id" = "posts"."authorId"`)
	assert.Contains(t, query, `LEFT JOIN "profiles" AS "profile" ON "profile"."id" = "users"."profileId"`)
	assert.Equal(t, []any{true}, resp.Data.Args)
}

func TestSQLCommand_DollarPlaceholder(t *testing.T) {
	dir := writeProject(t, blogProject)

	out, err := execute(NewSQLCommand(&RootOptions{Format: "text"}), dir,
		"--root", "User", "--populate", "posts",
		"--filter", `Post={"published":true}`,
		"--filter", `User={"id":7}`,
		"--placeholder", "dollar")
	require.NoError(t, err)

	assert.Contains(t, out, "$1")
	assert.Contains(t, out, "$2")
	assert.NotContains(t, out, "?")
	assert.Contains(t, out, "-- args: [true 7 7]")
}

func TestSQLCommand_BelongsToMany(t *testing.T) {
	dir := writeProject(t, blogProject)

	out, err := execute(NewSQLCommand(&RootOptions{Format: "text"}), dir, "--root", "Post", "--populate", "tags")
	require.NoError(t, err)
	assert.Contains(t, out, `LEFT JOIN "taggings" AS "tags#through" ON "tags#through"."postId" = "posts"."id"`)
	assert.Contains(t, out, `LEFT JOIN "tags" AS "tags" ON "tags"."id" = "tags#through"."tagId"`)
}

func TestSQLCommand_InvalidPlaceholder(t *testing.T) {
	dir := writeProject(t, blogProject)

	out, err := execute(NewSQLCommand(&RootOptions{Format: "text"}), dir, "--root", "User", "--placeholder", "colon")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `invalid placeholder "colon"`)
}

func TestSQLCommand_UnsupportedCondition(t *testing.T) {
	dir := writeProject(t, blogProject)

	out, err := execute(NewSQLCommand(&RootOptions{Format: "json"}), dir,
		"--root", "User", "--filter", `User={"name":{"$regexp":"a"}}`)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSQLCompile, resp.Error.Code)
}
