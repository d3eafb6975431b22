package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DefineAndLookup(t *testing.T) {
	reg := New()
	user := reg.MustDefine("User", "users")
	post := reg.MustDefine("BlogPost", "")

	got, ok := reg.Lookup("User")
	require.True(t, ok)
	assert.Same(t, user, got, "lookup must return the same handle")

	assert.Equal(t, "blog_post", post.Table, "table defaults to snake_case")
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"User", "BlogPost"}, []string{reg.Entities()[0].Name, reg.Entities()[1].Name})

	_, ok = reg.Lookup("Ghost")
	assert.False(t, ok)
}

func TestRegistry_DuplicateName(t *testing.T) {
	reg := New()
	reg.MustDefine("User", "")

	_, err := reg.Define("User", "people")
	require.Error(t, err)
	var dup *DuplicateEntityError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "User", dup.Name)
}

func TestRegistry_EmptyName(t *testing.T) {
	_, err := New().Define("", "t")
	assert.Error(t, err)
}

func TestRegistry_NilLookup(t *testing.T) {
	var reg *Registry
	_, ok := reg.Lookup("User")
	assert.False(t, ok)
}

func TestCompileString(t *testing.T) {
	src := `
entities: {
	User: {table: "users"}
	Post: {}
	TagAssignment: {}
}
`
	reg, err := CompileString(src, "project.cue")
	require.NoError(t, err)
	require.Equal(t, 3, reg.Len())

	user, _ := reg.Lookup("User")
	assert.Equal(t, "users", user.Table)
	post, _ := reg.Lookup("Post")
	assert.Equal(t, "post", post.Table)
	ta, _ := reg.Lookup("TagAssignment")
	assert.Equal(t, "tag_assignment", ta.Table)

	assert.Equal(t, "User", reg.Entities()[0].Name, "CUE field order is kept")
}

func TestCompileString_NoEntities(t *testing.T) {
	reg, err := CompileString(`mandatory: []`, "project.cue")
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestCompileString_BadTable(t *testing.T) {
	_, err := CompileString(`entities: User: table: 42`, "project.cue")
	require.Error(t, err)
	var defErr *DefinitionError
	require.True(t, errors.As(err, &defErr))
	assert.Equal(t, "entities.User.table", defErr.Field)
}

func TestCompileString_SyntaxError(t *testing.T) {
	_, err := CompileString(`entities: {`, "broken.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.cue")
}
