package testutil

import (
	"testing"

	"github.com/roach88/relgraph/internal/ir"
	"github.com/roach88/relgraph/internal/registry"
)

// BlogDSL declares the associations of the BlogRegistry entities.
const BlogDSL = "# blog\n" +
	"User.posts[] -> Post\n" +
	"User.profile -> Profile\n" +
	"Post.author -> User foreignKey:authorId\n" +
	"Post.comments[] -> Comment\n" +
	"Post.tags[] -> Tagging -> Tag\n" +
	"Comment.author -> User foreignKey:authorId\n" +
	"Comment -> Post\n"

// BlogMandatory lists the mandatory links of BlogDSL as Entity.alias pairs.
var BlogMandatory = []string{"Post.author", "Comment.author", "User.profile"}

// BlogRegistry returns a fresh registry holding User, Profile, Post,
// Comment, Tag and Tagging.
func BlogRegistry() *registry.Registry {
	reg := registry.New()
	reg.MustDefine("User", "users")
	reg.MustDefine("Profile", "profiles")
	reg.MustDefine("Post", "posts")
	reg.MustDefine("Comment", "comments")
	reg.MustDefine("Tag", "tags")
	reg.MustDefine("Tagging", "taggings")
	return reg
}

// Entity looks up name in reg and fails the test when it is missing.
func Entity(t testing.TB, reg *registry.Registry, name string) *ir.Entity {
	t.Helper()
	e, ok := reg.Lookup(name)
	if !ok {
		t.Fatalf("entity %q not in registry", name)
	}
	return e
}
