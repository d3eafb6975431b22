package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entities(names ...string) []*Entity {
	out := make([]*Entity, len(names))
	for i, n := range names {
		out[i] = &Entity{Name: n}
	}
	return out
}

func TestGraph_AddPreservesOrder(t *testing.T) {
	es := entities("User", "Post", "Comment")
	user, post, comment := es[0], es[1], es[2]

	g := NewGraph()
	g.Add(user, Link{Target: post, Alias: "posts"})
	g.Add(post, Link{Target: user, Alias: "author"})
	g.Add(user, Link{Target: comment, Alias: "comments"})

	assert.Equal(t, []*Entity{user, post}, g.Entities())
	require.Len(t, g.Get(user), 2)
	assert.Equal(t, "posts", g.Get(user)[0].Alias)
	assert.Equal(t, "comments", g.Get(user)[1].Alias)
	assert.Equal(t, 3, g.Len())
}

func TestGraph_NilIsEmpty(t *testing.T) {
	var g *AssociationGraph

	assert.Nil(t, g.Get(&Entity{Name: "User"}))
	assert.Nil(t, g.Entities())
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.CyclicEntities())

	_, ok := g.Find(&Entity{Name: "User"}, "posts")
	assert.False(t, ok)
}

func TestGraph_FindFirstMatch(t *testing.T) {
	es := entities("Foo", "Bar", "Baz")
	g := NewGraph()
	g.Add(es[0], Link{Target: es[1], Alias: "x"})
	g.Add(es[0], Link{Target: es[2], Alias: "x"})

	l, ok := g.Find(es[0], "x")
	require.True(t, ok)
	assert.Same(t, es[1], l.Target, "first declared link wins")
}

func TestGraph_Split(t *testing.T) {
	es := entities("Post", "User", "Comment")
	post, user, comment := es[0], es[1], es[2]

	g := NewGraph()
	g.Add(post, Link{Target: user, Alias: "author"})
	g.Add(post, Link{Target: comment, Alias: "comments"})
	g.Add(user, Link{Target: post, Alias: "posts"})

	mandatory, optional := g.Split(MandatoryAliases("Post.author"))

	require.Len(t, mandatory.Get(post), 1)
	assert.Equal(t, "author", mandatory.Get(post)[0].Alias)
	assert.Empty(t, mandatory.Get(user))

	require.Len(t, optional.Get(post), 1)
	assert.Equal(t, "comments", optional.Get(post)[0].Alias)
	require.Len(t, optional.Get(user), 1)
	assert.Equal(t, 3, mandatory.Len()+optional.Len())
}

func TestGraph_SplitNilPolicy(t *testing.T) {
	es := entities("A", "B")
	g := NewGraph()
	g.Add(es[0], Link{Target: es[1], Alias: "b"})

	mandatory, optional := g.Split(nil)
	assert.Equal(t, 0, mandatory.Len())
	assert.Equal(t, 1, optional.Len())
}

func TestCyclicEntities_DAG(t *testing.T) {
	es := entities("A", "B", "C")
	g := NewGraph()
	g.Add(es[0], Link{Target: es[1], Alias: "b"})
	g.Add(es[1], Link{Target: es[2], Alias: "c"})
	g.Add(es[0], Link{Target: es[2], Alias: "c"})

	assert.Empty(t, g.CyclicEntities())
}

func TestCyclicEntities_TwoNodeCycle(t *testing.T) {
	es := entities("A", "B", "C")
	a, b, c := es[0], es[1], es[2]
	g := NewGraph()
	g.Add(a, Link{Target: b, Alias: "b"})
	g.Add(b, Link{Target: a, Alias: "a"})
	g.Add(b, Link{Target: c, Alias: "c"})

	cyclic := g.CyclicEntities()
	assert.True(t, cyclic[a])
	assert.True(t, cyclic[b])
	assert.False(t, cyclic[c], "C hangs off the cycle but is not on it")
}

func TestCyclicEntities_SelfLoop(t *testing.T) {
	es := entities("Node")
	g := NewGraph()
	g.Add(es[0], Link{Target: es[0], Alias: "parent"})

	assert.True(t, g.CyclicEntities()[es[0]])
}

func TestAssociation_StringAndLink(t *testing.T) {
	es := entities("User", "Tagging", "Tag")
	a := Association{
		Kind:    BelongsToMany,
		Source:  es[0],
		Liaison: es[1],
		Target:  es[2],
		Alias:   "tags",
	}

	assert.Equal(t, "User.tags[] -> Tagging -> Tag", a.String())

	l := a.Link()
	assert.Same(t, es[2], l.Target)
	assert.Equal(t, "tags", l.Alias)
	require.NotNil(t, l.Association)
	assert.Equal(t, BelongsToMany, l.Association.Kind)
	assert.True(t, BelongsToMany.Valid())
	assert.False(t, AssociationKind("hasOne").Valid())
}
