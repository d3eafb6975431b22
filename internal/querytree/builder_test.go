package querytree

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relgraph/internal/compiler"
	"github.com/roach88/relgraph/internal/ir"
	"github.com/roach88/relgraph/internal/testutil"
)

type fooGraph struct {
	foo, bar, baz *ir.Entity
	mandatory     *ir.AssociationGraph
	optional      *ir.AssociationGraph
}

// newFooGraph builds mandatory Foo -> [bar] and optional Foo -> [baz].
func newFooGraph() fooGraph {
	g := fooGraph{
		foo:       &ir.Entity{Name: "Foo"},
		bar:       &ir.Entity{Name: "Bar"},
		baz:       &ir.Entity{Name: "Baz"},
		mandatory: ir.NewGraph(),
		optional:  ir.NewGraph(),
	}
	g.mandatory.Add(g.foo, ir.Link{Target: g.bar, Alias: "bar"})
	g.optional.Add(g.foo, ir.Link{Target: g.baz, Alias: "baz"})
	return g
}

func aliases(nodes []*ir.IncludeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Alias
	}
	return out
}

func TestPopulate_InjectsMandatory(t *testing.T) {
	g := newFooGraph()
	b := NewBuilder().SetRoot(g.foo)

	require.NoError(t, b.Populate("baz", g.mandatory, g.optional, nil))

	tree := b.Tree()
	assert.Equal(t, []string{"baz", "bar"}, aliases(tree.Include))
	assert.Same(t, g.baz, tree.Lookup("baz").Entity)
	assert.Same(t, g.bar, tree.Lookup("bar").Entity)
}

func TestPopulate_DeadEndIsSilent(t *testing.T) {
	g := newFooGraph()
	b := NewBuilder().SetRoot(g.foo)

	require.NoError(t, b.Populate("nope,baz.nope.deeper", g.mandatory, g.optional, nil))

	assert.Equal(t, []string{"baz", "bar"}, b.Tree().Paths())
}

func TestPopulate_MandatoryWinsTieBreak(t *testing.T) {
	g := newFooGraph()
	g.optional.Add(g.foo, ir.Link{Target: g.baz, Alias: "bar"})

	b := NewBuilder().SetRoot(g.foo)
	require.NoError(t, b.Populate("bar", g.mandatory, g.optional, nil))

	tree := b.Tree()
	require.Len(t, tree.Include, 1)
	assert.Same(t, g.bar, tree.Include[0].Entity)
}

func TestPopulate_FirstOptionalMatchWins(t *testing.T) {
	g := newFooGraph()
	qux := &ir.Entity{Name: "Qux"}
	g.optional.Add(g.foo, ir.Link{Target: qux, Alias: "baz"})

	b := NewBuilder().SetRoot(g.foo)
	require.NoError(t, b.Populate("baz", g.mandatory, g.optional, nil))

	assert.Same(t, g.baz, b.Tree().Lookup("baz").Entity)
}

func TestPopulate_RequiredCopiedFromLink(t *testing.T) {
	g := newFooGraph()
	g.optional.Add(g.foo, ir.Link{Target: g.baz, Alias: "strict", Required: true})

	b := NewBuilder().SetRoot(g.foo)
	require.NoError(t, b.Populate("strict,baz", g.mandatory, g.optional, nil))

	assert.True(t, b.Tree().Lookup("strict").Required)
	assert.False(t, b.Tree().Lookup("baz").Required)
}

func TestPopulate_WhitelistIgnored(t *testing.T) {
	g := newFooGraph()
	b := NewBuilder().SetRoot(g.foo)

	require.NoError(t, b.Populate("baz", g.mandatory, g.optional, []string{"bar"}))
	assert.Equal(t, []string{"baz", "bar"}, b.Tree().Paths())
}

func TestPopulate_BlogGraph(t *testing.T) {
	reg := testutil.BlogRegistry()
	graph, err := compiler.NewParser(reg).Parse(testutil.BlogDSL)
	require.NoError(t, err)
	mandatory, optional := graph.Split(ir.MandatoryAliases(testutil.BlogMandatory...))

	b := NewBuilder().SetRoot(testutil.Entity(t, reg, "User"))
	require.NoError(t, b.Populate("posts.comments, posts.tags", mandatory, optional, nil))

	assert.Equal(t, []string{
		"posts",
		"posts.comments",
		"posts.comments.author",
		"posts.comments.author.profile",
		"posts.tags",
		"posts.author",
		"posts.author.profile",
		"profile",
	}, b.Tree().Paths())
	assert.Same(t, testutil.Entity(t, reg, "Tag"), b.Tree().Lookup("posts.tags").Entity)
	require.NoError(t, Validate(b.Tree()))
}

func TestPopulate_Idempotent(t *testing.T) {
	reg := testutil.BlogRegistry()
	graph, err := compiler.NewParser(reg).Parse(testutil.BlogDSL)
	require.NoError(t, err)
	mandatory, optional := graph.Split(ir.MandatoryAliases(testutil.BlogMandatory...))

	b := NewBuilder().SetRoot(testutil.Entity(t, reg, "Post"))
	require.NoError(t, b.Populate("comments.post.comments", mandatory, optional, nil))
	first := b.Tree().Clone()

	require.NoError(t, b.Populate("comments.post.comments", mandatory, optional, nil))
	if diff := cmp.Diff(first, b.Tree()); diff != "" {
		t.Errorf("second populate changed the tree (-first +second):\n%s", diff)
	}
}

func TestPopulate_MandatoryCycleIsBounded(t *testing.T) {
	a := &ir.Entity{Name: "A"}
	bEnt := &ir.Entity{Name: "B"}
	mandatory := ir.NewGraph()
	mandatory.Add(a, ir.Link{Target: bEnt, Alias: "b"})
	mandatory.Add(bEnt, ir.Link{Target: a, Alias: "a"})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	b := NewBuilder(WithLogger(logger)).SetRoot(a)
	require.NoError(t, b.Populate("", mandatory, nil, nil))

	assert.Equal(t, []string{"b"}, b.Tree().Paths())
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "b.a")
}

func TestPopulate_ExplicitPathThroughCycle(t *testing.T) {
	a := &ir.Entity{Name: "A"}
	bEnt := &ir.Entity{Name: "B"}
	mandatory := ir.NewGraph()
	mandatory.Add(a, ir.Link{Target: bEnt, Alias: "b"})
	mandatory.Add(bEnt, ir.Link{Target: a, Alias: "a"})

	b := NewBuilder().SetRoot(a)
	require.NoError(t, b.Populate("b.a.b.a", mandatory, nil, nil))

	assert.Equal(t, []string{"b", "b.a", "b.a.b", "b.a.b.a"}, b.Tree().Paths(),
		"explicit paths are not bounded; injection adds nothing below them")
}

func TestPopulate_SelfLoop(t *testing.T) {
	node := &ir.Entity{Name: "Node"}
	leaf := &ir.Entity{Name: "Leaf"}
	mandatory := ir.NewGraph()
	mandatory.Add(node, ir.Link{Target: node, Alias: "parent"})
	mandatory.Add(node, ir.Link{Target: leaf, Alias: "leaf"})

	b := NewBuilder().SetRoot(node)
	require.NoError(t, b.Populate("", mandatory, nil, nil))

	assert.Equal(t, []string{"leaf"}, b.Tree().Paths())
}

func TestPopulate_AcyclicRepeatIsExpanded(t *testing.T) {
	// User appears twice on the chain but is not on a mandatory cycle.
	reg := testutil.BlogRegistry()
	user, post := testutil.Entity(t, reg, "User"), testutil.Entity(t, reg, "Post")
	profile := testutil.Entity(t, reg, "Profile")

	mandatory := ir.NewGraph()
	mandatory.Add(post, ir.Link{Target: user, Alias: "author"})
	mandatory.Add(user, ir.Link{Target: profile, Alias: "profile"})
	optional := ir.NewGraph()
	optional.Add(user, ir.Link{Target: post, Alias: "posts"})

	b := NewBuilder().SetRoot(user)
	require.NoError(t, b.Populate("posts", mandatory, optional, nil))

	assert.Equal(t, []string{"posts", "posts.author", "posts.author.profile", "profile"}, b.Tree().Paths())
}

func TestBuilder_InitialTree(t *testing.T) {
	g := newFooGraph()
	initial := ir.NewQueryTree(nil)
	initial.Where = ir.IRObject{"id": ir.IRInt(42)}
	initial.Extra = ir.IRObject{"limit": ir.IRInt(5)}
	initial.Include = []*ir.IncludeNode{
		{Entity: g.baz, Alias: "baz", Where: ir.IRObject{"live": ir.IRBool(true)}},
	}

	b := NewBuilder().SetRoot(g.foo).SetInitialTree(initial)
	require.NoError(t, b.Populate("baz", g.mandatory, g.optional, nil))

	tree := b.Tree()
	assert.Same(t, initial, tree, "initial tree is extended in place")
	assert.Same(t, g.foo, tree.Entity, "root from SetRoot is kept")
	assert.Equal(t, []string{"baz", "bar"}, tree.Paths())
	assert.Equal(t, ir.IRObject{"live": ir.IRBool(true)}, tree.Lookup("baz").Where)
	assert.Equal(t, ir.IRObject{"limit": ir.IRInt(5)}, tree.Extra)
}

func TestBuilder_Preconditions(t *testing.T) {
	g := newFooGraph()
	b := NewBuilder()

	assert.ErrorIs(t, b.Populate("baz", g.mandatory, g.optional, nil), ErrRootNotSet)
	assert.ErrorIs(t, b.Filter(context.Background(), NewFilter().When(nil, nil)), ErrRootNotSet)

	b.SetRoot(g.foo)
	assert.ErrorIs(t, b.Filter(context.Background(), nil), ErrNilFilter)
	assert.ErrorIs(t, b.Filter(context.Background(), NewFilter()), ErrNoVisitor)
}

func TestBuilder_Filter(t *testing.T) {
	g := newFooGraph()
	b := NewBuilder().SetRoot(g.foo)
	require.NoError(t, b.Populate("baz", g.mandatory, g.optional, nil))

	f := NewFilter().When(
		func(_ context.Context, e *ir.Entity, _ *ir.IncludeNode, _ bool) bool { return e == g.bar },
		func(context.Context, *ir.Entity, *ir.IncludeNode, bool) Conditions {
			return Where(ir.IRObject{"active": ir.IRBool(true)})
		},
	)
	require.NoError(t, b.Filter(context.Background(), f))

	assert.Nil(t, b.Tree().Where)
	assert.Nil(t, b.Tree().Lookup("baz").Where)
	assert.Equal(t, ir.IRObject{"active": ir.IRBool(true)}, b.Tree().Lookup("bar").Where)
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, SplitPaths(" a.b , ,c. "))
	assert.Nil(t, SplitPaths(""))
}
