package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relgraph/internal/ir"
)

func boolPtr(b bool) *bool { return &b }

func minimalScenario() *Scenario {
	return &Scenario{
		Name:        "minimal",
		Description: "Minimal scenario",
		Entities:    []EntityDef{{Name: "User", Table: "users"}, {Name: "Post", Table: "posts"}},
		DSL:         "User.posts[] -> Post\nPost.author -> User",
		Mandatory:   []string{"Post.author"},
		Root:        "User",
		Populate:    "posts",
		Assertions:  []Assertion{{Type: AssertPaths, Paths: []string{"posts", "posts.author"}}},
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	result, err := Run(minimalScenario())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"posts", "posts.author"}, result.Paths)
	assert.Equal(t, []string{"User.posts", "Post.author"}, result.Registered)
	require.NotNil(t, result.Tree)
	assert.Equal(t, "User", result.Tree.Entity.Name)
}

func TestRun_ScenarioFiles(t *testing.T) {
	for _, name := range []string{"blog_author", "blog_full", "initial_tree", "unknown_entity"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestRun_FailingAssertion(t *testing.T) {
	s := minimalScenario()
	s.Assertions = []Assertion{{Type: AssertPaths, Paths: []string{"posts"}}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertion 0 (paths)")
	assert.Contains(t, result.Errors[0], "[posts posts.author]")
}

func TestRun_InitialTreeExtraKept(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/initial_tree.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(10), result.Tree.Extra["limit"])
}

func TestRun_InitialTreeUnknownEntity(t *testing.T) {
	s := minimalScenario()
	s.Initial = &ir.TreeSpec{Include: []ir.NodeSpec{{Entity: "Ghost", Alias: "ghost"}}}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `initial tree: include "ghost": unknown entity "Ghost"`)
}

func TestRun_FilterFloatRejected(t *testing.T) {
	s := minimalScenario()
	s.Filters = []FilterStep{{Where: map[string]any{"score": 1.5}}}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filters[0]: where")
}

func TestRun_FilterSelectors(t *testing.T) {
	s := minimalScenario()
	s.Filters = []FilterStep{
		{Alias: "author", Where: map[string]any{"banned": false}},
		{Root: boolPtr(true), Where: map[string]any{"id": 1}},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, ir.IRObject{"id": ir.IRInt(1)}, result.Tree.Where)
	assert.Nil(t, result.Tree.Lookup("posts").Where)
	assert.Equal(t, ir.IRObject{"banned": ir.IRBool(false)}, result.Tree.Lookup("posts.author").Where)
}

func TestRun_ParseErrorWithoutExpectation(t *testing.T) {
	s := minimalScenario()
	s.DSL = "User.posts -> Post -> Tag -> Extra"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Nil(t, result.Tree)
	require.Error(t, result.ParseError)
	assert.Contains(t, result.Errors[0], "parse error")
}

func TestRun_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Run(minimalScenario(), WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[OK]")
	assert.Contains(t, out, "scenario completed")
}
