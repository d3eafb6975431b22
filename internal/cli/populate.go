package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relgraph/internal/ir"
)

// PopulateOptions holds flags for the populate command.
type PopulateOptions struct {
	*RootOptions
	TreeOptions
}

// PopulateResult is the populate command payload.
type PopulateResult struct {
	Hash  string          `json:"hash"`
	Paths []string        `json:"paths"`
	Tree  json.RawMessage `json:"tree"`
}

// NewPopulateCommand creates the populate command.
func NewPopulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PopulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "populate <project-dir>",
		Short: "Build the inclusion tree for a populate request",
		Long: `Build the nested inclusion tree for a root entity and a populate string.

Every mandatory association is injected at every depth. Filters run after
population, one pass per flag: --filter overwrites the matching nodes'
conditions, --any-of merges an $or group into them.

Examples:
  relgraph populate ./project --root User --populate posts.comments,profile
  relgraph populate ./project --root User --populate posts --filter 'Post={"published":true}'
  relgraph populate ./project --root User --initial tree.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runPopulate(ctx, opts, args[0], cmd)
		},
	}

	opts.TreeOptions.addFlags(cmd)

	return cmd
}

func runPopulate(ctx context.Context, opts *PopulateOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	build, err := buildTree(ctx, opts.RootOptions, &opts.TreeOptions, dir)
	if err != nil {
		return formatter.Report(err)
	}

	hash, err := ir.TreeHash(build.tree)
	if err != nil {
		return formatter.Report(err)
	}
	formatter.VerboseLog("Tree hash %s", hash)

	if opts.Format == "json" {
		data, err := build.tree.MarshalJSON()
		if err != nil {
			return formatter.Report(err)
		}
		paths := build.tree.Paths()
		if paths == nil {
			paths = []string{}
		}
		return formatter.Success(PopulateResult{Hash: hash, Paths: paths, Tree: data})
	}
	return formatter.Success(RenderTree(build.tree))
}

// RenderTree draws a tree as indented text, one node per line:
//
//	User where {"id":1}
//	  posts (Post)
//	    author (User) required
func RenderTree(tree *ir.QueryTree) string {
	var b strings.Builder
	b.WriteString(tree.Entity.String())
	writeWhere(&b, tree.Where)
	if len(tree.Extra) > 0 {
		if data, err := ir.MarshalCanonical(tree.Extra); err == nil {
			fmt.Fprintf(&b, " %s", data)
		}
	}

	var walk func(nodes []*ir.IncludeNode, depth int)
	walk = func(nodes []*ir.IncludeNode, depth int) {
		for _, n := range nodes {
			fmt.Fprintf(&b, "\n%s%s (%s)", strings.Repeat("  ", depth), n.Alias, n.Entity)
			if n.Required {
				b.WriteString(" required")
			}
			writeWhere(&b, n.Where)
			walk(n.Include, depth+1)
		}
	}
	walk(tree.Include, 1)
	return b.String()
}

func writeWhere(b *strings.Builder, where ir.IRObject) {
	if len(where) == 0 {
		return
	}
	if data, err := ir.MarshalCanonical(where); err == nil {
		fmt.Fprintf(b, " where %s", data)
	}
}
