package cli

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/spf13/cobra"

	"github.com/roach88/relgraph/internal/querysql"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	TreeOptions
	Placeholder string // "question" | "dollar"
	PrimaryKey  string
}

// SQLResult is the sql command payload.
type SQLResult struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <project-dir>",
		Short: "Compile the inclusion tree to a SELECT statement",
		Long: `Build the inclusion tree like populate, then compile it to one SELECT
statement. Optional includes become LEFT JOINs, required ones INNER JOINs;
node conditions go into the ON clause and root conditions into WHERE.
The statement is printed, never executed.

Examples:
  relgraph sql ./project --root User --populate posts
  relgraph sql ./project --root User --populate posts --placeholder dollar`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runSQL(ctx, opts, args[0], cmd)
		},
	}

	opts.TreeOptions.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Placeholder, "placeholder", "question", "placeholder format (question|dollar)")
	cmd.Flags().StringVar(&opts.PrimaryKey, "primary-key", "id", "default key column")

	return cmd
}

func runSQL(ctx context.Context, opts *SQLOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var placeholder sq.PlaceholderFormat
	switch opts.Placeholder {
	case "question":
		placeholder = sq.Question
	case "dollar":
		placeholder = sq.Dollar
	default:
		return formatter.Report(&LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("invalid placeholder %q: must be question or dollar", opts.Placeholder),
		})
	}

	build, err := buildTree(ctx, opts.RootOptions, &opts.TreeOptions, dir)
	if err != nil {
		return formatter.Report(err)
	}

	compiler := querysql.NewSQLCompiler(build.graph,
		querysql.WithPlaceholder(placeholder),
		querysql.WithPrimaryKey(opts.PrimaryKey),
	)
	query, args, err := compiler.Compile(build.tree)
	if err != nil {
		return formatter.Report(&LoadError{Code: ErrCodeSQLCompile, Message: err.Error()})
	}
	if args == nil {
		args = []any{}
	}

	if opts.Format == "json" {
		return formatter.Success(SQLResult{SQL: query, Args: args})
	}
	return formatter.Success(fmt.Sprintf("%s\n-- args: %v", query, args))
}
