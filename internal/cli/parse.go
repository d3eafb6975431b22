package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relgraph/internal/compiler"
	"github.com/roach88/relgraph/internal/ir"
	"github.com/roach88/relgraph/internal/store"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	DB string // catalog database; empty registers nothing
}

// EntityView is the JSON form of a registry entry.
type EntityView struct {
	Name  string `json:"name"`
	Table string `json:"table"`
}

// AssociationView is the JSON form of a parsed association.
type AssociationView struct {
	Source      string            `json:"source"`
	Alias       string            `json:"alias"`
	Kind        string            `json:"kind"`
	Target      string            `json:"target"`
	Liaison     string            `json:"liaison,omitempty"`
	ForeignKey  string            `json:"foreign_key,omitempty"`
	TargetKey   string            `json:"target_key,omitempty"`
	Constraints bool              `json:"constraints"`
	Mandatory   bool              `json:"mandatory"`
	Options     map[string]string `json:"options,omitempty"`
	Line        int               `json:"line"`
}

// ParseResult is the parse command payload.
type ParseResult struct {
	Entities     []EntityView      `json:"entities"`
	Associations []AssociationView `json:"associations"`
	Registered   bool              `json:"registered"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <project-dir>",
		Short: "Parse the association DSL of a project",
		Long: `Parse the association DSL of a project and print the resolved associations.

With --db, the entities and every association are registered in a SQLite
catalog. Re-parsing updates existing associations in place.

Examples:
  relgraph parse ./project
  relgraph parse ./project --db catalog.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite catalog to register associations in")

	return cmd
}

func runParse(ctx context.Context, opts *ParseOptions, dir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	project, err := LoadProject(dir)
	if err != nil {
		return formatter.Report(err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", project.FileCount, dir)

	registrar := compiler.NopRegistrar
	if opts.DB != "" {
		st, err := store.Open(opts.DB)
		if err != nil {
			return formatter.Report(&LoadError{Code: ErrCodeWriteFailed, Message: err.Error()})
		}
		defer st.Close()

		for _, e := range project.Registry.Entities() {
			if err := st.RegisterEntity(ctx, e); err != nil {
				return formatter.Report(&LoadError{Code: ErrCodeWriteFailed, Message: err.Error()})
			}
		}
		registrar = store.Registrar(ctx, st)
	}

	_, assocs, err := project.Parse(opts.logger(), registrar)
	if err != nil {
		return formatter.Report(err)
	}

	result := newParseResult(project, assocs)
	result.Registered = opts.DB != ""

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(result.text())
}

func newParseResult(project *Project, assocs []ir.Association) ParseResult {
	mandatory := make(map[string]bool, len(project.Mandatory))
	for _, pair := range project.Mandatory {
		mandatory[pair] = true
	}

	res := ParseResult{
		Entities:     make([]EntityView, 0, project.Registry.Len()),
		Associations: make([]AssociationView, 0, len(assocs)),
	}
	for _, e := range project.Registry.Entities() {
		res.Entities = append(res.Entities, EntityView{Name: e.Name, Table: e.Table})
	}
	for _, a := range assocs {
		v := AssociationView{
			Source:      a.Source.Name,
			Alias:       a.Alias,
			Kind:        string(a.Kind),
			Target:      a.Target.Name,
			ForeignKey:  a.ForeignKey,
			TargetKey:   a.TargetKey,
			Constraints: a.Constraints,
			Mandatory:   mandatory[a.Source.Name+"."+a.Alias],
			Options:     a.Options,
			Line:        a.Line,
		}
		if a.Liaison != nil {
			v.Liaison = a.Liaison.Name
		}
		res.Associations = append(res.Associations, v)
	}
	return res
}

func (r ParseResult) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\u2713 Parsed %d association(s) over %d entities", len(r.Associations), len(r.Entities))
	if r.Registered {
		b.WriteString(" (registered)")
	}
	for _, a := range r.Associations {
		b.WriteString("\n  ")
		fmt.Fprintf(&b, "%d: %s.%s -> %s [%s", a.Line, a.Source, a.Alias, a.Target, a.Kind)
		if a.Liaison != "" {
			fmt.Fprintf(&b, " through %s", a.Liaison)
		}
		if a.ForeignKey != "" {
			fmt.Fprintf(&b, ", foreignKey=%s", a.ForeignKey)
		}
		if a.Mandatory {
			b.WriteString(", mandatory")
		}
		b.WriteString("]")
	}
	return b.String()
}
