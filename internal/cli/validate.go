package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relgraph/internal/compiler"
	"github.com/roach88/relgraph/internal/ir"
)

// ValidationIssue is one problem found in a project.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool              `json:"valid"`
	Entities     int               `json:"entities"`
	Associations int               `json:"associations"`
	Cyclic       []string          `json:"cyclic,omitempty"` // Entities on a mandatory cycle
	Errors       []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <project-dir>",
		Short: "Validate a project without building trees",
		Long: `Validate the entities, associations and mandatory pairs of a project.

Checks that the DSL parses and that every mandatory pair names a declared
association. Entities lying on a cycle of mandatory associations are
reported; population stops expanding mandatory links there.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	project, err := LoadProject(dir)
	if err != nil {
		return formatter.Report(err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", project.FileCount, dir)

	graph, _, err := project.Parse(opts.logger(), compiler.NopRegistrar)
	if err != nil {
		return formatter.Report(err)
	}

	result := validateProject(project, graph)
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	msg := fmt.Sprintf("\u2713 Project valid: %d entities, %d associations", result.Entities, result.Associations)
	if len(result.Cyclic) > 0 {
		msg += fmt.Sprintf("\n  mandatory cycle through: %s", strings.Join(result.Cyclic, ", "))
	}
	return formatter.Success(msg)
}

// validateProject checks the mandatory pairs against the parsed graph.
func validateProject(project *Project, graph *ir.AssociationGraph) ValidationResult {
	result := ValidationResult{
		Valid:        true,
		Entities:     project.Registry.Len(),
		Associations: graph.Len(),
	}

	for _, pair := range project.Mandatory {
		name, alias, _ := strings.Cut(pair, ".")
		entity, ok := project.Registry.Lookup(name)
		if ok {
			_, ok = graph.Find(entity, alias)
		}
		if !ok {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationIssue{
				Code:    ErrCodeMandatoryUnknown,
				Message: fmt.Sprintf("mandatory pair %q names no declared association", pair),
			})
		}
	}

	mandatory, _ := project.Split(graph)
	for e := range mandatory.CyclicEntities() {
		result.Cyclic = append(result.Cyclic, e.Name)
	}
	slices.Sort(result.Cyclic)

	return result
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		if err := formatter.Error(result.Errors[0].Code, fmt.Sprintf("%d validation error(s)", len(result.Errors)), result.Errors); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		fmt.Fprintf(w, "\u2717 %d validation error(s)\n", len(result.Errors))
		for _, issue := range result.Errors {
			fmt.Fprintf(w, "  [%s] %s\n", issue.Code, issue.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(result.Errors)))
}
