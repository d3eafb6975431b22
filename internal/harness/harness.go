package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/relgraph/internal/compiler"
	"github.com/roach88/relgraph/internal/ir"
	"github.com/roach88/relgraph/internal/querytree"
	"github.com/roach88/relgraph/internal/registry"
	"github.com/roach88/relgraph/internal/store"
)

// Harness holds the per-scenario execution state.
type Harness struct {
	store    *store.Store
	registry *registry.Registry
	logger   *slog.Logger
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger routes parser and builder logs to l. Runs are silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory catalog for isolation.
//
// Execution flow:
// 1. Build the registry and open the catalog
// 2. Parse the DSL, registering every association in the catalog
// 3. Split the graph with the scenario's mandatory pairs
// 4. Populate the tree, then run each filter step
// 5. Evaluate assertions
//
// A parse failure is not an execution error: it is recorded in
// Result.ParseError for parse_error assertions.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	ctx := context.Background()
	result := NewResult()

	if h.registry, err = buildRegistry(scenario.Entities); err != nil {
		return nil, err
	}

	text, err := scenarioDSL(scenario)
	if err != nil {
		return nil, err
	}

	parser := compiler.NewParser(h.registry,
		compiler.WithRegistrar(store.Registrar(ctx, st)),
		compiler.WithLogger(h.logger),
	)
	graph, parseErr := parser.Parse(text)

	// Registrations made before a failing line stay in the catalog.
	if result.Registered, err = h.registered(ctx); err != nil {
		return nil, err
	}

	if parseErr != nil {
		result.ParseError = parseErr
		h.logger.Info("scenario parse failed", "scenario", scenario.Name, "error", parseErr)
	} else {
		tree, err := h.buildTree(ctx, scenario, graph)
		if err != nil {
			return nil, err
		}
		result.Tree = tree
		if paths := tree.Paths(); paths != nil {
			result.Paths = paths
		}
		if err := querytree.Validate(tree); err != nil {
			result.AddError(err.Error())
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"paths", len(result.Paths),
	)
	return result, nil
}

func buildRegistry(defs []EntityDef) (*registry.Registry, error) {
	reg := registry.New()
	for _, d := range defs {
		if _, err := reg.Define(d.Name, d.Table); err != nil {
			return nil, fmt.Errorf("entities: %w", err)
		}
	}
	return reg, nil
}

func scenarioDSL(s *Scenario) (string, error) {
	if s.DSLFile == "" {
		return s.DSL, nil
	}
	data, err := os.ReadFile(s.DSLFile)
	if err != nil {
		return "", fmt.Errorf("failed to read dsl file: %w", err)
	}
	return string(data), nil
}

func (h *Harness) registered(ctx context.Context) ([]string, error) {
	assocs, err := h.store.Associations(ctx, h.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	out := make([]string, len(assocs))
	for i, a := range assocs {
		out[i] = a.Source.Name + "." + a.Alias
	}
	return out, nil
}

// buildTree populates the tree and applies the filter steps.
func (h *Harness) buildTree(ctx context.Context, s *Scenario, graph *ir.AssociationGraph) (*ir.QueryTree, error) {
	root, _ := h.registry.Lookup(s.Root)
	mandatory, optional := graph.Split(ir.MandatoryAliases(s.Mandatory...))

	b := querytree.NewBuilder(querytree.WithLogger(h.logger)).SetRoot(root)
	if s.Initial != nil {
		initial, err := s.Initial.Resolve(root, h.registry.Lookup)
		if err != nil {
			return nil, fmt.Errorf("initial tree: %w", err)
		}
		b.SetInitialTree(initial)
	}

	if err := b.Populate(s.Populate, mandatory, optional, s.Whitelist); err != nil {
		return nil, fmt.Errorf("populate: %w", err)
	}

	for i, step := range s.Filters {
		f, err := step.filter()
		if err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
		if err := b.Filter(ctx, f); err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
	}
	return b.Tree(), nil
}

// filter converts the step into a querytree.Filter.
func (s FilterStep) filter() (*querytree.Filter, error) {
	var conds querytree.Conditions
	if s.Where != nil {
		where, err := ir.ObjectFromGo(s.Where)
		if err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
		conds = querytree.Where(where)
	} else {
		group := make([]ir.IRObject, len(s.AnyOf))
		for i, m := range s.AnyOf {
			obj, err := ir.ObjectFromGo(m)
			if err != nil {
				return nil, fmt.Errorf("any_of[%d]: %w", i, err)
			}
			group[i] = obj
		}
		conds = querytree.AnyOf(group...)
	}

	pred := func(_ context.Context, entity *ir.Entity, node *ir.IncludeNode, root bool) bool {
		if s.Entity != "" && (entity == nil || entity.Name != s.Entity) {
			return false
		}
		if s.Alias != "" && node.Alias != s.Alias {
			return false
		}
		if s.Root != nil && *s.Root != root {
			return false
		}
		return true
	}
	prod := func(context.Context, *ir.Entity, *ir.IncludeNode, bool) querytree.Conditions {
		return conds
	}
	return querytree.NewFilter().When(pred, prod), nil
}
