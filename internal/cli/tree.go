package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/relgraph/internal/compiler"
	"github.com/roach88/relgraph/internal/ir"
	"github.com/roach88/relgraph/internal/querytree"
)

// anyEntity selects every node in --filter and --any-of.
const anyEntity = "*"

// TreeOptions holds the flags shared by populate and sql.
type TreeOptions struct {
	Root      string
	Populate  string
	Initial   string   // YAML file holding an initial tree
	Filters   []string // Entity=<json object>, one filter pass each
	AnyOf     []string // Entity=<json array of objects>, one filter pass each
	Whitelist []string
}

func (o *TreeOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Root, "root", "", "root entity of the query tree (required)")
	cmd.Flags().StringVar(&o.Populate, "populate", "", "comma-separated dotted include paths")
	cmd.Flags().StringVar(&o.Initial, "initial", "", "YAML file with an initial tree")
	cmd.Flags().StringArrayVar(&o.Filters, "filter", nil, `overwrite conditions: Entity={"col":1} (Entity may be "*")`)
	cmd.Flags().StringArrayVar(&o.AnyOf, "any-of", nil, `merge an $or group: Entity=[{"a":1},{"b":2}]`)
	cmd.Flags().StringSliceVar(&o.Whitelist, "whitelist", nil, "accepted and not enforced")
}

// treeBuild is the outcome of loading a project and building a tree.
type treeBuild struct {
	project *Project
	graph   *ir.AssociationGraph
	tree    *ir.QueryTree
}

// buildTree loads the project in dir, parses it and populates then filters
// a tree as described by topts. --filter passes run before --any-of passes,
// each in flag order. Errors are *LoadError.
func buildTree(ctx context.Context, opts *RootOptions, topts *TreeOptions, dir string) (*treeBuild, error) {
	project, err := LoadProject(dir)
	if err != nil {
		return nil, err
	}
	graph, _, err := project.Parse(opts.logger(), compiler.NopRegistrar)
	if err != nil {
		return nil, err
	}

	if topts.Root == "" {
		return nil, &LoadError{Code: ErrCodeInvalidTree, Message: "--root is required"}
	}
	root, ok := project.Registry.Lookup(topts.Root)
	if !ok {
		return nil, &LoadError{Code: ErrCodeInvalidTree, Message: fmt.Sprintf("unknown root entity %q", topts.Root)}
	}

	b := querytree.NewBuilder(querytree.WithLogger(opts.logger())).SetRoot(root)
	if topts.Initial != "" {
		initial, err := loadInitialTree(topts.Initial, root, project)
		if err != nil {
			return nil, err
		}
		b.SetInitialTree(initial)
	}

	mandatory, optional := project.Split(graph)
	if err := b.Populate(topts.Populate, mandatory, optional, topts.Whitelist); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidTree, Message: err.Error()}
	}

	filters, err := parseFilterFlags(topts)
	if err != nil {
		return nil, err
	}
	for _, f := range filters {
		if err := b.Filter(ctx, f); err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidTree, Message: err.Error()}
		}
	}

	return &treeBuild{project: project, graph: graph, tree: b.Tree()}, nil
}

// loadInitialTree decodes a YAML tree spec and resolves it against the
// project registry.
func loadInitialTree(path string, root *ir.Entity, project *Project) (*ir.QueryTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("initial tree: %v", err)}
	}

	var spec ir.TreeSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&spec); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidTree, Message: fmt.Sprintf("initial tree: %v", err)}
	}

	tree, err := spec.Resolve(root, project.Registry.Lookup)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidTree, Message: fmt.Sprintf("initial tree: %v", err)}
	}
	return tree, nil
}

func parseFilterFlags(topts *TreeOptions) ([]*querytree.Filter, error) {
	var out []*querytree.Filter
	for _, arg := range topts.Filters {
		entity, raw, err := splitFilterArg("--filter", arg)
		if err != nil {
			return nil, err
		}
		cond, err := ir.UnmarshalIRValue([]byte(raw))
		if err != nil {
			return nil, filterError("--filter", arg, err)
		}
		obj, ok := cond.(ir.IRObject)
		if !ok {
			return nil, filterError("--filter", arg, errors.New("condition must be a JSON object"))
		}
		out = append(out, entityFilter(entity, querytree.Where(obj)))
	}

	for _, arg := range topts.AnyOf {
		entity, raw, err := splitFilterArg("--any-of", arg)
		if err != nil {
			return nil, err
		}
		val, err := ir.UnmarshalIRValue([]byte(raw))
		if err != nil {
			return nil, filterError("--any-of", arg, err)
		}
		arr, ok := val.(ir.IRArray)
		if !ok || len(arr) == 0 {
			return nil, filterError("--any-of", arg, errors.New("alternatives must be a non-empty JSON array"))
		}
		group := make([]ir.IRObject, len(arr))
		for i, v := range arr {
			obj, ok := v.(ir.IRObject)
			if !ok {
				return nil, filterError("--any-of", arg, fmt.Errorf("alternative %d is not an object", i))
			}
			group[i] = obj
		}
		out = append(out, entityFilter(entity, querytree.AnyOf(group...)))
	}
	return out, nil
}

func splitFilterArg(flag, arg string) (entity, raw string, err error) {
	entity, raw, ok := strings.Cut(arg, "=")
	entity = strings.TrimSpace(entity)
	if !ok || entity == "" {
		return "", "", filterError(flag, arg, errors.New("expected Entity=<json>"))
	}
	return entity, raw, nil
}

func filterError(flag, arg string, err error) *LoadError {
	return &LoadError{Code: ErrCodeInvalidTree, Message: fmt.Sprintf("%s %q: %v", flag, arg, err)}
}

// entityFilter applies conds to every node whose entity is named entity.
// The root node reports the tree's root entity.
func entityFilter(entity string, conds querytree.Conditions) *querytree.Filter {
	return querytree.NewFilter().When(
		func(_ context.Context, e *ir.Entity, _ *ir.IncludeNode, _ bool) bool {
			return entity == anyEntity || (e != nil && e.Name == entity)
		},
		func(context.Context, *ir.Entity, *ir.IncludeNode, bool) querytree.Conditions {
			return conds
		},
	)
}
