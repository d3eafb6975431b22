package querytree

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/relgraph/internal/ir"
)

var (
	// ErrRootNotSet is returned by Populate and Filter before SetRoot.
	ErrRootNotSet = errors.New("querytree: root entity not set")

	// ErrNilFilter is returned by Builder.Filter when given a nil filter.
	ErrNilFilter = errors.New("querytree: nil filter")
)

// Builder extends an inclusion tree from populate paths.
type Builder struct {
	tree   *ir.QueryTree
	logger *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the builder logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a builder with an empty tree.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{tree: ir.NewQueryTree(nil)}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return b
}

// SetRoot sets the root entity of the tree.
func (b *Builder) SetRoot(root *ir.Entity) *Builder {
	b.tree.Entity = root
	return b
}

// SetInitialTree replaces the tree being built. The tree is used as is and
// mutated by later calls. A tree without a root entity keeps the entity set
// by SetRoot.
func (b *Builder) SetInitialTree(tree *ir.QueryTree) *Builder {
	if tree == nil {
		tree = ir.NewQueryTree(nil)
	}
	if tree.Entity == nil {
		tree.Entity = b.tree.Entity
	}
	b.tree = tree
	return b
}

// Tree returns the tree being built.
func (b *Builder) Tree() *ir.QueryTree {
	return b.tree
}

// Populate adds the comma-separated dotted paths to the tree, then injects
// every mandatory association at every depth.
//
// Each path segment is matched first against existing children, then against
// mandatory.Get(entity) followed by optional.Get(entity); the first link with
// the alias wins. A segment with no match ends that path silently.
//
// A mandatory child is not synthesised when its entity already occurs on the
// ancestor chain and lies on a cycle of the mandatory graph, which bounds
// injection over cyclic graphs.
//
// whitelist is accepted and not enforced.
func (b *Builder) Populate(paths string, mandatory, optional *ir.AssociationGraph, whitelist []string) error {
	if b.tree.Entity == nil {
		return ErrRootNotSet
	}
	if len(whitelist) > 0 {
		b.logger.Debug("populate whitelist is not enforced", "whitelist", whitelist)
	}

	for _, path := range SplitPaths(paths) {
		b.addPath(path, mandatory, optional)
	}

	inj := injector{
		mandatory: mandatory,
		cyclic:    mandatory.CyclicEntities(),
		onPath:    make(map[*ir.Entity]int),
		logger:    b.logger,
	}
	inj.inject(&b.tree.IncludeNode, "")
	return nil
}

// Filter runs f over the tree with the builder's root entity.
func (b *Builder) Filter(ctx context.Context, f *Filter) error {
	if f == nil {
		return ErrNilFilter
	}
	if b.tree.Entity == nil {
		return ErrRootNotSet
	}
	return f.Run(ctx, b.tree.Entity, b.tree)
}

// SplitPaths splits "a.b,c" into [[a b] [c]]. Paths and segments are
// trimmed; empty ones are dropped.
func SplitPaths(paths string) [][]string {
	var out [][]string
	for _, p := range strings.Split(paths, ",") {
		var segs []string
		for _, s := range strings.Split(p, ".") {
			if s = strings.TrimSpace(s); s != "" {
				segs = append(segs, s)
			}
		}
		if len(segs) > 0 {
			out = append(out, segs)
		}
	}
	return out
}

func (b *Builder) addPath(path []string, mandatory, optional *ir.AssociationGraph) {
	cur := &b.tree.IncludeNode
	for i, alias := range path {
		if child := cur.Child(alias); child != nil {
			cur = child
			continue
		}
		link, ok := findLink(cur.Entity, alias, mandatory, optional)
		if !ok {
			b.logger.Debug("populate path dead end",
				"path", strings.Join(path, "."),
				"segment", strings.Join(path[:i+1], "."),
				"entity", cur.Entity.String())
			return
		}
		child := newNode(link)
		cur.Include = append(cur.Include, child)
		cur = child
	}
}

// findLink returns the first link of entity with the alias, searching
// mandatory links before optional ones.
func findLink(entity *ir.Entity, alias string, mandatory, optional *ir.AssociationGraph) (ir.Link, bool) {
	if l, ok := mandatory.Find(entity, alias); ok {
		return l, true
	}
	return optional.Find(entity, alias)
}

func newNode(link ir.Link) *ir.IncludeNode {
	return &ir.IncludeNode{
		Entity:   link.Target,
		Alias:    link.Alias,
		Required: link.Required,
	}
}

type injector struct {
	mandatory *ir.AssociationGraph
	cyclic    map[*ir.Entity]bool
	onPath    map[*ir.Entity]int
	logger    *slog.Logger
}

func (inj *injector) inject(node *ir.IncludeNode, path string) {
	if node.Entity != nil {
		inj.onPath[node.Entity]++
		defer func() { inj.onPath[node.Entity]-- }()
	}

	for _, link := range inj.mandatory.Get(node.Entity) {
		if node.Child(link.Alias) != nil {
			continue
		}
		if inj.onPath[link.Target] > 0 && inj.cyclic[link.Target] {
			inj.logger.Warn("mandatory association not expanded: cycle",
				"path", join(path, link.Alias),
				"entity", link.Target.String())
			continue
		}
		node.Include = append(node.Include, newNode(link))
	}

	for _, child := range node.Include {
		inj.inject(child, join(path, child.Alias))
	}
}

func join(path, alias string) string {
	if path == "" {
		return alias
	}
	return path + "." + alias
}
