package querytree

import (
	"context"
	"errors"

	"github.com/roach88/relgraph/internal/ir"
)

// Condition keys with merge semantics. All other condition content is
// opaque to this package.
const (
	KeyOr  = "$or"
	KeyAnd = "$and"
)

var (
	// ErrNoVisitor is returned by Filter.Run when neither When nor Visit was
	// called.
	ErrNoVisitor = errors.New("querytree: filter has no visitor")

	// ErrNilTree is returned when a filter runs over a nil tree.
	ErrNilTree = errors.New("querytree: nil tree")
)

// Predicate decides whether a node gets conditions. entity is the root
// entity passed to Run at the root, else the node's own entity.
type Predicate func(ctx context.Context, entity *ir.Entity, node *ir.IncludeNode, root bool) bool

// Producer returns the conditions to merge into a node's where clause.
type Producer func(ctx context.Context, entity *ir.Entity, node *ir.IncludeNode, root bool) Conditions

// NodeVisitor is the low-level form of a filter: it sees every node and
// returns the node to keep in its place.
type NodeVisitor func(ctx context.Context, entity *ir.Entity, node *ir.IncludeNode, root bool) *ir.IncludeNode

type conditionsKind int

const (
	conditionsNone conditionsKind = iota
	conditionsWhere
	conditionsAnyOf
)

// Conditions is a Producer result: either one condition object or a list of
// alternatives. The zero value leaves the where clause unchanged.
type Conditions struct {
	kind  conditionsKind
	where ir.IRObject
	anyOf []ir.IRObject
}

// Where returns conditions that overwrite the node's where clause.
func Where(cond ir.IRObject) Conditions {
	return Conditions{kind: conditionsWhere, where: cond}
}

// AnyOf returns conditions merged as an "$or" group.
func AnyOf(conds ...ir.IRObject) Conditions {
	return Conditions{kind: conditionsAnyOf, anyOf: conds}
}

// IsZero reports whether c carries no conditions.
func (c Conditions) IsZero() bool {
	return c.kind == conditionsNone
}

// apply merges c into where and returns the new where clause.
//
// A single condition replaces where. A list is set as "$or" after any
// existing "$or" has been demoted into "$and":
//
//	{$or: A, $and: B} -> {$and: {$and: B, $or: A}}
//	{$or: A}          -> {$and: {$or: A}}
//
// Keys other than "$or" and "$and" are kept.
func (c Conditions) apply(where ir.IRObject) ir.IRObject {
	switch c.kind {
	case conditionsWhere:
		return c.where.Clone()
	case conditionsAnyOf:
		out := where.Clone()
		if out == nil {
			out = ir.IRObject{}
		}
		oldOr, hasOr := out[KeyOr]
		oldAnd, hasAnd := out[KeyAnd]
		switch {
		case hasOr && hasAnd:
			out[KeyAnd] = ir.IRObject{KeyAnd: oldAnd, KeyOr: oldOr}
			delete(out, KeyOr)
		case hasOr:
			out[KeyAnd] = ir.IRObject{KeyOr: oldOr}
			delete(out, KeyOr)
		}
		group := make(ir.IRArray, len(c.anyOf))
		for i, cond := range c.anyOf {
			group[i] = cond.Clone()
		}
		out[KeyOr] = group
		return out
	default:
		return where
	}
}

// MergeConditions applies c to a where clause without a tree.
func MergeConditions(where ir.IRObject, c Conditions) ir.IRObject {
	return c.apply(where)
}

// Filter injects conditions into the where clauses of a tree.
// Register the behaviour with When or Visit; the last registration wins.
type Filter struct {
	visitor NodeVisitor
}

// NewFilter creates a filter with no visitor.
func NewFilter() *Filter {
	return &Filter{}
}

// When registers a predicate/producer pair. A nil predicate matches every
// node.
func (f *Filter) When(pred Predicate, prod Producer) *Filter {
	f.visitor = func(ctx context.Context, entity *ir.Entity, node *ir.IncludeNode, root bool) *ir.IncludeNode {
		if pred != nil && !pred(ctx, entity, node, root) {
			return node
		}
		if prod == nil {
			return node
		}
		if c := prod(ctx, entity, node, root); !c.IsZero() {
			node.Where = c.apply(node.Where)
		}
		return node
	}
	return f
}

// Visit registers a low-level visitor called on every node.
func (f *Filter) Visit(v NodeVisitor) *Filter {
	f.visitor = v
	return f
}

// Run drives the registered visitor over tree. rootEntity is the entity
// reported for the root node.
func (f *Filter) Run(ctx context.Context, rootEntity *ir.Entity, tree *ir.QueryTree) error {
	if f == nil || f.visitor == nil {
		return ErrNoVisitor
	}
	if tree == nil {
		return ErrNilTree
	}
	VisitTree(tree, MutatorFunc(func(node *ir.IncludeNode, root bool) *ir.IncludeNode {
		entity := node.Entity
		if root {
			entity = rootEntity
		}
		return f.visitor(ctx, entity, node, root)
	}))
	return nil
}
