package querytree

import "github.com/roach88/relgraph/internal/ir"

// Mutator transforms one node of an inclusion tree. root is true only for
// the node Visit was called with. The returned node replaces the visited
// one; returning nil keeps the original.
type Mutator interface {
	Mutate(node *ir.IncludeNode, root bool) *ir.IncludeNode
}

// MutatorFunc adapts a function to the Mutator interface.
type MutatorFunc func(node *ir.IncludeNode, root bool) *ir.IncludeNode

// Mutate calls f(node, root).
func (f MutatorFunc) Mutate(node *ir.IncludeNode, root bool) *ir.IncludeNode {
	return f(node, root)
}

// FieldMerge is a Mutator that shallow-merges its set fields into every
// node. Unset (nil) fields leave the node untouched; Where replaces the
// node's where clause as a whole.
type FieldMerge struct {
	Alias    *string
	Required *bool
	Where    ir.IRObject
}

// Mutate implements Mutator.
func (m FieldMerge) Mutate(node *ir.IncludeNode, _ bool) *ir.IncludeNode {
	if m.Alias != nil {
		node.Alias = *m.Alias
	}
	if m.Required != nil {
		node.Required = *m.Required
	}
	if m.Where != nil {
		node.Where = m.Where.Clone()
	}
	return node
}

// SetRequired returns a FieldMerge that sets the required flag.
func SetRequired(required bool) FieldMerge {
	return FieldMerge{Required: &required}
}

// Visit applies m to every node under root, children first, in include
// order, and finally to root itself. Mutation is in place; the possibly
// replaced root is returned.
func Visit(root *ir.IncludeNode, m Mutator) *ir.IncludeNode {
	return visit(root, m, true)
}

func visit(node *ir.IncludeNode, m Mutator, root bool) *ir.IncludeNode {
	if node == nil {
		return nil
	}
	for i, child := range node.Include {
		node.Include[i] = visit(child, m, false)
	}
	if out := m.Mutate(node, root); out != nil {
		return out
	}
	return node
}

// VisitTree is Visit over the root node of a query tree. Passthrough fields
// are kept even when the mutator replaces the root node.
func VisitTree(tree *ir.QueryTree, m Mutator) *ir.QueryTree {
	if tree == nil {
		return nil
	}
	if out := Visit(&tree.IncludeNode, m); out != &tree.IncludeNode {
		tree.IncludeNode = *out
	}
	return tree
}
