package querytree

import (
	"fmt"

	"github.com/roach88/relgraph/internal/ir"
)

// TreeError reports a structural problem in an inclusion tree.
type TreeError struct {
	Path   string // Dotted alias path of the offending node, "" for the root
	Reason string
}

func (e *TreeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("tree root: %s", e.Reason)
	}
	return fmt.Sprintf("tree node %q: %s", e.Path, e.Reason)
}

// Validate checks the structural invariants of a tree: every non-root node
// has an entity and an alias, and no two siblings share an alias.
// Trees produced by Builder always pass; trees supplied through
// SetInitialTree may not.
func Validate(tree *ir.QueryTree) error {
	if tree == nil {
		return ErrNilTree
	}
	return validateNode(&tree.IncludeNode, "")
}

func validateNode(node *ir.IncludeNode, path string) error {
	seen := make(map[string]bool, len(node.Include))
	for _, child := range node.Include {
		if child == nil {
			return &TreeError{Path: path, Reason: "nil include entry"}
		}
		childPath := join(path, child.Alias)
		if child.Alias == "" {
			return &TreeError{Path: childPath, Reason: "missing alias"}
		}
		if child.Entity == nil {
			return &TreeError{Path: childPath, Reason: "missing entity"}
		}
		if seen[child.Alias] {
			return &TreeError{Path: childPath, Reason: "duplicate sibling alias"}
		}
		seen[child.Alias] = true
		if err := validateNode(child, childPath); err != nil {
			return err
		}
	}
	return nil
}
