// Package querytree builds and mutates inclusion trees.
//
// Three pieces work on an ir.QueryTree:
//
//   - Visit walks a tree depth first, children before parents, and applies a
//     Mutator to every node. It is the only traversal primitive; the filter
//     is built on it.
//   - Builder extends a tree from dotted populate paths ("posts.comments")
//     resolved against a mandatory and an optional association graph, then
//     injects every mandatory association at every depth.
//   - Filter runs a predicate/producer pair over a tree and merges the
//     produced conditions into each matching node's where clause.
//
// All operations mutate the tree in place and are synchronous. Nodes are
// created on first reference and never removed.
package querytree
