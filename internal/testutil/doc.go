// Package testutil provides shared fixtures for relgraph tests: a blog-shaped
// entity registry with its DSL, and a registrar that records what the
// parser hooks hand to the persistence layer.
package testutil
