// Package ir provides the shared data model for relgraph.
//
// This package contains type definitions and pure helpers only. Every other
// internal package imports ir; ir imports nothing internal, so it stays the
// foundational layer with no circular dependencies.
//
// The model has three layers:
//   - Entities and associations: Entity, AssociationKind, Association.
//   - The association graph: AssociationGraph maps a source entity to the
//     ordered list of Links declared for it.
//   - Inclusion trees: IncludeNode and QueryTree describe which related
//     entities a query should eagerly attach, and where each level is
//     filtered.
//
// Conditions attached to tree nodes are IRObject values. The core treats them
// as opaque payloads; only the "$or" and "$and" keys have meaning to the
// filter merge rules.
//
// Key constraints:
//   - Entity identity is pointer identity. Two *Entity with the same name
//     from different registries are different entities.
//   - No float values in conditions; use IRInt or IRString.
//   - Canonical JSON (MarshalCanonical) is the only serialization used for
//     hashing and golden snapshots.
package ir
