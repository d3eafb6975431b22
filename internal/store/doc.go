// Package store provides the SQLite catalog behind the parser hooks.
//
// The catalog holds two tables:
//   - entities: entity name and storage table
//   - associations: every association registered by the DSL parser, keyed
//     by ir.AssociationID(source, alias)
//
// Registering an association is an upsert: re-parsing the same DSL leaves
// one row per (source, alias) and keeps its original position. Reads order
// by seq, then key, so results are deterministic.
//
// Registrar adapts a Store to compiler.Registrar so the default parser
// hooks write straight into the catalog.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
