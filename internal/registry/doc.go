// Package registry holds the entity definitions the DSL parser resolves names
// against.
//
// A Registry maps entity names to *ir.Entity handles. Handles are created once
// and compared by pointer everywhere else in the module. Registries are built
// in code with Define, decoded from the "entities" struct of a CUE project
// with FromCUE, or reloaded from the SQLite catalog (see internal/store).
package registry
