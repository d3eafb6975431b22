package registry

import (
	"fmt"

	"github.com/ettle/strcase"

	"github.com/roach88/relgraph/internal/ir"
)

// Registry maps entity names to entity handles.
// The zero value is not usable; use New.
type Registry struct {
	byName map[string]*ir.Entity
	order  []*ir.Entity
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*ir.Entity)}
}

// DuplicateEntityError is returned when a name is defined twice.
type DuplicateEntityError struct {
	Name string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("entity %q already defined", e.Name)
}

// Define registers a new entity. An empty table defaults to the snake_case
// form of the name ("BlogPost" -> "blog_post").
func (r *Registry) Define(name, table string) (*ir.Entity, error) {
	if name == "" {
		return nil, fmt.Errorf("entity name is required")
	}
	if _, ok := r.byName[name]; ok {
		return nil, &DuplicateEntityError{Name: name}
	}
	if table == "" {
		table = DefaultTable(name)
	}
	e := &ir.Entity{Name: name, Table: table}
	r.byName[name] = e
	r.order = append(r.order, e)
	return e, nil
}

// MustDefine is Define for fixtures; it panics on error.
func (r *Registry) MustDefine(name, table string) *ir.Entity {
	e, err := r.Define(name, table)
	if err != nil {
		panic(err)
	}
	return e
}

// Lookup returns the entity registered under name.
func (r *Registry) Lookup(name string) (*ir.Entity, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.byName[name]
	return e, ok
}

// Entities returns all entities in definition order.
func (r *Registry) Entities() []*ir.Entity {
	out := make([]*ir.Entity, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.order)
}

// DefaultTable derives a storage table name from an entity name.
func DefaultTable(name string) string {
	return strcase.ToSnake(name)
}
