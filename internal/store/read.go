package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/relgraph/internal/ir"
	"github.com/roach88/relgraph/internal/registry"
)

// LoadRegistry builds a registry from the stored entities, in registration
// order.
func (s *Store) LoadRegistry(ctx context.Context) (*registry.Registry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, table_name
		FROM entities
		ORDER BY seq ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	reg := registry.New()
	for rows.Next() {
		var name, table string
		if err := rows.Scan(&name, &table); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		if _, err := reg.Define(name, table); err != nil {
			return nil, fmt.Errorf("load entity %q: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return reg, nil
}

// Associations returns the stored associations in registration order,
// with entity names resolved through reg.
//
// Returns an empty slice (not nil) when nothing is registered.
func (s *Store) Associations(ctx context.Context, reg *registry.Registry) ([]ir.Association, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, alias, kind, target, liaison, foreign_key, target_key,
		       with_constraints, required, options, line
		FROM associations
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query associations: %w", err)
	}
	defer rows.Close()

	out := []ir.Association{}
	for rows.Next() {
		a, err := scanAssociation(rows, reg)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate associations: %w", err)
	}
	return out, nil
}

// Graph rebuilds the association graph from the catalog.
func (s *Store) Graph(ctx context.Context, reg *registry.Registry) (*ir.AssociationGraph, error) {
	assocs, err := s.Associations(ctx, reg)
	if err != nil {
		return nil, err
	}
	g := ir.NewGraph()
	for _, a := range assocs {
		g.Add(a.Source, a.Link())
	}
	return g, nil
}

func scanAssociation(rows *sql.Rows, reg *registry.Registry) (ir.Association, error) {
	var (
		a                    ir.Association
		source, kind, target string
		liaison              sql.NullString
		constraints, req     int
		opts                 string
	)
	if err := rows.Scan(&source, &a.Alias, &kind, &target, &liaison,
		&a.ForeignKey, &a.TargetKey, &constraints, &req, &opts, &a.Line); err != nil {
		return a, fmt.Errorf("scan association: %w", err)
	}

	a.Kind = ir.AssociationKind(kind)
	a.Constraints = constraints != 0
	a.Required = req != 0

	var err error
	if a.Options, err = unmarshalOptions(opts); err != nil {
		return a, err
	}

	resolve := func(name string) (*ir.Entity, error) {
		e, ok := reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("association %s.%s: entity %q not in registry", source, a.Alias, name)
		}
		return e, nil
	}
	if a.Source, err = resolve(source); err != nil {
		return a, err
	}
	if a.Target, err = resolve(target); err != nil {
		return a, err
	}
	if liaison.Valid {
		if a.Liaison, err = resolve(liaison.String); err != nil {
			return a, err
		}
	}
	return a, nil
}
