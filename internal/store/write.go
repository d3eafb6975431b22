package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/relgraph/internal/compiler"
	"github.com/roach88/relgraph/internal/ir"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RegisterEntity inserts or updates an entity definition.
// An existing entity keeps its position and gets the new table name.
func (s *Store) RegisterEntity(ctx context.Context, e *ir.Entity) error {
	if err := registerEntity(ctx, s.db, e); err != nil {
		return fmt.Errorf("register entity: %w", err)
	}
	return nil
}

func registerEntity(ctx context.Context, db execer, e *ir.Entity) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO entities (name, table_name, seq)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entities))
		ON CONFLICT(name) DO UPDATE SET table_name = excluded.table_name
	`, e.Name, e.Table)
	return err
}

// RegisterAssociation upserts an association keyed by (source, alias).
// The source, target and liaison entities are registered first.
// Re-registering keeps the association's original seq.
func (s *Store) RegisterAssociation(ctx context.Context, a ir.Association) error {
	if a.Source == nil || a.Target == nil {
		return fmt.Errorf("register association: source and target are required")
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("register association: invalid kind %q", a.Kind)
	}
	if a.Kind == ir.BelongsToMany && a.Liaison == nil {
		return fmt.Errorf("register association: %s requires a liaison", a.Kind)
	}

	opts, err := marshalOptions(a.Options)
	if err != nil {
		return fmt.Errorf("register association: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("register association: begin: %w", err)
	}
	defer tx.Rollback()

	var liaison sql.NullString
	for _, e := range []*ir.Entity{a.Source, a.Target, a.Liaison} {
		if e == nil {
			continue
		}
		if err := registerEntity(ctx, tx, e); err != nil {
			return fmt.Errorf("register association: %w", err)
		}
	}
	if a.Liaison != nil {
		liaison = sql.NullString{String: a.Liaison.Name, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO associations
		(id, source, alias, kind, target, liaison, foreign_key, target_key,
		 with_constraints, required, options, line, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        (SELECT COALESCE(MAX(seq), 0) + 1 FROM associations))
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			target = excluded.target,
			liaison = excluded.liaison,
			foreign_key = excluded.foreign_key,
			target_key = excluded.target_key,
			with_constraints = excluded.with_constraints,
			required = excluded.required,
			options = excluded.options,
			line = excluded.line
	`,
		ir.AssociationID(a.Source.Name, a.Alias),
		a.Source.Name,
		a.Alias,
		string(a.Kind),
		a.Target.Name,
		liaison,
		a.ForeignKey,
		a.TargetKey,
		boolToInt(a.Constraints),
		boolToInt(a.Required),
		opts,
		a.Line,
	)
	if err != nil {
		return fmt.Errorf("register association: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("register association: commit: %w", err)
	}
	return nil
}

// Registrar adapts the store to compiler.Registrar. Every association the
// default parser hooks receive is written with RegisterAssociation under ctx.
func Registrar(ctx context.Context, s *Store) compiler.Registrar {
	return compiler.RegistrarFunc(func(a ir.Association) error {
		return s.RegisterAssociation(ctx, a)
	})
}
