package compiler

import (
	"unicode"
	"unicode/utf8"

	"github.com/roach88/relgraph/internal/ir"
)

// Registrar establishes a resolved association in the persistence layer.
// internal/store provides the SQLite-backed implementation.
type Registrar interface {
	Register(a ir.Association) error
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(a ir.Association) error

// Register calls f(a).
func (f RegistrarFunc) Register(a ir.Association) error {
	return f(a)
}

// NopRegistrar accepts every association and stores nothing.
var NopRegistrar Registrar = RegistrarFunc(func(ir.Association) error { return nil })

// AssociationHook receives a resolved association record and returns the
// record to put in the graph. The default hooks register the record and
// return it unchanged.
type AssociationHook func(info ir.Association) (ir.Association, error)

// Hooks is the pluggable capability set of the parser. Any nil field falls
// back to the default, so callers can override a subset.
type Hooks struct {
	HasMany       AssociationHook
	BelongsTo     AssociationHook
	BelongsToMany AssociationHook

	EntityNameToForeignKey func(entityName string) string
	EntityNameToAlias      func(entityName string) string
}

// DefaultHooks returns hooks that forward every association to reg.
// A nil reg behaves as NopRegistrar.
func DefaultHooks(reg Registrar) Hooks {
	if reg == nil {
		reg = NopRegistrar
	}
	register := func(info ir.Association) (ir.Association, error) {
		if err := reg.Register(info); err != nil {
			return info, err
		}
		return info, nil
	}
	return Hooks{
		HasMany:                register,
		BelongsTo:              register,
		BelongsToMany:          register,
		EntityNameToForeignKey: EntityNameToForeignKey,
		EntityNameToAlias:      EntityNameToAlias,
	}
}

// merge fills the nil fields of h from defaults.
func (h Hooks) merge(defaults Hooks) Hooks {
	if h.HasMany == nil {
		h.HasMany = defaults.HasMany
	}
	if h.BelongsTo == nil {
		h.BelongsTo = defaults.BelongsTo
	}
	if h.BelongsToMany == nil {
		h.BelongsToMany = defaults.BelongsToMany
	}
	if h.EntityNameToForeignKey == nil {
		h.EntityNameToForeignKey = defaults.EntityNameToForeignKey
	}
	if h.EntityNameToAlias == nil {
		h.EntityNameToAlias = defaults.EntityNameToAlias
	}
	return h
}

// EntityNameToForeignKey derives the default foreign key of a hasMany or
// belongsToMany association from the source entity: "User" -> "userId".
func EntityNameToForeignKey(entityName string) string {
	return lowerFirst(entityName) + "Id"
}

// EntityNameToAlias derives the default belongsTo alias from the target
// entity: "User" -> "user".
func EntityNameToAlias(entityName string) string {
	return lowerFirst(entityName)
}

// lowerFirst lowercases only the first rune; "HTTPLog" -> "hTTPLog".
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
