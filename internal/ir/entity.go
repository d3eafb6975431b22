package ir

import "fmt"

// Entity is an opaque handle to a named entity (table/model).
// Entities are created by a registry and compared by pointer.
type Entity struct {
	Name  string `json:"name"`
	Table string `json:"table,omitempty"` // Storage table, empty = derived from Name
}

// String returns the entity name.
func (e *Entity) String() string {
	if e == nil {
		return "<nil>"
	}
	return e.Name
}

// AssociationKind identifies the cardinality of an association.
type AssociationKind string

const (
	// HasMany is a one-to-many association: "User.posts[] -> Post".
	HasMany AssociationKind = "hasMany"

	// BelongsTo is a many-to-one association: "Post.author -> User".
	BelongsTo AssociationKind = "belongsTo"

	// BelongsToMany is a many-to-many association through a liaison entity:
	// "User.tags[] -> Tagging -> Tag".
	BelongsToMany AssociationKind = "belongsToMany"
)

// Valid reports whether k is one of the declared kinds.
func (k AssociationKind) Valid() bool {
	switch k {
	case HasMany, BelongsTo, BelongsToMany:
		return true
	}
	return false
}

// Association is a fully resolved association record.
//
// Alias is mandatory for HasMany and BelongsToMany. For BelongsTo it is
// defaulted from the target entity name when the declaration omits it.
// ForeignKey is defaulted for HasMany and BelongsToMany only; an empty
// ForeignKey on a BelongsTo leaves the choice to the persistence layer.
type Association struct {
	Kind        AssociationKind   `json:"kind"`
	Source      *Entity           `json:"-"`
	Target      *Entity           `json:"-"`
	Liaison     *Entity           `json:"-"` // BelongsToMany only
	Alias       string            `json:"alias"`
	ForeignKey  string            `json:"foreign_key,omitempty"`
	TargetKey   string            `json:"target_key,omitempty"`
	Constraints bool              `json:"constraints"`
	Required    bool              `json:"required,omitempty"` // Copied onto the graph link
	Options     map[string]string `json:"options,omitempty"` // Unrecognised option-tail entries
	Line        int               `json:"line,omitempty"`    // 1-based DSL line, 0 when built in code
}

// String renders the association in a form close to the DSL.
func (a Association) String() string {
	switch a.Kind {
	case HasMany:
		return fmt.Sprintf("%s.%s[] -> %s", a.Source, a.Alias, a.Target)
	case BelongsToMany:
		return fmt.Sprintf("%s.%s[] -> %s -> %s", a.Source, a.Alias, a.Liaison, a.Target)
	default:
		return fmt.Sprintf("%s.%s -> %s", a.Source, a.Alias, a.Target)
	}
}

// Link returns the graph entry for this association.
func (a Association) Link() Link {
	rec := a
	return Link{
		Target:      a.Target,
		Alias:       a.Alias,
		Required:    a.Required,
		Association: &rec,
	}
}
