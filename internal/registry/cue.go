package registry

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// DefinitionError reports an invalid entity definition in a CUE value.
type DefinitionError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *DefinitionError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FromCUE builds a registry from the "entities" struct of v:
//
//	entities: {
//		User: {table: "users"}
//		Post: {}
//	}
//
// Entities are defined in CUE field order. A missing "entities" field yields
// an empty registry.
func FromCUE(v cue.Value) (*Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	reg := New()
	entitiesVal := v.LookupPath(cue.ParsePath("entities"))
	if !entitiesVal.Exists() {
		return reg, nil
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, &DefinitionError{
			Field:   "entities",
			Message: "must be a struct of entity definitions",
			Pos:     entitiesVal.Pos(),
		}
	}

	for iter.Next() {
		name := iter.Selector().Unquoted()
		def := iter.Value()

		var table string
		tableVal := def.LookupPath(cue.ParsePath("table"))
		if tableVal.Exists() {
			table, err = tableVal.String()
			if err != nil {
				return nil, &DefinitionError{
					Field:   "entities." + name + ".table",
					Message: "table must be a string",
					Pos:     tableVal.Pos(),
				}
			}
		}

		if _, err := reg.Define(name, table); err != nil {
			return nil, &DefinitionError{
				Field:   "entities." + name,
				Message: err.Error(),
				Pos:     def.Pos(),
			}
		}
	}
	return reg, nil
}

// CompileString compiles CUE source and builds a registry from it.
func CompileString(src, filename string) (*Registry, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	return FromCUE(v)
}

// formatCUEError keeps the position of the first CUE error.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &DefinitionError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
