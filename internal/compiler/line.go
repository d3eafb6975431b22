package compiler

import (
	"strings"
	"unicode"

	"github.com/roach88/relgraph/internal/ir"
)

const (
	arrow       = "->"
	manySuffix  = "[]"
	optionSep   = ","
	keyValueSep = ":"
)

// declaration is one tokenized DSL line, before entity resolution.
type declaration struct {
	kind        ir.AssociationKind
	sourceName  string
	alias       string
	liaisonName string // belongsToMany only
	targetName  string
	options     map[string]string
	tail        string // raw options tail, for diagnostics
}

// isComment reports whether a trimmed line carries no declaration.
func isComment(trimmed string) bool {
	return trimmed == "" || trimmed[0] == '#' || trimmed[0] == '`'
}

// tokenize splits a trimmed line into a declaration.
//
// The line is split on "->" and each segment trimmed. The last segment is
// split on its first run of whitespace into the path expression and the
// options tail. Two segments declare hasMany (alias ends with "[]") or
// belongsTo; three segments always declare belongsToMany.
func tokenize(line string, lineNo int) (*declaration, error) {
	parts := strings.Split(line, arrow)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	last, tail := splitTail(parts[len(parts)-1])
	parts[len(parts)-1] = last

	// A bad tail is reported before the segment count, so a line missing
	// its "->" but carrying a tail names the tail.
	decl := &declaration{tail: tail}
	if tail != "" {
		opts, err := parseOptions(tail, lineNo)
		if err != nil {
			return nil, err
		}
		decl.options = opts
	}

	malformed := func(reason string) error {
		return &MalformedLineError{Line: lineNo, Text: line, Reason: reason}
	}
	if len(parts) < 2 || len(parts) > 3 {
		return nil, malformed("expected 2 or 3 segments separated by \"->\"")
	}

	switch len(parts) {
	case 2:
		src, alias, many, err := splitPathExpr(parts[0])
		if err != nil {
			return nil, malformed(err.Error())
		}
		decl.sourceName, decl.alias, decl.targetName = src, alias, parts[1]
		if many {
			decl.kind = ir.HasMany
			if alias == "" {
				return nil, malformed("hasMany declaration requires an alias")
			}
		} else {
			decl.kind = ir.BelongsTo
		}
	case 3:
		src, alias, _, err := splitPathExpr(parts[0])
		if err != nil {
			return nil, malformed(err.Error())
		}
		decl.kind = ir.BelongsToMany
		decl.sourceName, decl.alias = src, alias
		decl.liaisonName, decl.targetName = parts[1], parts[2]
		if alias == "" {
			return nil, malformed("belongsToMany declaration requires an alias")
		}
		if decl.liaisonName == "" {
			return nil, malformed("empty liaison entity")
		}
	}

	if decl.targetName == "" {
		return nil, malformed("empty target entity")
	}
	return decl, nil
}

// splitTail splits a segment on its first run of whitespace.
func splitTail(segment string) (path, tail string) {
	i := strings.IndexFunc(segment, unicode.IsSpace)
	if i < 0 {
		return segment, ""
	}
	return segment[:i], strings.TrimSpace(segment[i:])
}

// splitPathExpr splits "Entity.alias[]" into its parts. The alias is
// optional; many reports the "[]" suffix, which may follow a space.
func splitPathExpr(expr string) (entity, alias string, many bool, err error) {
	many = strings.HasSuffix(expr, manySuffix)
	expr = strings.TrimSpace(strings.TrimSuffix(expr, manySuffix))

	entity, alias, _ = strings.Cut(expr, ".")
	entity, alias = strings.TrimSpace(entity), strings.TrimSpace(alias)
	if strings.Contains(alias, ".") {
		return "", "", false, errPathTooDeep
	}
	if entity == "" {
		return "", "", false, errEmptySource
	}
	return entity, alias, many, nil
}

// parseOptions parses "key:value[,key:value...]".
func parseOptions(tail string, lineNo int) (map[string]string, error) {
	opts := make(map[string]string)
	for _, entry := range strings.Split(tail, optionSep) {
		key, value, found := strings.Cut(entry, keyValueSep)
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !found || key == "" || value == "" {
			return nil, &MalformedOptionsTailError{
				Line:   lineNo,
				Tail:   tail,
				Entry:  entry,
				Reason: "expected key:value",
			}
		}
		opts[key] = value
	}
	return opts, nil
}

type tokenError string

func (e tokenError) Error() string { return string(e) }

const (
	errPathTooDeep tokenError = "path expression has more than one '.'"
	errEmptySource tokenError = "empty source entity"
)
