package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/ettle/strcase"

	"github.com/roach88/relgraph/internal/compiler"
	"github.com/roach88/relgraph/internal/ir"
)

// Passthrough tree fields understood by the compiler.
const (
	ExtraLimit  = "limit"
	ExtraOffset = "offset"
	ExtraOrder  = "order"
)

// Options understood on belongsToMany associations besides foreignKey.
const optionOtherKey = "otherKey"

// CompileError reports a tree or condition the compiler cannot render.
type CompileError struct {
	Path    string // Dotted include path, "" for the root
	Message string
}

func (e *CompileError) Error() string {
	if e.Path == "" {
		return "compile root: " + e.Message
	}
	return fmt.Sprintf("compile %q: %s", e.Path, e.Message)
}

// SQLCompiler compiles query trees against the associations of a graph.
type SQLCompiler struct {
	graph      *ir.AssociationGraph
	builder    sq.StatementBuilderType
	primaryKey string
}

// Option configures an SQLCompiler.
type Option func(*SQLCompiler)

// WithPlaceholder sets the placeholder format. Defaults to sq.Question.
func WithPlaceholder(f sq.PlaceholderFormat) Option {
	return func(c *SQLCompiler) { c.builder = c.builder.PlaceholderFormat(f) }
}

// WithPrimaryKey sets the default key column. Defaults to "id".
func WithPrimaryKey(column string) Option {
	return func(c *SQLCompiler) { c.primaryKey = column }
}

// NewSQLCompiler creates a compiler resolving includes through graph.
// graph must hold the links produced by the parser, so each one carries
// its association record.
func NewSQLCompiler(graph *ir.AssociationGraph, opts ...Option) *SQLCompiler {
	c := &SQLCompiler{
		graph:      graph,
		builder:    sq.StatementBuilder.PlaceholderFormat(sq.Question),
		primaryKey: "id",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile converts a tree into a SELECT statement and its arguments.
func (c *SQLCompiler) Compile(tree *ir.QueryTree) (string, []any, error) {
	if tree == nil {
		return "", nil, fmt.Errorf("cannot compile nil tree")
	}
	if tree.Entity == nil {
		return "", nil, &CompileError{Message: "root entity not set"}
	}

	rootAlias := TableName(tree.Entity)
	st := &statement{
		columns: []string{quote(rootAlias) + ".*"},
		orderBy: []string{column(rootAlias, c.primaryKey) + " ASC"},
	}
	for _, child := range tree.Include {
		if err := c.compileInclude(st, tree.Entity, rootAlias, "", child); err != nil {
			return "", nil, err
		}
	}

	q := c.builder.Select(st.columns...).From(quote(rootAlias))
	for _, j := range st.joins {
		if j.required {
			q = q.Join(j.clause, j.args...)
		} else {
			q = q.LeftJoin(j.clause, j.args...)
		}
	}

	if len(tree.Where) > 0 {
		where, err := c.condition(rootAlias, tree.Where)
		if err != nil {
			return "", nil, &CompileError{Message: err.Error()}
		}
		q = q.Where(where)
	}

	order, err := userOrder(rootAlias, tree.Extra)
	if err != nil {
		return "", nil, &CompileError{Message: err.Error()}
	}
	q = q.OrderBy(append(order, st.orderBy...)...)

	if v, ok := tree.Extra[ExtraLimit].(ir.IRInt); ok && v >= 0 {
		q = q.Limit(uint64(v))
	}
	if v, ok := tree.Extra[ExtraOffset].(ir.IRInt); ok && v >= 0 {
		q = q.Offset(uint64(v))
	}

	return q.ToSql()
}

type join struct {
	clause   string
	args     []any
	required bool
}

type statement struct {
	columns []string
	joins   []join
	orderBy []string
}

func (c *SQLCompiler) compileInclude(st *statement, parent *ir.Entity, parentAlias, parentPath string, node *ir.IncludeNode) error {
	path := node.Alias
	if parentPath != "" {
		path = parentPath + "." + node.Alias
	}

	assoc, err := c.association(parent, node)
	if err != nil {
		return &CompileError{Path: path, Message: err.Error()}
	}

	alias := path
	var on []string
	switch assoc.Kind {
	case ir.HasMany:
		fk := assoc.ForeignKey
		if fk == "" {
			fk = compiler.EntityNameToForeignKey(parent.Name)
		}
		on = append(on, fmt.Sprintf("%s = %s", column(alias, fk), column(parentAlias, c.keyOr(assoc.TargetKey))))

	case ir.BelongsTo:
		fk := assoc.ForeignKey
		if fk == "" {
			fk = assoc.Alias + "Id"
		}
		on = append(on, fmt.Sprintf("%s = %s", column(alias, c.keyOr(assoc.TargetKey)), column(parentAlias, fk)))

	case ir.BelongsToMany:
		through := path + "#through"
		fk := assoc.ForeignKey
		if fk == "" {
			fk = compiler.EntityNameToForeignKey(parent.Name)
		}
		otherKey := assoc.Options[optionOtherKey]
		if otherKey == "" {
			otherKey = compiler.EntityNameToForeignKey(assoc.Target.Name)
		}
		st.joins = append(st.joins, join{
			clause: fmt.Sprintf("%s AS %s ON %s = %s",
				quote(TableName(assoc.Liaison)), quote(through),
				column(through, fk), column(parentAlias, c.primaryKey)),
			required: node.Required,
		})
		on = append(on, fmt.Sprintf("%s = %s", column(alias, c.keyOr(assoc.TargetKey)), column(through, otherKey)))

	default:
		return &CompileError{Path: path, Message: fmt.Sprintf("unsupported association kind %q", assoc.Kind)}
	}

	var args []any
	if len(node.Where) > 0 {
		cond, err := c.condition(alias, node.Where)
		if err != nil {
			return &CompileError{Path: path, Message: err.Error()}
		}
		sql, condArgs, err := cond.ToSql()
		if err != nil {
			return &CompileError{Path: path, Message: err.Error()}
		}
		on = append(on, sql)
		args = condArgs
	}

	st.joins = append(st.joins, join{
		clause:   fmt.Sprintf("%s AS %s ON %s", quote(TableName(node.Entity)), quote(alias), strings.Join(on, " AND ")),
		args:     args,
		required: node.Required,
	})
	st.columns = append(st.columns, quote(alias)+".*")
	st.orderBy = append(st.orderBy, column(alias, c.primaryKey)+" ASC")

	for _, child := range node.Include {
		if err := c.compileInclude(st, node.Entity, alias, path, child); err != nil {
			return err
		}
	}
	return nil
}

// association finds the record behind an include: the parent's link with the
// node's alias and target.
func (c *SQLCompiler) association(parent *ir.Entity, node *ir.IncludeNode) (*ir.Association, error) {
	for _, l := range c.graph.Get(parent) {
		if l.Alias != node.Alias || l.Target != node.Entity {
			continue
		}
		if l.Association == nil {
			return nil, fmt.Errorf("link %s.%s has no association record", parent, l.Alias)
		}
		return l.Association, nil
	}
	return nil, fmt.Errorf("no association %s.%s -> %s", parent, node.Alias, node.Entity)
}

func (c *SQLCompiler) keyOr(key string) string {
	if key == "" {
		return c.primaryKey
	}
	return key
}

// TableName returns the entity's table, or its snake_case name when unset.
func TableName(e *ir.Entity) string {
	if e.Table != "" {
		return e.Table
	}
	return strcase.ToSnake(e.Name)
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func column(alias, name string) string {
	return quote(alias) + "." + quote(name)
}
