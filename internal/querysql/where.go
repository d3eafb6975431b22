package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/relgraph/internal/ir"
)

// Condition keys and operators.
const (
	keyOr  = "$or"
	keyAnd = "$and"

	opEq   = "$eq"
	opNe   = "$ne"
	opGt   = "$gt"
	opGte  = "$gte"
	opLt   = "$lt"
	opLte  = "$lte"
	opIn   = "$in"
	opLike = "$like"
)

// condition compiles a condition object on the table aliased alias.
// Keys are visited in canonical order so output is deterministic. Groups of
// one are unwrapped to keep the SQL flat.
func (c *SQLCompiler) condition(alias string, obj ir.IRObject) (sq.Sqlizer, error) {
	and := sq.And{}
	for _, key := range obj.SortedKeys() {
		val := obj[key]
		switch key {
		case keyOr:
			parts, err := c.conditionList(alias, key, val)
			if err != nil {
				return nil, err
			}
			if len(parts) == 1 {
				and = append(and, parts[0])
			} else {
				and = append(and, sq.Or(parts))
			}
		case keyAnd:
			parts, err := c.conditionList(alias, key, val)
			if err != nil {
				return nil, err
			}
			and = append(and, parts...)
		default:
			if strings.HasPrefix(key, "$") {
				return nil, fmt.Errorf("unsupported condition key %q", key)
			}
			expr, err := c.attribute(column(alias, key), val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			and = append(and, expr...)
		}
	}
	if len(and) == 1 {
		return and[0], nil
	}
	return and, nil
}

// conditionList accepts either an array of condition objects or a single
// object, as produced by the filter merge.
func (c *SQLCompiler) conditionList(alias, key string, val ir.IRValue) ([]sq.Sqlizer, error) {
	switch v := val.(type) {
	case ir.IRObject:
		cond, err := c.condition(alias, v)
		if err != nil {
			return nil, err
		}
		return []sq.Sqlizer{cond}, nil
	case ir.IRArray:
		parts := make([]sq.Sqlizer, 0, len(v))
		for i, elem := range v {
			obj, ok := elem.(ir.IRObject)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: expected object, got %T", key, i, elem)
			}
			cond, err := c.condition(alias, obj)
			if err != nil {
				return nil, err
			}
			parts = append(parts, cond)
		}
		return parts, nil
	default:
		return nil, fmt.Errorf("%s: expected object or array, got %T", key, val)
	}
}

func (c *SQLCompiler) attribute(col string, val ir.IRValue) ([]sq.Sqlizer, error) {
	switch v := val.(type) {
	case ir.IRObject:
		var out []sq.Sqlizer
		for _, op := range v.SortedKeys() {
			expr, err := operator(col, op, v[op])
			if err != nil {
				return nil, err
			}
			out = append(out, expr)
		}
		return out, nil
	case ir.IRArray:
		list, err := paramList(v)
		if err != nil {
			return nil, err
		}
		return []sq.Sqlizer{sq.Eq{col: list}}, nil
	default:
		p, err := irValueToParam(val)
		if err != nil {
			return nil, err
		}
		return []sq.Sqlizer{sq.Eq{col: p}}, nil
	}
}

func operator(col, op string, val ir.IRValue) (sq.Sqlizer, error) {
	if op == opIn {
		arr, ok := val.(ir.IRArray)
		if !ok {
			return nil, fmt.Errorf("%s expects an array", opIn)
		}
		list, err := paramList(arr)
		if err != nil {
			return nil, err
		}
		return sq.Eq{col: list}, nil
	}

	p, err := irValueToParam(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch op {
	case opEq:
		return sq.Eq{col: p}, nil
	case opNe:
		return sq.NotEq{col: p}, nil
	case opGt:
		return sq.Gt{col: p}, nil
	case opGte:
		return sq.GtOrEq{col: p}, nil
	case opLt:
		return sq.Lt{col: p}, nil
	case opLte:
		return sq.LtOrEq{col: p}, nil
	case opLike:
		return sq.Like{col: p}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
}

func paramList(arr ir.IRArray) ([]any, error) {
	out := make([]any, len(arr))
	for i, elem := range arr {
		p, err := irValueToParam(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// irValueToParam converts a scalar IRValue to a Go value for an SQL
// parameter. Arrays and objects are not parameters.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRNull:
		return nil, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

// userOrder reads the "order" passthrough field: an array of column names
// or [column, direction] pairs on the root table.
func userOrder(rootAlias string, extra ir.IRObject) ([]string, error) {
	raw, ok := extra[ExtraOrder]
	if !ok {
		return nil, nil
	}
	arr, ok := raw.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("order: expected array, got %T", raw)
	}

	var out []string
	for i, entry := range arr {
		switch e := entry.(type) {
		case ir.IRString:
			out = append(out, column(rootAlias, string(e))+" ASC")
		case ir.IRArray:
			if len(e) != 2 {
				return nil, fmt.Errorf("order[%d]: expected [column, direction]", i)
			}
			col, ok1 := e[0].(ir.IRString)
			dir, ok2 := e[1].(ir.IRString)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("order[%d]: expected strings", i)
			}
			d := strings.ToUpper(string(dir))
			if d != "ASC" && d != "DESC" {
				return nil, fmt.Errorf("order[%d]: direction must be ASC or DESC", i)
			}
			out = append(out, column(rootAlias, string(col))+" "+d)
		default:
			return nil, fmt.Errorf("order[%d]: unsupported entry %T", i, entry)
		}
	}
	return out, nil
}
