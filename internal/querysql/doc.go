// Package querysql compiles an inclusion tree to parameterized SQL.
//
// Each include becomes a join on the table of its entity: LEFT JOIN for
// optional nodes, JOIN for required ones. Join keys come from the
// association records produced by the DSL parser. A node's where clause is
// compiled into the ON clause of its join; the root where clause becomes
// the WHERE clause.
//
// Conditions are objects of column -> value. Values may be scalars (equality),
// null (IS NULL), arrays (IN) or operator objects ($eq, $ne, $gt, $gte, $lt,
// $lte, $in, $like). "$or" and "$and" combine nested conditions.
//
// Values are never interpolated. Every statement ends with an ORDER BY on
// the primary key of each joined table so results are deterministic.
//
// The compiler only renders SQL; executing it is left to the caller.
package querysql
