// Package compiler parses the association DSL into an ir.AssociationGraph.
//
// Each non-comment line declares one association:
//
//	User.posts[] -> Post                    hasMany, alias "posts"
//	Post -> User                            belongsTo, alias defaults to "user"
//	Post.author -> User foreignKey:authorId belongsTo with options
//	User.tags[] -> Tagging -> Tag           belongsToMany through Tagging
//
// Blank lines and lines starting with '#' or '`' are comments, so a DSL file
// can live inside a markdown code fence.
//
// Entity names are resolved through a Registry. Establishing the
// relationship in the persistence layer is delegated to Hooks; the default
// hooks forward the resolved record to a Registrar (see internal/store).
//
// Parsing is fail-fast: the first malformed line or unknown entity aborts
// the whole parse and no partial graph is returned. Errors carry the 1-based
// line number.
package compiler
