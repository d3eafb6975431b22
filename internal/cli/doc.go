// Package cli implements the relgraph command line.
//
// Commands operate on a project directory of CUE files declaring the
// entity registry, the association DSL and the mandatory pairs:
//
//	relgraph parse ./project [--db catalog.db]
//	relgraph validate ./project
//	relgraph populate ./project --root User --populate posts.comments
//	relgraph sql ./project --root User --populate posts --filter 'Post={"published":true}'
//	relgraph test ./scenarios
//
// Every command honours --format text|json. JSON output is a CLIResponse
// envelope; errors carry an E0xx/E1xx/E2xx code.
package cli
