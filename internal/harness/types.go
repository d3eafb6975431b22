package harness

import "github.com/roach88/relgraph/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion holds.
	Pass bool `json:"pass"`

	// Tree is the final query tree. Nil when parsing failed.
	Tree *ir.QueryTree `json:"-"`

	// Paths lists the include paths of Tree, depth first.
	Paths []string `json:"paths"`

	// Registered lists the catalog's associations as "Source.alias",
	// in registration order.
	Registered []string `json:"registered"`

	// ParseError is the parser failure, if any.
	ParseError error `json:"-"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Paths:      []string{},
		Registered: []string{},
		Errors:     []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
