package harness

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/relgraph/internal/compiler"
	"github.com/roach88/relgraph/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the populated paths to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Paths    []string // Include paths of the final tree
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Paths) > 0 {
		fmt.Fprintf(&buf, "\nTree paths:\n")
		for i, p := range e.Paths {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, p)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages. An empty slice means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertParseError:
		return assertParseError(result, a)
	case AssertRegistered:
		return assertRegistered(result, a)
	}

	if result.ParseError != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a parsed graph",
			Actual:   fmt.Sprintf("parse error: %v", result.ParseError),
		}
	}

	switch a.Type {
	case AssertPaths:
		return assertPaths(result, a)
	case AssertHasPath:
		return assertHasPath(result, a, true)
	case AssertNoPath:
		return assertHasPath(result, a, false)
	case AssertWhere:
		return assertWhere(result, a)
	case AssertRequired:
		return assertRequired(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertPaths checks the exact include path list, in depth-first order.
func assertPaths(result *Result, a Assertion) error {
	want := a.Paths
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(want, result.Paths) {
		return &AssertionError{
			Type:     AssertPaths,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", result.Paths),
			Paths:    result.Paths,
		}
	}
	return nil
}

func assertHasPath(result *Result, a Assertion, present bool) error {
	found := slices.Contains(result.Paths, a.Path)
	if found == present {
		return nil
	}
	typ, expected, actual := AssertHasPath, "path "+a.Path+" present", "missing"
	if !present {
		typ, expected, actual = AssertNoPath, "path "+a.Path+" absent", "present"
	}
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Paths: result.Paths}
}

// assertWhere compares the node condition with the expectation as
// canonical JSON. A missing expect asserts an empty condition.
func assertWhere(result *Result, a Assertion) error {
	node, err := lookupNode(result, a)
	if err != nil {
		return err
	}

	want, err := ir.ObjectFromGo(a.Expect)
	if err != nil {
		return fmt.Errorf("expect: %w", err)
	}
	if len(want) == 0 && len(node.Where) == 0 {
		return nil
	}

	wantJSON, err := ir.MarshalCanonical(want)
	if err != nil {
		return fmt.Errorf("expect: %w", err)
	}
	gotJSON, err := ir.MarshalCanonical(node.Where)
	if err != nil {
		return fmt.Errorf("where at %q: %w", a.Path, err)
	}
	if len(node.Where) == 0 {
		gotJSON = []byte("{}")
	}
	if !bytes.Equal(wantJSON, gotJSON) {
		return &AssertionError{
			Type:     AssertWhere,
			Expected: fmt.Sprintf("%s at %q", wantJSON, a.Path),
			Actual:   string(gotJSON),
			Paths:    result.Paths,
		}
	}
	return nil
}

func assertRequired(result *Result, a Assertion) error {
	node, err := lookupNode(result, a)
	if err != nil {
		return err
	}
	if node.Required != *a.Required {
		return &AssertionError{
			Type:     AssertRequired,
			Expected: fmt.Sprintf("required=%t at %q", *a.Required, a.Path),
			Actual:   fmt.Sprintf("required=%t", node.Required),
			Paths:    result.Paths,
		}
	}
	return nil
}

func assertRegistered(result *Result, a Assertion) error {
	want := a.Associations
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(want, result.Registered) {
		return &AssertionError{
			Type:     AssertRegistered,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", result.Registered),
		}
	}
	return nil
}

func assertParseError(result *Result, a Assertion) error {
	if result.ParseError == nil {
		return &AssertionError{
			Type:     AssertParseError,
			Expected: "parse failure",
			Actual:   "parse succeeded",
			Paths:    result.Paths,
		}
	}
	if a.Line != 0 {
		if line := compiler.LineOf(result.ParseError); line != a.Line {
			return &AssertionError{
				Type:     AssertParseError,
				Expected: fmt.Sprintf("error at line %d", a.Line),
				Actual:   fmt.Sprintf("line %d: %v", line, result.ParseError),
			}
		}
	}
	if a.Contains != "" && !strings.Contains(result.ParseError.Error(), a.Contains) {
		return &AssertionError{
			Type:     AssertParseError,
			Expected: fmt.Sprintf("error containing %q", a.Contains),
			Actual:   result.ParseError.Error(),
		}
	}
	return nil
}

func lookupNode(result *Result, a Assertion) (*ir.IncludeNode, error) {
	if result.Tree == nil {
		return nil, fmt.Errorf("no tree")
	}
	node := result.Tree.Lookup(a.Path)
	if node == nil {
		return nil, &AssertionError{
			Type:     a.Type,
			Expected: "path " + a.Path + " present",
			Actual:   "missing",
			Paths:    result.Paths,
		}
	}
	return node, nil
}
