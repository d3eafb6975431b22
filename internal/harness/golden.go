package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/relgraph/internal/ir"
)

// Snapshot captures the observable outcome of a scenario execution.
type Snapshot struct {
	ScenarioName string
	Registered   []string
	Tree         *ir.QueryTree
	ParseError   error
}

// toCanonicalObject converts the snapshot for canonical JSON serialization.
func (s *Snapshot) toCanonicalObject() ir.IRObject {
	registered := make(ir.IRArray, len(s.Registered))
	for i, r := range s.Registered {
		registered[i] = ir.IRString(r)
	}

	obj := ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"registered":    registered,
	}
	if s.Tree != nil {
		obj["tree"] = s.Tree.ToObject()
	}
	if s.ParseError != nil {
		obj["parse_error"] = ir.IRString(s.ParseError.Error())
	}
	return obj
}

// SnapshotJSON renders a result as the canonical JSON stored in golden
// files.
func SnapshotJSON(name string, result *Result) ([]byte, error) {
	snap := Snapshot{
		ScenarioName: name,
		Registered:   result.Registered,
		Tree:         result.Tree,
		ParseError:   result.ParseError,
	}
	return ir.MarshalCanonical(snap.toCanonicalObject())
}

// RunWithGolden executes a scenario and compares the outcome against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
