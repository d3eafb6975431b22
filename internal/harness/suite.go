package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// ScenarioNotFoundError is returned when a referenced scenario file doesn't
// exist.
type ScenarioNotFoundError struct {
	ScenarioPath string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario file %q does not exist (resolved to: %s)", e.ScenarioPath, e.ResolvedPath)
}

// DiscoverScenarios resolves a file or directory argument into scenario
// paths. Directories are scanned (not recursively) for *.yaml and *.yml
// files, returned in lexical order.
func DiscoverScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		abs, _ := filepath.Abs(path)
		return nil, &ScenarioNotFoundError{ScenarioPath: path, ResolvedPath: abs}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var out []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	return out, nil
}

// SuiteResult aggregates the results of several scenario files.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure describes one failed scenario.
type ScenarioFailure struct {
	Name         string   `json:"name,omitempty"`
	ScenarioPath string   `json:"scenario_path"`
	Errors       []string `json:"errors"`
}

// RunSuite loads and runs every scenario in paths. Load and execution
// errors count as failures; RunSuite itself does not stop early.
func RunSuite(paths []string, opts ...Option) *SuiteResult {
	res := &SuiteResult{}
	for _, path := range paths {
		res.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			res.fail(ScenarioFailure{ScenarioPath: path, Errors: []string{err.Error()}})
			continue
		}

		result, err := Run(scenario, opts...)
		if err != nil {
			res.fail(ScenarioFailure{Name: scenario.Name, ScenarioPath: path, Errors: []string{err.Error()}})
			continue
		}
		if !result.Pass {
			res.fail(ScenarioFailure{Name: scenario.Name, ScenarioPath: path, Errors: result.Errors})
			continue
		}
		res.Passed++
	}
	return res
}

func (r *SuiteResult) fail(f ScenarioFailure) {
	r.Failed++
	r.Failures = append(r.Failures, f)
}
