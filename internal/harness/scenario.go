package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relgraph/internal/ir"
)

// Scenario defines a relationship scenario: a registry, a DSL, a populate
// request and optional filters, plus assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Entities defines the registry, in order.
	Entities []EntityDef `yaml:"entities"`

	// DSL holds the association declarations inline.
	DSL string `yaml:"dsl,omitempty"`

	// DSLFile points at a file holding the declarations. Relative paths
	// are resolved from the scenario file. Exclusive with DSL.
	DSLFile string `yaml:"dsl_file,omitempty"`

	// Mandatory lists "Entity.alias" pairs forming the mandatory graph.
	Mandatory []string `yaml:"mandatory,omitempty"`

	// Root names the root entity of the query tree.
	Root string `yaml:"root"`

	// Populate is the comma-separated path list handed to the builder.
	Populate string `yaml:"populate,omitempty"`

	// Whitelist is passed through to the builder, which ignores it.
	Whitelist []string `yaml:"whitelist,omitempty"`

	// Initial seeds the builder with an existing tree.
	Initial *ir.TreeSpec `yaml:"initial,omitempty"`

	// Filters run in order after population, one filter pass each.
	Filters []FilterStep `yaml:"filters,omitempty"`

	// Assertions validate the final tree and catalog.
	Assertions []Assertion `yaml:"assertions"`
}

// EntityDef declares one registry entry.
type EntityDef struct {
	Name  string `yaml:"name"`
	Table string `yaml:"table,omitempty"`
}

// FilterStep is one filter pass. The predicate matches nodes by entity
// name, alias and root flag; empty selectors match everything.
type FilterStep struct {
	Entity string `yaml:"entity,omitempty"`
	Alias  string `yaml:"alias,omitempty"`
	Root   *bool  `yaml:"root,omitempty"`

	// Where overwrites the node condition. Exclusive with AnyOf.
	Where map[string]any `yaml:"where,omitempty"`

	// AnyOf merges a group of alternatives into the node's "$or".
	AnyOf []map[string]any `yaml:"any_of,omitempty"`
}

// Assertion validates the final tree or the catalog.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path is a dotted include path (has_path, no_path, where, required).
	// The empty path addresses the root.
	Path string `yaml:"path,omitempty"`

	// Paths is the expected include path list (paths).
	Paths []string `yaml:"paths,omitempty"`

	// Expect is the expected condition (where). Omit it to assert that
	// the node carries no condition.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Required is the expected required flag (required).
	Required *bool `yaml:"required,omitempty"`

	// Associations is the expected catalog content (registered).
	Associations []string `yaml:"associations,omitempty"`

	// Line is the expected error line (parse_error). Zero skips the check.
	Line int `yaml:"line,omitempty"`

	// Contains is a substring of the expected error (parse_error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertPaths      = "paths"
	AssertHasPath    = "has_path"
	AssertNoPath     = "no_path"
	AssertWhere      = "where"
	AssertRequired   = "required"
	AssertRegistered = "registered"
	AssertParseError = "parse_error"
)

// LoadScenario reads and parses a scenario YAML file.
// A relative dsl_file is resolved from the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving dsl_file relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.DSLFile != "" && !filepath.IsAbs(scenario.DSLFile) && basePath != "" {
		scenario.DSLFile = filepath.Join(basePath, scenario.DSLFile)
	}
	if scenario.DSLFile != "" {
		if _, err := os.Stat(scenario.DSLFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: dsl file not found: %s", scenario.DSLFile)
		}
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Entities) == 0 {
		return fmt.Errorf("entities list is required and must be non-empty")
	}

	if s.DSL != "" && s.DSLFile != "" {
		return fmt.Errorf("dsl and dsl_file are mutually exclusive")
	}

	if s.Root == "" {
		return fmt.Errorf("root is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Entities))
	for i, e := range s.Entities {
		if e.Name == "" {
			return fmt.Errorf("entities[%d]: name is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("entities[%d]: duplicate entity %q", i, e.Name)
		}
		seen[e.Name] = true
	}
	if !seen[s.Root] {
		return fmt.Errorf("root %q is not a declared entity", s.Root)
	}

	for i, f := range s.Filters {
		if (f.Where == nil) == (len(f.AnyOf) == 0) {
			return fmt.Errorf("filters[%d]: exactly one of where or any_of is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPaths, AssertWhere, AssertRegistered, AssertParseError:
	case AssertHasPath, AssertNoPath:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
	case AssertRequired:
		if a.Required == nil {
			return fmt.Errorf("assertions[%d]: required flag is required for required", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
