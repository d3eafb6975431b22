package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/relgraph/internal/compiler"
	"github.com/roach88/relgraph/internal/ir"
	"github.com/roach88/relgraph/internal/registry"
)

// Project is a loaded project directory.
type Project struct {
	Registry     *registry.Registry
	Associations string   // DSL text of the "associations" field
	Mandatory    []string // "Entity.alias" pairs of the "mandatory" field
	CUEValue     cue.Value
	FileCount    int
}

// LoadError represents an error that occurred while loading or parsing a
// project.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Line    int       // DSL line for parse errors
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadProject loads the CUE files of dir. Files may omit the package
// clause; files of different packages are unified into one value:
//
//	entities: { User: { table: "users" }, Post: {} }
//	associations: """
//		User.posts[] -> Post
//		Post.author -> User
//		"""
//	mandatory: ["Post.author"]
//
// Loading stops at the first error.
func LoadProject(dir string) (*Project, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("project directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing project directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	// "*" loads package-less files too, as the "_" package.
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir, Package: "*"})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	for _, inst := range instances {
		if inst.Err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
		}
	}

	values, err := cuecontext.New().BuildInstances(instances)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	value := values[0]
	for _, v := range values[1:] {
		value = value.Unify(v)
	}
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	return projectFromValue(value, len(cueFiles))
}

func projectFromValue(value cue.Value, fileCount int) (*Project, error) {
	reg, err := registry.FromCUE(value)
	if err != nil {
		var defErr *registry.DefinitionError
		if errors.As(err, &defErr) {
			return nil, &LoadError{Code: ErrCodeEntityDefinition, Message: defErr.Field + ": " + defErr.Message, Pos: defErr.Pos}
		}
		return nil, &LoadError{Code: ErrCodeEntityDefinition, Message: err.Error()}
	}

	p := &Project{Registry: reg, CUEValue: value, FileCount: fileCount}

	if v := value.LookupPath(cue.ParsePath("associations")); v.Exists() {
		if p.Associations, err = v.String(); err != nil {
			return nil, &LoadError{Code: ErrCodeAssociationsField, Message: "associations must be a string", Pos: v.Pos()}
		}
	}

	if v := value.LookupPath(cue.ParsePath("mandatory")); v.Exists() {
		if err := v.Decode(&p.Mandatory); err != nil {
			return nil, &LoadError{Code: ErrCodeMandatoryField, Message: "mandatory must be a list of strings", Pos: v.Pos()}
		}
		for _, pair := range p.Mandatory {
			entity, alias, ok := strings.Cut(pair, ".")
			if !ok || entity == "" || alias == "" {
				return nil, &LoadError{Code: ErrCodeMandatoryField, Message: fmt.Sprintf("mandatory entry %q must be Entity.alias", pair), Pos: v.Pos()}
			}
		}
	}

	return p, nil
}

// Parse parses the project's associations. Associations are forwarded to
// registrar (nil stores nothing).
func (p *Project) Parse(logger *slog.Logger, registrar compiler.Registrar) (*ir.AssociationGraph, []ir.Association, error) {
	parser := compiler.NewParser(p.Registry,
		compiler.WithRegistrar(registrar),
		compiler.WithLogger(logger),
	)
	graph, err := parser.Parse(p.Associations)
	if err != nil {
		return nil, nil, convertParseError(err)
	}
	return graph, parser.Associations(), nil
}

// Split partitions graph with the project's mandatory pairs.
func (p *Project) Split(graph *ir.AssociationGraph) (mandatory, optional *ir.AssociationGraph) {
	return graph.Split(ir.MandatoryAliases(p.Mandatory...))
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertParseError maps a parser error to a LoadError carrying its DSL line.
func convertParseError(err error) *LoadError {
	return &LoadError{
		Code:    MapParseErrorToCode(err),
		Message: err.Error(),
		Line:    compiler.LineOf(err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File or catalog write error

	// Project field errors
	ErrCodeEntityDefinition  = "E101" // Invalid entities struct
	ErrCodeAssociationsField = "E102" // associations is not a string
	ErrCodeMandatoryField    = "E103" // Invalid mandatory list
	ErrCodeMandatoryUnknown  = "E104" // Mandatory pair names no association

	// DSL errors
	ErrCodeUnknownEntity    = "E201" // Entity name not in the registry
	ErrCodeMalformedLine    = "E202" // Line does not match the grammar
	ErrCodeMalformedOptions = "E203" // Bad options tail
	ErrCodeHookFailed       = "E204" // Relationship hook failed

	// Tree errors
	ErrCodeInvalidTree = "E301" // Bad --root, --initial or filter argument
	ErrCodeSQLCompile  = "E302" // Tree cannot be compiled to SQL
)

// MapParseErrorToCode maps a parser error to an error code.
func MapParseErrorToCode(err error) string {
	var hookErr *compiler.HookError
	switch {
	case compiler.IsUnknownEntity(err):
		return ErrCodeUnknownEntity
	case compiler.IsMalformedLine(err):
		return ErrCodeMalformedLine
	case compiler.IsMalformedOptions(err):
		return ErrCodeMalformedOptions
	case errors.As(err, &hookErr):
		return ErrCodeHookFailed
	default:
		return ErrCodeGeneric
	}
}

// loadErrorCode extracts the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}
