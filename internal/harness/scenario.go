package harness

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rolltide/internal/emit"
)

// Scenario defines a conformance test scenario.
// Scenarios pin observable compiler behavior: the modules a set of sources
// produces, the diagnostics reported and the declarations generated.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sources maps slash-separated relative paths to RT source text.
	Sources map[string]string `yaml:"sources"`

	// Inputs lists the top-level source files, relative to the scenario
	// root. Defaults to main.rt.
	Inputs []string `yaml:"inputs,omitempty"`

	// LibDirs lists the include search path, relative to the scenario
	// root. Defaults to lib.
	LibDirs []string `yaml:"lib_dirs,omitempty"`

	// Target selects the generated metadata. Defaults to pros.
	Target string `yaml:"target,omitempty"`

	// MaxIncludeDepth overrides the include depth ceiling when positive.
	MaxIncludeDepth int `yaml:"max_include_depth,omitempty"`

	// Assertions validate the build outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a build outcome.
type Assertion struct {
	// Type specifies the assertion type:
	// - "module_order": Check the program's modules in order
	// - "diagnostic_count": Check a diagnostic code appears exactly N times
	// - "artifact_contains": Check an artifact contains (or excludes) given strings
	// - "artifact_absent": Check no artifact exists at a path
	// - "query": Check a jq expression over the IR document
	Type string `yaml:"type"`

	// Modules is the expected module order (used by module_order).
	Modules []string `yaml:"modules,omitempty"`

	// Code is the diagnostic code (used by diagnostic_count).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of occurrences (used by diagnostic_count).
	Count int `yaml:"count,omitempty"`

	// Path is the artifact path (used by artifact_contains, artifact_absent).
	Path string `yaml:"path,omitempty"`

	// Contains lists required substrings (used by artifact_contains).
	Contains []string `yaml:"contains,omitempty"`

	// Excludes lists forbidden substrings (used by artifact_contains).
	Excludes []string `yaml:"excludes,omitempty"`

	// Query is a jq expression over the IR document (used by query).
	Query string `yaml:"query,omitempty"`

	// Expect is the single value the query must yield (used by query).
	Expect any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertModuleOrder      = "module_order"
	AssertDiagnosticCount  = "diagnostic_count"
	AssertArtifactContains = "artifact_contains"
	AssertArtifactAbsent   = "artifact_absent"
	AssertQuery            = "query"
)

// Defaults applied to scenarios that leave a field empty.
const (
	DefaultInput  = "main.rt"
	DefaultLibDir = "lib"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if first, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(p), s.Name, first)
		}
		names[s.Name] = filepath.Base(p)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Sources) == 0 {
		return fmt.Errorf("sources map is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// Source paths must stay inside the scenario root
	for p := range s.Sources {
		if err := checkRelPath(p); err != nil {
			return fmt.Errorf("sources[%q]: %w", p, err)
		}
	}
	for i, p := range s.Inputs {
		if err := checkRelPath(p); err != nil {
			return fmt.Errorf("inputs[%d]: %w", i, err)
		}
	}
	for i, p := range s.LibDirs {
		if err := checkRelPath(p); err != nil {
			return fmt.Errorf("lib_dirs[%d]: %w", i, err)
		}
	}

	if s.Target != "" {
		if _, err := emit.ParseTarget(s.Target); err != nil {
			return fmt.Errorf("target: %w", err)
		}
	}

	if s.MaxIncludeDepth < 0 {
		return fmt.Errorf("max_include_depth must be non-negative")
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func checkRelPath(p string) error {
	if p == "" {
		return fmt.Errorf("path is empty")
	}
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return fmt.Errorf("path %q must be relative", p)
	}
	if clean := path.Clean(p); clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("path %q escapes the scenario root", p)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertModuleOrder:
		if a.Modules == nil {
			return fmt.Errorf("assertions[%d]: modules list is required for module_order", index)
		}
	case AssertDiagnosticCount:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for diagnostic_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for diagnostic_count", index)
		}
	case AssertArtifactContains:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for artifact_contains", index)
		}
		if len(a.Contains) == 0 && len(a.Excludes) == 0 {
			return fmt.Errorf("assertions[%d]: contains or excludes list is required for artifact_contains", index)
		}
	case AssertArtifactAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for artifact_absent", index)
		}
	case AssertQuery:
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for query", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
