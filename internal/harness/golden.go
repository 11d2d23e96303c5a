package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rolltide/internal/ir"
)

// Snapshot captures the observable outcome of a scenario.
// Diagnostics are reduced to their codes: messages carry scratch paths.
type Snapshot struct {
	ScenarioName string
	Document     ir.IRObject
	Artifacts    []string
	Diagnostics  []string
}

// toIRObject converts a Snapshot for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types.
func (s *Snapshot) toIRObject() ir.IRObject {
	artifacts := make(ir.IRArray, len(s.Artifacts))
	for i, a := range s.Artifacts {
		artifacts[i] = ir.IRString(a)
	}
	diags := make(ir.IRArray, len(s.Diagnostics))
	for i, d := range s.Diagnostics {
		diags[i] = ir.IRString(d)
	}
	return ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"document":      s.Document,
		"artifacts":     artifacts,
		"diagnostics":   diags,
	}
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden
// file; assertion failures are returned on the result for the caller to
// check.
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

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Document:     result.Document,
		Artifacts:    result.ArtifactOrder,
		Diagnostics:  result.DiagnosticCodes(),
	}

	data, err := ir.MarshalCanonical(snapshot.toIRObject())
	if err != nil {
		return err
	}

	// Compare with golden file using goldie
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
