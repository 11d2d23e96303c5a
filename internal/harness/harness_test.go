package harness

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolltide/internal/compiler"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func motorScenario() *Scenario {
	return &Scenario{
		Name:        "motor",
		Description: "one included module with an owned function",
		Sources: map[string]string{
			"main.rt":      "include <motor>\nval NAME = \"bot\"\n",
			"lib/motor.rt": "into Motor\n  def open[port: u8] -> f32\n",
		},
		Assertions: []Assertion{
			{Type: AssertModuleOrder, Modules: []string{"motor", "main"}},
		},
	}
}

func TestRun_CollectsOutcome(t *testing.T) {
	result, err := Run(motorScenario())
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"motor", "main"}, result.Modules)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, []string{
		"pros_metadata.json",
		"include/main.h",
		"include/motor.h",
		"src/motor.cpp",
		"include/module_main.h",
		"src/module_main.cpp",
	}, result.ArtifactOrder)
	assert.Contains(t, result.Artifacts["include/motor.h"], "float Motor_open(unsigned char port);")
	assert.Contains(t, result.Artifacts["include/main.h"], `extern const auto NAME = "bot";`)
	assert.Contains(t, result.Document, "modules")
}

func TestRun_RecordsFailures(t *testing.T) {
	s := motorScenario()
	s.Assertions = []Assertion{
		{Type: AssertModuleOrder, Modules: []string{"main", "motor"}},
		{Type: AssertArtifactAbsent, Path: "include/motor.h"},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: module_order")
	assert.Contains(t, result.Errors[1], "Assertion failed: artifact_absent")
}

func TestRun_MissingInput(t *testing.T) {
	s := motorScenario()
	s.Inputs = []string{"robot.rt"}

	_, err := Run(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, compiler.ErrSourceNotFound)
}

func TestRun_CustomLibDirs(t *testing.T) {
	s := &Scenario{
		Name:        "vendor",
		Description: "includes resolved from a custom library directory",
		Sources: map[string]string{
			"src/robot.rt":    "include <motor>\n",
			"vendor/motor.rt": "def spin[]\n",
		},
		Inputs:  []string{"src/robot.rt"},
		LibDirs: []string{"vendor"},
		Assertions: []Assertion{
			{Type: AssertModuleOrder, Modules: []string{"motor", "robot"}},
			{Type: AssertDiagnosticCount, Code: compiler.ErrUnresolvedInclude, Count: 0},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRun_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	h := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	_, err := h.Run(motorScenario())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "scenario completed")
	assert.Contains(t, buf.String(), "scenario=motor")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Modules = []string{"a", "main"}
	result.Diagnostics = []compiler.Diagnostic{
		{Code: "E201", Severity: compiler.SeverityWarning, Message: "include <x> not found"},
		{Code: "E201", Severity: compiler.SeverityWarning, Message: "include <y> not found"},
	}
	result.Artifacts["include/a.h"] = "#pragma once\nvoid f();\n"
	result.ArtifactOrder = []string{"include/a.h"}

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"module order holds", Assertion{Type: AssertModuleOrder, Modules: []string{"a", "main"}}, ""},
		{"module order differs", Assertion{Type: AssertModuleOrder, Modules: []string{"main", "a"}}, "modules [a main]"},
		{"count holds", Assertion{Type: AssertDiagnosticCount, Code: "E201", Count: 2}, ""},
		{"count of absent code", Assertion{Type: AssertDiagnosticCount, Code: "E204", Count: 0}, ""},
		{"count differs", Assertion{Type: AssertDiagnosticCount, Code: "E201", Count: 1}, "E201 reported 2 time(s)"},
		{"contains holds", Assertion{Type: AssertArtifactContains, Path: "include/a.h", Contains: []string{"void f();"}, Excludes: []string{"int"}}, ""},
		{"contains missing", Assertion{Type: AssertArtifactContains, Path: "include/a.h", Contains: []string{"void g();"}}, `to contain "void g();"`},
		{"excluded present", Assertion{Type: AssertArtifactContains, Path: "include/a.h", Excludes: []string{"pragma"}}, `not to contain "pragma"`},
		{"contains on missing artifact", Assertion{Type: AssertArtifactContains, Path: "include/b.h", Contains: []string{"x"}}, "not generated"},
		{"absent holds", Assertion{Type: AssertArtifactAbsent, Path: "include/b.h"}, ""},
		{"absent violated", Assertion{Type: AssertArtifactAbsent, Path: "include/a.h"}, "no artifact include/a.h"},
		{"unknown type", Assertion{Type: "bogus"}, `unknown assertion type "bogus"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertQuery(t *testing.T) {
	result, err := Run(motorScenario())
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   string
		expect  any
		wantErr string
	}{
		{"string", ".modules[0].module", "motor", ""},
		{"number from yaml int", ".modules | length", 2, ""},
		{"object", ".modules[0].defs[0] | {owner, ret_type}", map[string]any{"owner": "Motor", "ret_type": "f32"}, ""},
		{"list", "[.modules[].module]", []any{"motor", "main"}, ""},
		{"mismatch", ".modules[0].module", "main", `to yield "main"`},
		{"several results", ".modules[].module", "motor", `["motor","main"]`},
		{"no result", ".modules[] | select(.module == \"none\")", "motor", "Actual: null"},
		{"parse error", ".modules[", nil, "query \".modules[\""},
		{"runtime error", `error("boom")`, nil, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertQuery(result, Assertion{Type: AssertQuery, Query: tt.query, Expect: tt.expect})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertDiagnosticCount,
		Expected: "E201 reported 1 time(s)",
		Actual:   "E201 reported 0 time(s)",
		Context:  []string{"[E204] main.rt: duplicate"},
	}

	assert.Equal(t, "Assertion failed: diagnostic_count\n"+
		"  Expected: E201 reported 1 time(s)\n"+
		"  Actual: E201 reported 0 time(s)\n"+
		"\nContext:\n"+
		"  [E204] main.rt: duplicate\n", err.Error())
}
