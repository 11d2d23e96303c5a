package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/roach88/rolltide/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Context  []string // Diagnostics or artifact listing for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Context) > 0 {
		fmt.Fprintf(&buf, "\nContext:\n")
		for _, line := range e.Context {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.String()
}

// assertModuleOrder checks the program's modules, in order.
func assertModuleOrder(result *Result, assertion Assertion) error {
	if slices.Equal(result.Modules, assertion.Modules) {
		return nil
	}
	return &AssertionError{
		Type:     AssertModuleOrder,
		Expected: fmt.Sprintf("modules %v", assertion.Modules),
		Actual:   fmt.Sprintf("modules %v", result.Modules),
	}
}

// assertDiagnosticCount checks that a diagnostic code appears exactly N
// times.
func assertDiagnosticCount(result *Result, assertion Assertion) error {
	count := 0
	for _, d := range result.Diagnostics {
		if d.Code == assertion.Code {
			count++
		}
	}
	if count == assertion.Count {
		return nil
	}

	context := make([]string, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		context[i] = d.Error()
	}
	return &AssertionError{
		Type:     AssertDiagnosticCount,
		Expected: fmt.Sprintf("%s reported %d time(s)", assertion.Code, assertion.Count),
		Actual:   fmt.Sprintf("%s reported %d time(s)", assertion.Code, count),
		Context:  context,
	}
}

// assertArtifactContains checks that an artifact contains every expected
// substring and none of the excluded ones.
func assertArtifactContains(result *Result, assertion Assertion) error {
	data, ok := result.Artifacts[assertion.Path]
	if !ok {
		return &AssertionError{
			Type:     AssertArtifactContains,
			Expected: fmt.Sprintf("artifact %s", assertion.Path),
			Actual:   "not generated",
			Context:  result.ArtifactOrder,
		}
	}

	var missing []string
	for _, want := range assertion.Contains {
		if !strings.Contains(data, want) {
			missing = append(missing, fmt.Sprintf("%q", want))
		}
	}
	var present []string
	for _, bad := range assertion.Excludes {
		if strings.Contains(data, bad) {
			present = append(present, fmt.Sprintf("%q", bad))
		}
	}
	if len(missing) == 0 && len(present) == 0 {
		return nil
	}

	context := strings.Split(strings.TrimRight(data, "\n"), "\n")
	if len(missing) > 0 {
		return &AssertionError{
			Type:     AssertArtifactContains,
			Expected: fmt.Sprintf("%s to contain %s", assertion.Path, strings.Join(missing, ", ")),
			Actual:   "missing",
			Context:  context,
		}
	}
	return &AssertionError{
		Type:     AssertArtifactContains,
		Expected: fmt.Sprintf("%s not to contain %s", assertion.Path, strings.Join(present, ", ")),
		Actual:   "present",
		Context:  context,
	}
}

// assertArtifactAbsent checks that no artifact exists at a path.
func assertArtifactAbsent(result *Result, assertion Assertion) error {
	if _, ok := result.Artifacts[assertion.Path]; !ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertArtifactAbsent,
		Expected: fmt.Sprintf("no artifact %s", assertion.Path),
		Actual:   "generated",
		Context:  result.ArtifactOrder,
	}
}

// assertQuery runs a jq expression over the IR document and compares the
// single value it yields with the expected value. Both sides are compared
// in their JSON form, so YAML integers match document numbers.
func assertQuery(result *Result, assertion Assertion) error {
	query, err := gojq.Parse(assertion.Query)
	if err != nil {
		return fmt.Errorf("query %q: %w", assertion.Query, err)
	}

	doc, err := ir.PlainDocument(result.Document)
	if err != nil {
		return err
	}

	var values []any
	iter := query.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("query %q: %w", assertion.Query, err)
		}
		values = append(values, v)
	}

	expected, err := normalize(assertion.Expect)
	if err != nil {
		return fmt.Errorf("query %q: expect: %w", assertion.Query, err)
	}

	if len(values) == 1 && valuesEqual(values[0], expected) {
		return nil
	}
	return &AssertionError{
		Type:     AssertQuery,
		Expected: fmt.Sprintf("%s to yield %s", assertion.Query, jsonString(expected)),
		Actual:   jsonString(values),
	}
}

// normalize converts a YAML-decoded value to the form encoding/json
// produces, so numbers become float64 and maps map[string]any.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// valuesEqual compares two values for equality.
// Handles nested maps and slices.
func valuesEqual(actual, expected any) bool {
	// Handle nil cases
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	// gojq may yield ints where encoding/json yields float64
	if a, ok := actual.(int); ok {
		actual = float64(a)
	}

	return reflect.DeepEqual(actual, expected)
}

func jsonString(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertModuleOrder:
			err = assertModuleOrder(result, assertion)
		case AssertDiagnosticCount:
			err = assertDiagnosticCount(result, assertion)
		case AssertArtifactContains:
			err = assertArtifactContains(result, assertion)
		case AssertArtifactAbsent:
			err = assertArtifactAbsent(result, assertion)
		case AssertQuery:
			err = assertQuery(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
