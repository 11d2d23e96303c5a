package harness

import (
	"github.com/roach88/rolltide/internal/compiler"
	"github.com/roach88/rolltide/internal/ir"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Modules lists module names in program order.
	Modules []string `json:"modules"`

	// Diagnostics contains everything the build and validation reported.
	Diagnostics []compiler.Diagnostic `json:"diagnostics"`

	// Artifacts maps generated file paths to their contents.
	Artifacts map[string]string `json:"artifacts"`

	// ArtifactOrder lists artifact paths in generation order.
	ArtifactOrder []string `json:"artifact_order"`

	// Document is the IR boundary document.
	Document ir.IRObject `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Modules:     []string{},
		Diagnostics: []compiler.Diagnostic{},
		Artifacts:   make(map[string]string),
		Errors:      []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// DiagnosticCodes returns the code of every diagnostic, in report order.
func (r *Result) DiagnosticCodes() []string {
	codes := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		codes[i] = d.Code
	}
	return codes
}
