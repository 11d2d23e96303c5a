package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/rolltide/internal/compiler"
	"github.com/roach88/rolltide/internal/emit"
)

// Harness is the test execution engine.
// It runs each scenario in a fresh scratch directory.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger routes compiler logs to l. By default they are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a test scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Write the scenario's sources into a scratch directory
// 2. Build IR and run validation
// 3. Generate the target's declarations in memory
// 4. Evaluate assertions and return the result with pass/fail and errors
//
// An error is returned only when the scenario could not be executed (for
// example a missing input); assertion failures are recorded on the result.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	root, err := os.MkdirTemp("", "rolltide-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(root)

	if err := writeSources(root, scenario.Sources); err != nil {
		return nil, err
	}

	inputs := scenario.Inputs
	if len(inputs) == 0 {
		inputs = []string{DefaultInput}
	}
	libDirs := scenario.LibDirs
	if len(libDirs) == 0 {
		libDirs = []string{DefaultLibDir}
	}
	target := emit.DefaultTarget
	if scenario.Target != "" {
		if target, err = emit.ParseTarget(scenario.Target); err != nil {
			return nil, err
		}
	}

	opts := []compiler.Option{
		compiler.WithLibDirs(joinAll(root, libDirs)...),
		compiler.WithLogger(h.logger),
	}
	if scenario.MaxIncludeDepth > 0 {
		opts = append(opts, compiler.WithMaxIncludeDepth(scenario.MaxIncludeDepth))
	}

	res, err := compiler.BuildIR(joinAll(root, inputs), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build IR: %w", err)
	}

	artifacts, err := emit.Generate(res.Program, target)
	if err != nil {
		return nil, fmt.Errorf("failed to generate declarations: %w", err)
	}

	result := NewResult()
	result.Document = res.Program.Document()
	result.Diagnostics = append(result.Diagnostics, compiler.Validate(res)...)
	result.Diagnostics = append(result.Diagnostics, compiler.CheckDocument(result.Document)...)
	for _, m := range res.Program.Modules {
		result.Modules = append(result.Modules, m.Name)
	}
	for _, a := range artifacts {
		result.Artifacts[a.Path] = string(a.Data)
		result.ArtifactOrder = append(result.ArtifactOrder, a.Path)
	}

	// Evaluate assertions against the result
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"modules", len(result.Modules),
		"diagnostics", len(result.Diagnostics),
		"pass", result.Pass,
	)
	return result, nil
}

func writeSources(root string, sources map[string]string) error {
	for rel, text := range sources {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", rel, err)
		}
	}
	return nil
}

func joinAll(root string, rels []string) []string {
	out := make([]string, len(rels))
	for i, rel := range rels {
		out[i] = filepath.Join(root, filepath.FromSlash(rel))
	}
	return out
}
