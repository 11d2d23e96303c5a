package compiler

import "github.com/roach88/rolltide/internal/ir"

// Result is the outcome of a front-end run.
type Result struct {
	Program     *ir.Program
	Macros      ir.MacroTable
	Includes    map[string][]string
	Diagnostics []Diagnostic
}

// BuildIR parses files with a fresh parser session and resolves annotations.
// The returned error is non-nil only when a requested file is missing or
// unreadable.
func BuildIR(files []string, opts ...Option) (*Result, error) {
	p := NewParser(opts...)
	prog, err := p.Parse(files)
	if err != nil {
		return nil, err
	}

	ResolveAnnotations(prog, p.Macros())

	return &Result{
		Program:     prog,
		Macros:      p.Macros(),
		Includes:    p.Includes(),
		Diagnostics: p.Diagnostics(),
	}, nil
}
