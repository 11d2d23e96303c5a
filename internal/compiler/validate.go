package compiler

import (
	"fmt"

	"github.com/roach88/rolltide/internal/ir"
)

// Validate checks a front-end result for structural problems.
// Returns all findings (does not fail-fast). Nothing reported here prevents
// emission: the parser has already recovered from every problem listed.
//
// Checks, in output order:
//   - diagnostics recorded while parsing (unresolved includes, malformed lines)
//   - include cycles (E202)
//   - struct/enum names defined by more than one module (E204, info: emitted once)
//   - functions defined twice in one module with the same owner (E204)
//   - annotations that name no macro (E206, info)
func Validate(res *Result) []Diagnostic {
	diags := append([]Diagnostic(nil), res.Diagnostics...)

	for _, cycle := range AnalyzeIncludeCycles(res.Includes) {
		diags = append(diags, Diagnostic{
			Code:     ErrIncludeCycle,
			Severity: SeverityWarning,
			Message:  cycle.Message,
			Pos:      Position{File: cycle.Path[0]},
		})
	}

	diags = append(diags, validateNames(res.Program)...)
	diags = append(diags, validateAnnotations(res.Program, res.Macros)...)

	return diags
}

// validateNames reports duplicate type and function names.
func validateNames(prog *ir.Program) []Diagnostic {
	var diags []Diagnostic

	// Track type names across the whole program
	typeOwners := make(map[string]string)

	for _, mod := range prog.Modules {
		funcNames := make(map[string]bool)

		for _, def := range mod.Definitions {
			switch d := def.(type) {
			case *ir.StructDef, *ir.EnumDef:
				name := d.DefName()
				if first, ok := typeOwners[name]; ok {
					diags = append(diags, Diagnostic{
						Code:     ErrDuplicateName,
						Severity: SeverityInfo,
						Message:  fmt.Sprintf("%s %q already defined in module %s; emitted once", d.Kind(), name, first),
						Pos:      Position{File: mod.Path},
					})
					continue
				}
				typeOwners[name] = mod.Name

			case *ir.FuncDef:
				key := d.Owner + "." + d.Name
				if funcNames[key] {
					diags = append(diags, Diagnostic{
						Code:     ErrDuplicateName,
						Severity: SeverityWarning,
						Message:  fmt.Sprintf("function %q defined more than once in module %s", qualifiedName(d), mod.Name),
						Pos:      Position{File: mod.Path},
					})
				}
				funcNames[key] = true
			}
		}
	}

	return diags
}

// validateAnnotations reports annotations that do not name a macro.
func validateAnnotations(prog *ir.Program, macros ir.MacroTable) []Diagnostic {
	var diags []Diagnostic
	for _, mod := range prog.Modules {
		for _, def := range mod.Definitions {
			fn, ok := def.(*ir.FuncDef)
			if !ok {
				continue
			}
			for _, ann := range fn.Annotations {
				if _, ok := macros.Lookup(ann); ok {
					continue
				}
				diags = append(diags, Diagnostic{
					Code:     ErrUnknownAnnotation,
					Severity: SeverityInfo,
					Message:  fmt.Sprintf("annotation %s on %q names no macro", ann, qualifiedName(fn)),
					Pos:      Position{File: mod.Path},
				})
			}
		}
	}
	return diags
}

func qualifiedName(fn *ir.FuncDef) string {
	if fn.Owner != "" {
		return fn.Owner + "." + fn.Name
	}
	return fn.Name
}
