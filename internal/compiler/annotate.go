package compiler

import "github.com/roach88/rolltide/internal/ir"

// ResolveAnnotations merges macro header overrides into every function whose
// annotations name a macro in the table.
//
// Merging happens after parse-time @header lines were attached, so a macro
// value replaces a direct override for the same key. Annotations are applied
// in order: a later macro wins over an earlier one.
func ResolveAnnotations(prog *ir.Program, macros ir.MacroTable) {
	for _, fn := range prog.Functions() {
		for _, ann := range fn.Annotations {
			macro, ok := macros.Lookup(ann)
			if !ok {
				continue
			}
			fn.Header = fn.Header.Merge(macro.Header)
		}
	}
}
