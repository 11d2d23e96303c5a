package compiler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/rolltide/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// CheckDocument validates an IR boundary document against the embedded CUE
// schema. Each schema violation becomes one E205 diagnostic; a conforming
// document returns nil.
func CheckDocument(doc ir.IRObject) []Diagnostic {
	data, err := json.Marshal(doc)
	if err != nil {
		return []Diagnostic{schemaDiag(fmt.Sprintf("marshaling document: %v", err))}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return []Diagnostic{schemaDiag(fmt.Sprintf("compiling schema: %v", err))}
	}

	value := ctx.CompileBytes(data, cue.Filename("ir.json"))
	if err := value.Err(); err != nil {
		return []Diagnostic{schemaDiag(fmt.Sprintf("loading document: %v", err))}
	}

	program := schema.LookupPath(cue.ParsePath("#Program"))
	if err := program.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return formatSchemaErrors(err)
	}
	return nil
}

// formatSchemaErrors flattens a CUE error list into diagnostics.
func formatSchemaErrors(err error) []Diagnostic {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []Diagnostic{schemaDiag(err.Error())}
	}

	diags := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if path := e.Path(); len(path) > 0 && !strings.Contains(msg, strings.Join(path, ".")) {
			msg = strings.Join(path, ".") + ": " + msg
		}
		diags = append(diags, schemaDiag(msg))
	}
	return diags
}

func schemaDiag(msg string) Diagnostic {
	return Diagnostic{
		Code:     ErrSchemaViolation,
		Severity: SeverityWarning,
		Message:  msg,
	}
}
