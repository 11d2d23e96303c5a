package compiler

import (
	"errors"
	"fmt"
)

// ErrSourceNotFound is wrapped by the error returned when an explicitly
// requested source file does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// Diagnostic codes (E200-E299). Diagnostics never abort a parse.
const (
	ErrUnresolvedInclude  = "E201" // include token matched no file in the library dirs
	ErrIncludeCycle       = "E202" // a file includes itself directly or transitively
	ErrMalformedHeader    = "E203" // def header did not match the grammar
	ErrDuplicateName      = "E204" // struct/enum/function name defined more than once
	ErrSchemaViolation    = "E205" // IR document failed the schema check
	ErrUnknownAnnotation  = "E206" // annotation names no macro
	ErrIncludeDepth       = "E207" // include chain exceeded the depth ceiling
	ErrMalformedBlockLine = "E208" // struct field, enum member or val line ignored
	ErrUnreadableInclude  = "E209" // include resolved but could not be read
)

// Diagnostic severities.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Position is a location in an RT source file. Line is 1-based; zero means
// the position refers to the whole file.
type Position struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// IsValid reports whether the position names a file.
func (p Position) IsValid() bool { return p.File != "" }

func (p Position) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	}
	return p.File
}

// CompileError is a hard failure of a build. The only condition the front
// end reports this way is a missing top-level input file.
type CompileError struct {
	Field   string
	Message string
	Pos     Position
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Diagnostic is a recoverable problem found while building or validating IR.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity string   `json:"severity"`
	Message  string   `json:"message"`
	Pos      Position `json:"pos"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("[%s] %s: %s", d.Code, d.Pos, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}
