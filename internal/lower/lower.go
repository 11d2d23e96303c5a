// Package lower maps RT source types to C++ type spellings.
//
// Lowering is total: every input produces a non-empty C++ type. Tokens the
// table does not know are passed through unchanged so user-defined structs
// and enums keep their names.
package lower

import (
	"strings"

	"github.com/roach88/rolltide/internal/ir"
)

// Void is the lowering of an absent type.
const Void = "void"

// primitives maps scalar RT names to their C++ spelling.
var primitives = map[string]string{
	"int":          "int32_t",
	"i32":          "int32_t",
	"i16":          "int",
	"i8":           "int",
	"long":         "long",
	"i64":          "long",
	"u32":          "unsigned int",
	"unsigned int": "unsigned int",
	"u16":          "unsigned char",
	"u8":           "unsigned char",
	"byte":         "unsigned char",
	"f32":          "float",
	"float":        "float",
	"f64":          "double",
	"double":       "double",
}

// Type lowers a type expression. A nil type lowers to void.
func Type(t ir.TypeExpr) string {
	switch tt := t.(type) {
	case nil:
		return Void
	case ir.Array:
		if tt.Base == "byte" {
			return "uint8_t*"
		}
		return String(tt.Base) + "*"
	default:
		return String(t.String())
	}
}

// String lowers a type written as source text.
func String(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Void
	}

	if rest, ok := strings.CutPrefix(s, "&mut "); ok {
		return String(rest) + "*"
	}

	if rest, ok := strings.CutPrefix(s, "unsigned:"); ok {
		if rest == "int" {
			return "unsigned int"
		}
		return "unsigned " + rest
	}

	if c, ok := primitives[s]; ok {
		return c
	}

	switch strings.ToLower(s) {
	case "string", "str", "string*":
		return "const char*"
	case "pointer", "void*":
		return "void*"
	}

	if strings.HasPrefix(s, "byte[") {
		return "uint8_t*"
	}

	return s
}
