package emit

import (
	"strings"

	"github.com/roach88/rolltide/internal/ir"
	"github.com/roach88/rolltide/internal/lower"
)

// stubComment marks the body of every generated function.
const stubComment = "  // generated stub"

// Prototype is the C++ signature derived from a function definition.
type Prototype struct {
	Ident string
	Ret   string
	Args  []string
}

// NewPrototype derives the signature of fn.
//
// The identifier is the header ident override, else Owner_Name for functions
// declared in an into-block, else the plain name. The return type is the
// lowered header ret override, else the lowered declared return type.
func NewPrototype(fn *ir.FuncDef) Prototype {
	p := Prototype{
		Ident: fn.Header.Ident(),
		Ret:   lower.Type(fn.Return),
	}
	if p.Ident == "" {
		p.Ident = fn.Name
		if fn.Owner != "" {
			p.Ident = fn.Owner + "_" + fn.Name
		}
	}
	if ret := fn.Header.Ret(); ret != "" {
		p.Ret = lower.String(ret)
	}

	for _, a := range fn.Args {
		if a.Variadic {
			p.Args = append(p.Args, "...")
			continue
		}
		name := a.Name
		if name == "" {
			name = "arg"
		}
		p.Args = append(p.Args, lower.Type(a.Type)+" "+name)
	}
	return p
}

func (p Prototype) signature(ident string) string {
	return p.Ret + " " + ident + "(" + strings.Join(p.Args, ", ") + ")"
}

// Declaration renders the forward declaration. A qualified identifier such
// as pros::delay is wrapped in its namespace, split at the last "::".
func (p Prototype) Declaration() string {
	if i := strings.LastIndex(p.Ident, "::"); i >= 0 {
		return "namespace " + p.Ident[:i] + " { " + p.signature(p.Ident[i+2:]) + "; }"
	}
	return p.signature(p.Ident) + ";"
}

// Stub renders a definition whose body returns the zero value of the
// return type.
func (p Prototype) Stub() string {
	var b strings.Builder
	b.WriteString(p.signature(p.Ident))
	b.WriteString(" {\n")
	b.WriteString(stubComment)
	b.WriteString("\n")
	switch p.Ret {
	case lower.Void:
	case "int", "long", "unsigned int":
		b.WriteString("  return 0;\n")
	default:
		b.WriteString("  return (" + p.Ret + ")0;\n")
	}
	b.WriteString("}\n")
	return b.String()
}
