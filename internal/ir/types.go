package ir

// Program is the complete IR for one invocation of the front end.
// Modules are ordered depth-first, includes before the files that include them.
type Program struct {
	Modules []*Module
}

// Module holds the definitions parsed from a single source file.
type Module struct {
	Name        string       // file stem
	Path        string       // absolute source path; not part of the document
	Definitions []Definition // in source order
}

// DefKind identifies a Definition variant. The values double as the
// "type" discriminator in the boundary document.
type DefKind string

const (
	KindStruct DefKind = "struct"
	KindEnum   DefKind = "enum"
	KindFunc   DefKind = "fn"
	KindConst  DefKind = "val"
)

// Definition is a sealed interface over the top-level definitions a module
// can hold. Only *StructDef, *EnumDef, *FuncDef and *ConstDef implement it.
type Definition interface {
	DefName() string
	Kind() DefKind
	definition() // sealed
}

// StructDef is a struct declaration.
type StructDef struct {
	Name   string
	Fields []Field
}

func (d *StructDef) DefName() string { return d.Name }
func (d *StructDef) Kind() DefKind   { return KindStruct }
func (*StructDef) definition()       {}

// EnumDef is an enum declaration.
type EnumDef struct {
	Name    string
	Members []EnumMember
}

func (d *EnumDef) DefName() string { return d.Name }
func (d *EnumDef) Kind() DefKind   { return KindEnum }
func (*EnumDef) definition()       {}

// EnumMember is one enum member. Value is nil when no explicit integer was given.
type EnumMember struct {
	Name  string
	Value *int64
}

// FuncDef is a function signature.
type FuncDef struct {
	Name        string
	Args        []Arg
	Return      TypeExpr // nil when the function declares no return type
	Owner       string   // set for functions declared inside an into-block
	Annotations []string // raw annotation tokens, e.g. "@pros"
	Header      HeaderOverrides
}

func (d *FuncDef) DefName() string { return d.Name }
func (d *FuncDef) Kind() DefKind   { return KindFunc }
func (*FuncDef) definition()       {}

// ConstDef is a val declaration. Literal is set only when the right-hand side
// is a single quoted string; anything else is kept verbatim in Raw and lowers
// to integer zero.
type ConstDef struct {
	Name    string
	Literal *string
	Raw     string
}

func (d *ConstDef) DefName() string { return d.Name }
func (d *ConstDef) Kind() DefKind   { return KindConst }
func (*ConstDef) definition()       {}

// Field is a named struct field.
type Field struct {
	Name string
	Type TypeExpr
}

// Arg is a function argument. A variadic Arg has no name or type and
// always occupies the trailing position.
type Arg struct {
	Name     string
	Type     TypeExpr
	Variadic bool
}

// TypeExpr is a sealed interface over source type expressions.
// Only Named and Array implement it.
type TypeExpr interface {
	String() string
	typeExpr() // sealed
}

// Named is a type written as a single source token, e.g. "i32" or "&mut Pose".
type Named string

func (n Named) String() string { return string(n) }
func (Named) typeExpr()        {}

// Array is a fixed-size array field type such as "u8[4]".
type Array struct {
	Base   string
	Length string
}

func (a Array) String() string { return a.Base + "[" + a.Length + "]" }
func (Array) typeExpr()        {}

// HeaderOverrides replaces parts of a function's derived C++ prototype.
// Recognized keys are "ident" and "ret"; other keys are carried through.
type HeaderOverrides map[string]string

// Header override keys.
const (
	HeaderIdent = "ident"
	HeaderRet   = "ret"
)

// Ident returns the identifier override, or "" if none.
func (h HeaderOverrides) Ident() string { return h[HeaderIdent] }

// Ret returns the return type override, or "" if none.
func (h HeaderOverrides) Ret() string { return h[HeaderRet] }

// Merge copies every entry of other into h. Entries in other win.
// Merge on a nil receiver returns a fresh map.
func (h HeaderOverrides) Merge(other HeaderOverrides) HeaderOverrides {
	if h == nil {
		h = make(HeaderOverrides, len(other))
	}
	for k, v := range other {
		h[k] = v
	}
	return h
}

// Clone returns an independent copy, or nil for an empty mapping.
func (h HeaderOverrides) Clone() HeaderOverrides {
	if len(h) == 0 {
		return nil
	}
	return HeaderOverrides{}.Merge(h)
}

// Macro is a named, reusable bundle of header overrides.
type Macro struct {
	Name   string // includes the "@" sigil
	Header HeaderOverrides
}

// MacroTable maps a macro name (with sigil) to its definition.
// A table belongs to one parser session.
type MacroTable map[string]*Macro

// Define registers m, replacing any earlier macro with the same name.
func (t MacroTable) Define(m *Macro) {
	t[m.Name] = m
}

// Lookup returns the macro registered under name.
func (t MacroTable) Lookup(name string) (*Macro, bool) {
	m, ok := t[name]
	return m, ok
}

// Functions returns every function definition in program order.
func (p *Program) Functions() []*FuncDef {
	var fns []*FuncDef
	for _, m := range p.Modules {
		for _, d := range m.Definitions {
			if fn, ok := d.(*FuncDef); ok {
				fns = append(fns, fn)
			}
		}
	}
	return fns
}

// Module returns the module with the given name.
func (p *Program) Module(name string) (*Module, bool) {
	for _, m := range p.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}
