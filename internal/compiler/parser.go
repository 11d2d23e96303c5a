package compiler

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/rolltide/internal/ir"
)

// DefaultMaxIncludeDepth bounds the include chain the parser will follow.
const DefaultMaxIncludeDepth = 64

// indentUnit is the width of one indentation level.
const indentUnit = 2

var (
	macroRe       = regexp.MustCompile(`^macro\s+(@[\w.]+)`)
	headerRe      = regexp.MustCompile(`^@header\.(\w+)\s+"([^"]*)"`)
	structRe      = regexp.MustCompile(`^struct\s+(\w+)`)
	enumRe        = regexp.MustCompile(`^enum\s+(\w+)`)
	intoRe        = regexp.MustCompile(`^into\s+(\w+)`)
	fieldRe       = regexp.MustCompile(`^(\w+)\s*:\s*(.+)$`)
	arrayFieldRe  = regexp.MustCompile(`^([^\[\]\s]+)\s*\[\s*([^\[\]\s]+)\s*\]$`)
	enumMemberRe  = regexp.MustCompile(`^(\w+)\s*(?:=\s*([^,\s]+))?\s*,?$`)
	valRe         = regexp.MustCompile(`^val\s+(\w+)\s*(?::\s*[^=]+)?=\s*(.*)$`)
	stringLitRe   = regexp.MustCompile(`^"([^"]*)"$`)
	defHeaderRe   = regexp.MustCompile(`^def\s+(\w+)\s*\[(.*)\]`)
	returnArrowRe = regexp.MustCompile(`^\s*->\s*(\S+)`)
)

// Parser turns RT source files into IR. A Parser is one session: it owns the
// visited-path set and the macro table, and accumulates modules across calls
// to Parse. It is not safe for concurrent use.
type Parser struct {
	resolver *Resolver
	maxDepth int
	logger   *slog.Logger

	program  *ir.Program
	macros   ir.MacroTable
	visited  map[string]bool
	includes map[string][]string
	diags    []Diagnostic
}

// Option configures a Parser.
type Option func(*Parser)

// WithLibDirs sets the ordered library search directories.
func WithLibDirs(dirs ...string) Option {
	return func(p *Parser) {
		p.resolver = NewResolver(dirs...)
	}
}

// WithMaxIncludeDepth sets the include depth ceiling. Values below one keep
// the default.
func WithMaxIncludeDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser creates a parser session.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		resolver: NewResolver(),
		maxDepth: DefaultMaxIncludeDepth,
		logger:   slog.Default(),
		program:  &ir.Program{},
		macros:   make(ir.MacroTable),
		visited:  make(map[string]bool),
		includes: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Macros returns the session's macro table.
func (p *Parser) Macros() ir.MacroTable { return p.macros }

// Includes returns the include graph: absolute source path to the absolute
// paths of the files it includes, in include order.
func (p *Parser) Includes() map[string][]string { return p.includes }

// Diagnostics returns the recoverable problems found so far.
func (p *Parser) Diagnostics() []Diagnostic { return p.diags }

// Parse parses each file (and, depth-first, everything it includes) into the
// session's program. It fails only when a requested file does not exist or
// cannot be read; it stops at the first such file.
func (p *Parser) Parse(files []string) (*ir.Program, error) {
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.IsDir() {
			return nil, &CompileError{
				Field:   "file",
				Message: fmt.Sprintf("source file not found: %s", f),
				Pos:     Position{File: f},
				Err:     ErrSourceNotFound,
			}
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		if err := p.visit(abs, 0); err != nil {
			return nil, err
		}
	}
	return p.program, nil
}

// visit parses one file unless it was already visited. Included files are
// visited before the rest of the including file is processed.
func (p *Parser) visit(path string, depth int) error {
	if p.visited[path] {
		return nil
	}
	p.visited[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		if depth == 0 {
			return &CompileError{
				Field:   "file",
				Message: fmt.Sprintf("reading source: %v", err),
				Pos:     Position{File: path},
				Err:     err,
			}
		}
		p.diag(ErrUnreadableInclude, SeverityWarning, Position{File: path}, "cannot read included file: %v", err)
		return nil
	}

	p.logger.Debug("parsing source", "path", path, "depth", depth)

	f := &fileParser{
		p:     p,
		path:  path,
		depth: depth,
		lines: splitLines(string(data)),
		module: &ir.Module{
			Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Path: path,
		},
	}
	if err := f.run(); err != nil {
		return err
	}

	p.program.Modules = append(p.program.Modules, f.module)
	return nil
}

func (p *Parser) diag(code, severity string, pos Position, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Code:     code,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

// fileParser holds the per-file scan state.
type fileParser struct {
	p      *Parser
	path   string
	depth  int
	lines  []string
	i      int
	module *ir.Module

	pendingAnnotations []string
	pendingHeader      ir.HeaderOverrides
}

func (f *fileParser) pos() Position {
	return Position{File: f.path, Line: f.i + 1}
}

func (f *fileParser) run() error {
	for f.i < len(f.lines) {
		line := strings.TrimSpace(f.lines[f.i])

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			f.i++
		case strings.HasPrefix(line, "include "):
			if err := f.include(strings.TrimSpace(line[len("include "):])); err != nil {
				return err
			}
			f.i++
		case strings.HasPrefix(line, "macro "):
			f.macro(line)
		case strings.HasPrefix(line, "@"):
			f.annotation(line)
			f.i++
		case strings.HasPrefix(line, "struct "):
			f.structBlock(line)
		case strings.HasPrefix(line, "enum "):
			f.enumBlock(line)
		case strings.HasPrefix(line, "val "):
			f.val(line)
			f.i++
		case strings.HasPrefix(line, "into "):
			f.intoBlock(line)
		case strings.HasPrefix(line, "def "):
			f.def("")
		default:
			f.i++
		}
	}
	return nil
}

func (f *fileParser) include(token string) error {
	pos := f.pos()
	path, ok := f.p.resolver.Resolve(token)
	if !ok {
		f.p.logger.Debug("include not resolved", "include", token, "file", f.path, "line", pos.Line)
		f.p.diag(ErrUnresolvedInclude, SeverityWarning, pos, "include %s not found in %v", token, f.p.resolver.LibDirs)
		return nil
	}
	f.p.includes[f.path] = append(f.p.includes[f.path], path)

	if f.p.visited[path] {
		return nil
	}
	if f.depth+1 > f.p.maxDepth {
		f.p.logger.Warn("include depth ceiling reached", "include", token, "file", f.path, "max_depth", f.p.maxDepth)
		f.p.diag(ErrIncludeDepth, SeverityWarning, pos, "include %s skipped: depth exceeds %d", token, f.p.maxDepth)
		return nil
	}
	return f.p.visit(path, f.depth+1)
}

// macro consumes "macro @name" and its indented annotation lines.
func (f *fileParser) macro(line string) {
	name := "anon"
	if m := macroRe.FindStringSubmatch(line); m != nil {
		name = m[1]
	}
	macro := &ir.Macro{Name: name, Header: ir.HeaderOverrides{}}
	f.i++

	for f.i < len(f.lines) {
		raw := f.lines[f.i]
		body := strings.TrimSpace(raw)
		if body == "" {
			if !inBlock(f.lines, f.i, 0) {
				break
			}
			f.i++
			continue
		}
		if indentOf(raw) < indentUnit || !strings.HasPrefix(body, "@") {
			break
		}
		if m := headerRe.FindStringSubmatch(body); m != nil {
			macro.Header[m[1]] = m[2]
		}
		f.i++
	}

	f.p.macros.Define(macro)
}

// annotation buffers an annotation line for the next function.
func (f *fileParser) annotation(line string) {
	if strings.HasPrefix(line, "@header.") {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			if f.pendingHeader == nil {
				f.pendingHeader = ir.HeaderOverrides{}
			}
			f.pendingHeader[m[1]] = m[2]
			return
		}
	}
	f.pendingAnnotations = append(f.pendingAnnotations, line)
}

// takePending returns and clears the annotation buffers. Only functions
// consume them; structs, enums and vals leave them for the next def.
func (f *fileParser) takePending() ([]string, ir.HeaderOverrides) {
	anns, header := f.pendingAnnotations, f.pendingHeader
	f.pendingAnnotations, f.pendingHeader = nil, nil
	return anns, header
}

func (f *fileParser) structBlock(line string) {
	def := &ir.StructDef{Name: "Struct"}
	if m := structRe.FindStringSubmatch(line); m != nil {
		def.Name = m[1]
	}
	f.i++

	for f.i < len(f.lines) && inBlock(f.lines, f.i, 0) {
		body := strings.TrimSpace(f.lines[f.i])
		switch {
		case body == "", strings.HasPrefix(body, "@"), strings.HasPrefix(body, "#"):
		default:
			if m := fieldRe.FindStringSubmatch(body); m != nil {
				def.Fields = append(def.Fields, ir.Field{Name: m[1], Type: parseFieldType(m[2])})
			} else {
				f.p.diag(ErrMalformedBlockLine, SeverityWarning, f.pos(), "struct %s: ignored field line %q", def.Name, body)
			}
		}
		f.i++
	}

	f.module.Definitions = append(f.module.Definitions, def)
}

// parseFieldType normalizes a field type: "T[N]" becomes an Array, anything
// else stays a Named token.
func parseFieldType(s string) ir.TypeExpr {
	s = strings.TrimSpace(s)
	if m := arrayFieldRe.FindStringSubmatch(s); m != nil {
		return ir.Array{Base: m[1], Length: m[2]}
	}
	return ir.Named(s)
}

func (f *fileParser) enumBlock(line string) {
	def := &ir.EnumDef{Name: "Enum"}
	if m := enumRe.FindStringSubmatch(line); m != nil {
		def.Name = m[1]
	}
	f.i++

	for f.i < len(f.lines) && inBlock(f.lines, f.i, 0) {
		body := strings.TrimSpace(f.lines[f.i])
		switch {
		case body == "", strings.HasPrefix(body, "@"), strings.HasPrefix(body, "#"):
		default:
			m := enumMemberRe.FindStringSubmatch(body)
			if m == nil {
				f.p.diag(ErrMalformedBlockLine, SeverityWarning, f.pos(), "enum %s: ignored member line %q", def.Name, body)
				break
			}
			member := ir.EnumMember{Name: m[1]}
			if m[2] != "" {
				if v, err := strconv.ParseInt(m[2], 0, 64); err == nil {
					member.Value = &v
				} else {
					f.p.diag(ErrMalformedBlockLine, SeverityWarning, f.pos(), "enum %s: member %s value %q is not an integer", def.Name, m[1], m[2])
				}
			}
			def.Members = append(def.Members, member)
		}
		f.i++
	}

	f.module.Definitions = append(f.module.Definitions, def)
}

func (f *fileParser) val(line string) {
	m := valRe.FindStringSubmatch(line)
	if m == nil {
		f.p.diag(ErrMalformedBlockLine, SeverityWarning, f.pos(), "ignored val line %q", line)
		return
	}

	def := &ir.ConstDef{Name: m[1], Raw: strings.TrimSpace(m[2])}
	if lit := stringLitRe.FindStringSubmatch(def.Raw); lit != nil {
		s := lit[1]
		def.Literal = &s
	}
	f.module.Definitions = append(f.module.Definitions, def)
}

// intoBlock parses "into Target" and stamps every nested function with the
// owner. Lines other than defs, annotations included, are skipped.
func (f *fileParser) intoBlock(line string) {
	owner := ""
	if m := intoRe.FindStringSubmatch(line); m != nil {
		owner = m[1]
	}
	f.i++

	for f.i < len(f.lines) && inBlock(f.lines, f.i, 0) {
		body := strings.TrimSpace(f.lines[f.i])
		switch {
		case strings.HasPrefix(body, "def "):
			f.def(owner)
		default:
			f.i++
		}
	}
}

// def parses the function header at the current line, skips its body and
// appends the function to the module.
func (f *fileParser) def(owner string) {
	raw := f.lines[f.i]
	header := strings.TrimSpace(raw)

	fn, ok := parseDefHeader(header)
	if !ok {
		f.p.diag(ErrMalformedHeader, SeverityWarning, f.pos(), "malformed function header %q", header)
	}
	fn.Owner = owner
	fn.Annotations, fn.Header = f.takePending()

	// Body: blank lines and lines indented deeper than the header.
	indent := indentOf(raw)
	f.i++
	for f.i < len(f.lines) && inBlock(f.lines, f.i, indent) {
		f.i++
	}

	f.module.Definitions = append(f.module.Definitions, fn)
}

// parseDefHeader parses "def name[args] -> ret". When the header does not
// match, it returns a function named "fn" with no arguments and no return
// type, and ok is false.
func parseDefHeader(header string) (fn *ir.FuncDef, ok bool) {
	m := defHeaderRe.FindStringSubmatchIndex(header)
	if m == nil {
		return &ir.FuncDef{Name: "fn"}, false
	}

	fn = &ir.FuncDef{
		Name: header[m[2]:m[3]],
		Args: parseArgs(header[m[4]:m[5]]),
	}
	if r := returnArrowRe.FindStringSubmatch(header[m[1]:]); r != nil {
		fn.Return = ir.Named(strings.TrimSuffix(r[1], ":"))
	}
	return fn, true
}

// parseArgs splits a comma-separated argument list. Each entry is
// "name: type", a bare type (named "arg") or "..." for a variadic tail;
// anything after the variadic marker is dropped.
func parseArgs(s string) []ir.Arg {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var args []ir.Arg
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "..." {
			args = append(args, ir.Arg{Variadic: true})
			break
		}
		if m := fieldRe.FindStringSubmatch(part); m != nil {
			args = append(args, ir.Arg{Name: m[1], Type: ir.Named(strings.TrimSpace(m[2]))})
			continue
		}
		args = append(args, ir.Arg{Name: "arg", Type: ir.Named(part)})
	}
	return args
}

// splitLines splits source text into lines, accepting \n and \r\n endings.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// indentOf returns the indentation width of a line; a tab counts as one unit.
func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += indentUnit
		default:
			return n
		}
	}
	return n
}

// inBlock reports whether line i belongs to a block opened at indentation
// parent: it is indented at least one unit deeper, or it is blank and the next
// non-blank line is.
func inBlock(lines []string, i, parent int) bool {
	for j := i; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		return indentOf(lines[j]) >= parent+indentUnit
	}
	return false
}
