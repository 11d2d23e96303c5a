package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/roach88/rolltide/internal/ir"
	"github.com/roach88/rolltide/internal/lower"
)

// Artifact is one generated file. Path is slash-separated and relative to
// the output directory.
type Artifact struct {
	Path string
	Data []byte
}

// Metadata is the content of a target metadata file.
type Metadata struct {
	Arch    string     `json:"arch"`
	Version string     `json:"version"`
	Modules ir.IRArray `json:"modules"`
}

const (
	includeDir = "include"
	srcDir     = "src"
	mainHeader = "main.h"

	// runtimeFormatter is the formatting type provided by the robot runtime.
	runtimeFormatter = "Formatter"
)

// Generate produces the target metadata, the shared main.h and one header
// and one source file per module.
//
// When two modules map to the same file name the later module wins; the
// result never contains two artifacts with the same path.
func Generate(prog *ir.Program, target Target) ([]Artifact, error) {
	if !target.valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownTarget, string(target))
	}

	var out artifactSet

	meta, err := renderMetadata(prog, target)
	if err != nil {
		return nil, err
	}
	out.add(target.MetadataFile(), meta)
	out.add(path.Join(includeDir, mainHeader), renderMainHeader(prog))

	for _, mod := range prog.Modules {
		base := ModuleBase(mod.Name)
		header := base + ".h"
		out.add(path.Join(includeDir, header), renderModuleHeader(mod))
		out.add(path.Join(srcDir, base+".cpp"), renderModuleSource(mod, header))
	}

	return out.list, nil
}

// ModuleBase returns the file name stem used for a module's header and
// source. Dots become underscores, and "main" is renamed so it cannot
// collide with the shared main.h.
func ModuleBase(module string) string {
	base := strings.ReplaceAll(module, ".", "_")
	if base == "" {
		base = "module"
	}
	if base == "main" {
		base = "module_main"
	}
	return base
}

type artifactSet struct {
	list  []Artifact
	index map[string]int
}

func (s *artifactSet) add(p string, data []byte) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[p]; ok {
		s.list[i].Data = data
		return
	}
	s.index[p] = len(s.list)
	s.list = append(s.list, Artifact{Path: p, Data: data})
}

func renderMetadata(prog *ir.Program, target Target) ([]byte, error) {
	modules, _ := prog.Document()["modules"].(ir.IRArray)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Metadata{
		Arch:    target.Arch(),
		Version: target.Version(),
		Modules: modules,
	}); err != nil {
		return nil, fmt.Errorf("encode %s: %w", target.MetadataFile(), err)
	}
	return buf.Bytes(), nil
}

// renderMainHeader writes every struct, enum and constant of the program.
// A struct or enum name is written once, by the first module defining it.
// The runtime's Formatter type is always forward declared.
func renderMainHeader(prog *ir.Program) []byte {
	var b strings.Builder
	b.WriteString("#pragma once\n")
	b.WriteString("#include <cstdint>\n")
	b.WriteString("#include <cstdio>\n\n")
	b.WriteString("struct " + runtimeFormatter + ";\n\n")

	written := make(map[string]bool)
	for _, mod := range prog.Modules {
		for _, def := range mod.Definitions {
			switch d := def.(type) {
			case *ir.StructDef:
				if written[d.Name] {
					continue
				}
				written[d.Name] = true
				writeStruct(&b, d)
			case *ir.EnumDef:
				if written[d.Name] {
					continue
				}
				written[d.Name] = true
				writeEnum(&b, d)
			case *ir.ConstDef:
				writeConst(&b, d)
			}
		}
	}
	return []byte(b.String())
}

func writeStruct(b *strings.Builder, d *ir.StructDef) {
	fmt.Fprintf(b, "struct %s {\n", d.Name)
	for _, f := range d.Fields {
		typ := "int"
		if f.Type != nil {
			typ = lower.Type(f.Type)
		}
		name := f.Name
		if name == "" {
			name = "field"
		}
		fmt.Fprintf(b, "  %s %s;\n", typ, name)
	}
	b.WriteString("};\n\n")
}

func writeEnum(b *strings.Builder, d *ir.EnumDef) {
	fmt.Fprintf(b, "enum class %s {\n", d.Name)
	for _, m := range d.Members {
		if m.Value != nil {
			fmt.Fprintf(b, "  %s = %s,\n", m.Name, strconv.FormatInt(*m.Value, 10))
			continue
		}
		fmt.Fprintf(b, "  %s,\n", m.Name)
	}
	b.WriteString("};\n\n")
}

// writeConst emits a string literal constant as-is; any other value is not
// evaluated and becomes integer zero.
func writeConst(b *strings.Builder, d *ir.ConstDef) {
	if d.Literal != nil {
		fmt.Fprintf(b, "extern const auto %s = \"%s\";\n", d.Name, *d.Literal)
		return
	}
	fmt.Fprintf(b, "extern const int %s = 0;\n", d.Name)
}

func renderModuleHeader(mod *ir.Module) []byte {
	var b strings.Builder
	b.WriteString("#pragma once\n")
	b.WriteString("#include \"" + mainHeader + "\"\n\n")
	for _, def := range mod.Definitions {
		if fn, ok := def.(*ir.FuncDef); ok {
			b.WriteString(NewPrototype(fn).Declaration())
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}

func renderModuleSource(mod *ir.Module, header string) []byte {
	var b strings.Builder
	b.WriteString("#include \"" + mainHeader + "\"\n")
	b.WriteString("#include \"" + header + "\"\n\n")
	for _, def := range mod.Definitions {
		if fn, ok := def.(*ir.FuncDef); ok {
			b.WriteString(NewPrototype(fn).Stub())
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}
