package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Document formats accepted by EncodeDocument.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Document renders the program as the structured boundary document handed to
// code generation:
//
//	{"modules": [{"module": "motor", "defs": [{"type": "fn", "name": "open", ...}]}]}
//
// Optional fields are omitted rather than written as null.
func (p *Program) Document() IRObject {
	modules := make(IRArray, 0, len(p.Modules))
	for _, m := range p.Modules {
		modules = append(modules, m.Document())
	}
	return IRObject{"modules": modules}
}

// Document renders a single module.
func (m *Module) Document() IRObject {
	defs := make(IRArray, 0, len(m.Definitions))
	for _, d := range m.Definitions {
		defs = append(defs, DefinitionDocument(d))
	}
	return IRObject{
		"module": IRString(m.Name),
		"defs":   defs,
	}
}

// DefinitionDocument renders one definition, keyed by its "type" discriminator.
func DefinitionDocument(d Definition) IRObject {
	obj := IRObject{
		"type": IRString(d.Kind()),
		"name": IRString(d.DefName()),
	}

	switch def := d.(type) {
	case *StructDef:
		fields := make(IRArray, 0, len(def.Fields))
		for _, f := range def.Fields {
			field := IRObject{"name": IRString(f.Name)}
			if f.Type != nil {
				field["type"] = typeDocument(f.Type)
			}
			fields = append(fields, field)
		}
		obj["fields"] = fields

	case *EnumDef:
		members := make(IRArray, 0, len(def.Members))
		for _, mem := range def.Members {
			member := IRObject{"name": IRString(mem.Name)}
			if mem.Value != nil {
				member["value"] = IRInt(*mem.Value)
			}
			members = append(members, member)
		}
		obj["members"] = members

	case *FuncDef:
		args := make(IRArray, 0, len(def.Args))
		for _, a := range def.Args {
			if a.Variadic {
				args = append(args, IRObject{"vararg": IRBool(true)})
				continue
			}
			arg := IRObject{"name": IRString(a.Name)}
			if a.Type != nil {
				arg["type"] = typeDocument(a.Type)
			}
			args = append(args, arg)
		}
		obj["args"] = args
		if def.Return != nil {
			obj["ret_type"] = typeDocument(def.Return)
		}
		if def.Owner != "" {
			obj["owner"] = IRString(def.Owner)
		}
		if len(def.Annotations) > 0 {
			anns := make(IRArray, 0, len(def.Annotations))
			for _, a := range def.Annotations {
				anns = append(anns, IRString(a))
			}
			obj["annotations"] = anns
		}
		if len(def.Header) > 0 {
			header := make(IRObject, len(def.Header))
			for k, v := range def.Header {
				header[k] = IRString(v)
			}
			obj["header"] = header
		}

	case *ConstDef:
		if def.Literal != nil {
			obj["expr"] = IRArray{IRString(*def.Literal)}
		} else {
			obj["expr"] = IRString(def.Raw)
		}
	}

	return obj
}

// typeDocument renders a type expression: a plain string for Named, an
// object with base and array_length for Array.
func typeDocument(t TypeExpr) IRValue {
	switch tt := t.(type) {
	case Array:
		return IRObject{
			"base":         IRString(tt.Base),
			"array_length": IRString(tt.Length),
		}
	default:
		return IRString(t.String())
	}
}

// EncodeDocument writes doc to w in the given format. JSON output is indented
// with sorted keys; msgpack output is the compact binary form.
func EncodeDocument(w io.Writer, doc IRObject, format string) error {
	switch format {
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json document: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode msgpack document: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported document format %q", format)
	}
}

// DocumentFileName returns the file name the boundary document is written to.
func DocumentFileName(format string) string {
	if format == FormatMsgpack {
		return "ir.msgpack"
	}
	return "ir.json"
}

// PlainDocument converts doc into plain Go values (map[string]any, []any,
// string, float64, bool) by round-tripping through JSON. Tools that walk
// generic JSON, such as query engines, expect this form.
func PlainDocument(doc IRObject) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var plain any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&plain); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return plain, nil
}
