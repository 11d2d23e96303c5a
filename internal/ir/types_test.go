package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionKinds(t *testing.T) {
	tests := []struct {
		def  Definition
		kind DefKind
		name string
	}{
		{&StructDef{Name: "Pose"}, KindStruct, "Pose"},
		{&EnumDef{Name: "Mode"}, KindEnum, "Mode"},
		{&FuncDef{Name: "open"}, KindFunc, "open"},
		{&ConstDef{Name: "LIMIT"}, KindConst, "LIMIT"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.def.Kind())
			assert.Equal(t, tt.name, tt.def.DefName())
		})
	}
}

func TestTypeExprString(t *testing.T) {
	assert.Equal(t, "&mut Pose", Named("&mut Pose").String())
	assert.Equal(t, "u8[16]", Array{Base: "u8", Length: "16"}.String())
}

func TestHeaderOverridesMerge(t *testing.T) {
	t.Run("other wins", func(t *testing.T) {
		h := HeaderOverrides{"ident": "a", "ret": "float"}
		got := h.Merge(HeaderOverrides{"ret": "int"})
		assert.Equal(t, HeaderOverrides{"ident": "a", "ret": "int"}, got)
	})

	t.Run("nil receiver", func(t *testing.T) {
		var h HeaderOverrides
		got := h.Merge(HeaderOverrides{"ident": "b"})
		assert.Equal(t, "b", got.Ident())
		assert.Empty(t, got.Ret())
	})

	t.Run("nil other", func(t *testing.T) {
		h := HeaderOverrides{"ident": "c"}
		assert.Equal(t, HeaderOverrides{"ident": "c"}, h.Merge(nil))
	})
}

func TestHeaderOverridesClone(t *testing.T) {
	assert.Nil(t, HeaderOverrides{}.Clone())

	orig := HeaderOverrides{"ret": "int"}
	c := orig.Clone()
	c["ret"] = "void"
	assert.Equal(t, "int", orig.Ret())
}

func TestMacroTable(t *testing.T) {
	table := MacroTable{}
	table.Define(&Macro{Name: "@pros", Header: HeaderOverrides{"ret": "void"}})
	table.Define(&Macro{Name: "@pros", Header: HeaderOverrides{"ret": "int"}})

	m, ok := table.Lookup("@pros")
	require.True(t, ok)
	assert.Equal(t, "int", m.Header.Ret())

	_, ok = table.Lookup("@missing")
	assert.False(t, ok)
}

func TestProgramLookups(t *testing.T) {
	p := sampleProgram()

	fns := p.Functions()
	require.Len(t, fns, 1)
	assert.Equal(t, "open", fns[0].Name)

	m, ok := p.Module("main")
	require.True(t, ok)
	assert.Equal(t, "/src/main.rt", m.Path)

	_, ok = p.Module("nope")
	assert.False(t, ok)
}
