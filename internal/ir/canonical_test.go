package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("i32"), `"i32"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(16), "16"},
		{"negative int", IRInt(-1), "-1"},
		{"bool", IRBool(true), "true"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"go string", "u8", `"u8"`},
		{"go int", 3, "3"},
		{"go int64", int64(-7), "-7"},
		{"go bool", false, "false"},
		{"nested", IRObject{"args": IRArray{IRObject{"vararg": IRBool(true)}}}, `{"args":[{"vararg":true}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := NewIRObjectFromPairs(
		O("type", IRString("fn")),
		O("name", IRString("open")),
		O("args", IRArray{}),
		O("owner", IRString("Motor")),
	)

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"args":[],"name":"open","owner":"Motor","type":"fn"}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as a surrogate pair starting 0xD800, which sorts
	// before U+E000 in UTF-16 but after it in UTF-8.
	obj := IRObject{
		"\uE000":     IRInt(1),
		"\U00010000": IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRString("a<b> && c"))
	require.NoError(t, err)
	assert.Equal(t, `"a<b> && c"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	r1, err := MarshalCanonical(IRObject{composed: IRString(decomposed)})
	require.NoError(t, err)
	r2, err := MarshalCanonical(IRObject{decomposed: IRString(composed)})
	require.NoError(t, err)

	assert.Equal(t, string(r1), string(r2))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"paragraph separator literal", "a\u2029b", "\"a\u2029b\""},
		{"escaped text preserved", `a\u2028b`, `"a\\u2028b"`},
		{"control escaped", "a\nb", `"a\nb"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"float64", 1.5},
		{"float32", float32(2)},
		{"nested nil", IRObject{"x": IRArray{IRInt(1)}, "y": nil}},
		{"unsupported", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			assert.Error(t, err)
		})
	}
}
