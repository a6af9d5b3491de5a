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
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int64", int64(42), "42"},
		{"negative int", -100, "-100"},
		{"max int64", int64(9223372036854775807), "9223372036854775807"},
		{"bool true", true, "true"},
		{"nil", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"nested", map[string]any{"a": []any{int64(1), "x"}}, `{"a":[1,"x"]}`},
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
	result, err := MarshalCanonical(map[string]any{"b": int64(2), "a": int64(1), "c": int64(3)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(result))
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 byte order but after it in
	// UTF-16 code units (high surrogate 0xD83D < 0xFF61).
	result, err := MarshalCanonical(map[string]any{"\uFF61": int64(1), "\U0001F600": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFF61\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical("<a & b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(result))

	// A literal backslash followed by u2028 stays escaped.
	literal, err := MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(literal))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestCanonicalOmitsAbsentChildren(t *testing.T) {
	sel := NewSelect("t", NewTable("users", "t"))

	form, ok := Canonical(sel).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Select", form["kind"])
	assert.Contains(t, form, "from")
	assert.NotContains(t, form, "where")
	assert.NotContains(t, form, "take")
}

func TestCanonicalPlaceholderCarriesIndexOnly(t *testing.T) {
	form, ok := Canonical(Placeholder(3, TypeString)).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"kind": "ConstantPlaceholder", "index": int64(3), "type": "string"}, form)
}

func TestCanonicalFloatConstantIsText(t *testing.T) {
	data, err := MarshalCanonical(Canonical(NewConstant(Float(0.25))))
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"Constant","value":{"type":"float","v":"0.25"}}`, string(data))
}
