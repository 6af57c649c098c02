package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zeta":  int64(1),
		"alpha": "a",
		"mid":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"a","mid":true,"zeta":1}`, string(got))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	// Type expressions and action code are full of <, > and &.
	got, err := MarshalCanonical("Vec<&'a T>")
	require.NoError(t, err)
	assert.Equal(t, `"Vec<&'a T>"`, string(got))
}

func TestMarshalCanonicalRejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical([]any{int64(1), 2.5})
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonicalNested(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"symbols": []any{
			map[string]any{"kind": "terminal", "name": "+"},
			map[string]any{"kind": "nonterminal", "name": "Expr"},
		},
		"count": 2,
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"count":2,"symbols":[{"kind":"terminal","name":"+"},{"kind":"nonterminal","name":"Expr"}]}`,
		string(got))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// e + combining acute accent normalizes to the precomposed form.
	decomposed := "e\u0301"
	precomposed := "\u00e9"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(precomposed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	// U+2028 and U+2029 stay literal in canonical JSON; only the
	// JSON-mandated escapes apply.
	got, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))

	// A literal backslash followed by the text u2028 is not an escape
	// sequence and must survive as one.
	got, err = MarshalCanonical(`\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}

func TestCompareKeysUTF16(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"ascii", "a", "b", -1},
		{"prefix", "ab", "abc", -1},
		{"equal", "same", "same", 0},
		// U+10000 encodes as the surrogate pair D800 DC00 in UTF-16 and
		// sorts before the BMP character U+E000; plain Go string comparison
		// (UTF-8 byte order) would put them the other way around.
		{"supplementary_before_private_use", "\U00010000", "\uE000", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareKeysUTF16(tt.a, tt.b)
			switch tt.want {
			case 0:
				assert.Zero(t, got)
			case -1:
				assert.Negative(t, got)
			default:
				assert.Positive(t, got)
			}
		})
	}
}
