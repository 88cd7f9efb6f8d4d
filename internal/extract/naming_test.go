package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeRef_FullName(t *testing.T) {
	t.Parallel()

	str := &TypeRef{Namespace: "System", Name: "String"}
	i32 := &TypeRef{Namespace: "System", Name: "Int32"}
	dict := &TypeRef{
		Namespace:   "System.Collections.Generic",
		Name:        "Dictionary`2",
		GenericArgs: []*TypeRef{str, {Namespace: "System.Collections.Generic", Name: "List`1", GenericArgs: []*TypeRef{i32}}},
	}
	outer := &TypeRef{Namespace: "Ns", Name: "Outer`1"}

	tests := []struct {
		name string
		ref  *TypeRef
		want string
	}{
		{"plain", str, "System.String"},
		{"global namespace", &TypeRef{Name: "Thing"}, "Thing"},
		{"generic nested args", dict, "System.Collections.Generic.Dictionary[System.String,System.Collections.Generic.List[System.Int32]]"},
		{"generic parameter", &TypeRef{Name: "TKey", GenericParameter: true}, "<TKey>"},
		{"array", &TypeRef{Element: str, ArrayRank: 1}, "System.String[]"},
		{"jagged", &TypeRef{Element: &TypeRef{Element: str, ArrayRank: 1}, ArrayRank: 1}, "System.String[][]"},
		{"multi-dimensional", &TypeRef{Element: i32, ArrayRank: 2}, "System.Int32[,]"},
		{"by-ref", &TypeRef{Element: i32, ByRef: true}, "System.Int32&"},
		{
			"nested generic",
			&TypeRef{Name: "Inner`1", DeclaringType: outer, GenericArgs: []*TypeRef{str, i32}},
			"Ns.Outer+Inner[System.String,System.Int32]",
		},
		{
			"array of generic parameter",
			&TypeRef{Element: &TypeRef{Name: "T", GenericParameter: true}, ArrayRank: 1},
			"<T>[]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ref.FullName())
		})
	}
}

func TestTypeRef_Key(t *testing.T) {
	t.Parallel()

	outer := &TypeRef{Namespace: "Ns", Name: "Outer`1"}
	inner := &TypeRef{Name: "Inner", DeclaringType: outer}
	assert.Equal(t, "Ns.Outer`1+Inner", inner.Key())

	typ := &Type{Name: "Inner", DeclaringType: "Ns.Outer`1"}
	assert.Equal(t, inner.Key(), typ.Key())
}

func TestParseTypeRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"System.String", "System.String"},
		{"System.String[]", "System.String[]"},
		{"System.Int32[,]", "System.Int32[,]"},
		{"System.Int32&", "System.Int32&"},
		{"<T>", "<T>"},
		{"<T>[]", "<T>[]"},
		{"Ns.Outer+Inner", "Ns.Outer+Inner"},
		{"Global", "Global"},
	}
	for _, tt := range tests {
		ref, err := ParseTypeRef(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, ref.FullName(), tt.in)
	}

	for _, bad := range []string{"", "[]", "List[System.String]", "Ns.Outer+"} {
		_, err := ParseTypeRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestTypeRef_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var refs []*TypeRef
	require.NoError(t, json.Unmarshal([]byte(`[
		"System.String[]",
		{"namespace": "System.Collections.Generic", "name": "List`+"`"+`1", "genericArgs": ["System.Int32"]}
	]`), &refs))
	require.Len(t, refs, 2)
	assert.Equal(t, "System.String[]", refs[0].FullName())
	assert.Equal(t, "System.Collections.Generic.List[System.Int32]", refs[1].FullName())
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	tp := &TypeRef{Name: "T", GenericParameter: true}
	list := &TypeRef{Namespace: "G", Name: "List`1", GenericArgs: []*TypeRef{{Element: tp, ArrayRank: 1}}}
	env := map[string]*TypeRef{"T": {Namespace: "System", Name: "String"}}

	got := substitute(list, env)
	assert.Equal(t, "G.List[System.String[]]", got.FullName())
	assert.Equal(t, "G.List[<T>[]]", list.FullName(), "input must not change")
	assert.Same(t, list, substitute(list, nil))
}
