package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParseType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		src     string
		want    cty.Type
		wantErr string
	}{
		{name: "empty is any", src: "", want: cty.DynamicPseudoType},
		{name: "string", src: "string", want: cty.String},
		{name: "number", src: "number", want: cty.Number},
		{name: "bool", src: "bool", want: cty.Bool},
		{name: "any", src: "any", want: cty.DynamicPseudoType},
		{name: "list of numbers", src: "list(number)", want: cty.List(cty.Number)},
		{name: "map of strings", src: "map(string)", want: cty.Map(cty.String)},
		{name: "bare collection", src: "list", wantErr: "requires an element type"},
		{name: "unknown keyword", src: "int", wantErr: "not a valid type"},
		{name: "syntax error", src: "list(", wantErr: "invalid type"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseType(tc.src)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equals(got), "want %s, got %s", tc.want.FriendlyName(), got.FriendlyName())
		})
	}
}

func TestTypeStringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"string", "number", "list(number)", "map(bool)"} {
		ty := MustParseType(src)
		assert.Equal(t, src, TypeString(ty))
	}
}

func TestDescriptor(t *testing.T) {
	t.Parallel()

	t.Run("nil type means untyped", func(t *testing.T) {
		t.Parallel()
		d := New("x", cty.NilType)
		assert.False(t, d.Typed())
		assert.True(t, d.Accepts(cty.String))
		assert.Equal(t, "x", d.String())
	})

	t.Run("typed descriptor checks convertibility", func(t *testing.T) {
		t.Parallel()
		d := New("values", cty.List(cty.Number))
		assert.True(t, d.Typed())
		assert.True(t, d.Accepts(cty.Tuple([]cty.Type{cty.Number, cty.Number})))
		assert.False(t, d.Accepts(cty.Bool))
		assert.Equal(t, "values (list(number))", d.String())
	})
}

func TestParseLayout(t *testing.T) {
	t.Parallel()

	for _, l := range []Layout{LayoutNormal, LayoutChunked, LayoutStreamed} {
		got, err := ParseLayout(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseLayout("sideways")
	assert.Error(t, err)
}
