package ctyconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestConvert(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      any
		ty      cty.Type
		want    cty.Value
		wantErr bool
	}{
		{name: "int to number", in: 3, ty: cty.Number, want: cty.NumberIntVal(3)},
		{name: "float to number", in: 1.5, ty: cty.Number, want: cty.NumberFloatVal(1.5)},
		{name: "numeric string to number", in: "2", ty: cty.Number, want: cty.NumberIntVal(2)},
		{name: "any slice to list", in: []any{1, 2}, ty: cty.List(cty.Number), want: cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)})},
		{name: "typed slice to list", in: []float64{1, 2}, ty: cty.List(cty.Number), want: cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)})},
		{name: "yaml map to map", in: map[any]any{"a": "x"}, ty: cty.Map(cty.String), want: cty.MapVal(map[string]cty.Value{"a": cty.StringVal("x")})},
		{name: "nil stays null", in: nil, ty: cty.String, want: cty.NullVal(cty.String)},
		{name: "bool to number fails", in: true, ty: cty.Number, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Convert(tc.in, tc.ty)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.RawEquals(got), "want %#v, got %#v", tc.want, got)
		})
	}
}

func TestToNative(t *testing.T) {
	t.Parallel()

	v := cty.ObjectVal(map[string]cty.Value{
		"count": cty.NumberIntVal(3),
		"ratio": cty.NumberFloatVal(0.5),
		"name":  cty.StringVal("x"),
		"flags": cty.ListVal([]cty.Value{cty.True, cty.False}),
		"none":  cty.NullVal(cty.String),
	})

	got, err := ToNative(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"count": int64(3),
		"ratio": 0.5,
		"name":  "x",
		"flags": []any{true, false},
		"none":  nil,
	}, got)
}

func TestTypeOf(t *testing.T) {
	t.Parallel()

	ty, err := TypeOf([]any{1.0, 2.0})
	require.NoError(t, err)
	assert.True(t, ty.IsTupleType())

	_, err = TypeOf(make(chan int))
	assert.Error(t, err)
}
