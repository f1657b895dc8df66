package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	s, err := New("Sum").
		Input("values", cty.List(cty.Number)).
		Output("total", cty.Number).
		Param("scale", cty.Number, Default(1), Alias("factor")).
		Param("threshold", cty.Number, Ref("Filter")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "Sum", s.Unit())
	require.Len(t, s.Inputs(), 1)
	require.Len(t, s.Outputs(), 1)
	assert.True(t, s.Outputs()[0].Required, "outputs are required by default")
	assert.False(t, s.Inputs()[0].Required)

	require.Len(t, s.Defined(), 1)
	assert.Equal(t, "scale", s.Defined()[0].Name)
	require.Len(t, s.Referenced(), 1)
	assert.Equal(t, "Filter", s.Referenced()[0].Reference)

	scale, ok := s.Param("scale")
	require.True(t, ok)
	assert.Equal(t, []string{"scale", "factor"}, scale.Names())
	assert.True(t, scale.Default.RawEquals(cty.NumberIntVal(1)))
}

func TestBuild_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		builder *Builder
		wantErr string
	}{
		{
			name:    "empty unit name",
			builder: New(""),
			wantErr: "unit name must not be empty",
		},
		{
			name:    "duplicate param",
			builder: New("A").Param("x", cty.Number).Param("x", cty.String),
			wantErr: "param 'x' is declared more than once",
		},
		{
			name:    "default of the wrong type",
			builder: New("A").Param("x", cty.Number, Default("not a number")),
			wantErr: "default is not compatible",
		},
		{
			name:    "alias collides with another param",
			builder: New("A").Param("x", cty.Number).Param("y", cty.Number, Alias("x")),
			wantErr: "alias 'x' of param 'y' collides with param 'x'",
		},
		{
			name:    "referenced field with default",
			builder: New("A").Param("x", cty.Number, Ref("B"), Default(1)),
			wantErr: "cannot declare a default",
		},
		{
			name:    "self reference",
			builder: New("A").Param("x", cty.Number, Ref("A")),
			wantErr: "references its own unit",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.builder.Build()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSchema)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBuild_Extends(t *testing.T) {
	t.Parallel()

	base := New("Base").
		Param("window", cty.Number, Default(5)).
		Param("mode", cty.String, Default("fast")).
		MustBuild()
	logging := New("Logging").
		Param("verbose", cty.Bool, Default(false)).
		MustBuild()

	s, err := New("Smooth").
		Extends(base, logging).
		Param("mode", cty.String, Default("exact")).
		Build()
	require.NoError(t, err)

	var names []string
	for _, f := range s.Params() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"window", "mode", "verbose"}, names, "parent order is kept and overrides stay in place")

	mode, ok := s.Param("mode")
	require.True(t, ok)
	assert.True(t, mode.Default.RawEquals(cty.StringVal("exact")))
}

func TestInstantiate(t *testing.T) {
	t.Parallel()

	s := New("A").
		Param("scale", cty.Number, Default(1)).
		Param("label", cty.String, Required()).
		Param("note", cty.String).
		MustBuild()

	t.Run("defaults and conversion", func(t *testing.T) {
		t.Parallel()
		got, err := s.Instantiate(map[string]cty.Value{"label": cty.NumberIntVal(7)})
		require.NoError(t, err)
		assert.True(t, got["scale"].RawEquals(cty.NumberIntVal(1)))
		assert.True(t, got["label"].RawEquals(cty.StringVal("7")))
		_, hasNote := got["note"]
		assert.False(t, hasNote)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		_, err := s.Instantiate(nil)
		require.ErrorIs(t, err, ErrMissingRequiredParameter)
		var schemaErr *Error
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "label", schemaErr.Field)
	})

	t.Run("null counts as unset", func(t *testing.T) {
		t.Parallel()
		_, err := s.Instantiate(map[string]cty.Value{"label": cty.NullVal(cty.String)})
		assert.ErrorIs(t, err, ErrMissingRequiredParameter)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		_, err := s.Instantiate(map[string]cty.Value{"label": cty.StringVal("x"), "scale": cty.True})
		assert.ErrorIs(t, err, ErrInvalidParameterValue)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		_, err := s.Instantiate(map[string]cty.Value{"label": cty.StringVal("x"), "bogus": cty.True})
		assert.ErrorIs(t, err, ErrInvalidParameterValue)
	})
}
