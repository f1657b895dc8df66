package arith

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/params"
)

func run(t *testing.T, overrides params.Overrides, unit string, inputs map[string]any) map[string]any {
	t.Helper()
	ctx := context.Background()
	c := catalog.New()
	require.NoError(t, catalog.Load(ctx, c, &Module{}))

	table, err := params.Resolve(ctx, c, overrides)
	require.NoError(t, err)
	set, err := table.Get(unit)
	require.NoError(t, err)
	d, err := c.LookupByName(unit)
	require.NoError(t, err)

	u, err := d.New(set)
	require.NoError(t, err)
	out, err := u.Run(ctx, inputs)
	require.NoError(t, err)
	return out
}

func TestSum(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		overrides params.Overrides
		values    any
		want      float64
	}{
		{name: "example", values: []any{int64(1), int64(2), int64(3)}, want: 6},
		{name: "scaled", overrides: params.Overrides{"scale": 0.5}, values: []any{int64(1), int64(2), int64(3)}, want: 3},
		{name: "floats", values: []float64{0.25, 0.25}, want: 0.5},
		{name: "empty", values: []any{}, want: 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := run(t, tc.overrides, "Sum", map[string]any{"values": tc.values})
			assert.Equal(t, map[string]any{"total": tc.want}, out)
		})
	}
}

func TestScale(t *testing.T) {
	t.Parallel()

	byName := run(t, params.Overrides{"factor": 2, "offset": 1}, "Scale", map[string]any{"values": []any{1.0, 2.0}})
	byAlias := run(t, params.Overrides{"k": 2, "offset": 1}, "Scale", map[string]any{"values": []any{1.0, 2.0}})

	assert.Equal(t, map[string]any{"scaled": []float64{3, 5}}, byName)
	assert.Equal(t, byName, byAlias)
}

func TestFloats(t *testing.T) {
	t.Parallel()

	got, err := Floats([]any{int64(1), 2.5, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 3}, got)

	_, err = Floats([]any{"x"})
	assert.ErrorContains(t, err, "element 0")

	_, err = Floats("x")
	assert.Error(t, err)
}
