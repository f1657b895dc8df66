package paramgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/schema"
)

func noop(catalog.Params) (catalog.Unit, error) { return nil, nil }

func register(t *testing.T, c *catalog.Catalog, b *schema.Builder) {
	t.Helper()
	require.NoError(t, c.Register(&catalog.Descriptor{Schema: b.MustBuild(), New: noop}))
}

func TestBuild_Order(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	// Registered before the unit it references.
	register(t, c, schema.New("B").Param("threshold", cty.Number, schema.Ref("A")))
	register(t, c, schema.New("Z"))
	register(t, c, schema.New("A").Param("threshold", cty.Number, schema.Default(0.5)))
	register(t, c, schema.New("C").Param("threshold", cty.Number, schema.Ref("B")))

	g, err := Build(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "A", "B", "C"}, g.Order())
	assert.Equal(t, 4, g.Len())

	refs, err := g.References("C")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, refs)

	referrers, err := g.Referrers("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, referrers)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		units   []*schema.Builder
		wantErr error
		wantMsg string
	}{
		{
			name: "reference to unknown unit",
			units: []*schema.Builder{
				schema.New("B").Param("threshold", cty.Number, schema.Ref("Nope")),
			},
			wantErr: ErrParamSource,
			wantMsg: "parameter `B.threshold` references `Nope`",
		},
		{
			name: "referenced field not defined",
			units: []*schema.Builder{
				schema.New("A").Param("other", cty.Number),
				schema.New("B").Param("threshold", cty.Number, schema.Ref("A")),
			},
			wantErr: ErrReferencedFieldNotDefined,
			wantMsg: "`A` has no defined parameter `threshold`",
		},
		{
			name: "referenced field is itself a reference",
			units: []*schema.Builder{
				schema.New("X").Param("threshold", cty.Number),
				schema.New("A").Param("threshold", cty.Number, schema.Ref("X")),
				schema.New("B").Param("threshold", cty.Number, schema.Ref("A")),
			},
			wantErr: ErrReferencedFieldNotDefined,
		},
		{
			name: "type mismatch",
			units: []*schema.Builder{
				schema.New("A").Param("threshold", cty.String),
				schema.New("B").Param("threshold", cty.Number, schema.Ref("A")),
			},
			wantErr: ErrReferencedFieldTypeError,
			wantMsg: "expected number, `A.threshold` is string",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := catalog.New()
			for _, b := range tc.units {
				register(t, c, b)
			}
			_, err := Build(context.Background(), c)
			require.ErrorIs(t, err, tc.wantErr)
			if tc.wantMsg != "" {
				assert.Contains(t, err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestBuild_Cycle(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	register(t, c, schema.New("A").
		Param("x", cty.Number).
		Param("y", cty.Number, schema.Ref("B")))
	register(t, c, schema.New("B").
		Param("y", cty.Number).
		Param("x", cty.Number, schema.Ref("A")))

	_, err := Build(context.Background(), c)
	require.ErrorIs(t, err, ErrCyclicDependency)
	assert.Contains(t, err.Error(), "A, B")
}
