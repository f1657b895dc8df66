package params

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/ctxlog"
	"github.com/specialistvlad/algogrid/internal/schema"
)

func noop(catalog.Params) (catalog.Unit, error) { return nil, nil }

func newCatalog(t *testing.T, builders ...*schema.Builder) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	for _, b := range builders {
		require.NoError(t, c.Register(&catalog.Descriptor{Schema: b.MustBuild(), New: noop}))
	}
	return c
}

func filterUnit() *schema.Builder {
	return schema.New("Filter").
		Param("threshold", cty.Number, schema.Default(0.5), schema.Alias("limit", "cutoff")).
		Param("window", cty.Number, schema.Default(3), schema.Alias("win")).
		Param("legacy", cty.Bool, schema.Deprecated(), schema.Alias("old"))
}

func countUnit() *schema.Builder {
	return schema.New("Count").
		Param("threshold", cty.Number, schema.Ref("Filter")).
		Param("label", cty.String, schema.Default("n"))
}

func number(t *testing.T, s *Set, name string) float64 {
	t.Helper()
	v, ok := s.Get(name)
	require.True(t, ok, "parameter %s not set", name)
	f, _ := v.AsBigFloat().Float64()
	return f
}

func TestResolve_CreatesOneSetPerUnitInOrder(t *testing.T) {
	t.Parallel()

	// Count is registered first but references Filter.
	cat := newCatalog(t, countUnit(), schema.New("Solo"), filterUnit())

	r, err := Resolve(context.Background(), cat, nil)
	require.NoError(t, err)

	assert.Equal(t, cat.Len(), r.Len())
	order := r.Order()
	assert.Less(t, indexOf(order, "Filter"), indexOf(order, "Count"), "a set is created after the sets it references")

	count, err := r.Get("Count")
	require.NoError(t, err)
	assert.Equal(t, 0.5, number(t, count, "threshold"))
	assert.Equal(t, "ref:Filter", count.Source("threshold"))
	assert.Equal(t, "default", count.Source("label"))
}

func TestResolve_ReferencedValueFollowsOverride(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t, filterUnit(), countUnit())
	r, err := Resolve(context.Background(), cat, Overrides{"Filter": map[string]any{"threshold": 0.9}})
	require.NoError(t, err)

	count, err := r.Get("Count")
	require.NoError(t, err)
	assert.Equal(t, 0.9, number(t, count, "threshold"))
}

func TestResolve_ReferencedUnsetValue(t *testing.T) {
	t.Parallel()

	source := schema.New("Detect").Param("threshold", cty.Number)

	t.Run("optional stays unset", func(t *testing.T) {
		t.Parallel()
		cat := newCatalog(t, source, schema.New("Mark").Param("threshold", cty.Number, schema.Ref("Detect")))
		r, err := Resolve(context.Background(), cat, nil)
		require.NoError(t, err)

		mark, err := r.Get("Mark")
		require.NoError(t, err)
		_, ok := mark.Get("threshold")
		assert.False(t, ok)
		assert.Nil(t, mark.Value("threshold"))
		assert.Empty(t, mark.Names())
	})

	t.Run("required fails", func(t *testing.T) {
		t.Parallel()
		cat := newCatalog(t, source, schema.New("Mark").Param("threshold", cty.Number, schema.Ref("Detect"), schema.Required()))
		_, err := Resolve(context.Background(), cat, nil)
		assert.ErrorIs(t, err, ErrMissingRequiredParameter)
	})
}

func TestResolve_AliasEquivalence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		overrides Overrides
		want      float64
		source    string
	}{
		{name: "canonical name, scoped", overrides: Overrides{"Filter": map[string]any{"threshold": 0.7}}, want: 0.7, source: "threshold"},
		{name: "first alias, scoped", overrides: Overrides{"Filter": map[string]any{"limit": 0.7}}, want: 0.7, source: "limit"},
		{name: "second alias, scoped", overrides: Overrides{"Filter": map[string]any{"cutoff": 0.7}}, want: 0.7, source: "cutoff"},
		{name: "canonical name, flat", overrides: Overrides{"threshold": 0.7}, want: 0.7, source: "threshold"},
		{name: "alias, flat", overrides: Overrides{"limit": 0.7}, want: 0.7, source: "limit"},
		{name: "numeric string is converted", overrides: Overrides{"limit": "0.7"}, want: 0.7, source: "limit"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, err := Resolve(context.Background(), newCatalog(t, filterUnit()), tc.overrides)
			require.NoError(t, err)
			set, err := r.Get("Filter")
			require.NoError(t, err)
			assert.Equal(t, tc.want, number(t, set, "threshold"))
			assert.Equal(t, tc.source, set.Source("threshold"))
		})
	}
}

func TestResolve_CanonicalNameWinsOverAlias(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))

	overrides := Overrides{"Filter": map[string]any{"threshold": 0.1, "limit": 0.2, "cutoff": 0.3}}
	r, err := Resolve(ctx, newCatalog(t, filterUnit()), overrides)
	require.NoError(t, err, "a shadowed alias is still a recognized key")

	set, err := r.Get("Filter")
	require.NoError(t, err)
	assert.Equal(t, 0.1, number(t, set, "threshold"))
	assert.Contains(t, logs.String(), "Override key shadowed")

	t.Run("first alias wins over later alias", func(t *testing.T) {
		t.Parallel()
		r, err := Resolve(context.Background(), newCatalog(t, filterUnit()), Overrides{"cutoff": 0.3, "limit": 0.2})
		require.NoError(t, err)
		set, err := r.Get("Filter")
		require.NoError(t, err)
		assert.Equal(t, 0.2, number(t, set, "threshold"))
	})
}

func TestResolve_DeprecatedOverrideFails(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		overrides Overrides
	}{
		{name: "canonical name, scoped", overrides: Overrides{"Filter": map[string]any{"legacy": true}}},
		{name: "alias, scoped", overrides: Overrides{"Filter": map[string]any{"old": true}}},
		{name: "canonical name, flat", overrides: Overrides{"legacy": true}},
		{name: "alias, flat", overrides: Overrides{"old": false}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Resolve(context.Background(), newCatalog(t, filterUnit()), tc.overrides)
			require.ErrorIs(t, err, ErrParamDeprecated)
			var paramErr *Error
			require.ErrorAs(t, err, &paramErr)
			assert.Equal(t, "legacy", paramErr.Field)
		})
	}
}

func TestResolve_InvalidOverride(t *testing.T) {
	t.Parallel()

	t.Run("unknown keys in scoped overrides", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve(context.Background(), newCatalog(t, filterUnit()), Overrides{"Filter": map[string]any{"zeta": 1, "alpha": 2, "win": 4}})
		require.ErrorIs(t, err, ErrInvalidOverride)
		assert.Contains(t, err.Error(), "unrecognized keys: alpha, zeta")
	})

	t.Run("unknown keys in flat overrides are ignored", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve(context.Background(), newCatalog(t, filterUnit()), Overrides{"zeta": 1})
		require.NoError(t, err)
	})

	t.Run("referenced field cannot be overridden in scope", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve(context.Background(), newCatalog(t, filterUnit(), countUnit()), Overrides{"Count": map[string]any{"threshold": 1}})
		require.ErrorIs(t, err, ErrInvalidOverride)
	})

	t.Run("scoped value must be a map", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve(context.Background(), newCatalog(t, filterUnit()), Overrides{"Filter": 3})
		require.ErrorIs(t, err, ErrInvalidOverride)
	})

	t.Run("value of the wrong type", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve(context.Background(), newCatalog(t, filterUnit()), Overrides{"window": "wide"})
		require.ErrorIs(t, err, ErrInvalidParameterValue)
	})
}

func TestResolve_MissingRequired(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t, schema.New("A").Param("path", cty.String, schema.Required()))
	_, err := Resolve(context.Background(), cat, nil)
	require.ErrorIs(t, err, ErrMissingRequiredParameter)
	assert.Contains(t, err.Error(), "path")

	r, err := Resolve(context.Background(), cat, Overrides{"path": "/tmp/x"})
	require.NoError(t, err)
	set, err := r.Get("A")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", set.Value("path"))
}

func TestResolver_GetBeforeResolve(t *testing.T) {
	t.Parallel()

	r := &Resolver{sets: map[string]*Set{}}
	_, err := r.Get("A")
	assert.ErrorIs(t, err, ErrReferencedParameterSetNotReady)
}

func TestSet_Decode(t *testing.T) {
	t.Parallel()

	r, err := Resolve(context.Background(), newCatalog(t, filterUnit()), Overrides{"win": 7})
	require.NoError(t, err)
	set, err := r.Get("Filter")
	require.NoError(t, err)

	var p struct {
		Threshold float64 `algo:"threshold"`
		Window    int     `algo:"window"`
		Legacy    bool    `algo:"legacy"`
	}
	require.NoError(t, set.Decode(&p))
	assert.Equal(t, 0.5, p.Threshold)
	assert.Equal(t, 7, p.Window)
	assert.False(t, p.Legacy)
	assert.Equal(t, []string{"threshold", "window"}, set.Names(), "unset optional parameters are absent")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
