package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/datastore"
	"github.com/specialistvlad/algogrid/internal/handlers"
	"github.com/specialistvlad/algogrid/internal/params"
	"github.com/specialistvlad/algogrid/internal/pipegraph"
	"github.com/specialistvlad/algogrid/internal/schema"
)

type sumParams struct {
	Scale float64 `algo:"scale"`
}

func sumUnit(p catalog.Params) (catalog.Unit, error) {
	var cfg sumParams
	if err := p.Decode(&cfg); err != nil {
		return nil, err
	}
	return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
		total := 0.0
		for _, v := range in["values"].([]any) {
			switch n := v.(type) {
			case int64:
				total += float64(n)
			case float64:
				total += n
			}
		}
		return map[string]any{"total": total * cfg.Scale}, nil
	}), nil
}

type harness struct {
	cat   *catalog.Catalog
	store *datastore.Store
	calls map[string]int
}

func newHarness(t *testing.T, inputs map[string]any) *harness {
	t.Helper()
	h := &harness{cat: catalog.New(), store: datastore.New(), calls: make(map[string]int)}

	h.register(t, &catalog.Descriptor{
		Schema: schema.New("Sum").
			Input("values", cty.List(cty.Number), schema.Required()).
			Param("scale", cty.Number, schema.Default(1)).
			Output("total", cty.Number).
			MustBuild(),
		New:    sumUnit,
		Params: sumParams{},
	})

	mem := handlers.NewMemory(inputs)
	elems, err := mem.Elements()
	require.NoError(t, err)
	loc := datastore.Location{Path: "memory://inputs", Mode: datastore.ModeInput}
	require.NoError(t, h.store.AddContainer(datastore.NewContainer(loc, "", mem), elems))
	return h
}

// register wraps the descriptor's constructor to count invocations.
func (h *harness) register(t *testing.T, d *catalog.Descriptor) {
	t.Helper()
	name := d.Name()
	build := d.New
	d.New = func(p catalog.Params) (catalog.Unit, error) {
		u, err := build(p)
		if err != nil {
			return nil, err
		}
		return catalog.UnitFunc(func(ctx context.Context, in map[string]any) (map[string]any, error) {
			h.calls[name]++
			return u.Run(ctx, in)
		}), nil
	}
	require.NoError(t, h.cat.Register(d))
}

func (h *harness) executor(t *testing.T, requested []string, overrides params.Overrides, opts ...Option) *Executor {
	t.Helper()
	ctx := context.Background()
	g, err := pipegraph.Build(ctx, h.cat, requested)
	require.NoError(t, err)
	table, err := params.Resolve(ctx, h.cat, overrides)
	require.NoError(t, err)
	return New(g, h.store, table, opts...)
}

func TestRun_Sum(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		values    any
		overrides params.Overrides
		want      float64
	}{
		{name: "defaults", values: []any{1, 2, 3}, want: 6},
		{name: "scaled", values: []any{1, 2, 3}, overrides: params.Overrides{"scale": 2}, want: 12},
		{name: "unit scoped", values: []float64{0.5, 0.5}, overrides: params.Overrides{"Sum": map[string]any{"scale": 10}}, want: 10},
		{name: "empty", values: []any{}, want: 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, map[string]any{"values": tc.values})
			ctx := context.Background()

			require.NoError(t, h.executor(t, []string{"total"}, tc.overrides).Run(ctx))

			total, err := h.store.Get(ctx, "total")
			require.NoError(t, err)
			assert.Equal(t, tc.want, total)
			assert.Equal(t, []string{"total"}, h.store.Dirty())
		})
	}
}

func TestRun_Chain(t *testing.T) {
	h := newHarness(t, map[string]any{"values": []any{1, 2, 3}})
	h.register(t, &catalog.Descriptor{
		Schema: schema.New("Double").
			Input("total", cty.Number).
			Output("doubled", cty.Number).
			MustBuild(),
		New: func(catalog.Params) (catalog.Unit, error) {
			return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
				return map[string]any{"doubled": in["total"].(int64) * 2}, nil
			}), nil
		},
	})
	ctx := context.Background()

	require.NoError(t, h.executor(t, []string{"doubled"}, nil).Run(ctx))

	doubled, err := h.store.Get(ctx, "doubled")
	require.NoError(t, err)
	assert.Equal(t, int64(12), doubled)
	assert.Equal(t, map[string]int{"Sum": 1, "Double": 1}, h.calls)
}

func TestRun_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("unit error aborts the run", func(t *testing.T) {
		h := newHarness(t, map[string]any{"values": []any{1}})
		h.register(t, &catalog.Descriptor{
			Schema: schema.New("Fail").Input("total", cty.Number).Output("never", cty.Number).MustBuild(),
			New: func(catalog.Params) (catalog.Unit, error) {
				return catalog.UnitFunc(func(context.Context, map[string]any) (map[string]any, error) {
					return nil, boom
				}), nil
			},
		})
		h.register(t, &catalog.Descriptor{
			Schema: schema.New("After").Input("never", cty.Number).Output("last", cty.Number).MustBuild(),
			New: func(catalog.Params) (catalog.Unit, error) {
				return catalog.UnitFunc(func(context.Context, map[string]any) (map[string]any, error) {
					return map[string]any{"last": 1}, nil
				}), nil
			},
		})

		err := h.executor(t, []string{"last"}, nil).Run(context.Background())
		assert.ErrorIs(t, err, ErrUnitInvocationFailure)
		assert.ErrorIs(t, err, boom)
		var unitErr *UnitError
		require.ErrorAs(t, err, &unitErr)
		assert.Equal(t, "Fail", unitErr.Unit)
		assert.Equal(t, map[string]int{"Sum": 1, "Fail": 1}, h.calls)
	})

	t.Run("missing required output", func(t *testing.T) {
		h := newHarness(t, nil)
		h.register(t, &catalog.Descriptor{
			Schema: schema.New("Partial").
				Output("a", cty.Number).
				Output("b", cty.Number).
				Output("c", cty.Number, schema.Optional()).
				MustBuild(),
			New: func(catalog.Params) (catalog.Unit, error) {
				return catalog.UnitFunc(func(context.Context, map[string]any) (map[string]any, error) {
					return map[string]any{"a": 1}, nil
				}), nil
			},
		})

		err := h.executor(t, []string{"a"}, nil).Run(context.Background())
		assert.ErrorIs(t, err, ErrMissingOutput)
		var unitErr *UnitError
		require.ErrorAs(t, err, &unitErr)
		assert.Equal(t, []string{"b"}, unitErr.Missing)
		assert.EqualError(t, err, "unit 'Partial': unit did not produce required outputs: b")
	})

	t.Run("constructor error", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.cat.Register(&catalog.Descriptor{
			Schema: schema.New("Broken").Output("x", cty.Number).MustBuild(),
			New:    func(catalog.Params) (catalog.Unit, error) { return nil, boom },
		}))

		err := h.executor(t, []string{"x"}, nil).Run(context.Background())
		assert.ErrorIs(t, err, ErrUnitInvocationFailure)
		assert.ErrorContains(t, err, "failed to instantiate")
	})

	t.Run("panicking unit is reported as its failure", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := NewMetrics(reg)
		h := newHarness(t, nil)
		h.register(t, &catalog.Descriptor{
			Schema: schema.New("Boom").Output("x", cty.Number).MustBuild(),
			New: func(catalog.Params) (catalog.Unit, error) {
				return catalog.UnitFunc(func(context.Context, map[string]any) (map[string]any, error) {
					var out map[string]any
					out["x"] = 1
					return out, nil
				}), nil
			},
		})

		var err error
		require.NotPanics(t, func() {
			err = h.executor(t, []string{"x"}, nil, WithMetrics(m)).Run(context.Background())
		})
		assert.ErrorIs(t, err, ErrUnitInvocationFailure)
		assert.ErrorContains(t, err, "panic: assignment to entry in nil map")
		var unitErr *UnitError
		require.ErrorAs(t, err, &unitErr)
		assert.Equal(t, "Boom", unitErr.Unit)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("Boom", "error")))
	})

	t.Run("panicking constructor", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.cat.Register(&catalog.Descriptor{
			Schema: schema.New("Fragile").Output("x", cty.Number).MustBuild(),
			New:    func(catalog.Params) (catalog.Unit, error) { panic("bad params") },
		}))

		var err error
		require.NotPanics(t, func() {
			err = h.executor(t, []string{"x"}, nil).Run(context.Background())
		})
		assert.ErrorIs(t, err, ErrUnitInvocationFailure)
		assert.ErrorContains(t, err, "failed to instantiate: panic: bad params")
	})

	t.Run("missing required input", func(t *testing.T) {
		h := newHarness(t, nil)
		err := h.executor(t, []string{"total"}, nil).Run(context.Background())
		assert.ErrorIs(t, err, datastore.ErrElementNotFound)
		assert.Empty(t, h.calls)
	})

	t.Run("input of the wrong type", func(t *testing.T) {
		h := newHarness(t, map[string]any{"values": "not a list"})
		err := h.executor(t, []string{"total"}, nil).Run(context.Background())
		assert.ErrorIs(t, err, ErrUnitInvocationFailure)
		assert.ErrorContains(t, err, "input 'values'")
	})

	t.Run("cancelled context", func(t *testing.T) {
		h := newHarness(t, map[string]any{"values": []any{1}})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := h.executor(t, []string{"total"}, nil).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, h.calls)
	})
}

func TestRun_OptionalInputsAndUndeclaredOutputs(t *testing.T) {
	h := newHarness(t, nil)
	var seen map[string]any
	h.register(t, &catalog.Descriptor{
		Schema: schema.New("Maybe").
			Input("hint", cty.String).
			Output("out", cty.String).
			MustBuild(),
		New: func(catalog.Params) (catalog.Unit, error) {
			return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
				seen = in
				return map[string]any{"out": "done", "debug": true}, nil
			}), nil
		},
	})
	ctx := context.Background()

	require.NoError(t, h.executor(t, []string{"out"}, nil).Run(ctx))
	assert.Empty(t, seen)

	out, err := h.store.Get(ctx, "out")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	_, err = h.store.Get(ctx, "debug")
	assert.ErrorIs(t, err, datastore.ErrElementNotFound)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := newHarness(t, map[string]any{"values": []any{1, 2}})

	require.NoError(t, h.executor(t, []string{"total"}, nil, WithMetrics(m)).Run(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("Sum", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.runs.WithLabelValues("Sum", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.written))

	families, err := reg.Gather()
	require.NoError(t, err)
	types := make(map[string]dto.MetricType)
	for _, mf := range families {
		types[mf.GetName()] = mf.GetType()
	}
	assert.Equal(t, dto.MetricType_HISTOGRAM, types["algogrid_unit_duration_seconds"])
	assert.Equal(t, dto.MetricType_COUNTER, types["algogrid_elements_written_total"])
}
