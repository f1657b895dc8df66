package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/schema"
)

// ErrBroken is returned by the Broken unit of RecorderModule.
var ErrBroken = errors.New("broken unit")

// SimpleModule registers a fixed list of descriptors.
type SimpleModule struct {
	Descriptors []*catalog.Descriptor
}

// Register implements the catalog.Module interface.
func (m *SimpleModule) Register(c *catalog.Catalog) error {
	return catalog.Populate(c, m.Descriptors...)
}

// RecorderModule registers a small chain of units and records the order in
// which they are invoked:
//
//	Seed:   -> seed            (param base, default 1)
//	Grow:   seed, step -> grown (step optional)
//	Broken: grown -> wreck     (always fails)
type RecorderModule struct {
	mu    sync.Mutex
	calls []string
}

// Calls returns the invoked unit names in order.
func (m *RecorderModule) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *RecorderModule) record(unit string) {
	m.mu.Lock()
	m.calls = append(m.calls, unit)
	m.mu.Unlock()
}

// Register implements the catalog.Module interface.
func (m *RecorderModule) Register(c *catalog.Catalog) error {
	return catalog.Populate(c,
		&catalog.Descriptor{
			Schema: schema.New("Seed").
				Param("base", cty.Number, schema.Default(1)).
				Output("seed", cty.Number).
				MustBuild(),
			New: func(p catalog.Params) (catalog.Unit, error) {
				base := p.Value("base")
				return catalog.UnitFunc(func(context.Context, map[string]any) (map[string]any, error) {
					m.record("Seed")
					return map[string]any{"seed": base}, nil
				}), nil
			},
		},
		&catalog.Descriptor{
			Schema: schema.New("Grow").
				Input("seed", cty.Number, schema.Required()).
				Input("step", cty.Number).
				Output("grown", cty.Number).
				MustBuild(),
			New: func(catalog.Params) (catalog.Unit, error) {
				return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
					m.record("Grow")
					grown := toFloat(in["seed"])
					if step, ok := in["step"]; ok {
						grown += toFloat(step)
					} else {
						grown++
					}
					return map[string]any{"grown": grown}, nil
				}), nil
			},
		},
		&catalog.Descriptor{
			Schema: schema.New("Broken").
				Input("grown", cty.Number, schema.Required()).
				Output("wreck", cty.Number).
				MustBuild(),
			New: func(catalog.Params) (catalog.Unit, error) {
				return catalog.UnitFunc(func(context.Context, map[string]any) (map[string]any, error) {
					m.record("Broken")
					return nil, ErrBroken
				}), nil
			},
		},
	)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
