// Package arith provides elementary arithmetic units.
package arith

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/schema"
)

// Module implements the catalog.Module interface for this package.
type Module struct{}

// SumParams are the parameters of the Sum unit.
type SumParams struct {
	Scale float64 `algo:"scale"`
}

// ScaleParams are the parameters of the Scale unit.
type ScaleParams struct {
	Factor float64 `algo:"factor"`
	Offset float64 `algo:"offset"`
}

// Register adds the module's units to c.
func (m *Module) Register(c *catalog.Catalog) error {
	return catalog.Populate(c,
		&catalog.Descriptor{
			Schema: schema.New("Sum").
				Describe("Sum of a series, multiplied by scale.").
				Input("values", cty.List(cty.Number), schema.Required()).
				Param("scale", cty.Number, schema.Default(1), schema.Describe("Multiplier applied to the sum.")).
				Output("total", cty.Number).
				MustBuild(),
			New:    NewSum,
			Params: SumParams{},
		},
		&catalog.Descriptor{
			Schema: schema.New("Scale").
				Describe("Affine transform of every value: v*factor + offset.").
				Input("values", cty.List(cty.Number), schema.Required()).
				Param("factor", cty.Number, schema.Default(1), schema.Alias("k")).
				Param("offset", cty.Number, schema.Default(0)).
				Output("scaled", cty.List(cty.Number)).
				MustBuild(),
			New:    NewScale,
			Params: ScaleParams{},
		},
	)
}

// NewSum builds a Sum unit.
func NewSum(p catalog.Params) (catalog.Unit, error) {
	var cfg SumParams
	if err := p.Decode(&cfg); err != nil {
		return nil, err
	}
	return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
		values, err := Floats(in["values"])
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		total := 0.0
		for _, v := range values {
			total += v
		}
		return map[string]any{"total": total * cfg.Scale}, nil
	}), nil
}

// NewScale builds a Scale unit.
func NewScale(p catalog.Params) (catalog.Unit, error) {
	var cfg ScaleParams
	if err := p.Decode(&cfg); err != nil {
		return nil, err
	}
	return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
		values, err := Floats(in["values"])
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		scaled := make([]float64, len(values))
		for i, v := range values {
			scaled[i] = v*cfg.Factor + cfg.Offset
		}
		return map[string]any{"scaled": scaled}, nil
	}), nil
}

// Floats converts a list input into float64s.
func Floats(v any) ([]float64, error) {
	switch x := v.(type) {
	case []float64:
		return x, nil
	case []any:
		out := make([]float64, len(x))
		for i, e := range x {
			f, err := Float(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected a list of numbers, got %T", v)
	}
}

// Float converts a numeric input into a float64.
func Float(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
