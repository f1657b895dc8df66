package stats

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/modules/arith"
)

type SummaryParams struct {
	DDOF float64 `algo:"ddof"`
}

type ClipParams struct {
	Threshold float64 `algo:"threshold"`
	Window    float64 `algo:"window"`
}

type OutliersParams struct {
	Threshold float64 `algo:"threshold"`
}

type SmoothParams struct {
	Window float64 `algo:"window"`
}

// NewSummary builds a Summary unit.
func NewSummary(p catalog.Params) (catalog.Unit, error) {
	var cfg SummaryParams
	if err := p.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.DDOF < 0 {
		return nil, fmt.Errorf("ddof must not be negative, got %v", cfg.DDOF)
	}
	return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
		values, err := arith.Floats(in["values"])
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		if len(values) == 0 {
			return nil, errors.New("cannot summarize an empty series")
		}

		mean, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
		for _, v := range values {
			mean += v
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		mean /= float64(len(values))

		n := float64(len(values)) - cfg.DDOF
		if n <= 0 {
			return nil, fmt.Errorf("ddof %v leaves no degrees of freedom for %d values", cfg.DDOF, len(values))
		}
		ss := 0.0
		for _, v := range values {
			ss += (v - mean) * (v - mean)
		}

		return map[string]any{
			"mean":   mean,
			"stddev": math.Sqrt(ss / n),
			"min":    lo,
			"max":    hi,
			"count":  len(values),
		}, nil
	}), nil
}

// NewNormalize builds a Normalize unit.
func NewNormalize(catalog.Params) (catalog.Unit, error) {
	return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
		values, err := arith.Floats(in["values"])
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		mean, err := arith.Float(in["mean"])
		if err != nil {
			return nil, fmt.Errorf("mean: %w", err)
		}
		stddev, err := arith.Float(in["stddev"])
		if err != nil {
			return nil, fmt.Errorf("stddev: %w", err)
		}

		z := make([]float64, len(values))
		if stddev != 0 {
			for i, v := range values {
				z[i] = (v - mean) / stddev
			}
		}
		return map[string]any{"zscores": z}, nil
	}), nil
}

// NewClip builds a Clip unit.
func NewClip(p catalog.Params) (catalog.Unit, error) {
	var cfg ClipParams
	if err := p.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %v", cfg.Threshold)
	}
	return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
		z, err := arith.Floats(in["zscores"])
		if err != nil {
			return nil, fmt.Errorf("zscores: %w", err)
		}
		clipped := make([]float64, len(z))
		for i, v := range z {
			clipped[i] = math.Max(-cfg.Threshold, math.Min(cfg.Threshold, v))
		}
		return map[string]any{"clipped": clipped}, nil
	}), nil
}

// NewOutliers builds an Outliers unit. Its threshold is Clip's.
func NewOutliers(p catalog.Params) (catalog.Unit, error) {
	var cfg OutliersParams
	if err := p.Decode(&cfg); err != nil {
		return nil, err
	}
	return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
		z, err := arith.Floats(in["zscores"])
		if err != nil {
			return nil, fmt.Errorf("zscores: %w", err)
		}
		outliers := []int{}
		for i, v := range z {
			if math.Abs(v) > cfg.Threshold {
				outliers = append(outliers, i)
			}
		}
		return map[string]any{"outliers": outliers}, nil
	}), nil
}

// NewSmooth builds a Smooth unit. The first window-1 outputs average the
// values seen so far.
func NewSmooth(p catalog.Params) (catalog.Unit, error) {
	var cfg SmoothParams
	if err := p.Decode(&cfg); err != nil {
		return nil, err
	}
	window := int(cfg.Window)
	if window < 1 || float64(window) != cfg.Window {
		return nil, fmt.Errorf("window must be a positive integer, got %v", cfg.Window)
	}
	return catalog.UnitFunc(func(_ context.Context, in map[string]any) (map[string]any, error) {
		values, err := arith.Floats(in["values"])
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		smoothed := make([]float64, len(values))
		sum := 0.0
		for i, v := range values {
			sum += v
			if i >= window {
				sum -= values[i-window]
			}
			smoothed[i] = sum / float64(min(i+1, window))
		}
		return map[string]any{"smoothed": smoothed}, nil
	}), nil
}
