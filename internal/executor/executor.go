package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/ctxlog"
	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"github.com/specialistvlad/algogrid/internal/datastore"
	"github.com/specialistvlad/algogrid/internal/params"
	"github.com/specialistvlad/algogrid/internal/pipegraph"
)

// Store is the part of the data store the executor uses.
// *datastore.Store implements it.
type Store interface {
	Get(ctx context.Context, name string) (any, error)
	SetMulti(ctx context.Context, values map[string]any) error
}

// ParamTable returns resolved parameter sets. *params.Resolver implements
// it.
type ParamTable interface {
	Get(unit string) (*params.Set, error)
}

// Executor runs one pipeline graph.
type Executor struct {
	graph   *pipegraph.Graph
	store   Store
	table   ParamTable
	metrics *Metrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics records unit runs in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// New returns an executor for g.
func New(g *pipegraph.Graph, store Store, table ParamTable, opts ...Option) *Executor {
	e := &Executor{graph: g, store: store, table: table}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes every unit of the graph in topological order. It stops at
// the first failing unit, or before the next unit once ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	units := e.graph.Units()
	logger.Info("▶️ Starting pipeline execution", "units", len(units))

	ran := 0
	for _, n := range e.graph.Order() {
		if n.Kind != pipegraph.KindUnit {
			continue
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("Pipeline execution cancelled.", "completed", ran, "remaining", len(units)-ran)
			return err
		}
		if err := e.runUnit(ctx, n.Name); err != nil {
			logger.Error("Unit execution failed.", "unit", n.Name, "error", err)
			return err
		}
		ran++
	}

	logger.Info("✅ Finished pipeline execution", "units", ran)
	return nil
}

func (e *Executor) runUnit(ctx context.Context, name string) error {
	logger := ctxlog.FromContext(ctx).With("unit", name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("▶️ Starting unit")

	d, ok := e.graph.Descriptor(name)
	if !ok {
		return &UnitError{Unit: name, Err: fmt.Errorf("%w: unit is not part of the graph", ErrUnitInvocationFailure)}
	}

	inputs, err := e.inputs(ctx, d)
	if err != nil {
		return &UnitError{Unit: name, Err: err}
	}

	set, err := e.table.Get(name)
	if err != nil {
		return &UnitError{Unit: name, Err: err}
	}
	if d.New == nil {
		return &UnitError{Unit: name, Err: fmt.Errorf("%w: unit has no constructor", ErrUnitInvocationFailure)}
	}
	unit, err := construct(d, set)
	if err != nil {
		return &UnitError{Unit: name, Err: fmt.Errorf("%w: failed to instantiate: %w", ErrUnitInvocationFailure, err)}
	}

	logger.Debug("Calling unit.", "inputs", len(inputs), "params", set.Len())
	start := time.Now()
	outputs, err := call(ctx, unit, inputs)
	took := time.Since(start)
	e.metrics.observe(name, took, err)
	if err != nil {
		return &UnitError{Unit: name, Err: fmt.Errorf("%w: %w", ErrUnitInvocationFailure, err)}
	}

	written, err := e.checkOutputs(ctx, d, outputs)
	if err != nil {
		return err
	}
	if err := e.store.SetMulti(ctx, written); err != nil {
		return &UnitError{Unit: name, Err: fmt.Errorf("failed to store outputs: %w", err)}
	}
	e.metrics.wrote(len(written))

	logger.Info("✅ Finished unit", "outputs", len(written), "duration", took)
	return nil
}

func construct(d *catalog.Descriptor, set *params.Set) (unit catalog.Unit, err error) {
	defer recovered(&err)
	return d.New(set)
}

func call(ctx context.Context, unit catalog.Unit, inputs map[string]any) (outputs map[string]any, err error) {
	defer recovered(&err)
	return unit.Run(ctx, inputs)
}

// recovered turns a panic in unit code into an error.
func recovered(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}

// inputs reads the unit's declared inputs. Typed inputs are converted to
// their declared type, so a unit always sees the same native shapes
// (int64 or float64 numbers, []any lists, map[string]any objects)
// regardless of the container they came from. Missing optional inputs
// are left out.
func (e *Executor) inputs(ctx context.Context, d *catalog.Descriptor) (map[string]any, error) {
	inputs := make(map[string]any)
	for _, in := range d.Inputs() {
		v, err := e.store.Get(ctx, in.Name)
		if err != nil {
			f, _ := d.Schema.Input(in.Name)
			if errors.Is(err, datastore.ErrElementNotFound) && !f.Required {
				continue
			}
			return nil, fmt.Errorf("failed to read input '%s': %w", in.Name, err)
		}
		if in.Typed() {
			val, err := ctyconv.Convert(v, in.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: input '%s': %w", ErrUnitInvocationFailure, in.Name, err)
			}
			if v, err = ctyconv.ToNative(val); err != nil {
				return nil, fmt.Errorf("%w: input '%s': %w", ErrUnitInvocationFailure, in.Name, err)
			}
		}
		inputs[in.Name] = v
	}
	return inputs, nil
}

// checkOutputs returns the declared outputs of a run. Missing required
// outputs fail the unit; undeclared ones are dropped.
func (e *Executor) checkOutputs(ctx context.Context, d *catalog.Descriptor, outputs map[string]any) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)

	written := make(map[string]any, len(outputs))
	var missing []string
	for _, f := range d.Schema.Outputs() {
		v, ok := outputs[f.Name]
		if !ok {
			if f.Required {
				missing = append(missing, f.Name)
			}
			continue
		}
		written[f.Name] = v
	}
	if len(missing) > 0 {
		return nil, &UnitError{Unit: d.Name(), Missing: missing, Err: ErrMissingOutput}
	}

	var undeclared []string
	for name := range outputs {
		if _, ok := written[name]; !ok {
			undeclared = append(undeclared, name)
		}
	}
	if len(undeclared) > 0 {
		sort.Strings(undeclared)
		logger.Warn("Unit returned undeclared outputs, dropping them.", "outputs", undeclared)
	}
	return written, nil
}
