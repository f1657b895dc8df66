package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/ctxlog"
	"github.com/specialistvlad/algogrid/internal/datastore"
	"github.com/specialistvlad/algogrid/internal/element"
	"github.com/specialistvlad/algogrid/internal/executor"
	"github.com/specialistvlad/algogrid/internal/fsutil"
	"github.com/specialistvlad/algogrid/internal/handlers"
	"github.com/specialistvlad/algogrid/internal/params"
	"github.com/specialistvlad/algogrid/internal/pipegraph"
)

// ContentTypeMemory marks inline input containers.
const ContentTypeMemory = "application/x-memory"

// Pipeline is an assembled, runnable pipeline.
type Pipeline struct {
	graph *pipegraph.Graph
	store *datastore.Store
	table *params.Resolver
	exec  *executor.Executor
}

// Assemble prepares spec for execution. Parameters are resolved and the
// graph is built before any container is opened; input containers then
// only route the elements the graph consumes.
func Assemble(ctx context.Context, cat *catalog.Catalog, mgr *handlers.Manager, spec *Spec, opts ...executor.Option) (*Pipeline, error) {
	logger := ctxlog.FromContext(ctx)

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	overrides, err := spec.Overrides()
	if err != nil {
		return nil, err
	}
	table, err := params.Resolve(ctx, cat, overrides)
	if err != nil {
		return nil, err
	}

	graph, err := pipegraph.Build(ctx, cat, spec.Requested())
	if err != nil {
		return nil, err
	}
	logger.Debug("Pipeline graph built.", "units", graph.Units(), "inputs", graph.ExternalInputs())

	store := datastore.New()
	fail := func(err error) (*Pipeline, error) {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("Failed to close containers.", "error", cerr)
		}
		return nil, err
	}

	if err := addOutputs(cat, mgr, store, spec); err != nil {
		return fail(err)
	}
	if err := addInputs(ctx, mgr, store, spec, graph.ExternalInputs()); err != nil {
		return fail(err)
	}
	if err := matchInputs(ctx, graph, store); err != nil {
		return fail(err)
	}

	logger.Info("Pipeline assembled.", "units", len(graph.Units()), "containers", len(store.Containers()))
	return &Pipeline{
		graph: graph,
		store: store,
		table: table,
		exec:  executor.New(graph, store, table, opts...),
	}, nil
}

func addOutputs(cat *catalog.Catalog, mgr *handlers.Manager, store *datastore.Store, spec *Spec) error {
	for _, out := range spec.Outputs {
		if out.Path == "" {
			continue
		}
		loc := datastore.Location{Path: spec.resolve(out.Path), Mode: datastore.ModeOutput, Scope: out.Scope}
		c, err := mgr.Open(loc, out.ContentType)
		if err != nil {
			return err
		}

		elems := make([]element.Descriptor, 0, len(out.Elements))
		for _, name := range out.Elements {
			d := element.New(name, cty.DynamicPseudoType)
			if producer, err := cat.LookupByOutput(name); err == nil {
				d, _ = producer.Output(name)
			}
			elems = append(elems, d)
		}
		if err := addContainer(store, c, elems); err != nil {
			return err
		}
	}
	return nil
}

// addInputs opens the input containers, expanding directories to the
// files a handler is registered for.
func addInputs(ctx context.Context, mgr *handlers.Manager, store *datastore.Store, spec *Spec, needed []string) error {
	logger := ctxlog.FromContext(ctx)

	register := func(c *datastore.Container, in ContainerSpec) error {
		advertised, err := c.Handler.Elements()
		if err != nil {
			closeHandler(c)
			return fmt.Errorf("failed to list elements of '%s': %w", c.Location.Path, err)
		}
		if len(in.Elements) > 0 {
			if advertised, err = selectElements(c, advertised, in.Elements); err != nil {
				closeHandler(c)
				return err
			}
		}

		var routed []element.Descriptor
		for _, e := range advertised {
			if slices.Contains(needed, e.Name) {
				routed = append(routed, e)
			} else {
				logger.Debug("Element not consumed by the pipeline, not routing it.", "element", e.Name, "container", c.Location.Path)
			}
		}
		if err := addContainer(store, c, routed); err != nil {
			return err
		}
		logger.Debug("Input container opened.", "container", c.Location.String(), "elements", len(routed))
		return nil
	}

	for _, in := range spec.Inputs {
		if in.Values != nil {
			loc := datastore.Location{Path: in.Path, Mode: datastore.ModeInput, Scope: in.Scope}
			if err := register(datastore.NewContainer(loc, ContentTypeMemory, handlers.NewMemory(in.Values)), in); err != nil {
				return err
			}
			continue
		}

		paths, err := expand(mgr, spec.resolve(in.Path))
		if err != nil {
			return err
		}
		for _, p := range paths {
			c, err := mgr.Open(datastore.Location{Path: p, Mode: datastore.ModeInput, Scope: in.Scope}, in.ContentType)
			if err != nil {
				return err
			}
			if err := register(c, in); err != nil {
				return err
			}
		}
	}
	return nil
}

func expand(mgr *handlers.Manager, path string) ([]string, error) {
	if _, ok := handlers.Scheme(path); ok {
		return []string{path}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := fsutil.FindFiles(path, mgr.Extensions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory '%s': %w", path, err)
	}
	return files, nil
}

func selectElements(c *datastore.Container, advertised []element.Descriptor, names []string) ([]element.Descriptor, error) {
	byName := make(map[string]element.Descriptor, len(advertised))
	for _, e := range advertised {
		byName[e.Name] = e
	}
	out := make([]element.Descriptor, 0, len(names))
	for _, name := range names {
		e, ok := byName[name]
		if !ok {
			return nil, &datastore.Error{Element: name, Container: c.Location.Path, Err: datastore.ErrElementNotFound}
		}
		out = append(out, e)
	}
	return out, nil
}

// addContainer registers c, closing its handler when the store refuses it.
func addContainer(store *datastore.Store, c *datastore.Container, elems []element.Descriptor) error {
	if err := store.AddContainer(c, elems); err != nil {
		closeHandler(c)
		return err
	}
	return nil
}

func closeHandler(c *datastore.Container) {
	if closer, ok := c.Handler.(io.Closer); ok {
		_ = closer.Close()
	}
}

// matchInputs checks that every external input is routed and that its
// stored type converts to the type each consumer declares. Inputs that no
// consumer requires may be missing.
func matchInputs(ctx context.Context, graph *pipegraph.Graph, store *datastore.Store) error {
	logger := ctxlog.FromContext(ctx)

	for _, name := range graph.ExternalInputs() {
		stored, routed := store.Element(name)
		for _, unit := range graph.Consumers(name) {
			d, _ := graph.Descriptor(unit)
			f, _ := d.Schema.Input(name)
			if !routed {
				if f.Required {
					return &datastore.Error{Element: name, Err: datastore.ErrElementNotFound, Detail: fmt.Sprintf("required by unit '%s'", unit)}
				}
				logger.Debug("Optional input not available.", "element", name, "unit", unit)
				continue
			}
			want := f.Element()
			if want.Typed() && stored.Typed() && !want.Accepts(stored.Type) {
				return fmt.Errorf("%w: element '%s' is %s, unit '%s' expects %s",
					ErrInputTypeMismatch, name, element.TypeString(stored.Type), unit, element.TypeString(want.Type))
			}
		}
	}
	return nil
}

// Run executes the pipeline. Output containers are written only when every
// unit succeeded; containers are closed in either case.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if err := p.exec.Run(ctx); err != nil {
		if dirty := p.store.Dirty(); len(dirty) > 0 {
			logger.Warn("Execution failed, discarding unflushed elements.", "elements", dirty)
		}
		return errors.Join(fmt.Errorf("execution failed: %w", err), p.store.Close())
	}
	if err := p.store.Flush(ctx); err != nil {
		return errors.Join(fmt.Errorf("failed to write outputs: %w", err), p.store.Close())
	}
	return p.store.Close()
}

// Results returns the values of the requested elements after a successful
// Run.
func (p *Pipeline) Results(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any)
	for _, name := range p.graph.Requested() {
		v, err := p.store.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// Graph returns the pipeline graph.
func (p *Pipeline) Graph() *pipegraph.Graph { return p.graph }

// Store returns the pipeline's data store.
func (p *Pipeline) Store() *datastore.Store { return p.store }

// Params returns the resolved parameter table.
func (p *Pipeline) Params() *params.Resolver { return p.table }
