package params

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/ctxlog"
	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"github.com/specialistvlad/algogrid/internal/paramgraph"
	"github.com/specialistvlad/algogrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Resolver creates and holds the parameter set of every unit.
type Resolver struct {
	cat   *catalog.Catalog
	graph *paramgraph.Graph
	sets  map[string]*Set
	order []string
}

// NewResolver returns a resolver for the units of cat, ordered by graph.
func NewResolver(cat *catalog.Catalog, graph *paramgraph.Graph) *Resolver {
	return &Resolver{
		cat:   cat,
		graph: graph,
		sets:  make(map[string]*Set),
	}
}

// Resolve builds the parameter graph of cat and resolves every unit.
func Resolve(ctx context.Context, cat *catalog.Catalog, overrides Overrides) (*Resolver, error) {
	graph, err := paramgraph.Build(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("failed to build parameter graph: %w", err)
	}
	r := NewResolver(cat, graph)
	if err := r.Resolve(ctx, overrides); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve creates one parameter set per unit, in parameter graph order.
// It must be called once.
func (r *Resolver) Resolve(ctx context.Context, overrides Overrides) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving parameter sets.", "units", r.graph.Len())

	for _, name := range r.graph.Order() {
		d, err := r.cat.LookupByName(name)
		if err != nil {
			return fmt.Errorf("failed to resolve parameters: %w", err)
		}
		set, err := r.resolveUnit(ctx, d, overrides)
		if err != nil {
			return fmt.Errorf("failed to resolve parameters: %w", err)
		}
		r.sets[name] = set
		r.order = append(r.order, name)
		logger.Debug("Parameter set created.", "unit", name, "params", set.Len())
	}
	return nil
}

// Get returns the resolved parameter set of a unit.
func (r *Resolver) Get(unit string) (*Set, error) {
	set, ok := r.sets[unit]
	if !ok {
		return nil, &Error{Algorithm: unit, Err: ErrReferencedParameterSetNotReady}
	}
	return set, nil
}

// Len returns the number of resolved sets.
func (r *Resolver) Len() int { return len(r.sets) }

// Order returns unit names in the order their sets were created.
func (r *Resolver) Order() []string { return append([]string(nil), r.order...) }

func (r *Resolver) resolveUnit(ctx context.Context, d *catalog.Descriptor, overrides Overrides) (*Set, error) {
	logger := ctxlog.FromContext(ctx)
	name := d.Name()

	values := make(map[string]cty.Value)
	sources := make(map[string]string)

	for _, f := range d.Schema.Referenced() {
		src, ok := r.sets[f.Reference]
		if !ok {
			return nil, &Error{Algorithm: name, Field: f.Name, Err: ErrReferencedParameterSetNotReady, Detail: fmt.Sprintf("'%s' has not been resolved", f.Reference)}
		}
		// An optional source field that was never set stays unset here too.
		if v, ok := src.Get(f.Name); ok {
			values[f.Name] = v
			sources[f.Name] = "ref:" + f.Reference
		}
	}

	scope, scoped, err := selectScope(name, overrides)
	if err != nil {
		return nil, err
	}

	defined := d.Schema.Defined()
	if scoped {
		if err := checkExtra(name, defined, scope); err != nil {
			return nil, err
		}
	}

	for _, f := range defined {
		key, raw, shadowed := lookup(f, scope)
		if key == "" {
			continue
		}
		if f.Deprecated {
			return nil, &Error{Algorithm: name, Field: f.Name, Err: ErrParamDeprecated, Detail: fmt.Sprintf("set via '%s'", key)}
		}
		if len(shadowed) > 0 {
			logger.Warn("Override key shadowed by a higher-precedence key.", "unit", name, "param", f.Name, "used", key, "ignored", shadowed)
		}

		v, err := ctyconv.FromNative(raw)
		if err != nil {
			return nil, &Error{Algorithm: name, Field: f.Name, Err: ErrInvalidParameterValue, Detail: err.Error()}
		}
		values[f.Name] = v
		sources[f.Name] = key
	}

	resolved, err := d.Schema.Instantiate(values)
	if err != nil {
		return nil, err
	}

	set := &Set{unit: name, values: resolved, sources: sources}
	for _, f := range d.Schema.Params() {
		if _, ok := resolved[f.Name]; !ok {
			continue
		}
		set.names = append(set.names, f.Name)
		if _, ok := sources[f.Name]; !ok {
			sources[f.Name] = "default"
		}
	}
	return set, nil
}

// selectScope returns the override map that applies to unit and whether it
// was scoped by the unit's name.
func selectScope(unit string, overrides Overrides) (map[string]any, bool, error) {
	raw, ok := overrides[unit]
	if !ok {
		return overrides, false, nil
	}
	scope, ok := asStringMap(raw)
	if !ok {
		return nil, false, &Error{Algorithm: unit, Err: ErrInvalidOverride, Detail: fmt.Sprintf("override for the unit must be a map, got %T", raw)}
	}
	return scope, true, nil
}

// checkExtra rejects keys that are neither a defined parameter nor one of
// its aliases.
func checkExtra(unit string, defined []schema.Field, scope map[string]any) error {
	known := make(map[string]bool)
	for _, f := range defined {
		for _, n := range f.Names() {
			known[n] = true
		}
	}

	var extra []string
	for k := range scope {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return &Error{Algorithm: unit, Err: ErrInvalidOverride, Detail: "unrecognized keys: " + strings.Join(extra, ", ")}
}

// lookup finds the override for f, trying the canonical name first and
// then each alias in declaration order. It returns the matched key, its
// value and any lower-precedence keys that were also present.
func lookup(f schema.Field, scope map[string]any) (string, any, []string) {
	var (
		key      string
		value    any
		shadowed []string
	)
	for _, n := range f.Names() {
		v, ok := scope[n]
		if !ok {
			continue
		}
		if key == "" {
			key, value = n, v
			continue
		}
		shadowed = append(shadowed, n)
	}
	return key, value, shadowed
}
