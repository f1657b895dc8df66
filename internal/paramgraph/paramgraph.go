// Package paramgraph builds the graph of cross-unit parameter references
// and derives the order in which parameter sets must be resolved.
//
// Nodes are unit names. An edge A -> B means B has a parameter referencing
// the same-named defined parameter of A, so A must be resolved first.
package paramgraph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/ctxlog"
	"github.com/specialistvlad/algogrid/internal/dag"
	"github.com/specialistvlad/algogrid/internal/element"
)

// Graph is the validated, acyclic parameter reference graph.
type Graph struct {
	dag   *dag.Graph
	order []string
}

// Build creates a node per catalog unit, in registration order, validates
// every parameter reference and links referenced units to their referrers.
func Build(ctx context.Context, cat *catalog.Catalog) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting parameter graph construction.")

	g := dag.New()
	units := cat.All()
	for _, d := range units {
		g.AddNode(d.Name())
	}
	logger.Debug("Build: Node creation complete.", "node_count", g.Len())

	for _, d := range units {
		for _, f := range d.Schema.Referenced() {
			src, err := cat.LookupByName(f.Reference)
			if err != nil {
				return nil, &Error{Algorithm: d.Name(), Field: f.Name, Reference: f.Reference, Err: ErrParamSource}
			}

			def, ok := src.Schema.Param(f.Name)
			if !ok || def.Referenced() {
				return nil, &Error{
					Algorithm: d.Name(),
					Field:     f.Name,
					Reference: f.Reference,
					Err:       ErrReferencedFieldNotDefined,
					Detail:    fmt.Sprintf("`%s` has no defined parameter `%s`", f.Reference, f.Name),
				}
			}

			if !def.Type.Equals(f.Type) {
				return nil, &Error{
					Algorithm: d.Name(),
					Field:     f.Name,
					Reference: f.Reference,
					Err:       ErrReferencedFieldTypeError,
					Detail:    fmt.Sprintf("expected %s, `%s.%s` is %s", element.TypeString(f.Type), f.Reference, f.Name, element.TypeString(def.Type)),
				}
			}

			if err := g.AddEdge(src.Name(), d.Name()); err != nil {
				return nil, fmt.Errorf("error linking parameter graph: %w", err)
			}
			logger.Debug("Build: Linked parameter reference.", "unit", d.Name(), "field", f.Name, "source", src.Name())
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &Error{
				Algorithm: cycleErr.Nodes()[0],
				Err:       ErrCyclicDependency,
				Detail:    strings.Join(cycleErr.Nodes(), ", "),
			}
		}
		return nil, fmt.Errorf("error validating parameter graph: %w", err)
	}

	logger.Debug("Build: Parameter graph construction successful.", "order", order)
	return &Graph{dag: g, order: order}, nil
}

// Order returns the unit names so that every unit follows the units it
// references. Ties are broken by catalog registration order.
func (g *Graph) Order() []string {
	return append([]string(nil), g.order...)
}

// References returns the units whose parameters the given unit references.
func (g *Graph) References(unit string) ([]string, error) {
	return g.dag.Dependencies(unit)
}

// Referrers returns the units that reference parameters of the given unit.
func (g *Graph) Referrers(unit string) ([]string, error) {
	return g.dag.Dependents(unit)
}

// Len returns the number of units in the graph.
func (g *Graph) Len() int { return len(g.order) }
