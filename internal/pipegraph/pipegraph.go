// Package pipegraph builds the bipartite execution graph for a set of
// requested output elements.
//
// Construction works backwards: starting from the requested elements it
// finds the producing unit of each element, then the producers of that
// unit's inputs, and so on, until every remaining element is an external
// input that has to come from the data store. Edges point from producer to
// consumer, so a topological order of the graph is an execution order.
package pipegraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/ctxlog"
	"github.com/specialistvlad/algogrid/internal/dag"
)

// Producers finds the unit producing an element. *catalog.Catalog
// implements it.
type Producers interface {
	LookupByOutput(elem string) (*catalog.Descriptor, error)
}

// Graph is an immutable pipeline graph.
type Graph struct {
	dag         *dag.Graph
	nodes       map[string]*Node
	requested   []string
	units       []string
	inputs      []string
	volatiles   []string
	descriptors map[string]*catalog.Descriptor
	order       []*Node
}

type pending struct {
	element  string
	consumer string
}

// Build constructs the graph for the requested elements. Each unit is
// expanded once, even if several of its outputs are needed.
func Build(ctx context.Context, producers Producers, requested []string) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting pipeline graph construction.", "requested", requested)

	g := &Graph{
		dag:         dag.New(),
		nodes:       make(map[string]*Node),
		descriptors: make(map[string]*catalog.Descriptor),
	}

	var queue []pending
	for _, name := range requested {
		if g.addNode(KindRequestedOutput, name) {
			g.requested = append(g.requested, name)
			queue = append(queue, pending{element: name})
		}
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		d, err := producers.LookupByOutput(item.element)
		if err != nil {
			if !errors.Is(err, catalog.ErrElementNotProduced) {
				return nil, fmt.Errorf("failed to look up producer of '%s': %w", item.element, err)
			}
			if item.consumer == "" {
				return nil, &Error{Element: item.element, Err: ErrUnresolvableOutput}
			}
			if g.addNode(KindExternalInput, item.element) {
				g.inputs = append(g.inputs, item.element)
				logger.Debug("Build: External input found.", "element", item.element, "consumer", item.consumer)
			}
			if err := g.link(ElementID(item.element), UnitID(item.consumer)); err != nil {
				return nil, err
			}
			continue
		}

		unit := d.Name()
		if _, expanded := g.descriptors[unit]; !expanded {
			g.descriptors[unit] = d
			g.units = append(g.units, unit)
			g.addNode(KindUnit, unit)
			logger.Debug("Build: Unit expanded.", "unit", unit)

			for _, in := range d.Schema.Inputs() {
				queue = append(queue, pending{element: in.Name, consumer: unit})
			}
			for _, out := range d.Schema.Outputs() {
				if g.addNode(KindVolatileOutput, out.Name) {
					g.volatiles = append(g.volatiles, out.Name)
				}
				if err := g.link(UnitID(unit), ElementID(out.Name)); err != nil {
					return nil, err
				}
			}
		}

		if item.consumer != "" {
			if err := g.link(ElementID(item.element), UnitID(item.consumer)); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("Build: Node linking complete.", "node_count", g.dag.Len(), "units", len(g.units))

	ids, err := g.dag.TopologicalSort()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &Error{Units: cycleErr.Nodes(), Err: ErrCyclicDependency}
		}
		return nil, fmt.Errorf("error validating pipeline graph: %w", err)
	}
	g.order = make([]*Node, len(ids))
	for i, id := range ids {
		g.order[i] = g.nodes[id]
	}

	logger.Debug("Build: Pipeline graph construction successful.")
	return g, nil
}

func (g *Graph) addNode(kind Kind, name string) bool {
	id := ElementID(name)
	if kind == KindUnit {
		id = UnitID(name)
	}
	if !g.dag.AddNode(id) {
		return false
	}
	g.nodes[id] = &Node{ID: id, Kind: kind, Name: name}
	return true
}

func (g *Graph) link(from, to string) error {
	if err := g.dag.AddEdge(from, to); err != nil {
		return fmt.Errorf("error linking pipeline graph: %w", err)
	}
	return nil
}

// Order returns all nodes in execution order: every node follows the nodes
// it depends on.
func (g *Graph) Order() []*Node { return append([]*Node(nil), g.order...) }

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []*Node {
	ids := g.dag.Nodes()
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edges returns all edges in creation order.
func (g *Graph) Edges() []dag.Edge { return g.dag.Edges() }

// Units returns the unit names in expansion order.
func (g *Graph) Units() []string { return append([]string(nil), g.units...) }

// Descriptor returns the descriptor of a unit in the graph.
func (g *Graph) Descriptor(unit string) (*catalog.Descriptor, bool) {
	d, ok := g.descriptors[unit]
	return d, ok
}

// Requested returns the requested element names.
func (g *Graph) Requested() []string { return append([]string(nil), g.requested...) }

// ExternalInputs returns the elements that must come from the data store.
func (g *Graph) ExternalInputs() []string { return append([]string(nil), g.inputs...) }

// Volatiles returns the produced but not requested elements.
func (g *Graph) Volatiles() []string { return append([]string(nil), g.volatiles...) }

// Consumers returns the units consuming an element.
func (g *Graph) Consumers(elem string) []string {
	ids, err := g.dag.Dependents(ElementID(elem))
	if err != nil {
		return nil
	}
	return g.names(ids)
}

// Producer returns the unit producing an element, if it is in the graph.
func (g *Graph) Producer(elem string) (string, bool) {
	ids, err := g.dag.Dependencies(ElementID(elem))
	if err != nil || len(ids) == 0 {
		return "", false
	}
	return g.nodes[ids[0]].Name, true
}

func (g *Graph) names(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id].Name
	}
	return out
}
