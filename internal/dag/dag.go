package dag

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/twmb/algoimpl/go/graph"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing and returns false.
func (g *Graph) AddNode(id string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return false
	}

	n := &node{id: id, index: len(g.order)}
	g.nodes[id] = n
	g.order = append(g.order, n)
	return true
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.order)
}

// Nodes returns all node IDs in insertion order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	ids := make([]string, len(g.order))
	for i, n := range g.order {
		ids[i] = n.id
	}
	return ids
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
// Adding an existing edge again is a no-op.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if fromNode.hasDependent(toID) {
		return nil
	}

	toNode.deps = append(toNode.deps, fromNode)
	fromNode.dependents = append(fromNode.dependents, toNode)
	g.edges = append(g.edges, Edge{From: fromID, To: toID})

	return nil
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]Edge(nil), g.edges...)
}

// Dependencies returns the IDs of the nodes that the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.deps), nil
}

// Dependents returns the IDs of the nodes that depend on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.dependents), nil
}

// DetectCycles checks the graph for any cycles. It returns a *CycleError
// listing every strongly connected component with more than one member.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	scc := graph.New(graph.Directed)
	handles := make(map[string]graph.Node, len(g.order))
	for _, n := range g.order {
		h := scc.MakeNode()
		*h.Value = n.id
		handles[n.id] = h
	}
	for _, e := range g.edges {
		if err := scc.MakeEdge(handles[e.From], handles[e.To]); err != nil {
			return fmt.Errorf("building cycle check graph: %w", err)
		}
	}

	var cycles [][]string
	for _, component := range scc.StronglyConnectedComponents() {
		if len(component) < 2 {
			continue
		}
		members := make([]string, len(component))
		for i, h := range component {
			members[i] = (*h.Value).(string)
		}
		sort.Slice(members, func(i, j int) bool {
			return g.nodes[members[i]].index < g.nodes[members[j]].index
		})
		cycles = append(cycles, members)
	}
	if len(cycles) == 0 {
		return nil
	}

	sort.Slice(cycles, func(i, j int) bool {
		return g.nodes[cycles[i][0]].index < g.nodes[cycles[j][0]].index
	})
	return &CycleError{Cycles: cycles}
}

// TopologicalSort returns the node IDs so that every node comes after all
// of its dependencies. Among nodes that are ready at the same time, the one
// inserted first wins, so the result is fully deterministic.
func (g *Graph) TopologicalSort() ([]string, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()

	pending := make(map[string]int, len(g.order))
	ready := &readyQueue{}
	for _, n := range g.order {
		pending[n.id] = len(n.deps)
		if len(n.deps) == 0 {
			heap.Push(ready, n)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		sorted = append(sorted, n.id)
		for _, d := range n.dependents {
			pending[d.id]--
			if pending[d.id] == 0 {
				heap.Push(ready, d)
			}
		}
	}
	return sorted, nil
}

func ids(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}

// readyQueue is a min-heap of nodes ordered by insertion index.
type readyQueue []*node

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i].index < q[j].index }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *readyQueue) Push(x any)        { *q = append(*q, x.(*node)) }
func (q *readyQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}
