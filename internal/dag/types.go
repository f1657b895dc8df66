package dag

import "sync"

// Graph is a collection of nodes and their dependencies, representing a DAG.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the fields below during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// order lists nodes in insertion order.
	order []*node
	// edges lists edges in insertion order.
	edges []Edge
}

// Edge is a directed edge. To depends on From.
type Edge struct {
	From string
	To   string
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs),
// not by direct struct manipulation.
type node struct {
	// id is the unique identifier for the node.
	id string
	// index is the node's insertion position, used to break ties.
	index int
	// deps holds the nodes that this node depends on (predecessors), in
	// edge insertion order.
	deps []*node
	// dependents holds the nodes that depend on this node (successors), in
	// edge insertion order.
	dependents []*node
}

func (n *node) hasDependent(id string) bool {
	for _, d := range n.dependents {
		if d.id == id {
			return true
		}
	}
	return false
}
