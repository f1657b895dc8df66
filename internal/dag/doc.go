// Package dag implements a small ordered directed graph keyed by string IDs.
//
// Nodes and edges remember their insertion order, which makes every query
// and the topological sort deterministic. Both dependency graphs of the
// application (parameter references and the pipeline graph) are built on
// top of it.
package dag
