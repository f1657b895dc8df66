package pipegraph

import (
	"bufio"
	"fmt"
	"io"
)

var dotShapes = map[Kind]string{
	KindUnit:            `shape=box, style=rounded`,
	KindExternalInput:   `shape=invhouse`,
	KindRequestedOutput: `shape=house, style=bold`,
	KindVolatileOutput:  `shape=ellipse, style=dashed`,
}

// WriteDOT renders the graph in Graphviz DOT syntax.
func (g *Graph) WriteDOT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph pipeline {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	for _, n := range g.Nodes() {
		fmt.Fprintf(bw, "  %q [label=%q, %s];\n", n.ID, n.Name, dotShapes[n.Kind])
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "  %q -> %q;\n", e.From, e.To)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
