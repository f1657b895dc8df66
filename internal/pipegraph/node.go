package pipegraph

import "fmt"

// Kind distinguishes the node types of the pipeline graph.
type Kind int

const (
	// KindUnit is a unit invocation.
	KindUnit Kind = iota
	// KindExternalInput is an element no unit produces; it must come from
	// the data store.
	KindExternalInput
	// KindRequestedOutput is an element the caller asked for.
	KindRequestedOutput
	// KindVolatileOutput is an intermediate element produced by a unit but
	// not requested.
	KindVolatileOutput
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindExternalInput:
		return "input"
	case KindRequestedOutput:
		return "output"
	case KindVolatileOutput:
		return "volatile"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a vertex of the pipeline graph.
type Node struct {
	ID   string
	Kind Kind
	// Name is the unit name for unit nodes and the element name otherwise.
	Name string
}

// IsElement reports whether the node stands for a data element.
func (n *Node) IsElement() bool { return n.Kind != KindUnit }

// UnitID returns the node ID of a unit.
func UnitID(name string) string { return "unit." + name }

// ElementID returns the node ID of an element.
func ElementID(name string) string { return "element." + name }
