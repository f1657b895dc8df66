package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is matched by every CycleError.
var ErrCycle = errors.New("cycle detected")

// CycleError lists the strongly connected components that make a graph cyclic.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		parts[i] = strings.Join(c, " -> ")
	}
	return fmt.Sprintf("cycle detected involving nodes: %s", strings.Join(parts, "; "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// Nodes returns the IDs of all nodes taking part in a cycle.
func (e *CycleError) Nodes() []string {
	var ids []string
	for _, c := range e.Cycles {
		ids = append(ids, c...)
	}
	return ids
}
