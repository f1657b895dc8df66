package pipegraph

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolvableOutput = errors.New("requested output is not produced by any unit")
	ErrCyclicDependency   = errors.New("cyclic pipeline dependency")
)

// Error describes a pipeline graph construction failure.
type Error struct {
	Element string
	Units   []string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Element != "":
		return fmt.Sprintf("element '%s': %s", e.Element, e.Err)
	case len(e.Units) > 0:
		return fmt.Sprintf("%s: %v", e.Err, e.Units)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }
