package executor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingOutput         = errors.New("unit did not produce required outputs")
	ErrUnitInvocationFailure = errors.New("unit invocation failed")
)

// UnitError reports the unit a run failed in.
type UnitError struct {
	Unit    string
	Missing []string
	Err     error
}

func (e *UnitError) Error() string {
	msg := fmt.Sprintf("unit '%s': %s", e.Unit, e.Err.Error())
	if len(e.Missing) > 0 {
		msg += ": " + strings.Join(e.Missing, ", ")
	}
	return msg
}

func (e *UnitError) Unwrap() error { return e.Err }
