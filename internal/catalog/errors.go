package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrElementNotProduced = errors.New("element is not produced by any unit")
	ErrAlgorithmNotFound  = errors.New("unit not found")
	ErrDuplicateAlgorithm = errors.New("unit already registered")
	ErrDuplicateProducer  = errors.New("element already produced by another unit")
	ErrInvalidDescriptor  = errors.New("invalid unit descriptor")
)

// Error carries the unit and element a catalog operation failed for.
type Error struct {
	Algorithm string
	Element   string
	Detail    string
	Err       error
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Algorithm != "" && e.Element != "":
		msg = fmt.Sprintf("unit '%s', element '%s'", e.Algorithm, e.Element)
	case e.Algorithm != "":
		msg = fmt.Sprintf("unit '%s'", e.Algorithm)
	default:
		msg = fmt.Sprintf("element '%s'", e.Element)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
