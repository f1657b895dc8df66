package datastore

import (
	"errors"
	"fmt"
)

var (
	ErrElementNotFound       = errors.New("element not found")
	ErrDuplicateContainer    = errors.New("container already registered")
	ErrAmbiguousElementRoute = errors.New("element is served by more than one container")
	ErrReadOnlyContainer     = errors.New("container is read-only")
)

// Error carries the element and container a store operation failed for.
type Error struct {
	Element   string
	Container string
	Detail    string
	Err       error
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Element != "" && e.Container != "":
		msg = fmt.Sprintf("element '%s' in container '%s'", e.Element, e.Container)
	case e.Element != "":
		msg = fmt.Sprintf("element '%s'", e.Element)
	default:
		msg = fmt.Sprintf("container '%s'", e.Container)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
