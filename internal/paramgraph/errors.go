package paramgraph

import (
	"errors"
	"fmt"
)

var (
	ErrParamSource               = errors.New("referenced unit is not defined")
	ErrReferencedFieldNotDefined = errors.New("referenced parameter is not defined")
	ErrReferencedFieldTypeError  = errors.New("referenced parameter type mismatch")
	ErrCyclicDependency          = errors.New("cyclic parameter dependency")
)

// Error describes an invalid parameter reference.
type Error struct {
	Algorithm string
	Field     string
	Reference string
	Detail    string
	Err       error
}

func (e *Error) Error() string {
	var msg string
	if e.Field != "" {
		msg = fmt.Sprintf("parameter `%s.%s` references `%s`", e.Algorithm, e.Field, e.Reference)
	} else {
		msg = fmt.Sprintf("unit `%s`", e.Algorithm)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
