package pipeline

import "errors"

var (
	ErrInputTypeMismatch = errors.New("input element has an incompatible type")
	ErrInvalidSpec       = errors.New("invalid pipeline spec")
)
