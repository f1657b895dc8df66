package handlers

import "errors"

var (
	ErrHandlerNotFound = errors.New("no handler registered for path")
	ErrHandlerConflict = errors.New("more than one handler matches path")
	ErrInvalidQuery    = errors.New("invalid query")
	ErrReadOnly        = errors.New("container is read-only")
)
