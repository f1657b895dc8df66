// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSchema is returned by Build when a declaration is inconsistent.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrMissingRequiredParameter is returned by Instantiate when a required
	// field has neither a value nor a default.
	ErrMissingRequiredParameter = errors.New("missing required parameter")
	// ErrInvalidParameterValue is returned by Instantiate when a value cannot
	// be converted to the field's type.
	ErrInvalidParameterValue = errors.New("invalid parameter value")
)

// Error reports a problem with one or more fields of a unit's schema.
type Error struct {
	Unit   string
	Field  string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("unit '%s'", e.Unit)
	if e.Field != "" {
		msg += fmt.Sprintf(", field '%s'", e.Field)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
