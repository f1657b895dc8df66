package params

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/algogrid/internal/schema"
)

var (
	ErrParamDeprecated                = errors.New("parameter is deprecated")
	ErrInvalidOverride                = errors.New("invalid override")
	ErrReferencedParameterSetNotReady = errors.New("referenced parameter set not ready")

	// Re-exported so callers can match every resolution failure from here.
	ErrMissingRequiredParameter = schema.ErrMissingRequiredParameter
	ErrInvalidParameterValue    = schema.ErrInvalidParameterValue
)

// Error describes a parameter resolution failure for one unit.
type Error struct {
	Algorithm string
	Field     string
	Detail    string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("unit '%s'", e.Algorithm)
	if e.Field != "" {
		msg += fmt.Sprintf(", parameter '%s'", e.Field)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
