package query

import (
	"errors"
	"fmt"
	"reflect"
)

// Error types for structured error handling
var (
	// ErrSessionClosed indicates the owning session is no longer open.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNegativeLimit indicates a negative first-result or max-results
	// value was passed to a limit setter.
	ErrNegativeLimit = errors.New("limit value must not be negative")

	// ErrParameterNotFound indicates a parameter handle could not be
	// resolved to a registration on this query.
	ErrParameterNotFound = errors.New("parameter did not exist")

	// ErrNilParameter indicates a nil registration was passed to
	// RegisterParameter.
	ErrNilParameter = errors.New("parameter registration cannot be nil")

	// ErrParameterNotBindable indicates a value operation on a
	// registration that does not accept binds (OUT / REF CURSOR modes).
	ErrParameterNotBindable = errors.New("parameter is not bindable")

	// ErrParameterNotBound indicates a value was requested from a
	// bindable registration before any bind was made.
	ErrParameterNotBound = errors.New("parameter has not yet been bound")

	// ErrInvalidHintValue indicates a recognized hint was given a value
	// whose type cannot be coerced to what the hint expects.
	ErrInvalidHintValue = errors.New("invalid hint value")

	// ErrTypeMismatch indicates a bind value (or requested parameter
	// type) is incompatible with the declared parameter type.
	ErrTypeMismatch = errors.New("parameter type mismatch")
)

// BindValidationError reports a bind value rejected by type-compatibility
// validation. It carries the offending value, the declared type it was
// checked against and the temporal qualifier in effect.
type BindValidationError struct {
	Value    any
	Expected reflect.Type
	Temporal TemporalType
	Element  bool
}

// Error implements the error interface
func (e *BindValidationError) Error() string {
	subject := "parameter value"
	if e.Element {
		subject = "parameter value element"
	}
	return fmt.Sprintf("%s [%v] did not match expected type [%s (%s)]",
		subject, e.Value, e.Expected, e.Temporal)
}

// Is reports this error as a type mismatch.
func (e *BindValidationError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// HintValueError reports a hint value of the wrong runtime type.
type HintValueError struct {
	Hint  string
	Value any
	Err   error
}

// Error implements the error interface
func (e *HintValueError) Error() string {
	return fmt.Sprintf("value [%v] for hint %q: %v", e.Value, e.Hint, e.Err)
}

// Unwrap returns the underlying error
func (e *HintValueError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target
func (e *HintValueError) Is(target error) bool {
	return target == ErrInvalidHintValue
}

func hintValueError(hint string, value any, err error) error {
	return &HintValueError{Hint: hint, Value: value, Err: err}
}
