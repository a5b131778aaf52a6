// Package camerr defines the two failure kinds raised by toolpath
// generation. A ParameterError means the caller supplied an invalid or
// missing value; a GeometryError means the input geometry itself is
// degenerate or malformed. Both are raised synchronously and are never
// retried.
package camerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParameterError reports an invalid, missing or contradictory parameter.
type ParameterError struct {
	Key string // parameter name, empty when the error spans several keys
	Msg string
}

func (e *ParameterError) Error() string {
	if e.Key == "" {
		return "parameter error: " + e.Msg
	}
	return fmt.Sprintf("parameter %s: %s", e.Key, e.Msg)
}

// GeometryError reports degenerate or malformed geometry.
type GeometryError struct {
	Msg string
}

func (e *GeometryError) Error() string {
	return "geometry error: " + e.Msg
}

// Param returns a ParameterError for key carrying a stack trace.
func Param(key, format string, args ...any) error {
	return errors.WithStack(&ParameterError{Key: key, Msg: fmt.Sprintf(format, args...)})
}

// Geometry returns a GeometryError carrying a stack trace.
func Geometry(format string, args ...any) error {
	return errors.WithStack(&GeometryError{Msg: fmt.Sprintf(format, args...)})
}

// IsParameter reports whether err wraps a ParameterError.
func IsParameter(err error) bool {
	var pe *ParameterError
	return errors.As(err, &pe)
}

// IsGeometry reports whether err wraps a GeometryError.
func IsGeometry(err error) bool {
	var ge *GeometryError
	return errors.As(err, &ge)
}

// Key returns the parameter key of a wrapped ParameterError, or "".
func Key(err error) string {
	var pe *ParameterError
	if errors.As(err, &pe) {
		return pe.Key
	}
	return ""
}
