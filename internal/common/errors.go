// Package common holds configuration keys, defaults, and the error taxonomy shared by
// the loader, kernel, trainer, and embedding packages.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is matched by errors caused by unreadable input.
	ErrIO = errors.New("io error")
	// ErrFormat is matched by errors caused by malformed numeric data.
	ErrFormat = errors.New("format error")
	// ErrDimensionMismatch is matched by shape inconsistencies between inputs.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidParameter is matched by out-of-range configuration values.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrConvergence is matched by the non-fatal optimizer warning.
	ErrConvergence = errors.New("convergence warning")
)

// IOError wraps a failure to read an input file.
type IOError struct {
	Path  string
	cause error
}

func NewIOError(path string, cause error) *IOError {
	return &IOError{Path: path, cause: cause}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.cause)
}

func (e *IOError) Unwrap() error { return e.cause }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// FormatError describes a malformed line in delimited input.
// Line is 1-based; zero means the error is not tied to a single line.
type FormatError struct {
	Path   string
	Line   int
	Reason string
	cause  error
}

func NewFormatError(line int, reason string, cause error) *FormatError {
	return &FormatError{Line: line, Reason: reason, cause: cause}
}

func (e *FormatError) Error() string {
	msg := "format error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	return msg + ": " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.cause }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// DimensionError indicates a shape mismatch, e.g. label count vs. row count.
type DimensionError struct {
	What     string
	Expected int
	Actual   int
}

func NewDimensionError(what string, expected, actual int) *DimensionError {
	return &DimensionError{What: what, Expected: expected, Actual: actual}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: %s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *DimensionError) Is(target error) bool { return target == ErrDimensionMismatch }

// ParameterError reports a configuration value outside its valid range.
type ParameterError struct {
	Name   string
	Value  any
	Reason string
}

func NewParameterError(name string, value any, reason string) *ParameterError {
	return &ParameterError{Name: name, Value: value, Reason: reason}
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Name, e.Value, e.Reason)
}

func (e *ParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// ConvergenceWarning is returned alongside a usable model when the optimizer stops
// before the violation drops below epsilon. Stalled is set when it stopped because a
// step no longer changed the solution, rather than because the iteration budget ran out.
type ConvergenceWarning struct {
	Iterations int
	Violation  float64
	Epsilon    float64
	Stalled    bool
}

func (w *ConvergenceWarning) Error() string {
	if w.Stalled {
		return fmt.Sprintf("optimizer stalled after %d iterations with violation %g (epsilon %g): step below floating point resolution",
			w.Iterations, w.Violation, w.Epsilon)
	}
	return fmt.Sprintf("optimizer exhausted its budget of %d iterations with violation %g (epsilon %g)",
		w.Iterations, w.Violation, w.Epsilon)
}

func (w *ConvergenceWarning) Is(target error) bool { return target == ErrConvergence }

// IsWarning reports whether err is non-fatal, meaning any accompanying result is usable.
func IsWarning(err error) bool {
	return err != nil && errors.Is(err, ErrConvergence)
}
