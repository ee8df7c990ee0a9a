package gate

import (
	"errors"
	"fmt"
)

// SafetyError reports that a requested target deviated from the pretuned
// point by more than the tolerance. By the time a SafetyError is returned
// the emergency rollback has already been issued: the rollback channel set
// holds the pretuned point again (unless RollbackErr is set) and none of
// the target values reached the hardware.
//
// A SafetyError is fatal for the requested move. It is returned rather
// than terminating the process so the caller can log and shut down in an
// orderly way.
type SafetyError struct {
	// Gate is the 1-based index of the first gate that violated the tolerance
	Gate int

	// Deviation is the absolute difference between the pretuned point and
	// the target for that gate, in volts
	Deviation float64

	// Tolerance is the limit that was exceeded
	Tolerance float64

	// RollbackErr is non-nil if a rollback write itself failed. The
	// hardware may then be in a mixed state and must be inspected before
	// further operation.
	RollbackErr error
}

// Error implements the error interface
func (e *SafetyError) Error() string {
	msg := fmt.Sprintf(
		"emergency stop: requested point is more than %g V away from the pretuned point (gate %d deviates by %g V); channels restored to pretuned point",
		e.Tolerance, e.Gate, e.Deviation)
	if e.RollbackErr != nil {
		msg += fmt.Sprintf("; ROLLBACK INCOMPLETE: %v", e.RollbackErr)
	}
	return msg
}

// Unwrap exposes a rollback write failure for error chain inspection
func (e *SafetyError) Unwrap() error {
	return e.RollbackErr
}

// IsSafetyViolation reports whether an error is a tolerance violation
func IsSafetyViolation(err error) bool {
	var serr *SafetyError
	return errors.As(err, &serr)
}

// ValidationError reports a precondition failure detected before any
// hardware access: wrong target length, non-finite values, or a channel
// mapping or pretuned point that does not cover the rollback set.
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

func newValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func newValidationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether an error is a precondition failure
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
