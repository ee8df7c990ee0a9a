package instrument

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// ErrorType represents the category of instrument error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection refused, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the instrument did not respond in time
	ErrTypeTimeout
	// ErrTypeProtocol indicates a malformed or unexpected instrument response
	ErrTypeProtocol
	// ErrTypeRemote indicates the instrument reported a failure for the request
	ErrTypeRemote
	// ErrTypeValidation indicates an invalid request (bad channel id, out-of-range value)
	ErrTypeValidation
	// ErrTypeClosed indicates the connection has been closed
	ErrTypeClosed
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeRemote:
		return "Instrument Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeClosed:
		return "Connection Closed"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents a failure communicating with or reported by the instrument.
// All hardware I/O failures surface as *Error so callers can distinguish them
// from safety errors with errors.As.
type Error struct {
	Type     ErrorType // Category of error
	Message  string    // Human-readable error message
	Channel  string    // Channel involved, if any
	Endpoint string    // Instrument endpoint (for context)
	Err      error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	var where string
	if e.Channel != "" {
		where = fmt.Sprintf(" (channel %s)", e.Channel)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s%s: %v", e.Type, e.Message, where, e.Err)
	}
	return fmt.Sprintf("%s: %s%s", e.Type, e.Message, where)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyNetworkError analyzes a transport error and assigns an error type
func classifyNetworkError(err error, endpoint string) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &Error{
			Type:     ErrTypeTimeout,
			Message:  "instrument did not respond in time",
			Endpoint: endpoint,
			Err:      err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &Error{
				Type:     ErrTypeNetwork,
				Message:  "instrument refused connection",
				Endpoint: endpoint,
				Err:      err,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) || errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &Error{
				Type:     ErrTypeNetwork,
				Message:  "instrument unreachable",
				Endpoint: endpoint,
				Err:      err,
			}
		}
	}

	return &Error{
		Type:     ErrTypeNetwork,
		Message:  "network error",
		Endpoint: endpoint,
		Err:      err,
	}
}

// newRemoteError creates an error for a failure reported by the instrument
func newRemoteError(channel, message string) *Error {
	return &Error{
		Type:    ErrTypeRemote,
		Message: message,
		Channel: channel,
	}
}

// newProtocolError creates an error for a malformed instrument response
func newProtocolError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeProtocol,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates an error for an invalid request
func NewValidationError(message string) *Error {
	return &Error{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

// IsTimeout reports whether an error is an instrument timeout
func IsTimeout(err error) bool {
	var ierr *Error
	return errors.As(err, &ierr) && ierr.Type == ErrTypeTimeout
}

// IsRemote reports whether the instrument itself rejected the request
func IsRemote(err error) bool {
	var ierr *Error
	return errors.As(err, &ierr) && ierr.Type == ErrTypeRemote
}

// IsClosed reports whether an error indicates a closed connection
func IsClosed(err error) bool {
	var ierr *Error
	return errors.As(err, &ierr) && ierr.Type == ErrTypeClosed
}
