package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a reminder error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"       // 404
	ErrInvalidState        ErrorCode = "INVALID_STATE"        // 409
	ErrNoSpeech            ErrorCode = "NO_SPEECH"            // 422
	ErrMalformedTimestamp  ErrorCode = "MALFORMED_TIMESTAMP"  // 422
	ErrCancelled           ErrorCode = "CANCELLED"            // 499
	ErrInternal            ErrorCode = "INTERNAL"             // 500
	ErrResourceUnavailable ErrorCode = "RESOURCE_UNAVAILABLE" // 503
)

// ReminderError represents a structured error with code, status, and details.
type ReminderError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *ReminderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ReminderError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ReminderError {
	return &ReminderError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewIndexOutOfRange creates a 400 error for a list position outside [0, count).
func NewIndexOutOfRange(index, count int) *ReminderError {
	return &ReminderError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("index %d out of range [0, %d)", index, count),
		Details: map[string]any{"index": index, "count": count},
	}
}

// NewNotFound creates a 404 error for when a reminder cannot be found.
func NewNotFound(identifier string) *ReminderError {
	return &ReminderError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("reminder not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import or audio file.
func NewFileNotFound(path string) *ReminderError {
	return &ReminderError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewInvalidState creates a 409 error when a record is not in the expected status.
func NewInvalidState(id, status string) *ReminderError {
	return &ReminderError{
		Code:    ErrInvalidState,
		Status:  409,
		Message: fmt.Sprintf("reminder %s is %s", id, status),
		Details: map[string]any{"id": id, "status": status},
	}
}

// NewNoSpeech creates a 422 error for an empty transcript.
func NewNoSpeech() *ReminderError {
	return &ReminderError{
		Code:    ErrNoSpeech,
		Status:  422,
		Message: "no speech detected",
	}
}

// NewMalformedTimestamp creates a 422 error for an exchange string that cannot be parsed.
func NewMalformedTimestamp(value, reason string) *ReminderError {
	return &ReminderError{
		Code:    ErrMalformedTimestamp,
		Status:  422,
		Message: fmt.Sprintf("malformed timestamp %q: %s", value, reason),
		Details: map[string]any{"value": value, "reason": reason},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled by its context.
func NewCancelled(op string) *ReminderError {
	return &ReminderError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewResourceUnavailable creates a 503 error when the recorder or player cannot start.
func NewResourceUnavailable(resource string, err error) *ReminderError {
	msg := resource + " unavailable"
	if err != nil {
		msg = fmt.Sprintf("%s unavailable: %v", resource, err)
	}
	return &ReminderError{
		Code:    ErrResourceUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"resource": resource},
		Err:     err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ReminderError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ReminderError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err (or anything it wraps) is a ReminderError with the given code.
func Is(err error, code ErrorCode) bool {
	var rErr *ReminderError
	if stderrors.As(err, &rErr) {
		return rErr.Code == code
	}
	return false
}
