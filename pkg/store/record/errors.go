package record

import (
	"errors"
	"fmt"
)

// ErrorCode classifies record store failures so that callers can react to
// them without string matching.
type ErrorCode int

const (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound ErrorCode = iota + 1

	// ErrAlreadyExists indicates a conflicting record already exists.
	ErrAlreadyExists

	// ErrInvalidArgument indicates the caller supplied an unusable value,
	// such as a nil node or an empty child name.
	ErrInvalidArgument

	// ErrInternal indicates a backend failure (I/O, serialization).
	ErrInternal
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrNotFound:
		return "NotFound"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// StoreError is the error type returned by record store implementations.
type StoreError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFoundError creates a NotFound error for the named resource.
func NewNotFoundError(resource string) *StoreError {
	return &StoreError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewAlreadyExistsError creates an AlreadyExists error.
func NewAlreadyExistsError(resource string) *StoreError {
	return &StoreError{
		Code:    ErrAlreadyExists,
		Message: fmt.Sprintf("%s already exists", resource),
	}
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(message string) *StoreError {
	return &StoreError{
		Code:    ErrInvalidArgument,
		Message: message,
	}
}

// NewInternalError wraps a backend failure in an Internal error.
func NewInternalError(operation string, err error) *StoreError {
	return &StoreError{
		Code:    ErrInternal,
		Message: fmt.Sprintf("%s: %v", operation, err),
	}
}

// IsNotFound reports whether err is a StoreError with code ErrNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is a StoreError with code
// ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return hasCode(err, ErrAlreadyExists)
}

// IsInvalidArgument reports whether err is a StoreError with code
// ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrInvalidArgument)
}

func hasCode(err error, code ErrorCode) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}
