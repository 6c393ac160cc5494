package fs

import (
	"errors"
	"fmt"
)

// ErrorCode classifies filesystem failures so that callers can react to a
// denial, a missing path, or a name collision without string matching.
type ErrorCode int

const (
	// ErrPermissionDenied indicates the acting user lacks a grant the
	// operation requires.
	ErrPermissionDenied ErrorCode = iota + 1

	// ErrNotFound indicates a path does not resolve to a node.
	ErrNotFound

	// ErrConflict indicates a sibling name collision, or an operation that
	// would fold a subtree into itself.
	ErrConflict

	// ErrInvalid indicates a malformed argument or an operation the tree
	// cannot support, such as removing the root.
	ErrInvalid

	// ErrInternal indicates an unexpected store failure.
	ErrInternal
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrPermissionDenied:
		return "PermissionDenied"
	case ErrNotFound:
		return "NotFound"
	case ErrConflict:
		return "Conflict"
	case ErrInvalid:
		return "Invalid"
	case ErrInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// Error is the typed error returned by filesystem operations. A nil error
// means the operation succeeded; the legacy boolean surface is built on top
// of this type by collapsing every non-nil error to false.
type Error struct {
	Code    ErrorCode
	Message string

	// Path is the path the failure refers to, when one applies.
	Path string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewPermissionDeniedError creates a PermissionDenied error for a path.
func NewPermissionDeniedError(path string) *Error {
	return &Error{
		Code:    ErrPermissionDenied,
		Message: "permission denied",
		Path:    path,
	}
}

// NewNotFoundError creates a NotFound error for a path.
func NewNotFoundError(path string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Message: "no such file or directory",
		Path:    path,
	}
}

// NewConflictError creates a Conflict error for a path.
func NewConflictError(path, message string) *Error {
	return &Error{
		Code:    ErrConflict,
		Message: message,
		Path:    path,
	}
}

// NewInvalidError creates an Invalid error.
func NewInvalidError(message string) *Error {
	return &Error{
		Code:    ErrInvalid,
		Message: message,
	}
}

// NewInternalError wraps a store failure in an Internal error.
func NewInternalError(operation string, err error) *Error {
	return &Error{
		Code:    ErrInternal,
		Message: fmt.Sprintf("%s: %v", operation, err),
	}
}

// IsPermissionDenied reports whether err is an Error with code
// ErrPermissionDenied.
func IsPermissionDenied(err error) bool {
	return hasCode(err, ErrPermissionDenied)
}

// IsNotFound reports whether err is an Error with code ErrNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, ErrNotFound)
}

// IsConflict reports whether err is an Error with code ErrConflict.
func IsConflict(err error) bool {
	return hasCode(err, ErrConflict)
}

// IsInvalid reports whether err is an Error with code ErrInvalid.
func IsInvalid(err error) bool {
	return hasCode(err, ErrInvalid)
}

// IsInternal reports whether err is an Error with code ErrInternal.
func IsInternal(err error) bool {
	return hasCode(err, ErrInternal)
}

func hasCode(err error, code ErrorCode) bool {
	var fsErr *Error
	if errors.As(err, &fsErr) {
		return fsErr.Code == code
	}
	return false
}
