// Package status defines the error taxonomy shared by the document database
// and the keyed store.
package status

import (
	"errors"
	"fmt"
)

// Code categorizes a failed operation.
type Code string

const (
	// CodeOK is reported by CodeOf for a nil error.
	CodeOK Code = "OK"

	// CodeInvalidArgument indicates a bad argument or an unbound store.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeNotFound indicates no matching record, or a record without a value.
	CodeNotFound Code = "NOT_FOUND"

	// CodeSchemaViolation indicates a document rejected by its collection schema.
	CodeSchemaViolation Code = "SCHEMA_VIOLATION"

	// CodeIO indicates the storage engine failed.
	CodeIO Code = "IO_ERROR"

	// CodeCorrupt indicates persisted data that cannot be decoded.
	CodeCorrupt Code = "CORRUPT"

	// CodeUnknown is reported by CodeOf for errors outside this taxonomy.
	CodeUnknown Code = "UNKNOWN"
)

// Error is a status-coded error value.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Collection names the affected collection, when known.
	Collection string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Collection != "" {
		msg = fmt.Sprintf("%s (collection=%s)", msg, e.Collection)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, status.New(status.CodeNotFound, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error with the given code around a cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithCollection returns a copy of e tagged with a collection name.
func (e *Error) WithCollection(collection string) *Error {
	out := *e
	out.Collection = collection
	return &out
}

// CodeOf extracts the status code from err.
// Uses errors.As to see through wrapping.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsInvalidArgument reports whether err carries CodeInvalidArgument.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == CodeInvalidArgument
}
