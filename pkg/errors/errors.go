package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the different failure classes of an archive run
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeRemote     ErrorType = "remote"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeFilesystem ErrorType = "filesystem"
)

// Error is the typed error returned by the listing client, the fetcher and the writer
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Type) + " error"
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Authentication creates an error for a rejected or expired session cookie
func Authentication(message string, code int) *Error {
	return &Error{Type: ErrorTypeAuth, Message: message, Code: code}
}

// Remote creates an error for a failed call to the remote service
func Remote(message string, code int, cause error) *Error {
	return &Error{Type: ErrorTypeRemote, Message: message, Code: code, Err: cause}
}

// NotFound creates an error for a media resource that no longer exists
func NotFound(message string, code int) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: message, Code: code}
}

// Filesystem creates an error for a failed local write
func Filesystem(message string, cause error) *Error {
	return &Error{Type: ErrorTypeFilesystem, Message: message, Err: cause}
}

// TypeOf returns the error type of err, or "" when err is not a typed error
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

func IsAuthentication(err error) bool { return TypeOf(err) == ErrorTypeAuth }
func IsRemote(err error) bool         { return TypeOf(err) == ErrorTypeRemote }
func IsNotFound(err error) bool       { return TypeOf(err) == ErrorTypeNotFound }
func IsFilesystem(err error) bool     { return TypeOf(err) == ErrorTypeFilesystem }

// IsFatal reports whether err must abort the whole run.
// Only authentication failures are fatal: no later request can succeed.
func IsFatal(err error) bool {
	return IsAuthentication(err)
}

// FromStatusCode maps a non-success HTTP status to the matching error type
func FromStatusCode(code int, url string) *Error {
	switch code {
	case 401, 403:
		return Authentication(fmt.Sprintf("session rejected for %s", url), code)
	case 404, 410:
		return NotFound(fmt.Sprintf("resource gone: %s", url), code)
	default:
		return Remote(fmt.Sprintf("unexpected status for %s", url), code, nil)
	}
}
