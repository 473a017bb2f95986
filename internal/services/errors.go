package services

import "fmt"

// ErrorCode classifies failures crossing the service boundary. Handlers map
// codes to HTTP statuses; no service call panics or leaks raw store errors.
type ErrorCode string

const (
	CodeNotFound         ErrorCode = "not_found"
	CodeValidation       ErrorCode = "validation_error"
	CodePermissionDenied ErrorCode = "permission_denied"
	CodeConflict         ErrorCode = "conflict"
	CodeTransientStore   ErrorCode = "transient_store_error"
	// CodePartialPublish means the permanent-question insert succeeded but
	// marking the drafts published failed. Remediation is to retry only the
	// status update, never the insert.
	CodePartialPublish ErrorCode = "partial_publish_failure"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func notFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func denied(format string, args ...any) *Error {
	return &Error{Code: CodePermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func transient(err error, format string, args ...any) *Error {
	return &Error{Code: CodeTransientStore, Message: fmt.Sprintf(format, args...), Err: err}
}

func partialPublish(err error, count int) *Error {
	return &Error{
		Code:    CodePartialPublish,
		Message: fmt.Sprintf("%d questions were inserted but their drafts are not marked published", count),
		Err:     err,
	}
}

// CodeOf extracts the error code; unknown errors count as transient store
// failures.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeTransientStore
}
