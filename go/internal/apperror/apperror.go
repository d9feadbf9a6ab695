package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy and HTTP status mapping.
type Kind int

const (
	// KindValidation marks missing or ill-formed input. Never retried.
	KindValidation Kind = iota
	// KindUnauthenticated marks a missing or unresolvable credential.
	KindUnauthenticated
	// KindForbidden marks a requester acting outside their membership.
	KindForbidden
	// KindUpstream marks a store or content-provider failure.
	KindUpstream
	// KindNotFound marks an absent row (no current round, no timer).
	KindNotFound
)

// Error carries a user-facing message plus an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from err, defaulting to KindUpstream for
// anything that is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUpstream
}

// MessageOf extracts the user-facing message from err. Non-app errors get a
// generic message so internals never leak to callers verbatim.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthenticated, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a collaborator failure with a caller-facing message.
func Upstream(err error, format string, args ...any) *Error {
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf(format, args...), Err: err}
}
