package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP surface.
type Kind int

const (
	// KindInternal is an unclassified server error.
	KindInternal Kind = iota
	// KindValidation covers bad input: blank or duplicate names, scores
	// out of range, disallowed file types.
	KindValidation
	// KindUnauthorized covers missing, invalid or expired credentials.
	KindUnauthorized
	// KindForbidden covers an authenticated caller lacking the role or
	// ownership an operation demands.
	KindForbidden
	// KindNotFound covers lookups that matched nothing.
	KindNotFound
	// KindConflict covers duplicate-record collisions.
	KindConflict
	// KindGateway covers an unreachable or misbehaving external service.
	KindGateway
	// KindGatewayTimeout covers an external call that ran out of time.
	KindGatewayTimeout
)

// Error carries a classification plus a caller-facing detail message.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a classified error with a formatted detail message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error, keeping it reachable via errors.Is
// and errors.As.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the classification of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// DetailOf extracts the caller-facing message of err. Unclassified errors
// surface their full message for operator diagnosis.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return err.Error()
}
