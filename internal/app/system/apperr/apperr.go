// internal/app/system/apperr/apperr.go
//
// Package apperr defines the error taxonomy shared by the command
// services and the HTTP surface. Every error that crosses the request
// boundary is (or wraps) an *Error with a stable Kind, so handlers map
// errors to status codes without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the stable error classification carried to clients.
type Kind string

const (
	KindValidation  Kind = "validation_error"
	KindNotFound    Kind = "not_found"
	KindForbidden   Kind = "forbidden"
	KindConflict    Kind = "conflict"
	KindRateLimited Kind = "rate_limited"
	KindUpstream    Kind = "upstream_error"
)

// Error is a classified application error. Fields holds field-level
// validation detail and is only populated for KindValidation.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a field-level validation error.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// NotFound reports an absent referenced entity.
//
// Note: distinct not-found vs forbidden messages reveal whether a
// resource exists to callers who lack access. That matches the current
// product behavior; it is an enumeration side channel, not a guarantee.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Forbidden reports a policy denial with a human-readable reason.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Conflict reports duplicate registration, already-a-member, and similar
// uniqueness violations.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// RateLimited reports an exceeded request budget. It is a hard failure,
// not a silent degrade.
func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// Upstream wraps a store/cache/broker failure.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// KindOf extracts the Kind from err, or KindUpstream for unclassified
// errors (anything unexpected is treated as an infrastructure fault).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUpstream
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }
