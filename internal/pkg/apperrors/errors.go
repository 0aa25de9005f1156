package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the machine-distinguishable error category carried by AppError
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindPermission        Kind = "permission"
	KindGatewayNetwork    Kind = "gateway_network"
	KindGatewayRejected   Kind = "gateway_rejected"
	KindGatewayUnexpected Kind = "gateway_unexpected"
	KindInternal          Kind = "internal"
)

// AppError is a typed error carrying a stable category and a
// human-readable message. Raw gateway payloads never travel in Message.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with the given kind and message
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Newf creates an AppError with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an AppError wrapping an underlying cause
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal if err carries no AppError
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err, or a generic fallback
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }
func IsConflict(err error) bool   { return IsKind(err, KindConflict) }
func IsPermission(err error) bool { return IsKind(err, KindPermission) }

// IsGatewayNetwork reports a transient transport-level gateway failure,
// eligible for sweep-driven retry
func IsGatewayNetwork(err error) bool { return IsKind(err, KindGatewayNetwork) }

// IsGatewayRejected reports a well-formed rejection from the gateway
func IsGatewayRejected(err error) bool { return IsKind(err, KindGatewayRejected) }
