// Package errors defines the domain error taxonomy shared by the services
// and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a DomainError. Two DomainErrors with the same Kind
// compare equal under errors.Is.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindOverlap    Kind = "OVERLAP"
	KindNotFound   Kind = "NOT_FOUND"
	KindIntegrity  Kind = "INTEGRITY"
	KindDecryption Kind = "DECRYPTION"
	KindGateway    Kind = "GATEWAY"
	KindConflict   Kind = "CONFLICT"
)

type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports a match on Kind so callers can test against the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, code, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, "BAD_REQUEST", format, args...)
}

func Overlap(format string, args ...interface{}) error {
	return newError(KindOverlap, "SLAB_OVERLAP", format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, "NOT_FOUND", format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newError(KindConflict, "CONFLICT", format, args...)
}

func Integrity(format string, args ...interface{}) error {
	return newError(KindIntegrity, "INTEGRITY_CHECK_FAILED", format, args...)
}

// Decryption wraps the underlying cipher or encoding failure.
func Decryption(err error, format string, args ...interface{}) error {
	e := newError(KindDecryption, "DECRYPTION_FAILED", format, args...)
	e.Err = err
	return e
}

// Gateway wraps a transport or protocol failure talking to the payment gateway.
func Gateway(err error, format string, args ...interface{}) error {
	e := newError(KindGateway, "GATEWAY_ERROR", format, args...)
	e.Err = err
	return e
}

// KindOf returns the Kind of the first DomainError in err's chain, or "".
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// HTTPStatus maps an error to the status the JSON APIs respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDecryption:
		return http.StatusBadRequest
	case KindOverlap, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindIntegrity:
		return http.StatusUnauthorized
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine readable code carried by err, or INTERNAL_ERROR.
func Code(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	return "INTERNAL_ERROR"
}
