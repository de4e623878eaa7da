// Package apperr defines the error kinds the services return and the HTTP
// layer maps onto status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindInsufficientStock
	KindEmptyCart
	KindConflict
)

var kindMeta = map[Kind]struct {
	status int
	code   string
}{
	KindInternal:          {http.StatusInternalServerError, "INTERNAL_ERROR"},
	KindValidation:        {http.StatusBadRequest, "VALIDATION_ERROR"},
	KindNotFound:          {http.StatusNotFound, "NOT_FOUND"},
	KindUnauthorized:      {http.StatusUnauthorized, "UNAUTHORIZED"},
	KindForbidden:         {http.StatusForbidden, "FORBIDDEN"},
	KindInsufficientStock: {http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	KindEmptyCart:         {http.StatusBadRequest, "EMPTY_CART"},
	KindConflict:          {http.StatusConflict, "CONFLICT"},
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int { return kindMeta[k].status }

// Code returns the machine-readable code sent in the error envelope.
func (k Kind) Code() string { return kindMeta[k].code }

func (k Kind) String() string { return k.Code() }

// Error is the error type every service returns for expected failures.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so errors.Is(err, apperr.ErrNotFound) works for any
// not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrEmptyCart         = &Error{Kind: KindEmptyCart}
	ErrConflict          = &Error{Kind: KindConflict}
)

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// ValidationFields builds a validation error carrying per-field messages.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func EmptyCart(format string, args ...any) *Error {
	return newf(KindEmptyCart, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...any) *Error {
	e := newf(KindInternal, format, args...)
	e.Err = err
	return e
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err. Errors outside the taxonomy are Internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
