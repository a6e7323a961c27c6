// Package apperr defines the typed error returned by the budgeting services.
// Handlers map an Error's Kind to an HTTP status and a stable code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	InvalidInput
	InvalidAmount
	InvalidMonth
	InvalidCategory
	InvalidSource
	AlreadyExists
	InvalidCredentials
	InvalidToken
	Unauthorized
	NotFound
	StorageConstraint
)

var kindInfo = map[Kind]struct {
	code   string
	status int
}{
	Internal:           {"INTERNAL_ERROR", http.StatusInternalServerError},
	InvalidInput:       {"INVALID_INPUT", http.StatusBadRequest},
	InvalidAmount:      {"INVALID_AMOUNT", http.StatusBadRequest},
	InvalidMonth:       {"INVALID_MONTH", http.StatusBadRequest},
	InvalidCategory:    {"INVALID_CATEGORY", http.StatusBadRequest},
	InvalidSource:      {"INVALID_SOURCE", http.StatusBadRequest},
	AlreadyExists:      {"ALREADY_EXISTS", http.StatusConflict},
	InvalidCredentials: {"INVALID_CREDENTIALS", http.StatusUnauthorized},
	InvalidToken:       {"INVALID_TOKEN", http.StatusUnauthorized},
	Unauthorized:       {"FORBIDDEN", http.StatusForbidden},
	NotFound:           {"NOT_FOUND", http.StatusNotFound},
	StorageConstraint:  {"INTERNAL_ERROR", http.StatusInternalServerError},
}

// Code is the stable machine-readable code for k.
func (k Kind) Code() string {
	if info, ok := kindInfo[k]; ok {
		return info.code
	}
	return "INTERNAL_ERROR"
}

// Status is the HTTP status associated with k.
func (k Kind) Status() int {
	if info, ok := kindInfo[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string { return k.Code() }

// FieldIssue points at a single offending request field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldIssue
	// Err is the underlying cause. It is logged, never rendered.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so errors.Is(err, apperr.E(apperr.NotFound, "")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new error of the given kind.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// WithField appends a field issue and returns e.
func (e *Error) WithField(field, msg string) *Error {
	e.Fields = append(e.Fields, FieldIssue{Field: field, Message: msg})
	return e
}

// KindOf reports the Kind carried by err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
