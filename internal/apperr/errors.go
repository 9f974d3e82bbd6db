// Package apperr holds the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Validation wraps ErrValidation with a client-facing message.
func Validation(format string, args ...any) error {
	return &wrapped{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound naming the missing resource.
func NotFound(resource, id string) error {
	if id == "" {
		return &wrapped{kind: ErrNotFound, msg: resource + " not found"}
	}
	return &wrapped{kind: ErrNotFound, msg: fmt.Sprintf("%s %s not found", resource, id)}
}

func Conflict(format string, args ...any) error {
	return &wrapped{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

type wrapped struct {
	kind error
	msg  string
}

func (e *wrapped) Error() string { return e.msg }

func (e *wrapped) Unwrap() error { return e.kind }

// Message returns the text that is safe to show a client. Errors outside the
// taxonomy collapse to a generic message.
func Message(err error) string {
	var w *wrapped
	if errors.As(err, &w) {
		return w.msg
	}
	var pub interface{ Public() string }
	if errors.As(err, &pub) {
		return pub.Public()
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden):
		return err.Error()
	}
	return "internal error"
}
