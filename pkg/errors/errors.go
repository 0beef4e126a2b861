package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/limaJavier/examscheduling/pkg/model"
)

// Error is what scheduling endpoints answer with: a stable code, the HTTP status and a message safe to show.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches a code and status to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrNotFound      = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation    = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInvalidInput  = New("INVALID_INPUT", http.StatusBadRequest, "invalid scheduling input")
	ErrUnschedulable = New("UNSCHEDULABLE", http.StatusUnprocessableEntity, "no feasible schedule")
	ErrInternal      = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError keeps an *Error found in the chain; anything else is an internal error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a sentinel so a handler can change its message without touching the shared value.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// FromModelError maps the scheduler's error types: a rejected input is INVALID_INPUT and a search that found no
// schedule is UNSCHEDULABLE, both carrying the scheduler's own message. Other errors go through FromError.
func FromModelError(err error) *Error {
	var loadErr model.LoadError
	var unschedulable model.UnschedulableError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &loadErr):
		return Wrap(err, ErrInvalidInput.Code, ErrInvalidInput.Status, loadErr.Error())
	case errors.As(err, &unschedulable):
		return Wrap(err, ErrUnschedulable.Code, ErrUnschedulable.Status, unschedulable.Error())
	default:
		return FromError(err)
	}
}
