package entity

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Callers classify with errors.Is; the message on the wrapping
// error is safe to surface to callers.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("invalid input")
	ErrExternal   = errors.New("external dependency failure")
	ErrInternal   = errors.New("internal error")
)

func NotFoundf(format string, args ...any) error {
	return kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

func Invalidf(format string, args ...any) error {
	return kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func Externalf(format string, args ...any) error {
	return kindError{kind: ErrExternal, msg: fmt.Sprintf(format, args...)}
}

func Internalf(format string, args ...any) error {
	return kindError{kind: ErrInternal, msg: fmt.Sprintf(format, args...)}
}

type kindError struct {
	kind error
	msg  string
}

func (e kindError) Error() string { return e.msg }
func (e kindError) Unwrap() error { return e.kind }

// StatusCode maps an error kind to the status code reported on the bus and
// over HTTP. Unclassified errors are reported as internal.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
