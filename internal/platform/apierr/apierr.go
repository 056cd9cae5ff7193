package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/octal-backend/internal/platform/errs"
)

type Error struct {
	Status int
	Code   string
	// Field names the input the message belongs to, for form redisplay.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// OnField attaches err to a named input field.
func OnField(status int, code, field string, err error) *Error {
	return &Error{Status: status, Code: code, Field: field, Err: err}
}

func NotFound(code string, err error) *Error {
	if err == nil {
		err = errs.ErrNotFound
	}
	return New(http.StatusNotFound, code, err)
}

func BadRequest(code string, err error) *Error {
	if err == nil {
		err = errs.ErrInvalidArgument
	}
	return New(http.StatusBadRequest, code, err)
}

// Resolve maps any error onto an *Error, falling back to the sentinel
// classification and finally to 500.
func Resolve(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Status == 0 {
			ae.Status = http.StatusInternalServerError
		}
		return ae
	}
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, errs.ErrUnauthorized):
		return New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, errs.ErrForbidden):
		return New(http.StatusForbidden, "forbidden", err)
	case errors.Is(err, errs.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, errs.ErrConflict):
		return New(http.StatusConflict, "conflict", err)
	}
	return New(http.StatusInternalServerError, "internal_error", err)
}
