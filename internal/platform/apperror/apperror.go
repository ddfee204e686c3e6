package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Kind classifies a failure the way the REST boundary needs to see it.
type Kind int

const (
	Internal Kind = iota
	NotFound
	BadRequest
	AlreadyExists
)

// Error is a typed failure carrying an HTTP-status-like kind and a
// caller-facing message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a plain typed error.
func E(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Errorf builds a typed error with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case BadRequest:
		return http.StatusBadRequest
	case AlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler returns an echo error handler that translates typed
// failures 1:1 into HTTP error responses. Untyped errors and panics
// surface as 500 with a generic message; 5xx causes are logged.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal server error"

		var appErr *Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Kind.Status()
			msg = appErr.Msg
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				msg = m
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			msg = "internal server error"
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, map[string]string{"message": msg})
	}
}
