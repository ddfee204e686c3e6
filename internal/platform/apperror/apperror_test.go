package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestKindOf(t *testing.T) {
	if KindOf(E(NotFound, "gone")) != NotFound {
		t.Error("expected NotFound")
	}
	if KindOf(fmt.Errorf("plain")) != Internal {
		t.Error("untyped error should default to Internal")
	}
	wrapped := fmt.Errorf("outer: %w", E(AlreadyExists, "dup"))
	if KindOf(wrapped) != AlreadyExists {
		t.Error("kind should survive wrapping")
	}
}

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		NotFound:      http.StatusNotFound,
		BadRequest:    http.StatusBadRequest,
		AlreadyExists: http.StatusConflict,
		Internal:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.Status(); got != want {
			t.Errorf("kind %d: expected %d, got %d", kind, want, got)
		}
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("no rows")
	err := Wrap(NotFound, "slot not found", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
	if KindOf(err) != NotFound {
		t.Error("expected NotFound kind")
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	handler := HTTPErrorHandler(zerolog.Nop())

	for _, tc := range []struct {
		err    error
		status int
	}{
		{E(BadRequest, "start time cannot equal or follow end time"), http.StatusBadRequest},
		{E(NotFound, "doctor not found"), http.StatusNotFound},
		{E(AlreadyExists, "this pack already exists"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header"), http.StatusUnauthorized},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler(tc.err, c)
		if rec.Code != tc.status {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
	}
}

func TestHTTPErrorHandler_HidesInternalDetail(t *testing.T) {
	e := echo.New()
	handler := HTTPErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(errors.New("pq: password authentication failed"), c)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "internal server error") {
		t.Errorf("expected generic message, got %q", body)
	}
	if strings.Contains(body, "password") {
		t.Error("internal detail leaked to the response body")
	}
}
