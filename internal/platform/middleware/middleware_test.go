package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medbook/bookd/internal/platform/apperror"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rid, _ := c.Get("request_id").(string)
	if rid == "" {
		t.Error("expected a generated request id")
	}
	if rec.Header().Get(requestIDHeader) != rid {
		t.Error("request id not echoed on response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "client-supplied")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rid, _ := c.Get("request_id").(string); rid != "client-supplied" {
		t.Errorf("expected client-supplied id, got %q", rid)
	}
}

func TestRecovery_TurnsPanicIntoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Recovery(logger)(func(c echo.Context) error {
		panic("boom")
	})

	err := h(c)
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	if apperror.KindOf(err) != apperror.Internal {
		t.Errorf("expected Internal error kind, got %v", err)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panic not logged")
	}
}

func TestLogger_LogsRequestLine(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "rid-1")

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Logger(logger)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"rid-1", "/api/v1/doctors", "GET", "bytes_out"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestLogger_ClientErrorLogsAtWarn(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Logger(logger)(func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("4xx response should log at warn: %s", buf.String())
	}
}
