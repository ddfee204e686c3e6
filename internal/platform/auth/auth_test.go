package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-secret")

func TestIssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	userID := uuid.New()
	token, err := issuer.Issue(userID, []string{"customer"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID string
	var gotRoles []string
	h := Middleware(testSecret, nil)(func(c echo.Context) error {
		gotID = UserIDFromContext(c.Request().Context())
		gotRoles = RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != userID.String() {
		t.Errorf("expected subject %s, got %s", userID, gotID)
	}
	if len(gotRoles) != 1 || gotRoles[0] != "customer" {
		t.Errorf("unexpected roles: %v", gotRoles)
	}
}

func TestMiddleware_RejectsMissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Middleware(testSecret, nil)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMiddleware_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer([]byte("other-secret"), time.Hour)
	token, _ := issuer.Issue(uuid.New(), nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Middleware(testSecret, nil)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for forged token, got %v", err)
	}
}

func TestMiddleware_RejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, -time.Minute)
	token, _ := issuer.Issue(uuid.New(), nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Middleware(testSecret, nil)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestSkipper(t *testing.T) {
	e := echo.New()
	cases := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodGet, "/health", true},
		{http.MethodPost, "/api/v1/authenticate", true},
		{http.MethodGet, "/api/v1/hospitals", true},
		{http.MethodGet, "/api/v1/doctors/abc/free-slots", true},
		{http.MethodPost, "/api/v1/doctors/abc/orders", false},
		{http.MethodGet, "/api/v1/orders/personal", false},
		{http.MethodPut, "/api/v1/time-slots/abc", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if got := Skipper(c); got != tc.want {
			t.Errorf("%s %s: expected %v, got %v", tc.method, tc.path, tc.want, got)
		}
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	issuer := NewTokenIssuer(testSecret, time.Hour)

	call := func(roles []string, required ...string) error {
		token, _ := issuer.Issue(uuid.New(), roles)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		c := e.NewContext(req, httptest.NewRecorder())

		h := Middleware(testSecret, nil)(RequireRole(required...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		}))
		return h(c)
	}

	if err := call([]string{"manager"}, "manager"); err != nil {
		t.Errorf("manager should pass manager gate: %v", err)
	}
	if err := call([]string{"admin"}, "manager"); err != nil {
		t.Errorf("admin should pass any gate: %v", err)
	}
	if err := call([]string{"customer"}, "manager"); err == nil {
		t.Error("customer should not pass manager gate")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Error("hash should not equal plaintext")
	}
	if !CheckPassword(hash, "hunter2") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
