package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/stratacms/internal/app/system/auth"
	"go.uber.org/zap"
)

// Credentials used by NewGate.
const (
	AdminPassword = "test-admin-password-9"
	TokenSecret   = "test-token-secret-0123456789abcdef"
)

// NewGate returns an admin gate configured with AdminPassword/TokenSecret.
func NewGate(t testing.TB) *auth.Gate {
	t.Helper()
	gate, err := auth.NewGate(auth.GateConfig{
		AdminPassword: AdminPassword,
		TokenSecret:   TokenSecret,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("auth.NewGate: %v", err)
	}
	return gate
}

// AdminToken issues a fresh admin token from gate.
func AdminToken(t testing.TB, gate *auth.Gate) string {
	t.Helper()
	tok, err := gate.Authenticate(AdminPassword)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return tok.Value
}

// NewRequest creates an HTTP request for testing. A non-empty body is sent
// as JSON.
func NewRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// WithBearer sets the Authorization header.
func WithBearer(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// Serve runs req through h and returns the recorded response.
func Serve(h http.Handler, req *http.Request) *ResponseRecorder {
	rec := NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	body := r.Body.String()
	if !strings.Contains(body, expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
