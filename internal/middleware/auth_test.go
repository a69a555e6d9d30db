package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type verifierFunc func(token string) (string, error)

func (f verifierFunc) Verify(token string) (string, error) { return f(token) }

func TestBearerAuth_MissingHeader(t *testing.T) {
	h := BearerAuth(verifierFunc(func(string) (string, error) {
		t.Fatal("verifier must not be called without a header")
		return "", nil
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clients/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", rec.Code)
	}
}

func TestBearerAuth_InvalidToken(t *testing.T) {
	h := BearerAuth(verifierFunc(func(string) (string, error) {
		return "", errors.New("bad token")
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/clients/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", rec.Code)
	}
}

func TestBearerAuth_PutsLoginInContext(t *testing.T) {
	var gotLogin string
	h := BearerAuth(verifierFunc(func(token string) (string, error) {
		if token != "tok-1" {
			t.Errorf("verifier got %q; want tok-1", token)
		}
		return "admin", nil
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLogin = GetUserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/clients/", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if gotLogin != "admin" {
		t.Errorf("login in context = %q; want admin", gotLogin)
	}
}
