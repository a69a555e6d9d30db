package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// roundTripperFunc lets a test stand in for the network.
type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// fakeSession records every interaction the client has with session state.
type fakeSession struct {
	mu      sync.Mutex
	token   string
	cleared bool
	visited []string
}

func (s *fakeSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSession) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *fakeSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.cleared = true
}

func (s *fakeSession) NavigateTo(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = append(s.visited, path)
}

func jsonResp(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(sess *fakeSession, fn roundTripperFunc) *Client {
	c := New("http://api.example.com", sess, zap.NewNop())
	c.SetTransport(fn)
	return c
}

func TestDo_AttachesBearerToken(t *testing.T) {
	sess := &fakeSession{token: "tok-1"}
	var gotAuth string
	c := newTestClient(sess, func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		return jsonResp(http.StatusOK, `[]`), nil
	})

	var out []struct{}
	if err := c.Do(context.Background(), http.MethodGet, ClientsEndpoint, nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q; want %q", gotAuth, "Bearer tok-1")
	}
}

func TestDo_RefreshAndRetryOn401(t *testing.T) {
	// No token, protected GET answers 401, refresh yields tok123, the
	// original GET is replayed with the new token and succeeds.
	sess := &fakeSession{}
	var refreshCalls, resourceCalls int
	var retryAuth string

	c := newTestClient(sess, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/token/refresh/":
			refreshCalls++
			if req.Header.Get("Authorization") != "" {
				t.Errorf("refresh request must not carry Authorization, got %q", req.Header.Get("Authorization"))
			}
			return jsonResp(http.StatusOK, `{"access":"tok123"}`), nil
		case "/clients/":
			resourceCalls++
			if resourceCalls == 1 {
				return jsonResp(http.StatusUnauthorized, `{"detail":"token expired"}`), nil
			}
			retryAuth = req.Header.Get("Authorization")
			return jsonResp(http.StatusOK, `[{"id":1,"company_name":"Acme"}]`), nil
		default:
			t.Fatalf("unexpected path %q", req.URL.Path)
			return nil, nil
		}
	})

	var out []map[string]any
	if err := c.Do(context.Background(), http.MethodGet, ClientsEndpoint, nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshCalls != 1 {
		t.Errorf("refresh calls = %d; want 1", refreshCalls)
	}
	if resourceCalls != 2 {
		t.Errorf("resource calls = %d; want 2", resourceCalls)
	}
	if retryAuth != "Bearer tok123" {
		t.Errorf("retried Authorization = %q; want %q", retryAuth, "Bearer tok123")
	}
	if sess.Token() != "tok123" {
		t.Errorf("session token = %q; want %q", sess.Token(), "tok123")
	}
	if len(out) != 1 {
		t.Errorf("decoded %d entities; want 1", len(out))
	}
}

func TestDo_SecondUnauthorizedIsNotRetried(t *testing.T) {
	sess := &fakeSession{token: "stale"}
	var refreshCalls, resourceCalls int

	c := newTestClient(sess, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/token/refresh/" {
			refreshCalls++
			return jsonResp(http.StatusOK, `{"access":"fresh"}`), nil
		}
		resourceCalls++
		return jsonResp(http.StatusUnauthorized, `{"detail":"still no"}`), nil
	})

	err := c.Do(context.Background(), http.MethodGet, EmployeesEndpoint, nil, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401 api error, got %v", err)
	}
	if refreshCalls != 1 {
		t.Errorf("refresh calls = %d; want exactly 1", refreshCalls)
	}
	if resourceCalls != 2 {
		t.Errorf("resource calls = %d; want 2 (original + one replay)", resourceCalls)
	}
}

func TestDo_RefreshFailureEndsSession(t *testing.T) {
	sess := &fakeSession{token: "stale"}
	c := newTestClient(sess, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/token/refresh/" {
			return jsonResp(http.StatusUnauthorized, `{"detail":"refresh expired"}`), nil
		}
		return jsonResp(http.StatusUnauthorized, `{}`), nil
	})

	err := c.Do(context.Background(), http.MethodGet, InvoicesEndpoint, nil, nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if !sess.cleared {
		t.Error("session was not cleared on unrecoverable refresh failure")
	}
	if len(sess.visited) != 1 || sess.visited[0] != LoginPath {
		t.Errorf("navigations = %v; want [%q]", sess.visited, LoginPath)
	}
}

func TestDo_NetworkErrorSkipsRefresh(t *testing.T) {
	sess := &fakeSession{token: "tok"}
	var refreshCalls int
	c := newTestClient(sess, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/token/refresh/" {
			refreshCalls++
		}
		return nil, errors.New("network down")
	})

	err := c.Do(context.Background(), http.MethodGet, QuotesEndpoint, nil, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindTransport {
		t.Errorf("expected transport error, got %v", err)
	}
	if refreshCalls != 0 {
		t.Errorf("refresh calls = %d; want 0", refreshCalls)
	}
	if sess.cleared {
		t.Error("network error must not clear the session")
	}
}

func TestDo_ValidationErrorsDecodedPerField(t *testing.T) {
	sess := &fakeSession{token: "tok"}
	c := newTestClient(sess, func(req *http.Request) (*http.Response, error) {
		return jsonResp(http.StatusBadRequest, `{"job_title":["too long"],"email":["invalid","required"]}`), nil
	})

	err := c.Do(context.Background(), http.MethodPatch, ItemPath(EmployeesEndpoint, 7), map[string]string{"job_title": "Lead"}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindFields {
		t.Fatalf("kind = %v; want KindFields", apiErr.Kind)
	}
	if got := apiErr.Fields["job_title"]; len(got) != 1 || got[0] != "too long" {
		t.Errorf("job_title errors = %v; want [too long]", got)
	}
	if got := apiErr.Fields["email"]; len(got) != 2 {
		t.Errorf("email errors = %v; want two messages", got)
	}
}

func TestDoPublic_NoAuthAndNoRefresh(t *testing.T) {
	sess := &fakeSession{token: "tok"}
	var refreshCalls int
	c := newTestClient(sess, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/token/refresh/" {
			refreshCalls++
			return jsonResp(http.StatusOK, `{"access":"x"}`), nil
		}
		if req.Header.Get("Authorization") != "" {
			t.Errorf("public request carried Authorization %q", req.Header.Get("Authorization"))
		}
		return jsonResp(http.StatusUnauthorized, `{"detail":"nope"}`), nil
	})

	err := c.DoPublic(context.Background(), http.MethodGet, ClientsEndpoint, nil, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected the raw 401, got %v", err)
	}
	if refreshCalls != 0 {
		t.Errorf("refresh calls = %d; want 0", refreshCalls)
	}
}

func TestLogin_StoresAccessToken(t *testing.T) {
	sess := &fakeSession{}
	c := newTestClient(sess, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/token/" {
			t.Errorf("login path = %q; want /token/", req.URL.Path)
		}
		return jsonResp(http.StatusOK, `{"access":"tok-login"}`), nil
	})

	if err := c.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Token() != "tok-login" {
		t.Errorf("session token = %q; want tok-login", sess.Token())
	}
}

func TestDoForm_RepeatedFieldsAndFiles(t *testing.T) {
	sess := &fakeSession{token: "tok"}
	c := newTestClient(sess, func(req *http.Request) (*http.Response, error) {
		if !strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data") {
			t.Fatalf("Content-Type = %q; want multipart/form-data", req.Header.Get("Content-Type"))
		}
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		if got := req.MultipartForm.Value["employee_ids"]; len(got) != 2 || got[0] != "3" || got[1] != "5" {
			t.Errorf("employee_ids = %v; want [3 5]", got)
		}
		files := req.MultipartForm.File["document"]
		if len(files) != 1 || files[0].Filename != "contrat.pdf" {
			t.Fatalf("document files = %v; want one contrat.pdf", files)
		}
		return jsonResp(http.StatusCreated, `{"id":9}`), nil
	})

	values := url.Values{}
	values.Add("employee_ids", "3")
	values.Add("employee_ids", "5")
	files := []File{{Field: "document", Name: "contrat.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")}}

	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.DoForm(context.Background(), http.MethodPost, ContractsEndpoint, values, files, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ID != 9 {
		t.Errorf("id = %d; want 9", out.ID)
	}
}

func TestItemPath_PreservesTrailingSlashForm(t *testing.T) {
	if got := ItemPath(ClientsEndpoint, 42); got != "/clients/42/" {
		t.Errorf("ItemPath(clients) = %q; want /clients/42/", got)
	}
	if got := ItemPath(InvoicesEndpoint, 42); got != "/invoices/42" {
		t.Errorf("ItemPath(invoices) = %q; want /invoices/42", got)
	}
	if got := ItemPath(AssignmentsEndpoint, 3); got != "/assignments/3" {
		t.Errorf("ItemPath(assignments) = %q; want /assignments/3", got)
	}
}
