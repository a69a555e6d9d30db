package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TokenSource is the narrow session interface the client depends on. The
// concrete *session.Session satisfies it; tests substitute a fake. It must
// be injected before the first request is issued.
type TokenSource interface {
	Token() string
	SetToken(token string)
	Clear()
	NavigateTo(path string)
}

// LoginPath is where the client is sent when the session cannot be
// recovered.
const LoginPath = "/login?session=expired"

// File is a binary attachment for multipart requests. Content is held in
// memory so the request can be replayed after a token refresh.
type File struct {
	// Field is the form field name.
	Field string
	// Name is the file name reported to the server.
	Name string
	// ContentType is optional; the server sniffs when empty.
	ContentType string
	Content     []byte
}

// Client issues requests against a fixed API origin, attaching the session
// bearer token and transparently recovering once from an expired token.
type Client struct {
	http    *resty.Client
	session TokenSource
	log     *zap.Logger
}

// New constructs a Client for the given base URL. session must be non-nil;
// log may be zap.NewNop() for silent operation. Cookies (the refresh
// credential) are kept in an in-memory jar and sent on every request.
func New(baseURL string, session TokenSource, log *zap.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetCookieJar(jar)

	return &Client{http: httpClient, session: session, log: log}
}

// SetTransport replaces the underlying transport. Used by tests to fake
// the network.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.SetTransport(rt)
}

// Do sends an authenticated JSON request and decodes the response body
// into result when result is non-nil. A 401 answer triggers one token
// refresh followed by one replay of the original request; any further 401
// is surfaced as-is.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	return c.do(ctx, method, path, result, true, func(req *resty.Request) {
		if body != nil {
			req.SetBody(body)
		}
	})
}

// DoPublic sends a request without attaching the bearer token. Cookies
// still ride along; a 401 is returned to the caller untouched.
func (c *Client) DoPublic(ctx context.Context, method, path string, body, result any) error {
	return c.do(ctx, method, path, result, false, func(req *resty.Request) {
		if body != nil {
			req.SetBody(body)
		}
	})
}

// DoForm sends an authenticated multipart/form-data request. Array-valued
// fields are encoded as repeated parts under the same key. Attachments are
// buffered so the request survives the refresh-and-replay path.
func (c *Client) DoForm(
	ctx context.Context,
	method, path string,
	values url.Values,
	files []File,
	result any,
) error {
	return c.do(ctx, method, path, result, true, func(req *resty.Request) {
		fields := make([]*resty.MultipartField, 0, len(values)+len(files))
		for key, vals := range values {
			for _, v := range vals {
				fields = append(fields, &resty.MultipartField{
					Param:  key,
					Reader: strings.NewReader(v),
				})
			}
		}
		for _, f := range files {
			fields = append(fields, &resty.MultipartField{
				Param:       f.Field,
				FileName:    f.Name,
				ContentType: f.ContentType,
				Reader:      bytes.NewReader(f.Content),
			})
		}
		req.SetMultipartFields(fields...)
	})
}

// do runs one logical request. prepare is applied to every attempt so that
// a replayed request carries a fresh body reader.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	result any,
	authed bool,
	prepare func(*resty.Request),
) error {
	send := func(token string) (*resty.Response, error) {
		req := c.http.R().SetContext(ctx)
		prepare(req)
		if token != "" {
			req.SetAuthToken(token)
		}
		return req.Execute(method, path)
	}

	token := ""
	if authed {
		token = c.session.Token()
	}
	resp, err := send(token)
	if err != nil {
		// Network-level failure: no response, so refresh logic does not apply.
		return transportError(err)
	}

	if resp.StatusCode() == http.StatusUnauthorized && authed {
		// One refresh, one replay. The replayed response falls through to
		// ordinary error handling, so a second 401 never refreshes again.
		newToken, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			c.log.Warn("token refresh failed, ending session", zap.Error(refreshErr))
			c.session.Clear()
			c.session.NavigateTo(LoginPath)
			return refreshErr
		}
		resp, err = send(newToken)
		if err != nil {
			return transportError(err)
		}
	}

	if resp.StatusCode() >= 400 {
		return decodeError(resp.StatusCode(), resp.Body())
	}

	c.log.Debug("api request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
	)

	if result != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), result); err != nil {
			return &Error{Kind: KindMessage, Status: resp.StatusCode(),
				Message: fmt.Sprintf("invalid response body: %v", err), cause: err}
		}
	}
	return nil
}

// refresh asks the refresh endpoint for a new access token, authenticating
// with the refresh cookie only. On success the token is published to the
// session before the caller replays its request, so later requests pick it
// up as well.
func (c *Client) refresh(ctx context.Context) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Post(RefreshEndpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("%w: refresh returned %d", ErrSessionExpired, resp.StatusCode())
	}

	var body struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Access == "" {
		return "", fmt.Errorf("%w: no access token in refresh response", ErrSessionExpired)
	}

	c.session.SetToken(body.Access)
	return body.Access, nil
}

// Login authenticates with the token endpoint. The access token is stored
// in the session; the refresh credential arrives as an HttpOnly cookie and
// stays in the jar.
func (c *Client) Login(ctx context.Context, login, password string) error {
	var out struct {
		Access string `json:"access"`
	}
	err := c.DoPublic(ctx, http.MethodPost, TokenEndpoint, map[string]string{
		"login":    login,
		"password": password,
	}, &out)
	if err != nil {
		return err
	}
	if out.Access == "" {
		return &Error{Kind: KindMessage, Status: http.StatusOK, Message: "login response missing access token"}
	}
	c.session.SetToken(out.Access)
	return nil
}

// Logout invalidates the server-side refresh token and clears the session.
// The session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.DoPublic(ctx, http.MethodPost, LogoutEndpoint, nil, nil)
	c.session.Clear()
	return err
}
