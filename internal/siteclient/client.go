// Package siteclient talks to a running campi site the way a browser does:
// it keeps cookies in a jar, performs the double-submit CSRF handshake and
// reports sign-out to listeners so UI state can react.
package siteclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
)

const (
	csrfCookieName    = "campi_csrf"
	csrfHeaderName    = "X-Csrf-Token"
	csrfFormField     = "csrf_token"
	sessionCookieName = "session_id"

	maxBodyBytes = 1 << 20
)

// ErrInvalidCredentials is returned by SignIn when the site rejects the email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// StatusError reports an unexpected HTTP status from the site.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// RoleInfo is the body of GET /api/auth/role.
type RoleInfo struct {
	Role          domainauth.Role `json:"role"`
	Authenticated bool            `json:"authenticated"`
	Name          string          `json:"name,omitempty"`
}

// Client is a cookie-keeping HTTP client for one site identity.
type Client struct {
	base   *url.URL
	jar    http.CookieJar
	http   *http.Client
	logger *slog.Logger

	mu        sync.Mutex
	nextID    int
	listeners map[int]func()
}

// New builds a Client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("site base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse site base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("site base url must be http or https, got %q", base.Scheme)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base: base,
		jar:  jar,
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: cfg.Transport,
			// Redirects are reported, not followed: a 303 from the site is an answer.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:    logger.With("component", "siteclient"),
		listeners: make(map[int]func()),
	}, nil
}

// UseSession seeds the jar with an existing session id so commands can act
// on behalf of a browser session.
func (c *Client) UseSession(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	c.jar.SetCookies(c.base, []*http.Cookie{{Name: sessionCookieName, Value: id, Path: "/"}})
}

// Session returns the session id currently held in the jar, if any.
func (c *Client) Session() string {
	return c.cookie(sessionCookieName)
}

// SignIn posts the login form and returns the page the site wants to land on.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	token, err := c.csrfToken(ctx)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"email":       {email},
		"password":    {password},
		csrfFormField: {token},
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/Login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var out struct {
		Status     string `json:"status"`
		RedirectTo string `json:"redirect_to"`
	}
	status, err := c.doJSON(req, &out)
	switch {
	case err != nil:
		return "", fmt.Errorf("sign in: %w", err)
	case status == http.StatusUnauthorized || status == http.StatusBadRequest:
		return "", ErrInvalidCredentials
	case status != http.StatusOK:
		return "", &StatusError{Op: "sign in", Status: status}
	}
	c.logger.DebugContext(ctx, "signed in", "redirect_to", out.RedirectTo)
	return out.RedirectTo, nil
}

// SignOut ends the session on the site. Listeners run only after the site
// confirmed the sign-out.
func (c *Client) SignOut(ctx context.Context) error {
	token, err := c.csrfToken(ctx)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/Logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set(csrfHeaderName, token)
	req.Header.Set("Accept", "application/json")

	var out struct {
		Status string `json:"status"`
	}
	status, err := c.doJSON(req, &out)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if status != http.StatusOK || out.Status != "signed_out" {
		return &StatusError{Op: "sign out", Status: status}
	}

	c.notifySignOut()
	return nil
}

// Role asks the site which role the current session has.
func (c *Client) Role(ctx context.Context) (RoleInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/auth/role", nil)
	if err != nil {
		return RoleInfo{}, err
	}
	req.Header.Set("Accept", "application/json")

	var info RoleInfo
	status, err := c.doJSON(req, &info)
	if err != nil {
		return RoleInfo{}, fmt.Errorf("role: %w", err)
	}
	if status != http.StatusOK {
		return RoleInfo{}, &StatusError{Op: "role", Status: status}
	}
	if !info.Role.Valid() {
		return RoleInfo{}, fmt.Errorf("role: unknown role %q", info.Role)
	}
	return info, nil
}

// OnSignOut registers fn to run after every successful SignOut. The returned
// func removes the registration.
func (c *Client) OnSignOut(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) notifySignOut() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// csrfToken returns the double-submit token, fetching the sign-in page first
// when the jar does not hold one yet.
func (c *Client) csrfToken(ctx context.Context) (string, error) {
	if tok := c.cookie(csrfCookieName); tok != "" {
		return tok, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/Login", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	drain(resp.Body)

	tok := c.cookie(csrfCookieName)
	if tok == "" {
		return "", errors.New("fetch csrf token: site did not issue a token")
	}
	return tok, nil
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	return req, nil
}

// doJSON sends req and decodes a JSON body into out when the response carries one.
func (c *Client) doJSON(req *http.Request, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return resp.StatusCode, fmt.Errorf("expected JSON, got %q", resp.Header.Get("Content-Type"))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxBodyBytes))
	_ = body.Close()
}
