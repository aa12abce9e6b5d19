// Package realworld provides a session-holding client for the RealWorld (Conduit) API.
//
// A Client owns at most one authentication token. Each test scenario creates its
// own Client, so independent sessions can run side by side. Calls are single-shot:
// any status outside an endpoint's documented success codes is returned as an
// *APIError and is never retried here.
package realworld

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/realworld-e2e/internal/models"
	"github.com/ternarybob/realworld-e2e/internal/report"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 20
)

// authPolicy selects how a request is authorised
type authPolicy int

const (
	// authRequired fails locally with ErrNotAuthenticated when there is no token
	authRequired authPolicy = iota
	// authOptional attaches the token when present; used where viewer identity
	// changes the response (favorited / following flags)
	authOptional
	// anonymous never sends a token
	anonymous
)

// Session is the client's authentication state
type Session struct {
	Token string
	User  *models.User
}

// Client is a RealWorld API client.
type Client struct {
	baseURL    string
	username   string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	recorder   *report.Recorder
	session    Session
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithUsername sets the username used when Authenticate falls back to registration.
func WithUsername(username string) ClientOption {
	return func(c *Client) {
		c.username = username
	}
}

// WithRecorder attaches every request/response exchange to the recorder.
func WithRecorder(recorder *report.Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// WithToken starts the client with an existing token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.session.Token = token
	}
}

// NewClient creates a new RealWorld API client rooted at baseURL (e.g. http://host/api).
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns a copy of the current authentication state
func (c *Client) Session() Session {
	return c.session
}

// Authenticated reports whether the client holds a token
func (c *Client) Authenticated() bool {
	return c.session.Token != ""
}

// Logout drops the session token
func (c *Client) Logout() {
	c.session = Session{}
}

func (c *Client) setSession(user *models.User) {
	c.session = Session{Token: user.Token, User: user}
}

// call describes one request/response round trip
type call struct {
	method string
	path   string
	query  url.Values
	auth   authPolicy
	body   interface{}
	expect []int
	out    interface{}
}

// do performs the call and decodes the response into call.out.
// It returns the HTTP status code of the response.
func (c *Client) do(ctx context.Context, cl call) (int, error) {
	endpoint := cl.method + " " + cl.path

	// Authorisation is decided before any network activity
	token := ""
	switch cl.auth {
	case authRequired:
		if c.session.Token == "" {
			return 0, fmt.Errorf("%s: %w", endpoint, ErrNotAuthenticated)
		}
		token = c.session.Token
	case authOptional:
		token = c.session.Token
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL := c.baseURL + cl.path
	if len(cl.query) > 0 {
		reqURL = reqURL + "?" + cl.query.Encode()
	}

	var reqBody []byte
	var bodyReader io.Reader
	if cl.body != nil {
		var err error
		reqBody, err = json.Marshal(cl.body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, reqURL, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", cl.method).
			Str("url", reqURL).
			Bool("authenticated", token != "").
			Msg("RealWorld API request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", cl.method).
			Str("url", reqURL).
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Msg("RealWorld API response")
	}
	c.recordExchange(endpoint, reqBody, resp.StatusCode, respBody)

	if !expected(resp.StatusCode, cl.expect) {
		return resp.StatusCode, &APIError{
			Method:     cl.method,
			Endpoint:   cl.path,
			StatusCode: resp.StatusCode,
			Expected:   cl.expect,
			Body:       string(respBody),
		}
	}

	if cl.out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, cl.out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
		}
	}

	return resp.StatusCode, nil
}

func (c *Client) recordExchange(endpoint string, reqBody []byte, status int, respBody []byte) {
	if c.recorder == nil {
		return
	}
	if len(reqBody) > 0 {
		c.recorder.AttachJSON("Request "+endpoint, reqBody)
	}
	c.recorder.AttachText(fmt.Sprintf("Response %s (%d)", endpoint, status), string(respBody))
}

func expected(status int, codes []int) bool {
	for _, code := range codes {
		if status == code {
			return true
		}
	}
	return false
}

// pathEscape escapes one path segment (slugs, usernames)
func pathEscape(segment string) string {
	return url.PathEscape(segment)
}
