// Package client is the HTTP transport for the deskhand API. It attaches
// the stored credential to every outbound call, classifies failures into
// the package's typed errors, and notifies the session manager when the
// server rejects the credential.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmcleod/deskhand/credstore"
)

// Client is the API client for the deskhand backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      credstore.Store
	onExpired  func()
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a per-request timeout. There is no default timeout:
// deadlines are a caller policy, supplied here or via the request context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithAuthFailureHandler registers the handler invoked when the server
// rejects the credential (401/403). The session manager registers itself
// here so rejection drives the session to its expired state. Without a
// handler the client falls back to clearing the credential store, so a
// rejected credential is never re-sent either way.
func WithAuthFailureHandler(fn func()) Option {
	return func(c *Client) {
		c.onExpired = fn
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new API client. Requests read the credential store before
// dispatch: when a credential is present it is attached as a bearer
// header, otherwise the call goes out unauthenticated (registration and
// login are deliberately anonymous-accessible).
func New(baseURL string, creds credstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		creds:      creds,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates a new account. Anonymous-accessible.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges an identifier and secret for a credential. The caller
// (normally the session manager) owns storing the returned token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the current credential server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

// ListTasks fetches the caller's full task collection, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var out ListTasksResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// CreateTask creates a task and returns the server's representation,
// carrying the server-assigned id and creation timestamp.
func (c *Client) CreateTask(ctx context.Context, fields TaskFields) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask applies a partial mutation and returns the server's
// authoritative representation.
func (c *Client) UpdateTask(ctx context.Context, id string, fields TaskFields) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPatch, "/api/v1/tasks/"+id, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask deletes a task by server-assigned id.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tasks/"+id, nil, nil)
}

// do dispatches a single request and classifies the outcome. Every
// non-2xx result surfaces as a typed *Error; nothing is swallowed.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred, ok := c.creds.Get(); ok {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(fmt.Sprintf("cannot reach backend at %s", c.baseURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return transportError("invalid response from backend", err)
		}
		return nil
	}

	return c.classify(resp)
}

// classify maps a non-2xx response to the error taxonomy:
// 401/403 is a credential rejection and drives the session to expired,
// any other 4xx carries caller-fixable validation detail, and 5xx is
// reported as a transport-class failure since it says nothing about the
// request or the credential.
func (c *Client) classify(resp *http.Response) error {
	var er ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		er.Error = fmt.Sprintf("backend returned status %d", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.expireSession()
		return authRequiredError(resp.StatusCode, er.Error)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return validationError(resp.StatusCode, er.Error, er.Fields)
	default:
		return &Error{kind: ErrTransport, Status: resp.StatusCode, Message: er.Error}
	}
}

func (c *Client) expireSession() {
	if c.onExpired != nil {
		c.onExpired()
		return
	}
	if err := c.creds.Clear(); err != nil {
		c.logger.Warn("failed to clear rejected credential", "error", err)
	}
}
