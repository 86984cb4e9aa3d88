// Package gateway is the HTTP client for the remote conversation backend.
// It covers the conversation endpoints the controller depends on plus the
// thin account/roster/risk wrappers the rest of the console uses.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies the bearer credential attached to authorized calls.
// Where the credential comes from is someone else's problem; an empty
// string means the call goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the agent backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithTokenSource sets the credential source for authorized calls.
func WithTokenSource(ts TokenSource) Option {
	return func(client *Client) {
		client.tokens = ts
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reader, contentType, result)
}

// Send delivers one user message on a session and returns the agent's reply.
func (c *Client) Send(ctx context.Context, sessionID, message string) (*Exchange, error) {
	var result Exchange
	if err := c.doJSON(ctx, http.MethodPost, "/chat", chatRequest{Message: message, SessionID: sessionID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches the full persisted transcript for a session.
func (c *Client) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	var result []HistoryEntry
	if err := c.doJSON(ctx, http.MethodGet, "/chat/history/"+url.PathEscape(sessionID), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Upload sends a file to the agent as part of a session's conversation.
func (c *Client) Upload(ctx context.Context, sessionID, filename string, r io.Reader) (*Exchange, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy file contents: %w", err)
	}
	if sessionID != "" {
		if err := mw.WriteField("session_id", sessionID); err != nil {
			return nil, fmt.Errorf("write session field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	var result Exchange
	if err := c.do(ctx, http.MethodPost, "/upload", &buf, mw.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Approve confirms the action staged on a session.
func (c *Client) Approve(ctx context.Context, sessionID string) (*Exchange, error) {
	var result Exchange
	if err := c.doJSON(ctx, http.MethodPost, "/approve", approveRequest{SessionID: sessionID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Reject declines the action staged on a session.
func (c *Client) Reject(ctx context.Context, sessionID, reason string) (*Exchange, error) {
	var result Exchange
	if err := c.doJSON(ctx, http.MethodPost, "/reject", rejectRequest{SessionID: sessionID, Reason: reason}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteHistory removes a session's persisted transcript.
func (c *Client) DeleteHistory(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/chat/history/"+url.PathEscape(sessionID), nil, nil)
}

// Login exchanges credentials for a bearer token. The backend expects the
// OAuth2 password form encoding.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var result TokenResponse
	if err := c.do(ctx, http.MethodPost, "/token", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/register", registerRequest{Username: username, Password: password}, nil)
}

// Employees lists the team roster.
func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	var result []Employee
	if err := c.doJSON(ctx, http.MethodGet, "/employees", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// AddEmployee adds one roster entry.
func (c *Client) AddEmployee(ctx context.Context, emp Employee) error {
	return c.doJSON(ctx, http.MethodPost, "/employees", emp, nil)
}

// Risks fetches the current project risk summaries.
func (c *Client) Risks(ctx context.Context) ([]string, error) {
	var result risksResponse
	if err := c.doJSON(ctx, http.MethodGet, "/risks", nil, &result); err != nil {
		return nil, err
	}
	return result.Risks, nil
}
