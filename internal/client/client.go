// Package client is a Go client for the pwagen v2 REST API.
package client

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

	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/pwa"
)

// ErrNotFound matches an APIError with status 404.
var ErrNotFound = errors.NewStd("not found")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pwagen api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("pwagen api: status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to one pwagen server.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

type listResponse struct {
	PWAs  []entities.PWARecord `json:"pwas"`
	Count int                  `json:"count"`
}

type checkResponse struct {
	Warnings []pwa.Warning `json:"warnings"`
}

type bundleRequest struct {
	Config pwa.Config        `json:"config"`
	Worker pwa.WorkerOptions `json:"worker"`
}

// ListPWAs returns the caller's saved apps, newest first.
func (c *Client) ListPWAs(ctx context.Context) ([]entities.PWARecord, error) {
	var out listResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v2/pwas", nil, &out); err != nil {
		return nil, err
	}
	return out.PWAs, nil
}

// GetPWA returns a saved app. A missing app yields an error matching
// ErrNotFound.
func (c *Client) GetPWA(ctx context.Context, id string) (*entities.PWARecord, error) {
	var out entities.PWARecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/v2/pwas/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePWA saves cfg for the authenticated caller.
func (c *Client) CreatePWA(ctx context.Context, cfg pwa.Config) (*entities.PWARecord, error) {
	var out entities.PWARecord
	if err := c.doJSON(ctx, http.MethodPost, "/api/v2/pwas", cfg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePWA applies the non-empty fields of patch to an app the caller owns.
func (c *Client) UpdatePWA(ctx context.Context, id string, patch pwa.Config) (*entities.PWARecord, error) {
	var out entities.PWARecord
	if err := c.doJSON(ctx, http.MethodPatch, "/api/v2/pwas/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePWA removes an app the caller owns and reports whether it existed.
func (c *Client) DeletePWA(ctx context.Context, id string) (bool, error) {
	var out struct {
		Deleted bool `json:"deleted"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/api/v2/pwas/"+url.PathEscape(id), nil, &out); err != nil {
		return false, err
	}
	return out.Deleted, nil
}

// GenerateManifest renders manifest.json on the server.
func (c *Client) GenerateManifest(ctx context.Context, cfg pwa.Config) ([]byte, error) {
	return c.doRaw(ctx, http.MethodPost, "/api/v2/generate/manifest", cfg)
}

// GenerateServiceWorker renders sw.js on the server.
func (c *Client) GenerateServiceWorker(ctx context.Context, opts pwa.WorkerOptions) ([]byte, error) {
	return c.doRaw(ctx, http.MethodPost, "/api/v2/generate/sw", opts)
}

// GenerateBundle renders the zip bundle on the server.
func (c *Client) GenerateBundle(ctx context.Context, cfg pwa.Config, opts pwa.WorkerOptions) ([]byte, error) {
	return c.doRaw(ctx, http.MethodPost, "/api/v2/generate/bundle", bundleRequest{Config: cfg, Worker: opts})
}

// Check returns the server's advisory warnings for cfg.
func (c *Client) Check(ctx context.Context, cfg pwa.Config) ([]pwa.Warning, error) {
	var out checkResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v2/generate/check", cfg, &out); err != nil {
		return nil, err
	}
	return out.Warnings, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	data, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Component("client").
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("path", path).
			Build()
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var payload struct {
		Error     string `json:"error"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
		apiErr.Retryable = payload.Retryable
	}
	return apiErr
}
