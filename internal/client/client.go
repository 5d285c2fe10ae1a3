package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"anonymizer/internal/api"
)

// ErrCallFailed is returned, wrapped, for every failed API call.
var ErrCallFailed = errors.New("api call failed")

// Client is the adapter over the anonymizer API base URL.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for baseURL. A missing scheme defaults to http and
// any path on the base URL is kept as a prefix.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("client: base URL is required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base URL: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("client: base URL %q has no host", baseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawPath = ""
	base.RawQuery = ""
	base.Fragment = ""

	c := &Client{
		base: base,
		// No timeout: the caller's context bounds each call.
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Encode posts in to /encode.
func (c *Client) Encode(ctx context.Context, in api.TextIn) (api.TextOut, error) {
	var out api.TextOut
	err := c.do(ctx, http.MethodPost, "/encode", in, &out)
	return out, err
}

// Decode posts in to /decode.
func (c *Client) Decode(ctx context.Context, in api.TextIn) (api.TextOut, error) {
	var out api.TextOut
	err := c.do(ctx, http.MethodPost, "/decode", in, &out)
	return out, err
}

// Health queries /health.
func (c *Client) Health(ctx context.Context) (api.Health, error) {
	var out api.Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = c.base.Path + path
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return callFailed(method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return callFailed(method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return callFailed(method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return callFailed(method, path, statusError(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return callFailed(method, path, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func callFailed(method, path string, cause error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrCallFailed, method, path, cause)
}

func statusError(resp *http.Response) error {
	var payload api.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("status %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}
