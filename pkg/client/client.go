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
	"time"
)

// Client talks to a docset server.
type Client struct {
	baseURL string
	http    *http.Client
	apiKey  string
	obs     *observer
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("docset client: invalid base url %q", baseURL)
	}

	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		apiKey:  cfg.apiKey,
		obs:     obs,
	}, nil
}

// ModelInfo describes a model served by the server.
type ModelInfo struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// Models lists the served models.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	var resp struct {
		Items []ModelInfo `json:"items"`
	}
	if err := c.do(ctx, "models.list", http.MethodGet, "/v1/models", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// HealthStatus represents the aggregated server health.
type HealthStatus struct {
	Status    string            `json:"status"` // "ok", "degraded", "error"
	Checks    map[string]string `json:"checks"`
	Documents map[string]int    `json:"documents,omitempty"` // indexed documents per model
}

// Health returns the server health. An unhealthy server still yields its
// report, together with an *APIError carrying status 503.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	err := c.do(ctx, "health", http.MethodGet, "/health", nil, &hs)
	return hs, err
}

// Model starts a query on the named model.
func (c *Client) Model(name string) *Query {
	return &Query{client: c, model: name}
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("docset client: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("docset client: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("docset client: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("docset client: read response: %w", err)
	}

	var apiErr error
	if resp.StatusCode >= http.StatusBadRequest {
		e := &APIError{StatusCode: resp.StatusCode}
		if jerr := json.Unmarshal(data, e); jerr != nil || e.Code == "" {
			e.Message = strings.TrimSpace(string(data))
		}
		apiErr = e
		if e.Code != "" || out == nil {
			return apiErr
		}
	}

	if out != nil {
		if jerr := json.Unmarshal(data, out); jerr != nil {
			return errors.Join(apiErr, fmt.Errorf("docset client: decode response: %w", jerr))
		}
	}
	return apiErr
}
