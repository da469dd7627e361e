package httpclient

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

	"golang.org/x/time/rate"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Auth    Auth

	// Timeout bounds a single request (default 60s).
	Timeout time.Duration

	// RateLimit is the sustained requests per second (default 5), RateBurst the
	// bucket size (default 1).
	RateLimit float64
	RateBurst int

	UserAgent string
	Headers   map[string]string

	// Transport allows injecting a custom round tripper (tests, proxies).
	Transport http.RoundTripper
}

// Client issues JSON requests against one base URL. It never retries: a
// failed call is returned to the caller as-is.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "gridsync/1.0"
	}
	if cfg.Auth == nil {
		cfg.Auth = NoAuth{}
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
}

// Request is a single call relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON unmarshals the body into target.
func (r *Response) JSON(target any) error {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// HTTPError is a response with status >= 400.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

func (e *HTTPError) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

// Do waits for the rate limiter and performs the request.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	fullURL := strings.TrimSuffix(c.cfg.BaseURL, "/")
	if req.Path != "" {
		fullURL += "/" + strings.TrimPrefix(req.Path, "/")
	}
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	c.cfg.Auth.Apply(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}
	if resp.StatusCode >= 400 {
		return out, &HTTPError{StatusCode: resp.StatusCode, Body: b}
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, query url.Values, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Query: query, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Query: query})
}
