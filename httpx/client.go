package httpx

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// StatusError is a non-2xx response. Body holds the trimmed response text.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == StatusRequestTimeout || e.Code == StatusTooManyRequests
}

// Client calls a JSON API rooted at a base URL.
type Client struct {
	rc *resty.Client
}

func NewClient(opts ...ClientOption) *Client {
	var cfg clientConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	rc := resty.New().
		SetBaseURL(cfg.baseURL).
		SetHeader("Accept", "application/json").
		SetHeaders(cfg.headers)
	if cfg.timeout > 0 {
		rc.SetTimeout(cfg.timeout)
	}
	if cfg.logger != nil {
		rc.SetLogger(cfg.logger.Sugar())
	}
	return &Client{rc: rc}
}

func (c *Client) BaseURL() string { return c.rc.BaseURL }

type RequestOption func(*resty.Request)

func WithQuery(params map[string]string) RequestOption {
	return func(r *resty.Request) { r.SetQueryParams(params) }
}

// WithRawQuery sends an already-encoded query string as is.
func WithRawQuery(query string) RequestOption {
	return func(r *resty.Request) {
		if query != "" {
			r.SetQueryString(query)
		}
	}
}

// Get decodes a JSON response into result, which may be nil.
func (c *Client) Get(ctx context.Context, path string, result any, opts ...RequestOption) (*resty.Response, error) {
	return c.do(ctx, resty.MethodGet, path, nil, result, opts)
}

// Post sends body as JSON and decodes the response into result.
func (c *Client) Post(ctx context.Context, path string, body, result any, opts ...RequestOption) (*resty.Response, error) {
	return c.do(ctx, resty.MethodPost, path, body, result, opts)
}

// GetRaw returns the undecoded body of GET path?rawQuery.
func (c *Client) GetRaw(ctx context.Context, path, rawQuery string) ([]byte, error) {
	resp, err := c.do(ctx, resty.MethodGet, path, nil, nil, []RequestOption{WithRawQuery(rawQuery)})
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, opts []RequestOption) (*resty.Response, error) {
	req := c.rc.R().SetContext(ctx)
	for _, opt := range opts {
		opt(req)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return resp, err
	}
	if resp.IsError() {
		return resp, &StatusError{Code: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	return resp, nil
}
