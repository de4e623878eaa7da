// Package http is a small retrying JSON client for outgoing calls
// (payment gateway, Slack webhooks).
//
//	var out struct{ ID string `json:"id"` }
//	resp, err := client.Post(url).Bearer(key).Body(req).Retry(3, 200*time.Millisecond).Send(ctx)
//	if err == nil {
//	    err = resp.Throw()
//	}
//	if err == nil {
//	    err = resp.JSON(&out)
//	}
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/shashiranjanraj/pehnawa/pkg/logger"
)

const maxResponseBytes = 4 << 20

type Options struct {
	Timeout   time.Duration
	Transport gohttp.RoundTripper
	UserAgent string
}

// Client sends requests through one pooled transport.
type Client struct {
	hc        *gohttp.Client
	userAgent string
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Transport == nil {
		opts.Transport = &gohttp.Transport{
			Proxy:               gohttp.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "pehnawa/1.0"
	}
	return &Client{hc: &gohttp.Client{Transport: opts.Transport, Timeout: opts.Timeout}, userAgent: opts.UserAgent}
}

func (c *Client) Get(url string) *Request    { return c.newRequest(gohttp.MethodGet, url) }
func (c *Client) Post(url string) *Request   { return c.newRequest(gohttp.MethodPost, url) }
func (c *Client) Put(url string) *Request    { return c.newRequest(gohttp.MethodPut, url) }
func (c *Client) Delete(url string) *Request { return c.newRequest(gohttp.MethodDelete, url) }

func (c *Client) newRequest(method, url string) *Request {
	return &Request{
		client:  c,
		method:  method,
		url:     url,
		headers: map[string]string{"Accept": "application/json", "User-Agent": c.userAgent},
		retries: 1,
		wait:    200 * time.Millisecond,
	}
}

type Request struct {
	client  *Client
	method  string
	url     string
	headers map[string]string
	body    any
	retries int
	wait    time.Duration
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

func (r *Request) Bearer(token string) *Request {
	if token == "" {
		return r
	}
	return r.Header("Authorization", "Bearer "+token)
}

// Body sets the payload. Strings and byte slices are sent as is, anything
// else is encoded as JSON.
func (r *Request) Body(v any) *Request {
	r.body = v
	return r
}

// Retry sets the total number of attempts and the first backoff, which
// doubles after each failure. Transport errors and 5xx answers are retried.
func (r *Request) Retry(attempts int, wait time.Duration) *Request {
	if attempts < 1 {
		attempts = 1
	}
	r.retries = attempts
	r.wait = wait
	return r
}

func (r *Request) Send(ctx context.Context) (*Response, error) {
	payload, contentType, err := r.encode()
	if err != nil {
		return nil, err
	}

	wait := r.wait
	var lastErr error
	for attempt := 1; attempt <= r.retries; attempt++ {
		resp, err := r.do(ctx, payload, contentType)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("http: %s %s: status %d", r.method, r.url, resp.StatusCode)
			if attempt == r.retries {
				return resp, nil
			}
		default:
			return resp, nil
		}

		if attempt < r.retries {
			logger.WithCtx(ctx).Warn("http: retrying", "url", r.url, "attempt", attempt, "error", lastErr)
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
			wait *= 2
		}
	}
	return nil, fmt.Errorf("http: %d attempts failed for %s %s: %w", r.retries, r.method, r.url, lastErr)
}

func (r *Request) encode() ([]byte, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(v), "text/plain; charset=utf-8", nil
	case []byte:
		return v, "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: encode body: %w", err)
		}
		return b, "application/json", nil
	}
}

func (r *Request) do(ctx context.Context, payload []byte, contentType string) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	res, err := r.client.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}
	return &Response{StatusCode: res.StatusCode, Headers: res.Header, Raw: raw}, nil
}

type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

func (r *Response) JSON(dest any) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Throw turns a non-2xx answer into an error.
func (r *Response) Throw() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("http: status %d: %s", r.StatusCode, r.Raw)
}
