// Package http is the outgoing HTTP client used for partner price-list
// downloads and notification webhooks. It wraps a shared resty client so
// tests can swap the transport in one place.
//
//	resp, err := http.Get(url).
//	    WithContext(ctx).
//	    Timeout(config.ImportFetchTimeout()).
//	    MaxBytes(config.ImportMaxBytes()).
//	    Send()
//	if err != nil {
//	    return err
//	}
//	if err := resp.Throw(); err != nil {
//	    return err
//	}
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	gohttp "net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// DefaultMaxBytes caps response bodies when MaxBytes is not set.
const DefaultMaxBytes int64 = 8 << 20

// ErrTooLarge is returned when a response body exceeds the configured limit.
var ErrTooLarge = errors.New("http: response body too large")

var defaultTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

// DefaultClient is shared by every outgoing request.
var DefaultClient = resty.NewWithClient(&gohttp.Client{Transport: defaultTransport}).
	SetHeader("User-Agent", "bazaar/1.0")

// SetTransport replaces the round tripper of DefaultClient. Tests use it to
// intercept calls; pair with ResetTransport.
func SetTransport(rt gohttp.RoundTripper) {
	DefaultClient.SetTransport(rt)
}

// ResetTransport restores the production transport.
func ResetTransport() {
	DefaultClient.SetTransport(defaultTransport)
}

// ─── Request ──────────────────────────────────────────────────────────────────

// Request is a fluent request builder.
type Request struct {
	method    string
	url       string
	headers   map[string]string
	body      any
	timeout   time.Duration
	retries   int
	retryWait time.Duration
	maxBytes  int64
	ctx       context.Context
}

func Get(url string) *Request  { return newRequest(gohttp.MethodGet, url) }
func Post(url string) *Request { return newRequest(gohttp.MethodPost, url) }

func newRequest(method, url string) *Request {
	return &Request{
		method:    method,
		url:       url,
		headers:   map[string]string{},
		timeout:   30 * time.Second,
		retries:   1,
		retryWait: 500 * time.Millisecond,
		maxBytes:  DefaultMaxBytes,
		ctx:       context.Background(),
	}
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Body sets the request body. Structs and maps are sent as JSON.
func (r *Request) Body(v any) *Request {
	r.body = v
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Retry sets the total number of attempts and the initial backoff, which
// doubles after every failure.
func (r *Request) Retry(n int, wait time.Duration) *Request {
	if n < 1 {
		n = 1
	}
	r.retries = n
	r.retryWait = wait
	return r
}

// MaxBytes caps the response body; larger bodies fail with ErrTooLarge.
func (r *Request) MaxBytes(n int64) *Request {
	if n > 0 {
		r.maxBytes = n
	}
	return r
}

func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx != nil {
		r.ctx = ctx
	}
	return r
}

// Send executes the request. Transport failures are retried; a response with
// any status is returned as is.
func (r *Request) Send() (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= r.retries; attempt++ {
		resp, err := r.do()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if errors.Is(err, ErrTooLarge) || r.ctx.Err() != nil {
			break
		}
		if attempt < r.retries {
			backoff := time.Duration(float64(r.retryWait) * math.Pow(2, float64(attempt-1)))
			logger.WithCtx(r.ctx).Warn("http: request failed, retrying",
				"url", r.url, "attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-time.After(backoff):
			case <-r.ctx.Done():
				return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, r.ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, lastErr)
}

func (r *Request) do() (*Response, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	req := DefaultClient.R().
		SetContext(ctx).
		SetHeaders(r.headers).
		SetDoNotParseResponse(true)
	if r.body != nil {
		req.SetBody(r.body)
	}

	res, err := req.Execute(r.method, r.url)
	if err != nil {
		return nil, err
	}
	body := res.RawBody()
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > r.maxBytes {
		return nil, ErrTooLarge
	}

	return &Response{
		StatusCode: res.StatusCode(),
		Headers:    res.Header(),
		Raw:        raw,
	}, nil
}

// ─── Response ─────────────────────────────────────────────────────────────────

type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) JSON(dest any) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

func (r *Response) Text() string {
	return string(r.Raw)
}

// Throw returns an error if the status is not 2xx.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("http: unexpected status %d", r.StatusCode)
	}
	return nil
}
