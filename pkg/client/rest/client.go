// Package rest is the HTTP transport adapter for the portal backend.
//
// A Client owns one configured HTTP client bound to a base URL. Every
// request gets the bearer token from the injected TokenProvider, every
// failure is normalized into a single *APIError, and success envelopes are
// unwrapped into the caller's type by the package-level generic helpers
// (Get, GetList, Post, Put, Patch, Delete).
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/kart-io/campus-portal/pkg/infra/tracing"
	"github.com/kart-io/campus-portal/pkg/utils/httpclient"
)

const tracerName = "github.com/kart-io/campus-portal/pkg/client/rest"

// TokenProvider returns the current session token, if any.
// It is called once per request and must be safe for concurrent use.
type TokenProvider func(ctx context.Context) (string, bool)

// ResponseHook observes every raw round trip before error normalization.
// It must not consume resp.Body.
type ResponseHook func(resp *http.Response, err error)

// Response is a completed round trip with the body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NoContent reports whether the server sent no body.
func (r *Response) NoContent() bool {
	return len(bytes.TrimSpace(r.Body)) == 0
}

type options struct {
	withCredentials bool
	tokens          TokenProvider
	hook            ResponseHook
	log             core.Logger
	timeout         time.Duration
	maxRetries      int
	limit           rate.Limit
	burst           int
	userAgent       string
	transport       http.RoundTripper
	httpClient      *httpclient.Client
}

// Option configures a Client.
type Option func(*options)

// WithCredentials controls whether cookies are kept between requests.
// Defaults to true.
func WithCredentials(enabled bool) Option {
	return func(o *options) {
		o.withCredentials = enabled
	}
}

// WithTokenProvider sets the source of the bearer token.
func WithTokenProvider(p TokenProvider) Option {
	return func(o *options) {
		o.tokens = p
	}
}

// WithResponseHook installs a response observer.
func WithResponseHook(h ResponseHook) Option {
	return func(o *options) {
		o.hook = h
	}
}

// WithLogger sets the logger; the global logger is used otherwise.
func WithLogger(l core.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithTimeout sets the per-request timeout of the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithMaxRetries enables retries in the underlying client. Off by default.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithRateLimit paces outgoing requests.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.limit = limit
		o.burst = burst
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithTransport replaces the round tripper, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithHTTPClient uses a preconfigured client as is. Timeout, retry,
// rate limit, transport and credential options are then ignored.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// Client is the transport adapter. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *httpclient.Client
	tokens    TokenProvider
	hook      ResponseHook
	log       core.Logger
	userAgent string
}

// New creates a Client bound to baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	o := &options{withCredentials: true, userAgent: "campus-portal"}
	for _, opt := range opts {
		opt(o)
	}

	if o.httpClient != nil {
		return &Client{
			baseURL:   u,
			http:      o.httpClient,
			tokens:    o.tokens,
			hook:      o.hook,
			log:       o.log,
			userAgent: o.userAgent,
		}, nil
	}

	hopts := []httpclient.Option{
		httpclient.WithMaxRetries(o.maxRetries),
		httpclient.WithRateLimit(o.limit, o.burst),
	}
	if o.transport != nil {
		hopts = append(hopts, httpclient.WithTransport(o.transport))
	}
	if o.withCredentials {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		hopts = append(hopts, httpclient.WithCookieJar(jar))
	}

	return &Client{
		baseURL:   u,
		http:      httpclient.NewClient(o.timeout, hopts...),
		tokens:    o.tokens,
		hook:      o.hook,
		log:       o.log,
		userAgent: o.userAgent,
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Logger returns the logger used by the client.
func (c *Client) Logger() core.Logger {
	if c.log != nil {
		return c.log
	}
	return logger.Global()
}

// URL resolves path against the base URL. Path segments are expected to be
// escaped already (see PathEscape).
func (c *Client) URL(path string, params Params) string {
	u := c.baseURL.JoinPath(path)
	if q := params.Values(); len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Do performs one round trip. Any failure, transport level or non-2xx,
// comes back as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, params Params, body Body) (resp *Response, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, method+" "+path, trace.SpanKindClient,
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)
	defer func() {
		if resp != nil {
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		}
		if err != nil {
			span.SetAttributes(attribute.Int("http.response.status_code", StatusCode(err)))
			tracing.RecordError(span, err)
		}
		span.End()
	}()

	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		reader, contentType, err = body.Encode()
		if err != nil {
			return nil, handleError(fmt.Errorf("encode request body: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, params), reader)
	if err != nil {
		return nil, handleError(err)
	}
	c.prepare(ctx, req, contentType)

	raw, err := c.http.DoRequest(req)
	if c.hook != nil {
		c.hook(raw, err)
	}
	if err != nil {
		c.Logger().Debugw("request failed", "method", method, "path", path, "error", err)
		return nil, handleError(err)
	}
	defer func() { _ = raw.Body.Close() }()

	data, err := io.ReadAll(raw.Body)
	if err != nil {
		return nil, handleError(fmt.Errorf("read response body: %w", err))
	}

	out := &Response{StatusCode: raw.StatusCode, Header: raw.Header, Body: data}
	if raw.StatusCode < 200 || raw.StatusCode > 299 {
		return nil, handleError(&statusError{resp: out})
	}
	return out, nil
}

// prepare is the request interceptor.
func (c *Client) prepare(ctx context.Context, req *http.Request, contentType string) {
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens == nil {
		return
	}
	if token, ok := c.tokens(ctx); ok && strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// PathEscape escapes a single path segment such as an ID.
func PathEscape(segment string) string {
	return url.PathEscape(segment)
}
