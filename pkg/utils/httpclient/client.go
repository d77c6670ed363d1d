// Package httpclient provides the outbound HTTP client used by the REST transport.
//
// It wraps http.Client with optional retries on 5xx, client-side rate
// limiting, W3C trace context propagation and an X-Request-ID per request.
// Retries are off unless WithMaxRetries is given.
package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"

	"github.com/kart-io/campus-portal/pkg/utils/id"
)

// HeaderRequestID is the header carrying the per-request ID.
const HeaderRequestID = "X-Request-ID"

// Client is a wrapper around http.Client with additional functionality.
type Client struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	requestID  func() string
}

// Option configures a Client.
type Option func(*Client)

// WithMaxRetries retries requests that fail at transport level or return 5xx.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBackoff sets the base delay between retries; attempt i waits (i+1)*d.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithRateLimit paces outgoing requests. A zero limit disables pacing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithTransport replaces the round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithCookieJar sets the jar used for credentialed requests.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithRequestIDGenerator overrides how X-Request-ID values are made.
// A nil function disables the header.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.requestID = gen
	}
}

// NewClient creates a new HTTP client wrapper. A zero timeout means none.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		backoff:    500 * time.Millisecond,
		requestID:  id.NewRequestID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Jar returns the cookie jar, nil when credentials are not kept.
func (c *Client) Jar() http.CookieJar {
	return c.httpClient.Jar
}

// DoRequest executes an HTTP request.
// A 5xx on the last attempt is returned as a response, not an error, so
// callers can still read the server's error body.
func (c *Client) DoRequest(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	c.injectTraceContext(req)
	if c.requestID != nil && req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, c.requestID())
	}

	if c.maxRetries <= 0 {
		return c.httpClient.Do(req)
	}

	var bodyGetter func() io.ReadCloser
	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		_ = req.Body.Close()
		bodyGetter = func() io.ReadCloser {
			return io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if bodyGetter != nil {
			req.Body = bodyGetter()
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			if resp.StatusCode < 500 || i == c.maxRetries {
				return resp, nil
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server error, status code %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		if i < c.maxRetries {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(i+1) * c.backoff):
			}
		}
	}
	return nil, lastErr
}

// injectTraceContext writes the W3C trace context of req's context into its
// headers. Without an active span the propagator writes nothing.
func (c *Client) injectTraceContext(req *http.Request) {
	if req == nil || req.Context() == nil {
		return
	}

	propagator := otel.GetTextMapPropagator()
	if propagator == nil {
		return
	}
	propagator.Inject(req.Context(), propagation.HeaderCarrier(req.Header))
}
