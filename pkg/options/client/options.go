// Package client provides options for the portal REST client.
package client

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Options configures how the portal backend is reached.
type Options struct {
	BaseURL         string        `json:"base-url" mapstructure:"base-url"`
	Timeout         time.Duration `json:"timeout" mapstructure:"timeout"`
	WithCredentials bool          `json:"with-credentials" mapstructure:"with-credentials"`
	MaxRetries      int           `json:"max-retries" mapstructure:"max-retries"`
	RateLimit       float64       `json:"rate-limit" mapstructure:"rate-limit"`
	RateBurst       int           `json:"rate-burst" mapstructure:"rate-burst"`
	UserAgent       string        `json:"user-agent" mapstructure:"user-agent"`
	Concurrency     int           `json:"concurrency" mapstructure:"concurrency"`
}

// NewOptions returns defaults: credentials on, no timeout, no retries,
// no rate limit.
func NewOptions() *Options {
	return &Options{
		BaseURL:         "http://localhost:8080/api/v1",
		WithCredentials: true,
		UserAgent:       "portalctl",
		Concurrency:     8,
	}
}

// AddFlags adds client flags to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BaseURL, "client.base-url", o.BaseURL, "Portal API base URL")
	fs.DurationVar(&o.Timeout, "client.timeout", o.Timeout, "Per-request timeout (0 means none)")
	fs.BoolVar(&o.WithCredentials, "client.with-credentials", o.WithCredentials, "Keep cookies between requests")
	fs.IntVar(&o.MaxRetries, "client.max-retries", o.MaxRetries, "Retries on network errors and 5xx (0 disables)")
	fs.Float64Var(&o.RateLimit, "client.rate-limit", o.RateLimit, "Max requests per second (0 means unlimited)")
	fs.IntVar(&o.RateBurst, "client.rate-burst", o.RateBurst, "Rate limiter burst")
	fs.StringVar(&o.UserAgent, "client.user-agent", o.UserAgent, "User-Agent header")
	fs.IntVar(&o.Concurrency, "client.concurrency", o.Concurrency, "Concurrent requests for bulk operations")
}

// Complete fills derived defaults.
func (o *Options) Complete() error {
	if o.RateLimit > 0 && o.RateBurst <= 0 {
		o.RateBurst = 1
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	return nil
}

// Validate reports every invalid field.
func (o *Options) Validate() error {
	var errs []error
	u, err := url.Parse(o.BaseURL)
	switch {
	case o.BaseURL == "":
		errs = append(errs, fmt.Errorf("client: base url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("client: invalid base url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("client: base url must be http or https, got %q", o.BaseURL))
	}
	if o.Timeout < 0 {
		errs = append(errs, fmt.Errorf("client: timeout must not be negative"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("client: max retries must not be negative"))
	}
	if o.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("client: rate limit must not be negative"))
	}
	return utilerrors.NewAggregate(errs)
}
