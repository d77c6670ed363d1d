// Package jwt provides token signing options for the dev backend.
//
// Configuration Example (YAML):
//
//	jwt:
//	  key: "your-secret-key-min-32-chars-long"
//	  expired: "2h"
//	  issuer: "campus-portal"
package jwt

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

const (
	// DefaultExpired is the default token expiration time.
	DefaultExpired = 2 * time.Hour

	// DefaultIssuer is the default token issuer.
	DefaultIssuer = "campus-portal"

	// MinKeyLength is the minimum HMAC key length.
	MinKeyLength = 32
)

// Options contains JWT configuration. Tokens are signed with HS256.
type Options struct {
	Key     string        `json:"-" mapstructure:"key"`
	Expired time.Duration `json:"expired" mapstructure:"expired"`
	Issuer  string        `json:"issuer" mapstructure:"issuer"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Expired: DefaultExpired,
		Issuer:  DefaultIssuer,
	}
}

// AddFlags adds JWT flags to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Key, "jwt.key", o.Key, "HMAC signing key (prefer JWT_KEY)")
	fs.DurationVar(&o.Expired, "jwt.expired", o.Expired, "Token lifetime")
	fs.StringVar(&o.Issuer, "jwt.issuer", o.Issuer, "Token issuer")
}

// Complete reads the key from JWT_KEY when not configured.
func (o *Options) Complete() error {
	if o.Key == "" {
		o.Key = os.Getenv("JWT_KEY")
	}
	return nil
}

// Validate validates the JWT options.
func (o *Options) Validate() error {
	var errs []error
	if len(o.Key) < MinKeyLength {
		errs = append(errs, fmt.Errorf("jwt.key must be at least %d characters", MinKeyLength))
	}
	if o.Expired <= 0 {
		errs = append(errs, fmt.Errorf("jwt.expired must be positive"))
	}
	return utilerrors.NewAggregate(errs)
}
