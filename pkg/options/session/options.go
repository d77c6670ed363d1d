// Package session provides options for where the session token is kept.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
)

// Store kinds.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Options selects and configures the token store.
type Options struct {
	Store    string        `json:"store" mapstructure:"store"`
	File     string        `json:"file" mapstructure:"file"`
	RedisKey string        `json:"redis-key" mapstructure:"redis-key"`
	RedisTTL time.Duration `json:"redis-ttl" mapstructure:"redis-ttl"`
}

// NewOptions defaults to a file under the user's config directory.
func NewOptions() *Options {
	return &Options{
		Store:    StoreFile,
		RedisKey: "campus-portal:session",
		RedisTTL: 24 * time.Hour,
	}
}

// AddFlags adds session flags to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Store, "session.store", o.Store, "Token store (file|memory|redis)")
	fs.StringVar(&o.File, "session.file", o.File, "Token file for the file store")
	fs.StringVar(&o.RedisKey, "session.redis-key", o.RedisKey, "Redis key for the redis store")
	fs.DurationVar(&o.RedisTTL, "session.redis-ttl", o.RedisTTL, "Token TTL in redis (0 keeps it)")
}

// Complete resolves the default token file.
func (o *Options) Complete() error {
	if o.Store == StoreFile && o.File == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("session: resolve config dir: %w", err)
		}
		o.File = filepath.Join(dir, "portalctl", "session")
	}
	return nil
}

// Validate checks the store kind.
func (o *Options) Validate() error {
	switch o.Store {
	case StoreFile, StoreMemory, StoreRedis:
		return nil
	default:
		return fmt.Errorf("session: unknown store %q", o.Store)
	}
}
