// Package database selects the gorm dialect backing the dev backend.
package database

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Options defines which database the dev backend opens.
type Options struct {
	Driver        string        `json:"driver" mapstructure:"driver"`
	SQLite        string        `json:"sqlite" mapstructure:"sqlite"`
	LogLevel      int           `json:"log-level" mapstructure:"log-level"`
	SlowThreshold time.Duration `json:"slow-threshold" mapstructure:"slow-threshold"`
	AutoMigrate   bool          `json:"auto-migrate" mapstructure:"auto-migrate"`
}

// NewOptions returns options for an in-memory sqlite database.
func NewOptions() *Options {
	return &Options{
		Driver:        DriverSQLite,
		SQLite:        "file::memory:?cache=shared",
		LogLevel:      1, // Silent
		SlowThreshold: 200 * time.Millisecond,
		AutoMigrate:   true,
	}
}

// Complete fills empty fields with defaults.
func (o *Options) Complete() error {
	if o.Driver == "" {
		o.Driver = DriverSQLite
	}
	if o.Driver == DriverSQLite && o.SQLite == "" {
		o.SQLite = NewOptions().SQLite
	}
	return nil
}

// Validate checks the driver name and log level.
func (o *Options) Validate() error {
	switch o.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("database: unsupported driver %q (sqlite, mysql, postgres)", o.Driver)
	}
	if o.LogLevel < 1 || o.LogLevel > 4 {
		return fmt.Errorf("database: log-level must be between 1 (silent) and 4 (info)")
	}
	return nil
}

// AddFlags adds flags for database selection to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Driver, "database.driver", o.Driver, "Database driver: sqlite, mysql or postgres")
	fs.StringVar(&o.SQLite, "database.sqlite", o.SQLite, "SQLite DSN (file path or memory URI)")
	fs.IntVar(&o.LogLevel, "database.log-level", o.LogLevel, "GORM log level: 1 silent, 2 error, 3 warn, 4 info")
	fs.DurationVar(&o.SlowThreshold, "database.slow-threshold", o.SlowThreshold, "Queries slower than this are logged as warnings")
	fs.BoolVar(&o.AutoMigrate, "database.auto-migrate", o.AutoMigrate, "Create or update tables on startup")
}
