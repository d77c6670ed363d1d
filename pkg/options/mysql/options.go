// Package mysql provides MySQL connection options for the dev backend store.
package mysql

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

// Options defines configuration options for MySQL.
type Options struct {
	Host                  string        `json:"host" mapstructure:"host"`
	Port                  int           `json:"port" mapstructure:"port"`
	Username              string        `json:"username" mapstructure:"username"`
	Password              string        `json:"-" mapstructure:"password"`
	Database              string        `json:"database" mapstructure:"database"`
	MaxIdleConnections    int           `json:"max-idle-connections" mapstructure:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections" mapstructure:"max-open-connections"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time" mapstructure:"max-connection-life-time"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                  "127.0.0.1",
		Port:                  3306,
		Username:              "root",
		Password:              "",
		Database:              "campus_portal",
		MaxIdleConnections:    10,
		MaxOpenConnections:    100,
		MaxConnectionLifeTime: 10 * time.Second,
	}
}

// Complete reads the password from MYSQL_PASSWORD when not configured.
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("MYSQL_PASSWORD")
	}
	return nil
}

// Validate checks if the options are valid.
func (o *Options) Validate() error {
	if o.Host == "" || o.Database == "" {
		return fmt.Errorf("mysql: host and database are required")
	}
	return nil
}

// DSN returns the go-sql-driver DSN.
func (o *Options) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		o.Username, o.Password, o.Host, o.Port, o.Database)
}

// AddFlags adds flags for MySQL options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Host, "mysql.host", o.Host, "MySQL host")
	fs.IntVar(&o.Port, "mysql.port", o.Port, "MySQL port")
	fs.StringVar(&o.Username, "mysql.username", o.Username, "MySQL username")
	fs.StringVar(&o.Password, "mysql.password", o.Password, "MySQL password (prefer MYSQL_PASSWORD)")
	fs.StringVar(&o.Database, "mysql.database", o.Database, "MySQL database")
	fs.IntVar(&o.MaxIdleConnections, "mysql.max-idle-connections", o.MaxIdleConnections, "MySQL max idle connections")
	fs.IntVar(&o.MaxOpenConnections, "mysql.max-open-connections", o.MaxOpenConnections, "MySQL max open connections")
	fs.DurationVar(&o.MaxConnectionLifeTime, "mysql.max-connection-life-time", o.MaxConnectionLifeTime, "MySQL max connection life time")
}
