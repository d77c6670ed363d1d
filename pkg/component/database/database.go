// Package database opens the gorm connection used by the dev backend.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	mysqldriver "gorm.io/driver/mysql"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/campus-portal/pkg/component/storage"
	dbopts "github.com/kart-io/campus-portal/pkg/options/database"
	mysqlopts "github.com/kart-io/campus-portal/pkg/options/mysql"
	pgopts "github.com/kart-io/campus-portal/pkg/options/postgres"
)

// Client wraps gorm.DB and implements storage.Client.
type Client struct {
	db     *gorm.DB
	driver string
}

var _ storage.Client = (*Client)(nil)

// Open connects to the database selected by opts.Driver. The mysql and
// postgres options are only read for their driver.
func Open(ctx context.Context, opts *dbopts.Options, my *mysqlopts.Options, pg *pgopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("database options cannot be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database options: %w", err)
	}

	var (
		dialector gorm.Dialector
		pool      poolSettings
	)
	switch opts.Driver {
	case dbopts.DriverMySQL:
		if my == nil {
			return nil, fmt.Errorf("mysql options cannot be nil")
		}
		dialector = mysqldriver.Open(my.DSN())
		pool = poolSettings{my.MaxIdleConnections, my.MaxOpenConnections, my.MaxConnectionLifeTime}
	case dbopts.DriverPostgres:
		if pg == nil {
			return nil, fmt.Errorf("postgres options cannot be nil")
		}
		dialector = postgresdriver.Open(pg.DSN())
		pool = poolSettings{pg.MaxIdleConnections, pg.MaxOpenConnections, pg.MaxConnectionLifeTime}
	default:
		dialector = sqlite.Open(opts.SQLite)
		// A shared in-memory database disappears with its last connection.
		pool = poolSettings{maxIdle: 1, maxOpen: 1}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(gormlogger.LogLevel(opts.LogLevel), opts.SlowThreshold, true),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	pool.apply(sqlDB)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", opts.Driver, err)
	}

	return &Client{db: db, driver: opts.Driver}, nil
}

type poolSettings struct {
	maxIdle  int
	maxOpen  int
	lifetime time.Duration
}

func (p poolSettings) apply(sqlDB *sql.DB) {
	if p.maxIdle > 0 {
		sqlDB.SetMaxIdleConns(p.maxIdle)
	}
	if p.maxOpen > 0 {
		sqlDB.SetMaxOpenConns(p.maxOpen)
	}
	if p.lifetime > 0 {
		sqlDB.SetConnMaxLifetime(p.lifetime)
	}
}

// Name returns the driver name.
func (c *Client) Name() string {
	return c.driver
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the gorm handle.
func (c *Client) DB() *gorm.DB {
	return c.db
}
