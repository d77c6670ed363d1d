// Package store is the dev backend's gorm data layer.
package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/campus-portal/internal/devserver/model"
)

// Factory hands out the per-table stores.
type Factory interface {
	Records() RecordStore
	Users() UserStore
	AutoMigrate() error
}

// RecordFilter narrows a record listing.
type RecordFilter struct {
	// Search matches anywhere in the payload text.
	Search string
	// Owner keeps records created by this user.
	Owner string
}

// RecordStore stores resource items. Lookups are scoped to one resource
// path; a record under another path is not found.
type RecordStore interface {
	Create(ctx context.Context, r *model.Record) error
	Update(ctx context.Context, r *model.Record) error
	Get(ctx context.Context, resource, id string) (*model.Record, error)
	List(ctx context.Context, resource string, f RecordFilter) ([]*model.Record, error)
	ListDeleted(ctx context.Context, resource string) ([]*model.Record, error)
	Delete(ctx context.Context, resource, id string) error
	Restore(ctx context.Context, resource, id string) (*model.Record, error)
	Purge(ctx context.Context, resource, id string) error
}

// UserStore stores accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Count(ctx context.Context) (int64, error)
}

type datastore struct {
	db *gorm.DB
}

// NewFactory wraps db.
func NewFactory(db *gorm.DB) Factory {
	return &datastore{db: db}
}

func (ds *datastore) Records() RecordStore { return newRecords(ds.db) }

func (ds *datastore) Users() UserStore { return newUsers(ds.db) }

func (ds *datastore) AutoMigrate() error {
	return ds.db.AutoMigrate(model.Tables()...)
}
