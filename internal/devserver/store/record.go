package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/campus-portal/internal/devserver/model"
)

type records struct {
	db *gorm.DB
}

func newRecords(db *gorm.DB) *records {
	return &records{db}
}

func (s *records) scoped(ctx context.Context, resource string) *gorm.DB {
	return s.db.WithContext(ctx).Where("resource = ?", resource)
}

func (s *records) Create(ctx context.Context, r *model.Record) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *records) Update(ctx context.Context, r *model.Record) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *records) Get(ctx context.Context, resource, id string) (*model.Record, error) {
	var r model.Record
	if err := s.scoped(ctx, resource).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns live records in creation order.
func (s *records) List(ctx context.Context, resource string, f RecordFilter) ([]*model.Record, error) {
	q := s.scoped(ctx, resource)
	if f.Search != "" {
		q = q.Where("payload LIKE ?", "%"+f.Search+"%")
	}
	if f.Owner != "" {
		q = q.Where("created_by = ?", f.Owner)
	}
	var out []*model.Record
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *records) ListDeleted(ctx context.Context, resource string) ([]*model.Record, error) {
	var out []*model.Record
	err := s.scoped(ctx, resource).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete soft-deletes a live record.
func (s *records) Delete(ctx context.Context, resource, id string) error {
	res := s.scoped(ctx, resource).Where("id = ?", id).Delete(&model.Record{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Restore clears deleted_at on a soft-deleted record.
func (s *records) Restore(ctx context.Context, resource, id string) (*model.Record, error) {
	var r model.Record
	err := s.scoped(ctx, resource).Unscoped().
		Where("id = ? AND deleted_at IS NOT NULL", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Unscoped().Model(&r).Update("deleted_at", nil).Error; err != nil {
		return nil, err
	}
	r.DeletedAt = gorm.DeletedAt{}
	return &r, nil
}

// Purge removes a record whether or not it was soft-deleted.
func (s *records) Purge(ctx context.Context, resource, id string) error {
	res := s.scoped(ctx, resource).Unscoped().Where("id = ?", id).Delete(&model.Record{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
