// Package biz holds the dev backend's business rules: generic resource
// records with their desk workflows, and account authentication.
package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/campus-portal/internal/devserver/model"
	"github.com/kart-io/campus-portal/internal/devserver/store"
	"github.com/kart-io/campus-portal/pkg/utils/errors"
	"github.com/kart-io/campus-portal/pkg/utils/id"
	"github.com/kart-io/campus-portal/pkg/utils/json"
	"github.com/kart-io/campus-portal/pkg/validator"
)

// Item is a record as the API sees it: the payload plus id and timestamps.
type Item = map[string]interface{}

// Fields maintained by the server; clients cannot set them.
var serverFields = []string{"id", "createdBy", "createdAt", "updatedAt", "deletedAt"}

// ListQuery selects one page of a resource.
type ListQuery struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
	// Owner keeps items created by this user.
	Owner string
}

// RecordService implements CRUD over every resource path.
type RecordService struct {
	store store.Factory
	now   func() time.Time
}

// NewRecordService creates a RecordService.
func NewRecordService(s store.Factory) *RecordService {
	return &RecordService{store: s, now: time.Now}
}

// List returns the items matching q and the total before paging. A
// non-positive limit returns every match.
func (s *RecordService) List(ctx context.Context, resource string, q ListQuery) ([]Item, int64, error) {
	recs, err := s.store.Records().List(ctx, resource, store.RecordFilter{Search: q.Search, Owner: q.Owner})
	if err != nil {
		return nil, 0, errors.ErrDatabase.WithCause(err)
	}
	items, err := toItems(recs)
	if err != nil {
		return nil, 0, err
	}
	items = filter(items, q.Filters)

	total := int64(len(items))
	if q.Limit <= 0 {
		return items, total, nil
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * q.Limit
	if start >= len(items) {
		return []Item{}, total, nil
	}
	end := start + q.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}

// ListDeleted returns the soft-deleted items of resource.
func (s *RecordService) ListDeleted(ctx context.Context, resource string) ([]Item, error) {
	recs, err := s.store.Records().ListDeleted(ctx, resource)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return toItems(recs)
}

// Get returns one live item.
func (s *RecordService) Get(ctx context.Context, resource, itemID string) (Item, error) {
	rec, err := s.store.Records().Get(ctx, resource, itemID)
	if err != nil {
		return nil, notFound(resource, err)
	}
	return toItem(rec)
}

// Create stores body as a new item with no owner.
func (s *RecordService) Create(ctx context.Context, resource string, body Item) (Item, error) {
	return s.CreateFor(ctx, resource, body, "")
}

// CreateFor stores body as a new item owned by owner.
func (s *RecordService) CreateFor(ctx context.Context, resource string, body Item, owner string) (Item, error) {
	body = stripServerFields(body)
	if len(body) == 0 {
		return nil, validator.NewValidationError("", "required", "request body must be a non-empty object")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.ErrBadRequest.WithCause(err)
	}

	rec := &model.Record{ID: id.NewULID(), Resource: resource, Payload: string(payload), CreatedBy: owner}
	if err := s.store.Records().Create(ctx, rec); err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return toItem(rec)
}

// Update merges patch into the item's top-level fields. A null value
// removes the field.
func (s *RecordService) Update(ctx context.Context, resource, itemID string, patch Item) (Item, error) {
	patch = stripServerFields(patch)
	if len(patch) == 0 {
		return nil, validator.NewValidationError("", "required", "request body must be a non-empty object")
	}
	return s.mutate(ctx, resource, itemID, func(item Item) error {
		for k, v := range patch {
			if v == nil {
				delete(item, k)
				continue
			}
			item[k] = v
		}
		return nil
	})
}

// Delete soft-deletes an item.
func (s *RecordService) Delete(ctx context.Context, resource, itemID string) (string, error) {
	if err := s.store.Records().Delete(ctx, resource, itemID); err != nil {
		return "", notFound(resource, err)
	}
	return label(resource) + " deleted successfully", nil
}

// Restore brings back a soft-deleted item.
func (s *RecordService) Restore(ctx context.Context, resource, itemID string) (Item, error) {
	rec, err := s.store.Records().Restore(ctx, resource, itemID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			if _, getErr := s.store.Records().Get(ctx, resource, itemID); getErr == nil {
				return nil, errors.ErrNotDeleted
			}
		}
		return nil, notFound(resource, err)
	}
	return toItem(rec)
}

// Purge removes an item for good.
func (s *RecordService) Purge(ctx context.Context, resource, itemID string) (string, error) {
	if err := s.store.Records().Purge(ctx, resource, itemID); err != nil {
		return "", notFound(resource, err)
	}
	return label(resource) + " permanently deleted", nil
}

func (s *RecordService) mutate(ctx context.Context, resource, itemID string, fn func(Item) error) (Item, error) {
	rec, err := s.store.Records().Get(ctx, resource, itemID)
	if err != nil {
		return nil, notFound(resource, err)
	}
	var item Item
	if err := json.Unmarshal([]byte(rec.Payload), &item); err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	if item == nil {
		item = Item{}
	}
	if err := fn(item); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	rec.Payload = string(payload)
	if err := s.store.Records().Update(ctx, rec); err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return toItem(rec)
}

func toItems(recs []*model.Record) ([]Item, error) {
	out := make([]Item, 0, len(recs))
	for _, rec := range recs {
		item, err := toItem(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func toItem(rec *model.Record) (Item, error) {
	var item Item
	if err := json.Unmarshal([]byte(rec.Payload), &item); err != nil {
		return nil, errors.ErrInternal.WithCause(fmt.Errorf("record %s: %w", rec.ID, err))
	}
	if item == nil {
		item = Item{}
	}
	item["id"] = rec.ID
	if rec.CreatedBy != "" {
		item["createdBy"] = rec.CreatedBy
	}
	item["createdAt"] = rec.CreatedAt.UTC().Format(time.RFC3339)
	item["updatedAt"] = rec.UpdatedAt.UTC().Format(time.RFC3339)
	if rec.DeletedAt.Valid {
		item["deletedAt"] = rec.DeletedAt.Time.UTC().Format(time.RFC3339)
	}
	return item, nil
}

// filter keeps items whose fields equal every filter value. Values are
// compared in their text form so "3" matches the number 3.
func filter(items []Item, filters map[string]string) []Item {
	if len(filters) == 0 {
		return items
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := items[:0]
	for _, item := range items {
		match := true
		for _, k := range keys {
			if textOf(item[k]) != filters[k] {
				match = false
				break
			}
		}
		if match {
			out = append(out, item)
		}
	}
	return out
}

func textOf(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func stripServerFields(body Item) Item {
	for _, f := range serverFields {
		delete(body, f)
	}
	return body
}

func notFound(resource string, err error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrNotFound.WithMessage(label(resource) + " not found")
	}
	return errors.ErrDatabase.WithCause(err)
}

// label turns "/library/book-copies" into "Book copy".
func label(resource string) string {
	name := strings.ReplaceAll(path.Base(resource), "-", " ")
	switch {
	case strings.HasSuffix(name, "us"):
	case strings.HasSuffix(name, "ies"):
		name = strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "sses"), strings.HasSuffix(name, "ches"):
		name = strings.TrimSuffix(name, "es")
	case strings.HasSuffix(name, "s"):
		name = strings.TrimSuffix(name, "s")
	}
	if name == "" {
		return "Record"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
