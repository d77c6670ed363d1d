package handler

import (
	"fmt"
	"path"
	"strings"

	"github.com/kart-io/campus-portal/internal/devserver/biz"
	"github.com/kart-io/campus-portal/pkg/utils/response"
)

// Kind is the list envelope a resource answers with.
type Kind string

// List envelope kinds.
const (
	// Flat puts the bare array in data and ignores paging.
	Flat Kind = "flat"
	// Nested wraps the page as data.data with data.pagination.
	Nested Kind = "nested"
	// Keyed wraps the page as data.<key> with data.pagination.
	Keyed Kind = "keyed"
)

// Dialect is the list envelope of one resource.
type Dialect struct {
	Kind Kind
	Key  string
}

// Dialects maps resource paths to their list envelope. Unlisted paths are
// Nested.
type Dialects map[string]Dialect

// DefaultDialects mirrors the mix of envelopes the portal backend uses.
func DefaultDialects() Dialects {
	return Dialects{
		"/academic/syllabus":                 {Kind: Keyed, Key: "syllabus"},
		"/library/books":                     {Kind: Keyed, Key: "books"},
		"/library/book-copies":               {Kind: Keyed, Key: "copies"},
		"/enrollment/instructor-assignments": {Kind: Keyed, Key: "assignments"},
		"/user/students":                     {Kind: Keyed, Key: "students"},
		"/library/reservations":              {Kind: Flat},
		"/enrollment/attendance":             {Kind: Flat},
		"/support/tickets":                   {Kind: Flat},
	}
}

// ParseDialects reads overrides of the form "path=kind" or
// "path=keyed:key" on top of the defaults.
func ParseDialects(overrides map[string]string) (Dialects, error) {
	d := DefaultDialects()
	for p, spec := range overrides {
		p = "/" + strings.Trim(p, "/")
		kind, key, _ := strings.Cut(spec, ":")
		switch Kind(kind) {
		case Flat, Nested:
			d[p] = Dialect{Kind: Kind(kind)}
		case Keyed:
			if key == "" {
				key = path.Base(p)
			}
			d[p] = Dialect{Kind: Keyed, Key: key}
		default:
			return nil, fmt.Errorf("dialect for %s: unknown kind %q (flat|nested|keyed)", p, kind)
		}
	}
	return d, nil
}

// Of returns the dialect for resource.
func (d Dialects) Of(resource string) Dialect {
	if dl, ok := d[resource]; ok {
		return dl
	}
	return Dialect{Kind: Nested}
}

// Page builds the list envelope for one page. p is nil for unpaged lists.
func (dl Dialect) Page(items []biz.Item, p *response.Pagination) *response.Response {
	switch dl.Kind {
	case Flat:
		return response.Success(items)
	case Keyed:
		return response.Keyed(dl.Key, items, p)
	default:
		return response.Success(&response.PageData{Data: items, Pagination: p})
	}
}
