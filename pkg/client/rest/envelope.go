package rest

import (
	"bytes"
	"errors"

	"github.com/kart-io/campus-portal/pkg/utils/json"
)

type itemShape int

const (
	itemBare   itemShape = iota // no data field, the body is the item
	itemData                    // body.data
	itemNested                  // body.data.data
)

func (s itemShape) String() string {
	switch s {
	case itemData:
		return "data"
	case itemNested:
		return "data.data"
	default:
		return "bare"
	}
}

type listShape int

const (
	listUnexpected listShape = iota
	listData                 // body.data is the array
	listNested               // body.data.data is the array
)

var (
	errEmptyBody = errors.New("empty body")
	errNullItem  = errors.New("item is null")
)

// kind returns the first significant byte of a JSON value.
func kind(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// field returns obj[name] when raw is a JSON object that has that key.
func field(raw []byte, name string) (json.RawMessage, bool) {
	if kind(raw) != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// extractItem unwraps a single-item success body: body.data, then one more
// data level if present, else the whole body. A null item is an error.
func extractItem(body []byte) (json.RawMessage, itemShape, error) {
	if kind(body) == 0 {
		return nil, itemBare, errEmptyBody
	}
	if !json.Valid(body) {
		return nil, itemBare, errors.New("body is not valid JSON")
	}

	candidate, ok := field(body, "data")
	if !ok {
		if isNull(body) {
			return nil, itemBare, errNullItem
		}
		return json.RawMessage(body), itemBare, nil
	}
	if isNull(candidate) {
		return nil, itemData, errNullItem
	}

	inner, ok := field(candidate, "data")
	if !ok {
		return candidate, itemData, nil
	}
	if isNull(inner) {
		return nil, itemNested, errNullItem
	}
	return inner, itemNested, nil
}

// extractList returns the array elements of a list success body.
// Any other structure yields listUnexpected and no elements.
func extractList(body []byte) ([]json.RawMessage, listShape) {
	data, ok := field(body, "data")
	if !ok {
		return nil, listUnexpected
	}
	if inner, ok := field(data, "data"); ok && kind(inner) == '[' {
		if items, err := elements(inner); err == nil {
			return items, listNested
		}
	}
	if kind(data) == '[' {
		if items, err := elements(data); err == nil {
			return items, listData
		}
	}
	return nil, listUnexpected
}

func elements(raw []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Payload unwraps one envelope level: body.data when present and not null,
// otherwise the body itself. It returns nil for an empty body.
func Payload(body []byte) json.RawMessage {
	if kind(body) == 0 {
		return nil
	}
	if data, ok := field(body, "data"); ok && !isNull(data) {
		return data
	}
	return json.RawMessage(body)
}

// Field reads one key of a JSON object.
func Field(raw []byte, name string) (json.RawMessage, bool) {
	return field(raw, name)
}

// IsArray reports whether raw is a JSON array.
func IsArray(raw []byte) bool {
	return kind(raw) == '['
}

// Elements splits a JSON array.
func Elements(raw []byte) ([]json.RawMessage, error) {
	return elements(raw)
}
