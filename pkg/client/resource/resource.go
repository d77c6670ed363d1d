// Package resource provides a generic CRUD client for one REST resource
// path, built on the rest transport.
//
// List responses arrive in several envelope dialects; List accepts all of
// them and degrades to an empty page instead of failing. Single-item
// operations are strict and return rest.ErrMalformedPayload when the
// envelope holds no item.
package resource

import (
	"context"
	"net/http"
	"strings"

	"github.com/kart-io/campus-portal/pkg/client/rest"
	"github.com/kart-io/campus-portal/pkg/utils/json"
	"github.com/kart-io/campus-portal/pkg/utils/response"
)

const (
	msgDeleted            = "Deleted successfully"
	msgPermanentlyDeleted = "Permanently deleted successfully"
)

// List is one page of resources.
type List[T any] struct {
	Data       []T                  `json:"data"`
	Pagination *response.Pagination `json:"pagination,omitempty"`
}

// Message is the result of a delete.
type Message struct {
	Message string `json:"message"`
}

type options struct {
	key      string
	restOpts []rest.Option
}

// Option configures a resource client.
type Option func(*options)

// WithResourceKey names the list field used by keyed envelopes such as
// {"data":{"students":[...]}}. Defaults to the last path segment.
func WithResourceKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithRESTOptions passes transport options through Dial.
func WithRESTOptions(opts ...rest.Option) Option {
	return func(o *options) {
		o.restOpts = append(o.restOpts, opts...)
	}
}

// Client performs CRUD calls against a single resource path.
type Client[T any] struct {
	transport *rest.Client
	path      string
	key       string
}

// New binds a resource client to an existing transport.
func New[T any](transport *rest.Client, path string, opts ...Option) *Client[T] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	path = "/" + strings.Trim(path, "/")
	key := o.key
	if key == "" {
		key = defaultKey(path)
	}
	return &Client[T]{transport: transport, path: path, key: key}
}

// Dial creates a dedicated transport for baseURL and binds a resource client
// to it.
func Dial[T any](baseURL, path string, withCredentials bool, opts ...Option) (*Client[T], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	transport, err := rest.New(baseURL, append([]rest.Option{rest.WithCredentials(withCredentials)}, o.restOpts...)...)
	if err != nil {
		return nil, err
	}
	return New[T](transport, path, opts...), nil
}

func defaultKey(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Path returns the collection path.
func (c *Client[T]) Path() string { return c.path }

// Key returns the resource key used for keyed list envelopes.
func (c *Client[T]) Key() string { return c.key }

// Transport returns the underlying transport.
func (c *Client[T]) Transport() *rest.Client { return c.transport }

func (c *Client[T]) itemPath(id string, suffix ...string) string {
	p := c.path + "/" + rest.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// List fetches one page. Params are forwarded verbatim.
func (c *Client[T]) List(ctx context.Context, params rest.Params) (*List[T], error) {
	payload, err := rest.GetRaw(ctx, c.transport, c.path, params)
	if err != nil {
		return nil, err
	}
	items, err := c.decodeList(payload)
	if err != nil {
		return nil, err
	}
	return &List[T]{Data: items, Pagination: c.pagination(payload)}, nil
}

// ListDeleted fetches soft-deleted items.
func (c *Client[T]) ListDeleted(ctx context.Context) ([]T, error) {
	payload, err := rest.GetRaw(ctx, c.transport, c.path+"/deleted", nil)
	if err != nil {
		return nil, err
	}
	return c.decodeList(payload)
}

// decodeList resolves the list shape. Precedence: the payload itself is an
// array, then payload.data, then payload[key]. Anything else is empty.
func (c *Client[T]) decodeList(payload json.RawMessage) ([]T, error) {
	var items []json.RawMessage
	switch {
	case rest.IsArray(payload):
		items, _ = rest.Elements(payload)
	default:
		if data, ok := rest.Field(payload, "data"); ok && rest.IsArray(data) {
			items, _ = rest.Elements(data)
		} else if keyed, ok := rest.Field(payload, c.key); ok && rest.IsArray(keyed) {
			items, _ = rest.Elements(keyed)
		} else {
			c.transport.Logger().Warnw("unexpected response structure", "path", c.path, "key", c.key)
			return []T{}, nil
		}
	}
	return rest.DecodeElements[T](c.transport, items)
}

func (c *Client[T]) pagination(payload json.RawMessage) *response.Pagination {
	raw, ok := rest.Field(payload, "pagination")
	if !ok {
		return nil
	}
	var p response.Pagination
	if err := json.Unmarshal(raw, &p); err != nil {
		c.transport.Logger().Warnw("ignoring unreadable pagination", "path", c.path, "error", err)
		return nil
	}
	if p == (response.Pagination{}) {
		return nil
	}
	return &p
}

// Get fetches one item by ID.
func (c *Client[T]) Get(ctx context.Context, id string) (T, error) {
	return rest.Get[T](ctx, c.transport, c.itemPath(id), nil)
}

// Create posts body. A rest.Body is sent as is, anything else as JSON.
func (c *Client[T]) Create(ctx context.Context, body interface{}) (T, error) {
	return rest.Post[T](ctx, c.transport, c.path, rest.BodyOf(body))
}

// Update patches the item with the given fields.
func (c *Client[T]) Update(ctx context.Context, id string, body interface{}) (T, error) {
	return rest.Patch[T](ctx, c.transport, c.itemPath(id), rest.BodyOf(body))
}

// Delete soft-deletes an item.
func (c *Client[T]) Delete(ctx context.Context, id string) (*Message, error) {
	return c.deleteAt(ctx, c.itemPath(id), msgDeleted)
}

// DeletePermanently removes an item for good.
func (c *Client[T]) DeletePermanently(ctx context.Context, id string) (*Message, error) {
	return c.deleteAt(ctx, c.itemPath(id, "permanently"), msgPermanentlyDeleted)
}

// Restore brings back a soft-deleted item.
func (c *Client[T]) Restore(ctx context.Context, id string) (T, error) {
	return rest.Post[T](ctx, c.transport, c.itemPath(id, "restore"), nil)
}

func (c *Client[T]) deleteAt(ctx context.Context, path, fallback string) (*Message, error) {
	resp, err := c.transport.Do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return MessageOf(resp, fallback), nil
}

// MessageOf reads "message" from the unwrapped payload, then from the raw
// body, and falls back to fallback for empty or message-less responses.
func MessageOf(resp *rest.Response, fallback string) *Message {
	if resp == nil || resp.NoContent() {
		return &Message{Message: fallback}
	}
	if msg := messageField(rest.Payload(resp.Body)); msg != "" {
		return &Message{Message: msg}
	}
	if msg := messageField(resp.Body); msg != "" {
		return &Message{Message: msg}
	}
	return &Message{Message: fallback}
}

func messageField(raw []byte) string {
	v, ok := rest.Field(raw, "message")
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}
