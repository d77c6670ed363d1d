package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/kart-io/campus-portal/pkg/utils/json"
)

// DecodeItem unwraps a single-item response into T.
func DecodeItem[T any](c *Client, resp *Response) (T, error) {
	var zero T
	raw, shape, err := extractItem(resp.Body)
	if err != nil {
		c.Logger().Errorw("failed to extract item from response",
			"status", resp.StatusCode, "shape", shape.String(), "error", err)
		return zero, malformed(resp.StatusCode, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.Logger().Errorw("failed to decode item", "status", resp.StatusCode, "shape", shape.String(), "error", err)
		return zero, malformed(resp.StatusCode, err)
	}
	return v, nil
}

// DecodeList unwraps a list response into []T. An unexpected structure is
// logged and gives an empty slice.
func DecodeList[T any](c *Client, resp *Response) ([]T, error) {
	items, shape := extractList(resp.Body)
	if shape == listUnexpected {
		c.Logger().Warnw("unexpected response structure", "status", resp.StatusCode)
		return []T{}, nil
	}
	return DecodeElements[T](c, items)
}

// DecodeElements decodes raw array elements. Elements that do not decode
// into T are logged and skipped.
func DecodeElements[T any](c *Client, items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			c.Logger().Warnw("skipping undecodable list element", "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Get fetches a single item.
func Get[T any](ctx context.Context, c *Client, path string, params Params) (T, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeItem[T](c, resp)
}

// GetList fetches an array.
func GetList[T any](ctx context.Context, c *Client, path string, params Params) ([]T, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[T](c, resp)
}

// GetRaw fetches path and returns the payload one envelope level down,
// leaving shape decisions to the caller.
func GetRaw(ctx context.Context, c *Client, path string, params Params) (json.RawMessage, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	return Payload(resp.Body), nil
}

// Post sends body and decodes the returned item.
func Post[T any](ctx context.Context, c *Client, path string, body Body) (T, error) {
	return send[T](ctx, c, http.MethodPost, path, body)
}

// Put replaces a resource.
func Put[T any](ctx context.Context, c *Client, path string, body Body) (T, error) {
	return send[T](ctx, c, http.MethodPut, path, body)
}

// Patch partially updates a resource.
func Patch[T any](ctx context.Context, c *Client, path string, body Body) (T, error) {
	return send[T](ctx, c, http.MethodPatch, path, body)
}

// Delete removes a resource. A response without a body, or whose payload is
// null, yields (nil, nil).
func Delete[T any](ctx context.Context, c *Client, path string) (*T, error) {
	resp, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.NoContent() {
		return nil, nil
	}
	if _, _, err := extractItem(resp.Body); errors.Is(err, errNullItem) || errors.Is(err, errEmptyBody) {
		return nil, nil
	}
	v, err := DecodeItem[T](c, resp)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// BodyOf turns a request argument into a Body: nil stays nil, a Body is
// sent as is and anything else is encoded as JSON.
func BodyOf(body interface{}) Body {
	switch b := body.(type) {
	case nil:
		return nil
	case Body:
		return b
	default:
		return JSON(b)
	}
}

func send[T any](ctx context.Context, c *Client, method, path string, body Body) (T, error) {
	resp, err := c.Do(ctx, method, path, nil, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeItem[T](c, resp)
}
