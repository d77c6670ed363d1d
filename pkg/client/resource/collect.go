package resource

import (
	"context"

	"github.com/kart-io/campus-portal/pkg/client/rest"
)

// DefaultPageSize is used by Collect when params carry no limit.
const DefaultPageSize = 50

// Collect walks pages starting at page 1 until the server reports the last
// page, returns an empty page, or maxPages pages were read. maxPages <= 0
// means no cap. A list without pagination is treated as a single page.
func Collect[T any](ctx context.Context, c *Client[T], params rest.Params, maxPages int) ([]T, error) {
	base := rest.Params{"limit": DefaultPageSize}.Merge(params)

	var out []T
	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		list, err := c.List(ctx, base.Merge(rest.Params{"page": page}))
		if err != nil {
			return out, err
		}
		out = append(out, list.Data...)

		p := list.Pagination
		if p == nil || len(list.Data) == 0 || p.Pages <= page {
			break
		}
	}
	return out, nil
}
