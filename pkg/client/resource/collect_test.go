package resource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-portal/pkg/client/rest"
)

func pagedServer(t *testing.T, pages int, seen *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = append(*seen, r.URL.RawQuery)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		fmt.Fprintf(w, `{"data":{"data":[{"id":"p%d"}],"pagination":{"page":%d,"limit":1,"total":%d,"pages":%d}}}`,
			page, page, pages, pages)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCollect(t *testing.T) {
	var seen []string
	srv := pagedServer(t, 3, &seen)
	c, err := Dial[student](srv.URL, "/enrollment/grades", true)
	require.NoError(t, err)

	got, err := Collect(context.Background(), c, rest.Params{"batchId": "b1"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []student{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}, got)
	assert.Equal(t, []string{
		"batchId=b1&limit=50&page=1",
		"batchId=b1&limit=50&page=2",
		"batchId=b1&limit=50&page=3",
	}, seen)
}

func TestCollect_MaxPages(t *testing.T) {
	var seen []string
	srv := pagedServer(t, 10, &seen)
	c, err := Dial[student](srv.URL, "/enrollment/grades", false)
	require.NoError(t, err)

	got, err := Collect(context.Background(), c, rest.Params{"limit": 1}, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Len(t, seen, 2)
}

func TestCollect_NoPagination(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"data":[{"id":"1"},{"id":"2"}]}`))
	}))
	defer srv.Close()
	c, err := Dial[student](srv.URL, "/academic/batches", true)
	require.NoError(t, err)

	got, err := Collect(context.Background(), c, nil, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, calls)
}
