package resource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kart-io/logger/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-portal/pkg/client/rest"
)

type student struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type call struct {
	method string
	path   string
	query  string
	body   string
}

// fakeBackend 记录请求并按路径返回预设响应。
type fakeBackend struct {
	mu     sync.Mutex
	calls  []call
	status int
	body   string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, call{r.Method, r.URL.EscapedPath(), r.URL.RawQuery, string(data)})
	status, body := b.status, b.body
	b.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (b *fakeBackend) last() call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

func (b *fakeBackend) respond(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status, b.body = status, body
}

type countingLogger struct {
	core.Logger
	mu    sync.Mutex
	warns int
}

func (l *countingLogger) Warnw(string, ...interface{}) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}

func setup(t *testing.T, path string, opts ...Option) (*Client[student], *fakeBackend, *countingLogger) {
	t.Helper()
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	log := &countingLogger{Logger: core.NewNoOpLogger(nil)}
	c, err := Dial[student](srv.URL+"/api", path, true,
		append([]Option{WithRESTOptions(rest.WithLogger(log))}, opts...)...)
	require.NoError(t, err)
	return c, backend, log
}

// resourceKey 默认取路径最后一段，可显式覆盖。
func TestClient_ResourceKey(t *testing.T) {
	tests := []struct {
		path string
		opts []Option
		want string
	}{
		{"/user/students", nil, "students"},
		{"/user/students/", nil, "students"},
		{"books", nil, "books"},
		{"/library/book-copies", []Option{WithResourceKey("copies")}, "copies"},
	}

	for _, tt := range tests {
		c := New[student](nil, tt.path, tt.opts...)
		assert.Equal(t, tt.want, c.Key(), tt.path)
	}
	assert.Equal(t, "/user/students", New[student](nil, "user/students/").Path())
}

// 三种列表形态得到相同的数据。
func TestClient_ListShapes(t *testing.T) {
	want := []student{{ID: "1", Name: "Ada"}, {ID: "2", Name: "Alan"}}
	items := `[{"id":"1","name":"Ada"},{"id":"2","name":"Alan"}]`

	tests := []struct {
		name     string
		body     string
		wantPage *int
	}{
		{"数组", `{"success":true,"data":` + items + `}`, nil},
		{"嵌套 data", `{"success":true,"data":{"data":` + items + `,"pagination":{"page":1,"limit":10,"total":2,"pages":1}}}`, intPtr(1)},
		{"资源键", `{"success":true,"data":{"students":` + items + `,"pagination":{"page":3,"limit":10,"total":22,"pages":3}}}`, intPtr(3)},
		{"裸数组", items, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, backend, log := setup(t, "/user/students")
			backend.respond(http.StatusOK, tt.body)

			got, err := c.List(context.Background(), rest.Params{"page": 1, "search": "a"})
			require.NoError(t, err)
			assert.Equal(t, want, got.Data)
			if tt.wantPage == nil {
				assert.Nil(t, got.Pagination)
			} else {
				require.NotNil(t, got.Pagination)
				assert.Equal(t, *tt.wantPage, got.Pagination.Page)
			}
			assert.Zero(t, log.warns)

			last := backend.last()
			assert.Equal(t, http.MethodGet, last.method)
			assert.Equal(t, "/api/user/students", last.path)
			assert.Equal(t, "page=1&search=a", last.query)
		})
	}
}

// 形态不符的 2xx 列表降级为空列表。
func TestClient_ListMalformed(t *testing.T) {
	for _, body := range []string{`{"data":{"unexpected":true}}`, `{"data":null}`, `{}`, ``, `"x"`} {
		t.Run(body, func(t *testing.T) {
			c, backend, log := setup(t, "/academic/departments")
			backend.respond(http.StatusOK, body)

			got, err := c.List(context.Background(), nil)
			require.NoError(t, err)
			assert.NotNil(t, got.Data)
			assert.Empty(t, got.Data)
			assert.Nil(t, got.Pagination)
			assert.Equal(t, 1, log.warns)
		})
	}
}

// 个别元素解不出来时跳过该元素，其余照常返回。
func TestClient_ListBadElement(t *testing.T) {
	c, backend, log := setup(t, "/academic/departments")
	backend.respond(http.StatusOK, `{"data":[{"id":"a"},{"id":7}]}`)

	got, err := c.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []student{{ID: "a"}}, got.Data)
	assert.Equal(t, 1, log.warns)
}

func TestClient_ListError(t *testing.T) {
	c, backend, _ := setup(t, "/academic/departments")
	backend.respond(http.StatusForbidden, `{"success":false,"message":"Forbidden"}`)

	_, err := c.List(context.Background(), nil)
	apiErr, ok := rest.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Forbidden", apiErr.Message)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

// 无响应体的删除返回默认消息。
func TestClient_DeleteMessages(t *testing.T) {
	tests := []struct {
		name      string
		permanent bool
		status    int
		body      string
		wantPath  string
		wantMsg   string
	}{
		{"软删除无响应体", false, http.StatusNoContent, "", "/api/academic/courses/c1", "Deleted successfully"},
		{"永久删除无响应体", true, http.StatusNoContent, "", "/api/academic/courses/c1/permanently", "Permanently deleted successfully"},
		{"data 中的消息", false, http.StatusOK, `{"success":true,"data":{"message":"Course archived"}}`, "/api/academic/courses/c1", "Course archived"},
		{"信封消息", true, http.StatusOK, `{"success":true,"message":"Course purged","data":null}`, "/api/academic/courses/c1/permanently", "Course purged"},
		{"无消息字段", false, http.StatusOK, `{"success":true,"data":{"id":"c1"}}`, "/api/academic/courses/c1", "Deleted successfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, backend, _ := setup(t, "/academic/courses")
			backend.respond(tt.status, tt.body)

			var (
				msg *Message
				err error
			)
			if tt.permanent {
				msg, err = c.DeletePermanently(context.Background(), "c1")
			} else {
				msg, err = c.Delete(context.Background(), "c1")
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMsg, msg.Message)
			assert.Equal(t, http.MethodDelete, backend.last().method)
			assert.Equal(t, tt.wantPath, backend.last().path)
		})
	}
}

func TestClient_ItemOperations(t *testing.T) {
	c, backend, _ := setup(t, "/user/students")
	backend.respond(http.StatusOK, `{"success":true,"data":{"data":{"id":"s/1","name":"Ada"}}}`)
	ctx := context.Background()

	got, err := c.Get(ctx, "s/1")
	require.NoError(t, err)
	assert.Equal(t, student{ID: "s/1", Name: "Ada"}, got)
	assert.Equal(t, call{http.MethodGet, "/api/user/students/s%2F1", "", ""}, backend.last())

	_, err = c.Create(ctx, student{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, backend.last().method)
	assert.Equal(t, "/api/user/students", backend.last().path)
	assert.JSONEq(t, `{"id":"","name":"Ada"}`, backend.last().body)

	_, err = c.Update(ctx, "s1", map[string]string{"name": "Ada L."})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, backend.last().method)
	assert.Equal(t, "/api/user/students/s1", backend.last().path)
	assert.JSONEq(t, `{"name":"Ada L."}`, backend.last().body)

	_, err = c.Restore(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, backend.last().method)
	assert.Equal(t, "/api/user/students/s1/restore", backend.last().path)
	assert.Empty(t, backend.last().body)
}

func TestClient_GetMalformed(t *testing.T) {
	c, backend, _ := setup(t, "/user/students")
	backend.respond(http.StatusOK, `{"success":true,"data":null}`)

	_, err := c.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, rest.ErrMalformedPayload))
}

func TestClient_ListDeleted(t *testing.T) {
	c, backend, _ := setup(t, "/library/book-copies", WithResourceKey("copies"))
	backend.respond(http.StatusOK, `{"data":{"copies":[{"id":"1"}],"pagination":{"page":1,"pages":1}}}`)

	got, err := c.ListDeleted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []student{{ID: "1"}}, got)
	assert.Equal(t, "/api/library/book-copies/deleted", backend.last().path)
}

func TestClient_CreateMultipart(t *testing.T) {
	c, backend, _ := setup(t, "/academic/syllabus", WithResourceKey("syllabus"))
	backend.respond(http.StatusCreated, `{"data":{"id":"sy1"}}`)

	got, err := c.Create(context.Background(), rest.Multipart(&rest.MultipartForm{Fields: map[string]string{"title": "Intro"}}))
	require.NoError(t, err)
	assert.Equal(t, "sy1", got.ID)
	assert.Contains(t, backend.last().body, `name="title"`)
}

func intPtr(v int) *int { return &v }
