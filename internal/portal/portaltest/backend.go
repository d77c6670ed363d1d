// Package portaltest provides a scripted HTTP backend for portal module tests.
package portaltest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kart-io/logger/core"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-portal/pkg/client/rest"
)

// Call is one recorded request.
type Call struct {
	Method      string
	Path        string
	Query       string
	Body        string
	ContentType string
	Auth        string
}

type reply struct {
	status int
	body   string
}

// Backend answers "METHOD /path" routes with canned replies. Unrouted
// requests get a 404 error envelope.
type Backend struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]reply
	calls  []Call
}

// NewBackend starts a backend closed at test cleanup.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{routes: make(map[string]reply)}
	b.Server = httptest.NewServer(b)
	t.Cleanup(b.Close)
	return b
}

// Handle scripts the reply for method and path (path without query).
func (b *Backend) Handle(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = reply{status: status, body: body}
}

// ServeHTTP implements http.Handler.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Method:      r.Method,
		Path:        r.URL.EscapedPath(),
		Query:       r.URL.RawQuery,
		Body:        string(data),
		ContentType: r.Header.Get("Content-Type"),
		Auth:        r.Header.Get("Authorization"),
	})
	rep, ok := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		rep = reply{status: http.StatusNotFound, body: `{"success":false,"message":"Not found","statusCode":404}`}
	}
	if rep.body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

// Calls returns the recorded requests.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsTo returns the recorded requests for method and path.
func (b *Backend) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Method == method && strings.TrimSuffix(c.Path, "/") == path {
			out = append(out, c)
		}
	}
	return out
}

// Last returns the most recent request.
func (b *Backend) Last() Call {
	calls := b.Calls()
	if len(calls) == 0 {
		return Call{}
	}
	return calls[len(calls)-1]
}

// Client returns a transport pointed at the backend with a no-op logger.
func (b *Backend) Client(t *testing.T, opts ...rest.Option) *rest.Client {
	t.Helper()
	c, err := rest.New(b.URL, append([]rest.Option{rest.WithLogger(core.NewNoOpLogger(nil))}, opts...)...)
	require.NoError(t, err)
	return c
}
