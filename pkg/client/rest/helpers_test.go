package rest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kart-io/logger/core"
	"github.com/stretchr/testify/require"
)

// recordingLogger 记录 Warnw/Errorw 消息，其余方法落到 no-op 实现。
type recordingLogger struct {
	core.Logger
	mu       sync.Mutex
	warnings []string
	errors   []string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{Logger: core.NewNoOpLogger(nil)}
}

func (l *recordingLogger) Warnw(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *recordingLogger) Errorw(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warnings...)
}

func (l *recordingLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

// serveJSON 返回固定状态码和响应体的测试服务。
func serveJSON(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) (*Client, *recordingLogger) {
	t.Helper()
	log := newRecordingLogger()
	c, err := New(baseURL, append([]Option{WithLogger(log)}, opts...)...)
	require.NoError(t, err)
	return c, log
}
