// Package middleware holds the dev backend's gin middleware: request IDs,
// tracing, access logs, panic recovery and bearer authentication.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/campus-portal/pkg/infra/tracing"
	"github.com/kart-io/campus-portal/pkg/utils/errors"
	"github.com/kart-io/campus-portal/pkg/utils/id"
	"github.com/kart-io/campus-portal/pkg/utils/response"
)

// HeaderXRequestID carries the request ID both ways.
const HeaderXRequestID = "X-Request-ID"

// Context keys.
const (
	KeyRequestID = "request_id"
	KeyUserID    = "user_id"
	KeyToken     = "token"
)

const tracerName = "github.com/kart-io/campus-portal/internal/devserver"

// RequestID reuses the caller's X-Request-ID or mints a ULID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = id.NewRequestID()
		}
		c.Set(KeyRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}

// Tracing starts a server span per request, continuing any incoming
// traceparent.
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracing.StartSpan(ctx, tracerName, c.Request.Method+" "+route, trace.SpanKindServer,
			semconv.HTTPMethod(c.Request.Method),
			semconv.HTTPRoute(route),
			attribute.String("request.id", c.GetString(KeyRequestID)),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= http.StatusInternalServerError {
			tracing.RecordError(span, fmt.Errorf("http status %d", status))
		}
	}
}

// Logger writes one structured line per request. Paths in skip are not
// logged.
func Logger(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(c *gin.Context) {
		if skipped[c.Request.URL.Path] {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"remote_addr", c.ClientIP(),
			"latency_ms", latency.Milliseconds(),
			"request_id", c.GetString(KeyRequestID),
		}
		if traceID := tracing.TraceIDFromContext(c.Request.Context()); traceID != "" {
			fields = append(fields, "trace_id", traceID)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warnw("HTTP Request", fields...)
			return
		}
		logger.Infow("HTTP Request", fields...)
	}
}

// Recovery turns a panic into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("Panic recovered",
					"error", fmt.Sprint(r),
					"path", c.Request.URL.Path,
					"request_id", c.GetString(KeyRequestID),
					"stack", string(debug.Stack()),
				)
				resp := response.Err(errors.ErrInternal).WithRequestID(c.GetString(KeyRequestID))
				c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
			}
		}()
		c.Next()
	}
}

// TokenVerifier resolves a bearer token to a user ID.
type TokenVerifier func(c *gin.Context, token string) (string, error)

// Auth rejects requests without a valid bearer token and stores the user
// ID and token on the context.
func Auth(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abort(c, errors.ErrUnauthorized.WithMessage("Authentication required"))
			return
		}
		userID, err := verify(c, token)
		if err != nil {
			abort(c, errors.FromError(err))
			return
		}
		c.Set(KeyUserID, userID)
		c.Set(KeyToken, token)
		c.Next()
	}
}

// BearerToken strips the "Bearer " scheme, case-insensitively.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func abort(c *gin.Context, e *errors.Errno) {
	resp := response.Err(e).WithRequestID(c.GetString(KeyRequestID))
	c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
}
