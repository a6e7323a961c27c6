package logging

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	// ContextRequestID is the gin context key holding the request id.
	ContextRequestID = "request_id"
)

func newRequestID() string {
	return "req_" + uuid.NewString()
}

// RequestID reuses an incoming X-Request-ID or mints one, echoes it on the
// response and attaches a request-scoped logger to the request context.
func RequestID(base *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = newRequestID()
		}
		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		reqLogger := base.WithComponent(ComponentHTTP).With(FieldRequestID, id)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), reqLogger))
		c.Next()
	}
}

// AccessLog writes one line per request. 4xx logs at warn and 5xx at error.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		attrs := []any{
			FieldMethod, c.Request.Method,
			FieldPath, c.Request.URL.Path,
			FieldRoute, c.FullPath(),
			FieldStatusCode, status,
			FieldDuration, time.Since(start).Milliseconds(),
			FieldClientIP, c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, FieldError, c.Errors.String())
		}
		ctx := c.Request.Context()
		FromContext(ctx).Log(ctx, level, "http request", attrs...)
	}
}
