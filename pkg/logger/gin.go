package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-Id"

// AccountKey is the gin context key under which auth stores the caller's account id.
const AccountKey = "account_id"

// Middleware returns a Gin middleware that injects request_id and logs request summaries.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set("logger", reqLogger)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLogger))

		c.Next()

		dur := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", float64(dur.Milliseconds()),
		}
		if acct := c.GetString(AccountKey); acct != "" {
			attrs = append(attrs, "account_id", acct)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
			reqLogger.Error("request", attrs...)
			return
		}
		reqLogger.Info("request", attrs...)
	}
}

// FromGin pulls the request-scoped logger from Gin context.
// Once auth has run, the logger also carries account_id.
func FromGin(c *gin.Context) *slog.Logger {
	l := slog.Default()
	if v, ok := c.Get("logger"); ok {
		if gl, ok := v.(*slog.Logger); ok && gl != nil {
			l = gl
		}
	}
	if acct := c.GetString(AccountKey); acct != "" {
		return l.With("account_id", acct)
	}
	return l
}
