package middleware

import (
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
	"time"
)

const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware stores a request-scoped logger under "logger" and logs
// every request once it has been handled.
func LoggingMiddleware(log *zap.Logger) func(c *ginext.Context) {
	return func(c *ginext.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		reqLog := log.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set("logger", reqLog)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		reqLog.Info("Request handled",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
