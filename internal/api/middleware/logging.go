package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader     = "X-Request-ID"
	RequestIDContextKey = "request_id"
)

// Diagnostics logs every request twice: on arrival, before authentication
// runs so rejected attempts are visible, and on completion with the status.
func Diagnostics(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)

		hasAuth := c.GetHeader("Authorization") != ""
		query := c.Request.URL.RawQuery
		logger.Info("HTTP request received",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Bool("authorization", hasAuth),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("query", query),
		)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Bool("authorization", hasAuth),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= 500 {
			logger.Error("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}
