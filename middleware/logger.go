package middleware

import (
	"time"

	"concierge/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoggerKey is the gin context key holding the request-scoped logger.
const LoggerKey = "logger"

// RequestIDHeader carries the request id to and from callers.
const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware attaches a request-scoped logger and logs every completed request.
func LoggingMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(LoggerKey, base.With(zap.String("requestId", requestID)))

		c.Next()

		RequestLogger(c).Info("Request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// RequestLogger returns the request-scoped logger, or the global one outside a request.
func RequestLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get(LoggerKey); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}
