// internal/middleware/logging_middleware.go
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dipcoater-service/internal/utils"
)

// LoggingMiddleware logs every request except health probes and docs
func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if skipLogging(path) {
			return
		}

		duration := time.Since(startTime)
		requestLogger := logger
		if requestID := c.GetString("request_id"); requestID != "" {
			requestLogger = logger.WithRequestID(requestID)
		}

		requestLogger.LogAPIRequest(
			c.Request.Method,
			path,
			c.Request.UserAgent(),
			c.ClientIP(),
			c.Writer.Status(),
			duration,
		)

		if len(c.Errors) > 0 {
			requestLogger.Warn("Request errors", zap.String("errors", c.Errors.String()))
		}
	}
}

func skipLogging(path string) bool {
	switch path {
	case "/live", "/ready":
		return true
	}
	return strings.HasPrefix(path, "/swagger/")
}
