package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"subgen/internal/logging"
	"subgen/internal/services"
)

const requestIDHeader = "X-Request-ID"

// requestLogger stamps a request ID on the context and response, then logs
// one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set(requestIDHeader, reqID)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), reqID))

		c.Next()

		attrs := []logging.Attr{
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("latency", time.Since(start)),
			logging.String("client_ip", c.ClientIP()),
		}
		reqLogger := logging.WithContext(c.Request.Context(), logger)
		if c.Writer.Status() >= 500 {
			reqLogger.Warn("http request", logging.Args(attrs...)...)
			return
		}
		reqLogger.Debug("http request", logging.Args(attrs...)...)
	}
}
