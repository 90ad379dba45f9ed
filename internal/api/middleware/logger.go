package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/memeverse/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// Logger injects a request-scoped logger into the request context and logs
// each completed request with its status, latency and response size.
// Parameters:
//   - log: base logger to enrich with request fields.
//
// Returns:
//   - gin.HandlerFunc: middleware handler.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := log.WithFields(logger.Fields{
			logger.FieldRequestID: requestID,
			logger.FieldComponent: "api",
		}).WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, requestID)

		c.Next()

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		entry := logger.With(logger.Fields{
			logger.FieldStatus:     c.Writer.Status(),
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
			logger.FieldSize:       c.Writer.Size(),
			"client_ip":            c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.With(logger.Fields{"errors": c.Errors.String()})
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error(ctx, "%s %s", c.Request.Method, path)
		case status >= 400:
			entry.Warn(ctx, "%s %s", c.Request.Method, path)
		default:
			entry.Info(ctx, "%s %s", c.Request.Method, path)
		}
	}
}
