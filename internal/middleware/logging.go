package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trailkeeper/internal/logger"
	"trailkeeper/internal/requestmeta"
)

// RequestIDKey is the Gin context key holding the request id.
const RequestIDKey = "requestID"

// RequestLogging returns a Gin middleware that tags each request with a
// unique request ID and its network origin, then logs method, path, status
// and latency using Zap. The origin is stored on the request context so
// security events written further down record where the call came from.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		origin := requestmeta.FromRequest(c.Request)
		c.Request = c.Request.WithContext(requestmeta.WithOrigin(c.Request.Context(), origin))

		c.Next()

		log := logger.Get()
		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", origin.IPAddress,
		}
		if userID, ok := c.Get(UserIDKey); ok {
			fields = append(fields, "user_id", userID)
		}
		log.Infow("request", fields...)
	}
}
