package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/logger"
)

// ErrorHandler renders the last error attached to the Gin context as the
// standard {"error":{"code","message"}} body. Only AppErrors reach the client
// verbatim; anything else becomes INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := classify(c, c.Errors.Last().Err)
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}

// classify logs err with the request context and returns the AppError to
// render for it.
func classify(c *gin.Context, err error) *apperrors.AppError {
	fields := []interface{}{
		"request_id", c.GetString(RequestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error", append(fields, "error", err.Error())...)
		return apperrors.ErrInternalServer
	}
	if appErr.Internal == nil {
		return appErr
	}

	fields = append(fields, "code", appErr.Code, "internal", appErr.Internal.Error())
	switch {
	case errors.Is(appErr, apperrors.ErrConcurrencyConflict):
		// Stale tokens are an expected race between writers.
		logger.Get().Warnw("concurrency conflict", fields...)
	case errors.Is(appErr, apperrors.ErrAuditPersistence):
		logger.Named("audit").Errorw("audit write aborted request", fields...)
	default:
		logger.Get().Errorw("app error", fields...)
	}
	return appErr
}
