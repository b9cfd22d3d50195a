package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		status, body := errorResponse(c, err)
		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

func errorResponse(c *gin.Context, err error) (int, gin.H) {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		logger.Error(c.Request.Context(), "unhandled error", "error", err)
		return http.StatusInternalServerError, internalBody(c)
	}

	if appErr.Err != nil {
		logger.Error(c.Request.Context(), "request error",
			"code", appErr.Code,
			"cause", appErr.Err,
		)
	}

	// Causes of internal errors never reach clients.
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		return appErr.HTTPStatus, internalBody(c)
	}

	return appErr.HTTPStatus, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	}
}

func internalBody(c *gin.Context) gin.H {
	return gin.H{
		"code":    apperror.CodeInternal,
		"message": "Internal server error",
		"details": map[string]any{
			"request_id": c.GetString(ContextKeyRequestID),
		},
	}
}

// failIdempotency stores the error response for replay (best-effort).
func failIdempotency(c *gin.Context, status int, body any) {
	key, store, ok := IdempotencyFrom(c)
	if !ok {
		return
	}
	if err := store.FailKey(c.Request.Context(), key, status, "application/json", body); err != nil {
		logger.Warn(c.Request.Context(), "failed to record idempotent error", "key", key, "error", err)
	}
}
