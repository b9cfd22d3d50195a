// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/pkg/logger"
)

// Recovery middleware recovers from panics and returns 500 error.
// Logs stack trace but never exposes internal details to client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				_ = c.Error(
					apperror.NewInternal(fmt.Errorf("panic: %v", err)).
						WithDetail("request_id", c.GetString(ContextKeyRequestID)),
				)

				// The panic unwound ErrorHandler, so the response is written here.
				if !c.Writer.Written() {
					body := internalBody(c)
					failIdempotency(c, http.StatusInternalServerError, body)
					c.AbortWithStatusJSON(http.StatusInternalServerError, body)
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
