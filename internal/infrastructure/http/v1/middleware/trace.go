package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "shopledger/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Gin context keys shared with handlers.
const (
	ContextKeyRequestID = "request_id"
	ContextKeyTraceID   = "trace_id"
)

// Trace middleware attaches the request trace to the request context.
// Client supplied IDs are kept so logs can be joined across services.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := appctx.NewRequestTrace(c.GetHeader(HeaderRequestID), c.GetHeader(HeaderTraceID))

		ctx := appctx.WithTrace(c.Request.Context(), trace)
		c.Request = c.Request.WithContext(ctx)

		c.Set(ContextKeyTraceID, trace.TraceID)
		c.Set(ContextKeyRequestID, trace.RequestID)

		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()
	}
}
