// Package context carries correlation data of the running operation
// (an HTTP request or a background job) for log enrichment.
package context

import (
	"context"

	"shopledger/internal/core/id"
)

// Origin tells where an operation started.
type Origin string

const (
	OriginHTTP Origin = "http"
	OriginJob  Origin = "job"
)

// TraceContext identifies the operation a log line belongs to.
type TraceContext struct {
	TraceID   string
	RequestID string
	Origin    Origin

	// Job names the background job; empty for requests
	Job string

	// IdempotencyKey is the client key of a retried write
	IdempotencyKey string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewRequestTrace builds the trace of an HTTP request. Missing IDs are
// generated.
func NewRequestTrace(requestID, traceID string) *TraceContext {
	if requestID == "" {
		requestID = id.New().String()
	}
	if traceID == "" {
		traceID = id.New().String()
	}
	return &TraceContext{
		TraceID:   traceID,
		RequestID: requestID,
		Origin:    OriginHTTP,
	}
}

// NewJobTrace builds the trace of one run of a background job.
func NewJobTrace(job string) *TraceContext {
	return &TraceContext{
		TraceID: id.New().String(),
		Origin:  OriginJob,
		Job:     job,
	}
}

// Fields returns the non-empty values as logger key-value pairs.
func (t *TraceContext) Fields() []any {
	if t == nil {
		return nil
	}
	kv := make([]any, 0, 10)
	add := func(k, v string) {
		if v != "" {
			kv = append(kv, k, v)
		}
	}
	add("trace_id", t.TraceID)
	add("request_id", t.RequestID)
	add("origin", string(t.Origin))
	add("job", t.Job)
	add("idempotency_key", t.IdempotencyKey)
	return kv
}
