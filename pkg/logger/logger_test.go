package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "shopledger/internal/core/context"
)

func TestFromContext_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromCore(core).WithComponent("ledger")

	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})

	Info(ctx, "sale applied", "sale_id", "abc")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "sale applied", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "ledger", fields["component"])
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "abc", fields["sale_id"])
	assert.NotContains(t, fields, "job")
}

func TestWithContext_JobTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	trace := appctx.NewJobTrace("reconcile")
	ctx := appctx.WithTrace(context.Background(), trace)

	NewFromCore(core).WithContext(ctx).Info("done")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "reconcile", fields["job"])
	assert.Equal(t, "job", fields["origin"])
	assert.Equal(t, trace.TraceID, fields["trace_id"])
	assert.NotContains(t, fields, "request_id")
}

func TestNew_FallsBackToInfoLevel(t *testing.T) {
	l, err := New(Config{Level: "bogus", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestSetDefault(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := Default()
	SetDefault(NewFromCore(core))
	t.Cleanup(func() { SetDefault(prev) })

	Warn(context.Background(), "low stock")
	assert.Equal(t, 1, logs.FilterMessage("low stock").Len())
}
