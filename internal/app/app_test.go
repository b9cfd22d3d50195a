package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"shopledger/internal/config"
	corenumerator "shopledger/internal/core/numerator"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/payment"
	"shopledger/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Storage:   config.StorageConfig{Driver: config.DriverMemory},
		Numbering: config.NumberingConfig{Strategy: "strict"},
		Alerts: config.AlertConfig{
			Enabled:      true,
			LowStockRule: "stock <= reorder_level",
		},
		Worker: config.WorkerConfig{
			OutboxInterval:    10 * time.Millisecond,
			ReconcileInterval: 10 * time.Millisecond,
			CleanupInterval:   10 * time.Millisecond,
		},
	}
}

func TestNumberingOptions(t *testing.T) {
	opts := NumberingOptions(config.NumberingConfig{Strategy: "strict", RangeSize: 10})
	assert.Equal(t, corenumerator.StrategyStrict, opts.Strategy)

	opts = NumberingOptions(config.NumberingConfig{Strategy: "cached", RangeSize: 10})
	assert.Equal(t, corenumerator.StrategyCached, opts.Strategy)
	assert.Equal(t, int64(10), opts.RangeSize)
}

func TestNew_Memory(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logger.NewFromCore(zapcore.NewNopCore()))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Memory)
	assert.Nil(t, a.Pool)
	assert.NotNil(t, a.Idempotency)
	assert.NotNil(t, a.Services.Ledger)
	assert.NotNil(t, a.Services.Expenses)
}

func TestNew_InvalidAlertRule(t *testing.T) {
	cfg := memoryConfig()
	cfg.Alerts.LowStockRule = "stock +"

	_, err := New(context.Background(), cfg, logger.NewFromCore(zapcore.NewNopCore()))
	require.Error(t, err)
}

func TestRunOutbox_DrainsMemoryEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a, err := New(context.Background(), memoryConfig(), logger.NewFromCore(core))
	require.NoError(t, err)

	ctx := context.Background()
	customer := party.NewParty(party.KindCustomer, "Ann")
	require.NoError(t, a.Services.Parties.Create(ctx, customer))
	_, err = a.Services.Ledger.ApplyCustomerPayment(ctx,
		payment.NewPayment(customer.ID, types.MustMoney("10"), payment.TypeGiven))
	require.NoError(t, err)
	require.NotEmpty(t, a.Memory.Outbox(ctx))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.RunOutbox(runCtx)
	}()

	require.Eventually(t, func() bool {
		return len(a.Memory.Outbox(ctx)) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.NotZero(t, logs.FilterMessage("event").Len())
}

func TestReconcile_LogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a, err := New(context.Background(), memoryConfig(), logger.NewFromCore(core))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Services.Parties.Create(ctx, party.NewParty(party.KindSupplier, "Mill")))

	a.reconcile(ctx)

	entries := logs.FilterMessage("reconciliation finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["parties_checked"])
}
