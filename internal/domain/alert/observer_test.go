package alert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/events"
	"shopledger/internal/infrastructure/storage/memory"
)

var now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newObserver(t *testing.T, s *memory.Store, rules Rules) *Observer {
	t.Helper()
	o, err := NewObserver(rules, s.Products(), s.Batches(), s, s, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return o
}

func TestNewObserver_RejectsInvalidRules(t *testing.T) {
	s := memory.New()
	tests := []struct {
		name  string
		rules Rules
	}{
		{"syntax error", Rules{LowStock: "stock <="}},
		{"unknown variable", Rules{LowStock: "quantity < 3"}},
		{"not a bool", Rules{Expiry: "days_to_expiry + 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewObserver(tt.rules, s.Products(), s.Batches(), s, s)
			assert.Error(t, err)
		})
	}
}

func TestObserver_LowStock(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	o := newObserver(t, s, Rules{LowStock: DefaultLowStockRule, Expiry: DefaultExpiryRule})

	low := product.NewProduct("Low", types.MustMoney("1"))
	low.Stock = 2
	low.ReorderLevel = 5
	ok := product.NewProduct("Ok", types.MustMoney("1"))
	ok.Stock = 20
	ok.ReorderLevel = 5
	require.NoError(t, s.Products().Create(ctx, low))
	require.NoError(t, s.Products().Create(ctx, ok))

	alerts, err := o.Check(ctx, []id.ID{low.ID, ok.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, events.StockLow, alerts[0].EventType)
	assert.Equal(t, low.ID, alerts[0].ProductID)

	o.ProductsChanged(ctx, []id.ID{low.ID, ok.ID})
	outbox := s.Outbox(ctx)
	require.Len(t, outbox, 1)
	assert.Equal(t, events.StockLow, outbox[0].EventType)
}

func TestObserver_ExpiringBatches(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	o := newObserver(t, s, Rules{Expiry: DefaultExpiryRule})

	p := product.NewProduct("Milk", types.MustMoney("1"))
	p.IsBatchTracked = true
	p.Stock = 8
	require.NoError(t, s.Products().Create(ctx, p))

	soon := now.AddDate(0, 0, 7)
	later := now.AddDate(0, 0, 90)
	past := now.AddDate(0, 0, -1)
	expiring := product.NewBatch(p.ID, "SOON", 3, types.Zero(), &soon, now)
	require.NoError(t, s.Batches().Create(ctx, expiring))
	require.NoError(t, s.Batches().Create(ctx, product.NewBatch(p.ID, "LATER", 5, types.Zero(), &later, now)))
	empty := product.NewBatch(p.ID, "EMPTY", 1, types.Zero(), &soon, now)
	empty.CurrentStock = 0
	require.NoError(t, s.Batches().Create(ctx, empty))
	gone := product.NewBatch(p.ID, "PAST", 1, types.Zero(), &past, now)
	gone.CurrentStock = 0
	require.NoError(t, s.Batches().Create(ctx, gone))

	alerts, err := o.Check(ctx, []id.ID{p.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, events.BatchExpiring, alerts[0].EventType)
	require.NotNil(t, alerts[0].BatchID)
	assert.Equal(t, expiring.ID, *alerts[0].BatchID)
	assert.Equal(t, int64(3), alerts[0].Stock)
}

func TestObserver_CustomRule(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	o := newObserver(t, s, Rules{LowStock: `stock < 10 && name.startsWith("Fresh")`})

	fresh := product.NewProduct("Fresh bread", types.MustMoney("1"))
	fresh.Stock = 3
	canned := product.NewProduct("Canned beans", types.MustMoney("1"))
	canned.Stock = 3
	require.NoError(t, s.Products().Create(ctx, fresh))
	require.NoError(t, s.Products().Create(ctx, canned))

	alerts, err := o.Check(ctx, []id.ID{fresh.ID, canned.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, fresh.ID, alerts[0].ProductID)
}

func TestObserver_MissingProductDoesNotPanic(t *testing.T) {
	s := memory.New()
	o := newObserver(t, s, Rules{LowStock: DefaultLowStockRule})

	assert.NotPanics(t, func() {
		o.ProductsChanged(context.Background(), []id.ID{id.New()})
	})
	assert.Empty(t, s.Outbox(context.Background()))
}
