package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/registers/stock"
)

func TestResolveStockDelta(t *testing.T) {
	f := newFixture(t)
	p := f.product("Pens", 10, false)

	change, err := f.svc.ResolveStockDelta(f.ctx, p.ID, -4, nil, "damaged")
	require.NoError(t, err)
	assert.Equal(t, int64(6), change.Stock)

	change, err = f.svc.ResolveStockDelta(f.ctx, p.ID, 2, nil, "found")
	require.NoError(t, err)
	assert.Equal(t, int64(8), change.Stock)

	_, err = f.svc.ResolveStockDelta(f.ctx, p.ID, -9, nil, "")
	assertCode(t, err, apperror.CodeInsufficientStock)

	_, err = f.svc.ResolveStockDelta(f.ctx, p.ID, 0, nil, "")
	assertCode(t, err, apperror.CodeValidation)

	assert.Equal(t, int64(8), f.getProduct(p.ID).Stock)

	var adjusted int
	for _, m := range f.store.Outbox(f.ctx) {
		if m.EventType == events.StockAdjusted {
			adjusted++
		}
	}
	assert.Equal(t, 2, adjusted)
}

func TestResolveStockDelta_BatchTracked(t *testing.T) {
	f := newFixture(t)
	p := f.product("Eggs", 0, true)
	f.receive(p.ID, "E1", 12, "0.2", days(14))
	b := f.getBatch(p.ID, "E1")

	_, err := f.svc.ResolveStockDelta(f.ctx, p.ID, -2, nil, "broken")
	assertCode(t, err, apperror.CodeBatchRequired)

	_, err = f.svc.ResolveStockDelta(f.ctx, p.ID, -2, id.Ptr(b.ID), "broken")
	require.NoError(t, err)
	f.assertBatchSum(p.ID)
	assert.Equal(t, int64(10), f.getProduct(p.ID).Stock)

	// a positive correction above the received quantity raises the batch's initial stock
	_, err = f.svc.ResolveStockDelta(f.ctx, p.ID, 5, id.Ptr(b.ID), "recount")
	require.NoError(t, err)
	got := f.getBatch(p.ID, "E1")
	assert.Equal(t, int64(15), got.CurrentStock)
	assert.Equal(t, int64(15), got.InitialStock)
	f.assertBatchSum(p.ID)
}

func TestResolveStockDelta_BatchOfOtherProduct(t *testing.T) {
	f := newFixture(t)
	a := f.product("A", 0, true)
	b := f.product("B", 0, true)
	f.receive(a.ID, "X", 3, "1", nil)
	other := f.getBatch(a.ID, "X")

	_, err := f.svc.ResolveStockDelta(f.ctx, b.ID, -1, id.Ptr(other.ID), "")
	assertCode(t, err, apperror.CodeValidation)
}

func TestEnableBatchTracking(t *testing.T) {
	f := newFixture(t)
	p := f.product("Honey", 7, false)

	opening, err := f.svc.EnableBatchTracking(f.ctx, p.ID, stock.BatchReceipt{ExpiryDate: days(90)})
	require.NoError(t, err)
	require.NotNil(t, opening)
	assert.Equal(t, stock.DefaultOpeningBatch, opening.BatchNumber)
	assert.Equal(t, int64(7), opening.CurrentStock)

	got := f.getProduct(p.ID)
	assert.True(t, got.IsBatchTracked)
	assert.Equal(t, int64(7), got.Stock)
	f.assertBatchSum(p.ID)

	_, err = f.svc.ApplySale(f.ctx, newSale(nil, "0", line{p.ID, nil, 1, "5"}))
	assertCode(t, err, apperror.CodeBatchRequired)

	_, err = f.svc.EnableBatchTracking(f.ctx, p.ID, stock.BatchReceipt{})
	assertCode(t, err, apperror.CodeBusinessRule)
}

func TestEnableBatchTracking_NoStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("Jam", 0, false)

	opening, err := f.svc.EnableBatchTracking(f.ctx, p.ID, stock.BatchReceipt{})
	require.NoError(t, err)
	assert.Nil(t, opening)
	assert.True(t, f.getProduct(p.ID).IsBatchTracked)
}

func TestBatchSumInvariant_MixedOperations(t *testing.T) {
	f := newFixture(t)
	p := f.product("Milk", 0, true)

	f.receive(p.ID, "M1", 10, "1", days(2))
	f.assertBatchSum(p.ID)
	f.receive(p.ID, "M2", 20, "1", days(9))
	f.assertBatchSum(p.ID)
	f.receive(p.ID, "M1", 5, "1", days(2))
	f.assertBatchSum(p.ID)

	m1 := f.getBatch(p.ID, "M1")
	m2 := f.getBatch(p.ID, "M2")

	saleID, err := f.svc.ApplySale(f.ctx, newSale(nil, "0",
		line{p.ID, id.Ptr(m1.ID), 15, "2"},
		line{p.ID, id.Ptr(m2.ID), 4, "2"},
	))
	require.NoError(t, err)
	f.assertBatchSum(p.ID)
	assert.Equal(t, int64(16), f.getProduct(p.ID).Stock)

	_, err = f.svc.ApplySale(f.ctx, newSale(nil, "0", line{p.ID, id.Ptr(m1.ID), 1, "2"}))
	assertCode(t, err, apperror.CodeInsufficientStock)
	f.assertBatchSum(p.ID)

	_, err = f.svc.ResolveStockDelta(f.ctx, p.ID, -6, id.Ptr(m2.ID), "expired")
	require.NoError(t, err)
	f.assertBatchSum(p.ID)

	_, err = f.svc.ReverseSale(f.ctx, saleID)
	require.NoError(t, err)
	f.assertBatchSum(p.ID)
	assert.Equal(t, int64(29), f.getProduct(p.ID).Stock)

	res, err := f.svc.ReconcileProduct(f.ctx, p.ID, false)
	require.NoError(t, err)
	assert.True(t, res.InSync())
}
