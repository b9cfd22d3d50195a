package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/sale"
	"shopledger/internal/domain/events"
)

func TestApplySale_BatchScenario(t *testing.T) {
	f := newFixture(t)
	p := f.product("Yoghurt", 0, true)
	f.receive(p.ID, "B1", 5, "1.00", days(10))
	f.receive(p.ID, "B2", 10, "1.10", days(60))

	b1 := f.getBatch(p.ID, "B1")
	b2 := f.getBatch(p.ID, "B2")
	require.Equal(t, int64(15), f.getProduct(p.ID).Stock)

	_, err := f.svc.ApplySale(f.ctx, newSale(nil, "0", line{p.ID, id.Ptr(b1.ID), 3, "2.00"}))
	require.NoError(t, err)

	assert.Equal(t, int64(2), f.getBatch(p.ID, "B1").CurrentStock)
	assert.Equal(t, int64(10), f.getBatch(p.ID, "B2").CurrentStock)
	assert.Equal(t, int64(12), f.getProduct(p.ID).Stock)

	_, err = f.svc.ApplySale(f.ctx, newSale(nil, "0", line{p.ID, id.Ptr(b1.ID), 3, "2.00"}))
	assertCode(t, err, apperror.CodeInsufficientStock)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, b1.ID.String(), appErr.Details["batch_id"])
	assert.Equal(t, int64(2), appErr.Details["available"])

	assert.Equal(t, int64(2), f.getBatch(p.ID, "B1").CurrentStock)
	assert.Equal(t, int64(10), f.getBatch(b2.ProductID, "B2").CurrentStock)
	assert.Equal(t, int64(12), f.getProduct(p.ID).Stock)
	f.assertBatchSum(p.ID)
}

func TestApplySale_CreditAndPaymentScenario(t *testing.T) {
	f := newFixture(t)
	p := f.product("Rice", 100, false)
	c := f.party(party.KindCustomer, "Carol")

	_, err := f.svc.ApplySale(f.ctx, newSale(id.Ptr(c.ID), "500", line{p.ID, nil, 50, "10"}))
	require.NoError(t, err)
	assertMoney(t, "500", f.balance(c.ID))

	_, err = f.svc.ApplyCustomerPayment(f.ctx, receivedPayment(c.ID, "200"))
	require.NoError(t, err)
	assertMoney(t, "300", f.balance(c.ID))

	view, err := f.svc.GetPartyLedger(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, view.Entries, 2)
	assert.True(t, view.InSync)
	assertMoney(t, "300", view.Computed)

	// newest first
	assert.Equal(t, EntryPayment, view.Entries[0].Kind)
	assertMoney(t, "200", view.Entries[0].Credit)
	assertMoney(t, "300", view.Entries[0].RunningBalance)
	assert.Equal(t, EntrySale, view.Entries[1].Kind)
	assertMoney(t, "500", view.Entries[1].Debit)
	assertMoney(t, "500", view.Entries[1].RunningBalance)
}

func TestApplySale_AtomicWhenLaterLineFails(t *testing.T) {
	f := newFixture(t)
	a := f.product("A", 10, false)
	b := f.product("B", 1, false)
	c := f.party(party.KindCustomer, "Dan")

	_, err := f.svc.ApplySale(f.ctx, newSale(id.Ptr(c.ID), "40",
		line{a.ID, nil, 3, "10"},
		line{b.ID, nil, 5, "2"},
	))
	assertCode(t, err, apperror.CodeInsufficientStock)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, 2, appErr.Details["lineNo"])

	assert.Equal(t, int64(10), f.getProduct(a.ID).Stock)
	assert.Equal(t, int64(1), f.getProduct(b.ID).Stock)
	assertMoney(t, "0", f.balance(c.ID))

	sales, err := f.store.Sales().List(f.ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Empty(t, sales.Items)
	assert.Empty(t, f.store.Outbox(f.ctx))
	assert.Empty(t, f.observer.calls)
}

func TestApplySale_Validation(t *testing.T) {
	f := newFixture(t)
	plain := f.product("Plain", 10, false)
	tracked := f.product("Tracked", 0, true)
	f.receive(tracked.ID, "L1", 5, "1", nil)
	batch := f.getBatch(tracked.ID, "L1")
	customer := f.party(party.KindCustomer, "Eve")
	supplier := f.party(party.KindSupplier, "Acme")

	tests := []struct {
		name string
		sale func() *sale.Sale
		code string
	}{
		{
			name: "no lines",
			sale: func() *sale.Sale { return newSale(nil, "0") },
			code: apperror.CodeValidation,
		},
		{
			name: "zero quantity",
			sale: func() *sale.Sale { return newSale(nil, "0", line{plain.ID, nil, 0, "1"}) },
			code: apperror.CodeValidation,
		},
		{
			name: "due above total",
			sale: func() *sale.Sale { return newSale(id.Ptr(customer.ID), "11", line{plain.ID, nil, 1, "10"}) },
			code: apperror.CodeValidation,
		},
		{
			name: "due without customer",
			sale: func() *sale.Sale { return newSale(nil, "5", line{plain.ID, nil, 1, "10"}) },
			code: apperror.CodeValidation,
		},
		{
			name: "subtotal mismatch",
			sale: func() *sale.Sale {
				s := newSale(nil, "0", line{plain.ID, nil, 1, "10"})
				s.Subtotal = s.Subtotal.Add(s.Subtotal)
				return s
			},
			code: apperror.CodeValidation,
		},
		{
			name: "sub-cent unit price",
			sale: func() *sale.Sale { return newSale(nil, "0", line{plain.ID, nil, 1, "9.995"}) },
			code: apperror.CodeValidation,
		},
		{
			name: "sub-cent due",
			sale: func() *sale.Sale { return newSale(id.Ptr(customer.ID), "0.125", line{plain.ID, nil, 1, "10"}) },
			code: apperror.CodeValidation,
		},
		{
			name: "unknown customer",
			sale: func() *sale.Sale { return newSale(id.Ptr(id.New()), "5", line{plain.ID, nil, 1, "10"}) },
			code: apperror.CodePartyNotFound,
		},
		{
			name: "supplier as customer",
			sale: func() *sale.Sale { return newSale(id.Ptr(supplier.ID), "5", line{plain.ID, nil, 1, "10"}) },
			code: apperror.CodePartyNotFound,
		},
		{
			name: "unknown product",
			sale: func() *sale.Sale { return newSale(nil, "0", line{id.New(), nil, 1, "10"}) },
			code: apperror.CodeNotFound,
		},
		{
			name: "batch-tracked without batch",
			sale: func() *sale.Sale { return newSale(nil, "0", line{tracked.ID, nil, 1, "10"}) },
			code: apperror.CodeBatchRequired,
		},
		{
			name: "batch on untracked product",
			sale: func() *sale.Sale { return newSale(nil, "0", line{plain.ID, id.Ptr(batch.ID), 1, "10"}) },
			code: apperror.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ApplySale(f.ctx, tt.sale())
			assertCode(t, err, tt.code)
		})
	}

	assert.Equal(t, int64(10), f.getProduct(plain.ID).Stock)
	assert.Equal(t, int64(5), f.getProduct(tracked.ID).Stock)
}

func TestApplySale_RecordsEventAndNotifiesObserver(t *testing.T) {
	f := newFixture(t)
	p := f.product("Soap", 4, false)

	saleID, err := f.svc.ApplySale(f.ctx, newSale(nil, "0", line{p.ID, nil, 1, "3"}))
	require.NoError(t, err)

	stored, err := f.svc.GetSale(f.ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, "SL-", stored.Number[:3])
	require.Len(t, stored.Lines, 1)

	var recorded []string
	for _, m := range f.store.Outbox(f.ctx) {
		recorded = append(recorded, m.EventType)
	}
	assert.Contains(t, recorded, events.SaleApplied)
	require.NotEmpty(t, f.observer.calls)
	assert.Equal(t, []id.ID{p.ID}, f.observer.calls[len(f.observer.calls)-1])
}

func TestApplySale_NonNegativeStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("Salt", 2, false)

	_, err := f.svc.ApplySale(f.ctx, newSale(nil, "0", line{p.ID, nil, 3, "1"}))
	assertCode(t, err, apperror.CodeInsufficientStock)

	_, err = f.svc.ApplySale(f.ctx, newSale(nil, "0", line{p.ID, nil, 2, "1"}))
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.getProduct(p.ID).Stock)
}
