package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
	"shopledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	svc      *Service
	observer *recordingObserver
}

type recordingObserver struct {
	calls [][]id.ID
}

func (r *recordingObserver) ProductsChanged(_ context.Context, productIDs []id.ID) {
	r.calls = append(r.calls, productIDs)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	obs := &recordingObserver{}
	svc := NewService(Deps{
		TxManager:        s,
		Products:         s.Products(),
		Batches:          s.Batches(),
		Parties:          s.Parties(),
		Sales:            s.Sales(),
		Purchases:        s.Purchases(),
		Payments:         s.Payments(),
		SupplierPayments: s.SupplierPayments(),
		Numerator:        s.Numerator(),
		Publisher:        s,
		Observer:         obs,
	})
	return &fixture{t: t, ctx: context.Background(), store: s, svc: svc, observer: obs}
}

func (f *fixture) product(name string, stock int64, tracked bool) *product.Product {
	f.t.Helper()
	p := product.NewProduct(name, types.MustMoney("10"))
	p.Stock = stock
	p.IsBatchTracked = tracked
	require.NoError(f.t, f.store.Products().Create(f.ctx, p))
	return p
}

func (f *fixture) party(kind party.Kind, name string) *party.Party {
	f.t.Helper()
	p := party.NewParty(kind, name)
	require.NoError(f.t, f.store.Parties().Create(f.ctx, p))
	return p
}

func (f *fixture) getProduct(productID id.ID) *product.Product {
	f.t.Helper()
	p, err := f.store.Products().GetByID(f.ctx, productID)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) getBatch(productID id.ID, number string) *product.Batch {
	f.t.Helper()
	b, err := f.store.Batches().GetByNumber(f.ctx, productID, number)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) balance(partyID id.ID) types.Money {
	f.t.Helper()
	p, err := f.store.Parties().GetByID(f.ctx, partyID)
	require.NoError(f.t, err)
	return p.CurrentBalance
}

// receive applies a cash purchase of one batch line.
func (f *fixture) receive(productID id.ID, batchNumber string, qty int64, price string, expiry *time.Time) *purchase.Purchase {
	f.t.Helper()
	p := purchase.NewPurchase()
	p.AddLine(productID, qty, types.MustMoney(price), batchNumber, expiry)
	p.PaidAmount = p.LinesTotal()
	p.ComputeTotals()
	_, err := f.svc.ApplyPurchase(f.ctx, p)
	require.NoError(f.t, err)
	return p
}

type line struct {
	productID id.ID
	batchID   *id.ID
	qty       int64
	price     string
}

func newSale(customerID *id.ID, due string, lines ...line) *sale.Sale {
	s := sale.NewSale()
	s.CustomerID = customerID
	for _, l := range lines {
		s.AddLine(l.productID, l.batchID, l.qty, types.MustMoney(l.price))
	}
	s.ComputeTotals()
	s.DueAmount = types.MustMoney(due)
	return s
}

// assertBatchSum checks the batch-sum invariant for a batch-tracked product.
func (f *fixture) assertBatchSum(productID id.ID) {
	f.t.Helper()
	p := f.getProduct(productID)
	sum, err := f.store.Batches().SumCurrentStock(f.ctx, productID)
	require.NoError(f.t, err)
	assert.Equal(f.t, sum, p.Stock, "product stock must equal the sum of its batches")
}

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, types.MustMoney(want).Equal(got), "want %s, got %s", want, got.String())
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func days(n int) *time.Time {
	d := time.Now().UTC().AddDate(0, 0, n)
	return &d
}
