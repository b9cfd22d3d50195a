package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/registers/stock"
)

func TestReverseSale(t *testing.T) {
	f := newFixture(t)
	p := f.product("Cake", 0, true)
	f.receive(p.ID, "K1", 8, "3", days(3))
	b := f.getBatch(p.ID, "K1")
	c := f.party(party.KindCustomer, "Jo")

	saleID, err := f.svc.ApplySale(f.ctx, newSale(id.Ptr(c.ID), "20", line{p.ID, id.Ptr(b.ID), 5, "6"}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.getProduct(p.ID).Stock)
	assertMoney(t, "20", f.balance(c.ID))

	revID, err := f.svc.ReverseSale(f.ctx, saleID)
	require.NoError(t, err)

	assert.Equal(t, int64(8), f.getBatch(p.ID, "K1").CurrentStock)
	assert.Equal(t, int64(8), f.getProduct(p.ID).Stock)
	f.assertBatchSum(p.ID)
	assertMoney(t, "0", f.balance(c.ID))

	rev, err := f.svc.GetSale(f.ctx, revID)
	require.NoError(t, err)
	require.NotNil(t, rev.ReversalOf)
	assert.Equal(t, saleID, *rev.ReversalOf)

	_, err = f.svc.ReverseSale(f.ctx, saleID)
	assertCode(t, err, apperror.CodeAlreadyReversed)

	_, err = f.svc.ReverseSale(f.ctx, revID)
	assertCode(t, err, apperror.CodeAlreadyReversed)

	view, err := f.svc.GetPartyLedger(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, view.Entries, 2)
	assert.True(t, view.InSync)
}

func TestReverseSale_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ReverseSale(f.ctx, id.New())
	assertCode(t, err, apperror.CodeNotFound)
}

func TestReversePurchase(t *testing.T) {
	f := newFixture(t)
	prod := f.product("Nuts", 0, true)
	s := f.party(party.KindSupplier, "Grove")

	p := supplierPurchase(id.Ptr(s.ID), "400",
		purchase.Line{ProductID: prod.ID, Quantity: 10, BuyPrice: types.MustMoney("100"), BatchNumber: "N1"},
	)
	purchaseID, err := f.svc.ApplyPurchase(f.ctx, p)
	require.NoError(t, err)
	assertMoney(t, "600", f.balance(s.ID))
	assert.Equal(t, int64(10), f.getProduct(prod.ID).Stock)

	_, err = f.svc.ReversePurchase(f.ctx, purchaseID)
	require.NoError(t, err)

	assertMoney(t, "0", f.balance(s.ID))
	assert.Equal(t, int64(0), f.getProduct(prod.ID).Stock)
	assert.Equal(t, int64(0), f.getBatch(prod.ID, "N1").CurrentStock)
	f.assertBatchSum(prod.ID)

	settlements, err := f.store.SupplierPayments().ListByPurchase(f.ctx, purchaseID)
	require.NoError(t, err)
	require.Len(t, settlements, 2)
	assert.Equal(t, payment.SupplierTypeRefund, settlements[1].Type)

	view, err := f.svc.GetPartyLedger(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, view.Entries, 4)
	assert.True(t, view.InSync)

	_, err = f.svc.ReversePurchase(f.ctx, purchaseID)
	assertCode(t, err, apperror.CodeAlreadyReversed)
}

func TestReversePurchase_FailsWhenGoodsSold(t *testing.T) {
	f := newFixture(t)
	prod := f.product("Beans", 0, false)
	p := f.receive(prod.ID, "", 5, "1", nil)

	_, err := f.svc.ApplySale(f.ctx, newSale(nil, "0", line{prod.ID, nil, 4, "2"}))
	require.NoError(t, err)

	_, err = f.svc.ReversePurchase(f.ctx, p.ID)
	assertCode(t, err, apperror.CodeInsufficientStock)
	assert.Equal(t, int64(1), f.getProduct(prod.ID).Stock)

	has, err := f.store.Purchases().HasReversal(f.ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestReversePurchase_SkipsSettlementReversedSeparately(t *testing.T) {
	f := newFixture(t)
	prod := f.product("Dates", 0, false)
	s := f.party(party.KindSupplier, "Oasis")

	purchaseID, err := f.svc.ApplyPurchase(f.ctx, supplierPurchase(id.Ptr(s.ID), "50",
		purchase.Line{ProductID: prod.ID, Quantity: 5, BuyPrice: types.MustMoney("20")},
	))
	require.NoError(t, err)
	assertMoney(t, "50", f.balance(s.ID))

	settlements, err := f.store.SupplierPayments().ListByPurchase(f.ctx, purchaseID)
	require.NoError(t, err)
	require.Len(t, settlements, 1)

	_, err = f.svc.ReverseSupplierPayment(f.ctx, settlements[0].ID)
	require.NoError(t, err)
	assertMoney(t, "100", f.balance(s.ID))

	_, err = f.svc.ReversePurchase(f.ctx, purchaseID)
	require.NoError(t, err)
	assertMoney(t, "0", f.balance(s.ID))

	settlements, err = f.store.SupplierPayments().ListByPurchase(f.ctx, purchaseID)
	require.NoError(t, err)
	assert.Len(t, settlements, 2)
}

func TestReverseCustomerPayment(t *testing.T) {
	f := newFixture(t)
	c := f.party(party.KindCustomer, "Kim")

	paymentID, err := f.svc.ApplyCustomerPayment(f.ctx, receivedPayment(c.ID, "40"))
	require.NoError(t, err)
	assertMoney(t, "-40", f.balance(c.ID))

	revID, err := f.svc.ReverseCustomerPayment(f.ctx, paymentID)
	require.NoError(t, err)
	assertMoney(t, "0", f.balance(c.ID))

	rev, err := f.svc.GetCustomerPayment(f.ctx, revID)
	require.NoError(t, err)
	assert.Equal(t, payment.TypeGiven, rev.Type)

	_, err = f.svc.ReverseCustomerPayment(f.ctx, paymentID)
	assertCode(t, err, apperror.CodeAlreadyReversed)
	_, err = f.svc.ReverseCustomerPayment(f.ctx, revID)
	assertCode(t, err, apperror.CodeAlreadyReversed)
}

func TestReverse_LinesBeforeBatchTracking(t *testing.T) {
	f := newFixture(t)
	p := f.product("Jam", 0, false)
	c := f.party(party.KindCustomer, "Ola")

	bought := supplierPurchase(nil, "12", purchase.Line{ProductID: p.ID, Quantity: 6, BuyPrice: types.MustMoney("2")})
	purchaseID, err := f.svc.ApplyPurchase(f.ctx, bought)
	require.NoError(t, err)
	saleID, err := f.svc.ApplySale(f.ctx, newSale(id.Ptr(c.ID), "8", line{p.ID, nil, 2, "4"}))
	require.NoError(t, err)

	_, err = f.svc.EnableBatchTracking(f.ctx, p.ID, stock.BatchReceipt{})
	require.NoError(t, err)

	_, err = f.svc.ReverseSale(f.ctx, saleID)
	assertCode(t, err, apperror.CodeBusinessRule)
	_, err = f.svc.ReversePurchase(f.ctx, purchaseID)
	assertCode(t, err, apperror.CodeBusinessRule)

	assert.Equal(t, int64(4), f.getProduct(p.ID).Stock)
	f.assertBatchSum(p.ID)
	assertMoney(t, "8", f.balance(c.ID))
}
