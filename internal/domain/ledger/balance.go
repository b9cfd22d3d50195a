package ledger

import (
	"shopledger/internal/core/types"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
)

// Balance contributions. A positive value raises the party balance:
// for a customer that is more owed to the shop, for a supplier more owed
// by the shop. The updater, the ledger view and reconciliation all use
// these functions, so stored and recomputed balances agree by construction.

// SaleContribution is +DueAmount (negated for a reversal). Zero without a customer.
func SaleContribution(s *sale.Sale) types.Money {
	if s.CustomerID == nil {
		return types.Zero()
	}
	if s.IsReversal() {
		return s.DueAmount.Neg()
	}
	return s.DueAmount
}

// PurchaseContribution is +GrandTotal (negated for a reversal). The amount
// paid on the spot is a separate SupplierPayment. Zero without a supplier.
func PurchaseContribution(p *purchase.Purchase) types.Money {
	if p.SupplierID == nil {
		return types.Zero()
	}
	if p.IsReversal() {
		return p.GrandTotal.Neg()
	}
	return p.GrandTotal
}

// PaymentContribution: received lowers the balance, given raises it.
func PaymentContribution(p *payment.Payment) types.Money {
	if p.Type == payment.TypeReceived {
		return p.Amount.Neg()
	}
	return p.Amount
}

// SupplierPaymentContribution: paid lowers the balance, refund raises it.
func SupplierPaymentContribution(p *payment.SupplierPayment) types.Money {
	if p.Type == payment.SupplierTypePaid {
		return p.Amount.Neg()
	}
	return p.Amount
}
