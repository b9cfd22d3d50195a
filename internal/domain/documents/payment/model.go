// Package payment provides the customer Payment and SupplierPayment documents.
// Both are append-only cash movements against a party balance.
package payment

import (
	"context"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Type of a customer payment.
type Type string

const (
	// TypeReceived: cash from the customer, reduces what they owe.
	TypeReceived Type = "received"
	// TypeGiven: cash to the customer (refund or advance), increases the balance.
	TypeGiven Type = "given"
)

// SupplierType of a supplier payment.
type SupplierType string

const (
	// SupplierTypePaid: cash to the supplier, reduces what the shop owes.
	SupplierTypePaid SupplierType = "paid"
	// SupplierTypeRefund: cash back from the supplier, increases the balance.
	SupplierTypeRefund SupplierType = "refund"
)

// Opposite returns the type that cancels t.
func (t Type) Opposite() Type {
	if t == TypeReceived {
		return TypeGiven
	}
	return TypeReceived
}

// Opposite returns the type that cancels t.
func (t SupplierType) Opposite() SupplierType {
	if t == SupplierTypePaid {
		return SupplierTypeRefund
	}
	return SupplierTypePaid
}

// Payment is a cash movement between the shop and a customer.
type Payment struct {
	entity.Document

	CustomerID id.ID       `db:"customer_id" json:"customerId"`
	Amount     types.Money `db:"amount" json:"amount"`
	Type       Type        `db:"type" json:"type"`
}

// NewPayment creates a customer payment dated now.
func NewPayment(customerID id.ID, amount types.Money, t Type) *Payment {
	return &Payment{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Amount:     amount,
		Type:       t,
	}
}

// Validate implements entity.Validatable interface.
func (p *Payment) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.CustomerID) {
		return apperror.NewFieldValidation("customerId", "customer is required")
	}
	if !p.Amount.IsPositive() {
		return apperror.NewFieldValidation("amount", "amount must be positive")
	}
	if err := entity.CheckMoneyScale("amount", p.Amount); err != nil {
		return err
	}
	if p.Type != TypeReceived && p.Type != TypeGiven {
		return apperror.NewValidation("invalid payment type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}
	return nil
}

// NewReversal builds the opposite payment for the same amount.
func NewReversal(original *Payment) (*Payment, error) {
	doc, err := entity.NewReversalDocument("Payment", &original.Document)
	if err != nil {
		return nil, err
	}
	return &Payment{
		Document:   doc,
		CustomerID: original.CustomerID,
		Amount:     original.Amount,
		Type:       original.Type.Opposite(),
	}, nil
}

// SupplierPayment is a cash movement between the shop and a supplier.
type SupplierPayment struct {
	entity.Document

	SupplierID id.ID        `db:"supplier_id" json:"supplierId"`
	Amount     types.Money  `db:"amount" json:"amount"`
	Type       SupplierType `db:"type" json:"type"`

	// PurchaseID links the settlement recorded together with a purchase
	PurchaseID *id.ID `db:"purchase_id" json:"purchaseId,omitempty"`
}

// NewSupplierPayment creates a supplier payment dated now.
func NewSupplierPayment(supplierID id.ID, amount types.Money, t SupplierType) *SupplierPayment {
	return &SupplierPayment{
		Document:   entity.NewDocument(),
		SupplierID: supplierID,
		Amount:     amount,
		Type:       t,
	}
}

// Validate implements entity.Validatable interface.
func (p *SupplierPayment) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.SupplierID) {
		return apperror.NewFieldValidation("supplierId", "supplier is required")
	}
	if !p.Amount.IsPositive() {
		return apperror.NewFieldValidation("amount", "amount must be positive")
	}
	if err := entity.CheckMoneyScale("amount", p.Amount); err != nil {
		return err
	}
	if p.Type != SupplierTypePaid && p.Type != SupplierTypeRefund {
		return apperror.NewValidation("invalid supplier payment type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}
	return nil
}

// NewSupplierReversal builds the opposite supplier payment for the same amount.
func NewSupplierReversal(original *SupplierPayment) (*SupplierPayment, error) {
	doc, err := entity.NewReversalDocument("SupplierPayment", &original.Document)
	if err != nil {
		return nil, err
	}
	return &SupplierPayment{
		Document:   doc,
		SupplierID: original.SupplierID,
		Amount:     original.Amount,
		Type:       original.Type.Opposite(),
		PurchaseID: original.PurchaseID,
	}, nil
}
