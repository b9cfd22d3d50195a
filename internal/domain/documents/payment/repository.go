package payment

import (
	"context"

	"shopledger/internal/core/id"
)

// Repository defines data access for customer payments.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id id.ID) (*Payment, error)
	ListByCustomer(ctx context.Context, customerID id.ID) ([]*Payment, error)
	HasReversal(ctx context.Context, originalID id.ID) (bool, error)
}

// SupplierRepository defines data access for supplier payments.
type SupplierRepository interface {
	Create(ctx context.Context, p *SupplierPayment) error
	GetByID(ctx context.Context, id id.ID) (*SupplierPayment, error)
	ListBySupplier(ctx context.Context, supplierID id.ID) ([]*SupplierPayment, error)

	// ListByPurchase returns payments linked to a purchase (settlement and its reversal).
	ListByPurchase(ctx context.Context, purchaseID id.ID) ([]*SupplierPayment, error)

	HasReversal(ctx context.Context, originalID id.ID) (bool, error)
}
