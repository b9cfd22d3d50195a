package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/infrastructure/storage/postgres"
)

// PaymentRepo implements payment.Repository.
type PaymentRepo struct {
	*BaseDocumentRepo[*payment.Payment]
}

var _ payment.Repository = (*PaymentRepo)(nil)

// NewPaymentRepo creates a new customer payment repository.
func NewPaymentRepo(txManager *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			"payments",
			"Payment",
			postgres.ExtractDBColumns[payment.Payment](),
			"customer_id",
			"number",
			func() *payment.Payment { return new(payment.Payment) },
		),
	}
}

// ListByCustomer implements payment.Repository.
func (r *PaymentRepo) ListByCustomer(ctx context.Context, customerID id.ID) ([]*payment.Payment, error) {
	return r.Where(ctx, squirrel.Eq{"customer_id": customerID})
}

// SupplierPaymentRepo implements payment.SupplierRepository.
type SupplierPaymentRepo struct {
	*BaseDocumentRepo[*payment.SupplierPayment]
}

var _ payment.SupplierRepository = (*SupplierPaymentRepo)(nil)

// NewSupplierPaymentRepo creates a new supplier payment repository.
func NewSupplierPaymentRepo(txManager *postgres.TxManager) *SupplierPaymentRepo {
	return &SupplierPaymentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			"supplier_payments",
			"SupplierPayment",
			postgres.ExtractDBColumns[payment.SupplierPayment](),
			"supplier_id",
			"number",
			func() *payment.SupplierPayment { return new(payment.SupplierPayment) },
		),
	}
}

// ListBySupplier implements payment.SupplierRepository.
func (r *SupplierPaymentRepo) ListBySupplier(ctx context.Context, supplierID id.ID) ([]*payment.SupplierPayment, error) {
	return r.Where(ctx, squirrel.Eq{"supplier_id": supplierID})
}

// ListByPurchase implements payment.SupplierRepository.
func (r *SupplierPaymentRepo) ListByPurchase(ctx context.Context, purchaseID id.ID) ([]*payment.SupplierPayment, error) {
	return r.Where(ctx, squirrel.Eq{"purchase_id": purchaseID})
}
