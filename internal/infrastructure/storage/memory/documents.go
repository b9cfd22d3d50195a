package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/domain"
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
)

// journal implements append-only document storage over a table.
type journal[T any] struct {
	s          *Store
	tb         *table[T]
	entityName string
	doc        func(*T) *entity.Document
}

func (j journal[T]) create(ctx context.Context, v *T) error {
	return j.s.write(ctx, func(t *memTx) error {
		d := j.doc(v)
		if j.tb.has(d.ID) {
			return apperror.NewDuplicate(j.entityName, "id", d.ID.String())
		}
		if d.Number != "" {
			for _, key := range j.tb.order {
				existing := j.tb.rows[key]
				if j.doc(&existing).Number == d.Number {
					return apperror.NewDuplicate(j.entityName, "number", d.Number)
				}
			}
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = j.s.now()
		}
		j.tb.insert(t, d.ID, *v)
		return nil
	})
}

func (j journal[T]) getByID(ctx context.Context, key id.ID) (*T, error) {
	var (
		v  *T
		ok bool
	)
	j.s.read(ctx, func() { v, ok = j.tb.get(key) })
	if !ok {
		return nil, apperror.NewNotFound(j.entityName, key.String())
	}
	return v, nil
}

// where returns documents matching keep, oldest first.
func (j journal[T]) where(ctx context.Context, keep func(*T) bool) []*T {
	var items []*T
	j.s.read(ctx, func() { items = j.tb.all(keep) })
	slices.SortStableFunc(items, func(a, b *T) int {
		da, db := j.doc(a), j.doc(b)
		if c := da.Date.Compare(db.Date); c != 0 {
			return c
		}
		return da.CreatedAt.Compare(db.CreatedAt)
	})
	return items
}

// list applies the date range and returns newest first.
func (j journal[T]) list(ctx context.Context, filter domain.ListFilter, keep func(*T) bool) domain.ListResult[*T] {
	items := j.where(ctx, func(v *T) bool {
		d := j.doc(v)
		if !inRange(d.Date, filter.DateFrom, filter.DateTo) {
			return false
		}
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, d.ID) {
			return false
		}
		return keep == nil || keep(v)
	})
	if !strings.HasPrefix(filter.OrderBy, "date") {
		slices.Reverse(items)
	}
	return domain.ListResult[*T]{
		Items:      paginate(items, filter.Limit, filter.Offset),
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
}

func (j journal[T]) hasReversal(ctx context.Context, originalID id.ID) bool {
	found := false
	j.s.read(ctx, func() {
		for _, v := range j.tb.rows {
			if r := j.doc(&v).ReversalOf; r != nil && *r == originalID {
				found = true
				return
			}
		}
	})
	return found
}

func inRange(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

// --- Sales ---

type saleRepo struct {
	journal[sale.Sale]
}

// Sales returns the sale repository.
func (s *Store) Sales() sale.Repository {
	return &saleRepo{journal[sale.Sale]{
		s:          s,
		tb:         s.sales,
		entityName: "Sale",
		doc:        func(v *sale.Sale) *entity.Document { return &v.Document },
	}}
}

func (r *saleRepo) Create(ctx context.Context, v *sale.Sale) error {
	for i := range v.Lines {
		v.Lines[i].SaleID = v.ID
	}
	return r.create(ctx, v)
}

func (r *saleRepo) GetByID(ctx context.Context, key id.ID) (*sale.Sale, error) {
	return r.getByID(ctx, key)
}

func (r *saleRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*sale.Sale], error) {
	res := r.list(ctx, filter, func(v *sale.Sale) bool {
		return filter.PartyID == nil || id.Equal(v.CustomerID, filter.PartyID)
	})
	for _, v := range res.Items {
		v.Lines = nil
	}
	return res, nil
}

func (r *saleRepo) ListByCustomer(ctx context.Context, customerID id.ID) ([]*sale.Sale, error) {
	items := r.where(ctx, func(v *sale.Sale) bool { return id.Equal(v.CustomerID, &customerID) })
	for _, v := range items {
		v.Lines = nil
	}
	return items, nil
}

func (r *saleRepo) HasReversal(ctx context.Context, originalID id.ID) (bool, error) {
	return r.hasReversal(ctx, originalID), nil
}

// --- Purchases ---

type purchaseRepo struct {
	journal[purchase.Purchase]
}

// Purchases returns the purchase repository.
func (s *Store) Purchases() purchase.Repository {
	return &purchaseRepo{journal[purchase.Purchase]{
		s:          s,
		tb:         s.purchases,
		entityName: "Purchase",
		doc:        func(v *purchase.Purchase) *entity.Document { return &v.Document },
	}}
}

func (r *purchaseRepo) Create(ctx context.Context, v *purchase.Purchase) error {
	for i := range v.Lines {
		v.Lines[i].PurchaseID = v.ID
	}
	return r.create(ctx, v)
}

func (r *purchaseRepo) GetByID(ctx context.Context, key id.ID) (*purchase.Purchase, error) {
	return r.getByID(ctx, key)
}

func (r *purchaseRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	res := r.list(ctx, filter, func(v *purchase.Purchase) bool {
		return filter.PartyID == nil || id.Equal(v.SupplierID, filter.PartyID)
	})
	for _, v := range res.Items {
		v.Lines = nil
	}
	return res, nil
}

func (r *purchaseRepo) ListBySupplier(ctx context.Context, supplierID id.ID) ([]*purchase.Purchase, error) {
	items := r.where(ctx, func(v *purchase.Purchase) bool { return id.Equal(v.SupplierID, &supplierID) })
	for _, v := range items {
		v.Lines = nil
	}
	return items, nil
}

func (r *purchaseRepo) HasReversal(ctx context.Context, originalID id.ID) (bool, error) {
	return r.hasReversal(ctx, originalID), nil
}

// --- Payments ---

type paymentRepo struct {
	journal[payment.Payment]
}

// Payments returns the customer payment repository.
func (s *Store) Payments() payment.Repository {
	return &paymentRepo{journal[payment.Payment]{
		s:          s,
		tb:         s.payments,
		entityName: "Payment",
		doc:        func(v *payment.Payment) *entity.Document { return &v.Document },
	}}
}

func (r *paymentRepo) Create(ctx context.Context, v *payment.Payment) error {
	return r.create(ctx, v)
}

func (r *paymentRepo) GetByID(ctx context.Context, key id.ID) (*payment.Payment, error) {
	return r.getByID(ctx, key)
}

func (r *paymentRepo) ListByCustomer(ctx context.Context, customerID id.ID) ([]*payment.Payment, error) {
	return r.where(ctx, func(v *payment.Payment) bool { return v.CustomerID == customerID }), nil
}

func (r *paymentRepo) HasReversal(ctx context.Context, originalID id.ID) (bool, error) {
	return r.hasReversal(ctx, originalID), nil
}

type supplierPaymentRepo struct {
	journal[payment.SupplierPayment]
}

// SupplierPayments returns the supplier payment repository.
func (s *Store) SupplierPayments() payment.SupplierRepository {
	return &supplierPaymentRepo{journal[payment.SupplierPayment]{
		s:          s,
		tb:         s.supplierPayments,
		entityName: "SupplierPayment",
		doc:        func(v *payment.SupplierPayment) *entity.Document { return &v.Document },
	}}
}

func (r *supplierPaymentRepo) Create(ctx context.Context, v *payment.SupplierPayment) error {
	return r.create(ctx, v)
}

func (r *supplierPaymentRepo) GetByID(ctx context.Context, key id.ID) (*payment.SupplierPayment, error) {
	return r.getByID(ctx, key)
}

func (r *supplierPaymentRepo) ListBySupplier(ctx context.Context, supplierID id.ID) ([]*payment.SupplierPayment, error) {
	return r.where(ctx, func(v *payment.SupplierPayment) bool { return v.SupplierID == supplierID }), nil
}

func (r *supplierPaymentRepo) ListByPurchase(ctx context.Context, purchaseID id.ID) ([]*payment.SupplierPayment, error) {
	return r.where(ctx, func(v *payment.SupplierPayment) bool { return id.Equal(v.PurchaseID, &purchaseID) }), nil
}

func (r *supplierPaymentRepo) HasReversal(ctx context.Context, originalID id.ID) (bool, error) {
	return r.hasReversal(ctx, originalID), nil
}

// --- Expenses ---

type expenseRepo struct {
	journal[expense.Expense]
}

// Expenses returns the expense repository.
func (s *Store) Expenses() expense.Repository {
	return &expenseRepo{journal[expense.Expense]{
		s:          s,
		tb:         s.expenses,
		entityName: "Expense",
		doc:        func(v *expense.Expense) *entity.Document { return &v.Document },
	}}
}

func (r *expenseRepo) Create(ctx context.Context, v *expense.Expense) error {
	return r.create(ctx, v)
}

func (r *expenseRepo) GetByID(ctx context.Context, key id.ID) (*expense.Expense, error) {
	return r.getByID(ctx, key)
}

func (r *expenseRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*expense.Expense], error) {
	search := strings.ToLower(filter.Search)
	return r.list(ctx, filter, func(v *expense.Expense) bool {
		return search == "" || strings.Contains(strings.ToLower(v.Category), search)
	}), nil
}
