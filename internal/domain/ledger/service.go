// Package ledger applies sales, purchases and payments atomically to stock
// and party balances, and projects the per-party ledger.
//
// Every write operation validates its input before opening a transaction,
// then performs all effects inside a single tx.Manager transaction. Derived
// state (product stock, batch stock, party balances) is updated
// incrementally; Reconcile recomputes it from the event log.
package ledger

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/registers/stock"
	"shopledger/pkg/logger"
)

// StockObserver is notified after a committed operation touched products.
// It must not fail the operation; errors are the observer's own concern.
type StockObserver interface {
	ProductsChanged(ctx context.Context, productIDs []id.ID)
}

// Deps holds the collaborators of the ledger service.
type Deps struct {
	TxManager        tx.Manager
	Products         product.Repository
	Batches          product.BatchRepository
	Parties          party.Repository
	Sales            sale.Repository
	Purchases        purchase.Repository
	Payments         payment.Repository
	SupplierPayments payment.SupplierRepository
	Resolver         *stock.Resolver
	Numerator        numerator.Generator

	// NumberingOptions selects the numbering strategy (nil = strict)
	NumberingOptions *numerator.Options

	// Publisher receives outbox events inside the transaction (optional)
	Publisher events.Publisher

	// Observer runs after commit (optional)
	Observer StockObserver

	// Now is the clock (optional, for tests)
	Now func() time.Time
}

// Service is the ledger updater and ledger view.
type Service struct {
	txm              tx.Manager
	products         product.Repository
	batches          product.BatchRepository
	parties          party.Repository
	sales            sale.Repository
	purchases        purchase.Repository
	payments         payment.Repository
	supplierPayments payment.SupplierRepository
	resolver         *stock.Resolver
	numerator        numerator.Generator
	numOpts          *numerator.Options
	publisher        events.Publisher
	observer         StockObserver
	now              func() time.Time
}

// NewService creates a new ledger service.
func NewService(d Deps) *Service {
	s := &Service{
		txm:              d.TxManager,
		products:         d.Products,
		batches:          d.Batches,
		parties:          d.Parties,
		sales:            d.Sales,
		purchases:        d.Purchases,
		payments:         d.Payments,
		supplierPayments: d.SupplierPayments,
		resolver:         d.Resolver,
		numerator:        d.Numerator,
		numOpts:          d.NumberingOptions,
		publisher:        d.Publisher,
		observer:         d.Observer,
		now:              d.Now,
	}
	if s.resolver == nil {
		s.resolver = stock.NewResolver(d.Products, d.Batches)
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// SetObserver attaches the post-commit stock observer.
func (s *Service) SetObserver(o StockObserver) {
	s.observer = o
}

// requireParty checks that the party exists with the expected kind.
func (s *Service) requireParty(ctx context.Context, kind party.Kind, partyID id.ID) (*party.Party, error) {
	p, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewPartyNotFound(kind.Label(), partyID.String())
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	if p.Kind != kind {
		return nil, apperror.NewPartyNotFound(kind.Label(), partyID.String())
	}
	return p, nil
}

// requireProduct loads a product, mapping absence to NOT_FOUND with the line number.
func (s *Service) requireProduct(ctx context.Context, productID id.ID, lineNo int) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("Product", productID.String()).WithDetail("lineNo", lineNo)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// requireLineBatch rejects reversing a line recorded before its product
// switched to batch tracking: that quantity has no batch to go back to or
// come out of.
func (s *Service) requireLineBatch(ctx context.Context, entityName string, productID id.ID, batchID *id.ID, lineNo int) error {
	if batchID != nil {
		return nil
	}
	p, err := s.requireProduct(ctx, productID, lineNo)
	if err != nil {
		return err
	}
	if !p.IsBatchTracked {
		return nil
	}
	return apperror.NewBusinessRule(apperror.CodeBusinessRule,
		fmt.Sprintf("%s line predates batch tracking of the product; correct stock with a batch adjustment", entityName)).
		WithDetail("productId", productID.String()).
		WithDetail("lineNo", lineNo)
}

// adjustBalance adds delta to the party's stored balance under a row lock.
func (s *Service) adjustBalance(ctx context.Context, kind party.Kind, partyID id.ID, delta types.Money) (types.Money, error) {
	p, err := s.parties.GetForUpdate(ctx, partyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return types.Zero(), apperror.NewPartyNotFound(kind.Label(), partyID.String())
		}
		return types.Zero(), fmt.Errorf("lock party: %w", err)
	}
	if delta.IsZero() {
		return p.CurrentBalance, nil
	}
	balance := p.CurrentBalance.Add(delta)
	if err := s.parties.UpdateBalance(ctx, partyID, balance); err != nil {
		return types.Zero(), fmt.Errorf("update balance: %w", err)
	}
	return balance, nil
}

func (s *Service) nextNumber(ctx context.Context, prefix string, date time.Time) (string, error) {
	num, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(prefix), s.numOpts, date)
	if err != nil {
		return "", fmt.Errorf("generate %s number: %w", prefix, err)
	}
	return num, nil
}

func (s *Service) publish(ctx context.Context, aggregateType string, aggregateID id.ID, eventType string, payload any) error {
	err := s.publisher.Publish(ctx, events.Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// afterCommit runs the best-effort observer.
func (s *Service) afterCommit(ctx context.Context, productIDs []id.ID) {
	if s.observer == nil || len(productIDs) == 0 {
		return
	}
	s.observer.ProductsChanged(ctx, productIDs)
}

// run executes fn in a transaction and logs rollbacks.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := s.txm.RunInTransaction(ctx, fn); err != nil {
		logger.Warn(ctx, "ledger operation rolled back", "operation", op, "error", err)
		return err
	}
	return nil
}
