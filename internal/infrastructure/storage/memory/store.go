// Package memory provides an in-process transactional store implementing
// every repository contract, tx.Manager, the numbering generator, the event
// outbox and the idempotency store.
//
// A single RWMutex guards all tables. A transaction holds the write lock
// for its whole duration and records an undo log; reads outside a
// transaction take the read lock. Returned records are copies.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain/catalogs/category"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
	"shopledger/internal/domain/events"
	"shopledger/pkg/logger"
)

// Store is the in-memory database.
type Store struct {
	mu sync.RWMutex

	products         *table[product.Product]
	batches          *table[product.Batch]
	parties          *table[party.Party]
	categories       *table[category.Category]
	sales            *table[sale.Sale]
	purchases        *table[purchase.Purchase]
	payments         *table[payment.Payment]
	supplierPayments *table[payment.SupplierPayment]
	expenses         *table[expense.Expense]

	sequences   map[string]int64
	outbox      []OutboxMessage
	idempotency map[string]*idempotencyRecord

	idempotencyTTL time.Duration
	now            func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithClock replaces the clock (outbox timestamps, idempotency expiry).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIdempotencyTTL sets how long idempotency keys are kept.
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(s *Store) { s.idempotencyTTL = ttl }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		products:         newTable[product.Product](nil),
		batches:          newTable[product.Batch](nil),
		parties:          newTable[party.Party](nil),
		categories:       newTable[category.Category](nil),
		sales:            newTable(cloneSale),
		purchases:        newTable(clonePurchase),
		payments:         newTable[payment.Payment](nil),
		supplierPayments: newTable[payment.SupplierPayment](nil),
		expenses:         newTable[expense.Expense](nil),
		sequences:        make(map[string]int64),
		idempotency:      make(map[string]*idempotencyRecord),
		idempotencyTTL:   24 * time.Hour,
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Transactions ---

type txKey struct{}

// memTx is the undo log of a running transaction.
type memTx struct {
	undo []func()
}

func (t *memTx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func txFromContext(ctx context.Context) *memTx {
	t, _ := ctx.Value(txKey{}).(*memTx)
	return t
}

// RunInTransaction implements tx.Manager. Nested calls reuse the running
// transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &memTx{}
	txCtx := context.WithValue(ctx, txKey{}, t)

	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			logger.Error(ctx, "transaction panicked, rolled back", "panic", p)
			err = apperror.NewInternal(fmt.Errorf("panic in transaction: %v", p))
		}
	}()

	if err := fn(txCtx); err != nil {
		t.rollback()
		logger.Debug(ctx, "transaction rolled back", "error", err)
		return err
	}
	return nil
}

// ReadOnly implements tx.ReadOnlyManager: fn sees one consistent snapshot.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(context.WithValue(ctx, txKey{}, &memTx{}))
}

// read runs fn under the read lock unless a transaction already holds the store.
func (s *Store) read(ctx context.Context, fn func()) {
	if txFromContext(ctx) != nil {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// write runs fn inside the caller's transaction, or an implicit one.
func (s *Store) write(ctx context.Context, fn func(t *memTx) error) error {
	if t := txFromContext(ctx); t != nil {
		return fn(t)
	}
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		return fn(txFromContext(ctx))
	})
}

// --- Tables ---

// table keeps rows by ID in insertion order.
type table[T any] struct {
	rows  map[id.ID]T
	order []id.ID
	clone func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &table[T]{rows: make(map[id.ID]T), clone: clone}
}

func (tb *table[T]) get(key id.ID) (*T, bool) {
	v, ok := tb.rows[key]
	if !ok {
		return nil, false
	}
	c := tb.clone(v)
	return &c, true
}

func (tb *table[T]) has(key id.ID) bool {
	_, ok := tb.rows[key]
	return ok
}

func (tb *table[T]) insert(t *memTx, key id.ID, v T) {
	tb.rows[key] = tb.clone(v)
	tb.order = append(tb.order, key)
	t.onRollback(func() {
		delete(tb.rows, key)
		tb.order = tb.order[:len(tb.order)-1]
	})
}

func (tb *table[T]) replace(t *memTx, key id.ID, v T) {
	prev := tb.rows[key]
	tb.rows[key] = tb.clone(v)
	t.onRollback(func() { tb.rows[key] = prev })
}

// all returns copies of the rows matching keep, in insertion order.
func (tb *table[T]) all(keep func(*T) bool) []*T {
	out := make([]*T, 0)
	for _, key := range tb.order {
		v := tb.clone(tb.rows[key])
		if keep == nil || keep(&v) {
			out = append(out, &v)
		}
	}
	return out
}

func cloneSale(s sale.Sale) sale.Sale {
	s.Lines = slices.Clone(s.Lines)
	return s
}

func clonePurchase(p purchase.Purchase) purchase.Purchase {
	p.Lines = slices.Clone(p.Lines)
	return p
}

// paginate applies limit/offset. A non-positive limit returns everything.
func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var (
	_ tx.Manager         = (*Store)(nil)
	_ tx.ReadOnlyManager = (*Store)(nil)
	_ events.Publisher   = (*Store)(nil)
)
