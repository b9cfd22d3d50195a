// Package events defines the domain events emitted after ledger mutations.
// Events are written to the transactional outbox in the same transaction
// as the mutation and relayed by the worker.
package events

import (
	"context"
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Aggregate types.
const (
	AggregateSale            = "Sale"
	AggregatePurchase        = "Purchase"
	AggregatePayment         = "Payment"
	AggregateSupplierPayment = "SupplierPayment"
	AggregateProduct         = "Product"
	AggregateParty           = "Party"
)

// Event types.
const (
	SaleApplied            = "SaleApplied"
	SaleReversed           = "SaleReversed"
	PurchaseApplied        = "PurchaseApplied"
	PurchaseReversed       = "PurchaseReversed"
	PaymentApplied         = "PaymentApplied"
	SupplierPaymentApplied = "SupplierPaymentApplied"
	StockAdjusted          = "StockAdjusted"
	BatchTrackingEnabled   = "BatchTrackingEnabled"
	BalanceCorrected       = "BalanceCorrected"
	StockLow               = "StockLow"
	BatchExpiring          = "BatchExpiring"
)

// Event is a domain event to be published via the outbox.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// Publisher writes events. Implementations must join the transaction in ctx
// when there is one, so events commit or roll back with the mutation.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// --- Payloads ---

// DocumentPayload describes a committed ledger document.
type DocumentPayload struct {
	DocumentID   id.ID       `json:"documentId"`
	Number       string      `json:"number"`
	PartyID      *id.ID      `json:"partyId,omitempty"`
	Amount       types.Money `json:"amount"`
	BalanceDelta types.Money `json:"balanceDelta"`
	ProductIDs   []id.ID     `json:"productIds,omitempty"`
	ReversalOf   *id.ID      `json:"reversalOf,omitempty"`
	OccurredAt   time.Time   `json:"occurredAt"`
}

// StockPayload describes a stock change or a stock alert.
type StockPayload struct {
	ProductID    id.ID      `json:"productId"`
	BatchID      *id.ID     `json:"batchId,omitempty"`
	Delta        int64      `json:"delta,omitempty"`
	Stock        int64      `json:"stock"`
	ReorderLevel int64      `json:"reorderLevel,omitempty"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
	Rule         string     `json:"rule,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	OccurredAt   time.Time  `json:"occurredAt"`
}

// BalancePayload describes a reconciliation correction.
type BalancePayload struct {
	PartyID  id.ID       `json:"partyId"`
	Stored   types.Money `json:"stored"`
	Computed types.Money `json:"computed"`
}
