package ledger

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
)

// EntryKind tags a ledger entry with the event it came from.
type EntryKind string

const (
	EntrySale            EntryKind = "sale"
	EntryPurchase        EntryKind = "purchase"
	EntryPayment         EntryKind = "payment"
	EntrySupplierPayment EntryKind = "supplier_payment"
)

// Event is a balance-affecting document. The set is closed: SaleEvent,
// PurchaseEvent, PaymentEvent and SupplierPaymentEvent.
type Event interface {
	project() Entry
}

type (
	SaleEvent            struct{ *sale.Sale }
	PurchaseEvent        struct{ *purchase.Purchase }
	PaymentEvent         struct{ *payment.Payment }
	SupplierPaymentEvent struct{ *payment.SupplierPayment }
)

// Entry is one row of a party ledger. Debit raises the balance,
// Credit lowers it.
type Entry struct {
	Date           time.Time   `json:"date"`
	CreatedAt      time.Time   `json:"createdAt"`
	Kind           EntryKind   `json:"kind"`
	DocumentID     id.ID       `json:"documentId"`
	Number         string      `json:"number"`
	Description    string      `json:"description"`
	Debit          types.Money `json:"debit"`
	Credit         types.Money `json:"credit"`
	RunningBalance types.Money `json:"runningBalance"`
	ReversalOf     *id.ID      `json:"reversalOf,omitempty"`
}

// PartyLedger is the statement of one party.
type PartyLedger struct {
	Party *party.Party `json:"party"`

	// Entries newest first
	Entries []Entry `json:"entries"`

	// Balance is the stored CurrentBalance
	Balance types.Money `json:"balance"`

	// Computed is the sum of all entries
	Computed types.Money `json:"computed"`

	// Drift = Balance - Computed; zero when in sync
	Drift  types.Money `json:"drift"`
	InSync bool        `json:"inSync"`
}

func newEntry(kind EntryKind, docID id.ID, number string, date, created time.Time, reversalOf *id.ID, contribution types.Money, desc string) Entry {
	e := Entry{
		Date:        date,
		CreatedAt:   created,
		Kind:        kind,
		DocumentID:  docID,
		Number:      number,
		Description: desc,
		Debit:       types.Zero(),
		Credit:      types.Zero(),
		ReversalOf:  reversalOf,
	}
	if contribution.IsNegative() {
		e.Credit = contribution.Neg()
	} else {
		e.Debit = contribution
	}
	return e
}

func (e SaleEvent) project() Entry {
	desc := fmt.Sprintf("Sale, total %s, due %s", e.Total.StringFixed(types.MoneyScale), e.DueAmount.StringFixed(types.MoneyScale))
	if e.IsReversal() {
		desc = "Sale reversal, " + e.Notes
	}
	return newEntry(EntrySale, e.ID, e.Number, e.Date, e.CreatedAt, e.ReversalOf, SaleContribution(e.Sale), desc)
}

func (e PurchaseEvent) project() Entry {
	desc := fmt.Sprintf("Purchase, total %s", e.GrandTotal.StringFixed(types.MoneyScale))
	if e.IsReversal() {
		desc = "Purchase reversal, " + e.Notes
	}
	return newEntry(EntryPurchase, e.ID, e.Number, e.Date, e.CreatedAt, e.ReversalOf, PurchaseContribution(e.Purchase), desc)
}

func (e PaymentEvent) project() Entry {
	desc := "Payment received"
	if e.Type == payment.TypeGiven {
		desc = "Payment given"
	}
	if e.Notes != "" {
		desc += ", " + e.Notes
	}
	return newEntry(EntryPayment, e.ID, e.Number, e.Date, e.CreatedAt, e.ReversalOf, PaymentContribution(e.Payment), desc)
}

func (e SupplierPaymentEvent) project() Entry {
	desc := "Paid to supplier"
	if e.Type == payment.SupplierTypeRefund {
		desc = "Refund from supplier"
	}
	if e.Notes != "" {
		desc += ", " + e.Notes
	}
	return newEntry(EntrySupplierPayment, e.ID, e.Number, e.Date, e.CreatedAt, e.ReversalOf, SupplierPaymentContribution(e.SupplierPayment), desc)
}

// Project turns events into ledger entries with running balances.
// Balances accumulate oldest first, ordered by date, then creation time,
// then document ID. The result is returned newest first together with the
// final balance.
func Project(evts []Event) ([]Entry, types.Money) {
	entries := make([]Entry, 0, len(evts))
	for _, ev := range evts {
		entries = append(entries, ev.project())
	}

	slices.SortFunc(entries, compareEntries)

	running := types.Zero()
	for i := range entries {
		running = running.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].RunningBalance = running
	}

	slices.Reverse(entries)
	return entries, running
}

func compareEntries(a, b Entry) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return bytes.Compare(a.DocumentID[:], b.DocumentID[:])
}

// GetPartyLedger builds the statement of a customer or supplier. It only
// reads; drift between the stored balance and the entries is reported, not
// corrected.
func (s *Service) GetPartyLedger(ctx context.Context, partyID id.ID) (*PartyLedger, error) {
	p, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewPartyNotFound("Party", partyID.String())
		}
		return nil, fmt.Errorf("get party: %w", err)
	}

	evts, err := s.partyEvents(ctx, p)
	if err != nil {
		return nil, err
	}

	entries, computed := Project(evts)
	drift := p.CurrentBalance.Sub(computed)
	return &PartyLedger{
		Party:    p,
		Entries:  entries,
		Balance:  p.CurrentBalance,
		Computed: computed,
		Drift:    drift,
		InSync:   drift.IsZero(),
	}, nil
}

// partyEvents loads every balance-affecting document of the party. Fully
// paid sales are skipped.
func (s *Service) partyEvents(ctx context.Context, p *party.Party) ([]Event, error) {
	var evts []Event

	switch p.Kind {
	case party.KindCustomer:
		sales, err := s.sales.ListByCustomer(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}
		for _, sl := range sales {
			// a sale settled at the counter leaves no trace on the balance
			if SaleContribution(sl).IsZero() {
				continue
			}
			evts = append(evts, SaleEvent{sl})
		}
		payments, err := s.payments.ListByCustomer(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
		for _, pm := range payments {
			evts = append(evts, PaymentEvent{pm})
		}

	case party.KindSupplier:
		purchases, err := s.purchases.ListBySupplier(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list purchases: %w", err)
		}
		for _, pu := range purchases {
			evts = append(evts, PurchaseEvent{pu})
		}
		payments, err := s.supplierPayments.ListBySupplier(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list supplier payments: %w", err)
		}
		for _, sp := range payments {
			evts = append(evts, SupplierPaymentEvent{sp})
		}
	}

	return evts, nil
}
