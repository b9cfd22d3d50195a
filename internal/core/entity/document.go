package entity

import (
	"context"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
)

// Document is the base type for ledger events (sales, purchases, payments).
// A committed document is immutable; corrections are new documents that
// point at the original through ReversalOf.
type Document struct {
	// ID is the primary key (UUIDv7, so creation order is preserved)
	ID id.ID `db:"id" json:"id"`

	// Number is the human readable document number (auto-generated)
	Number string `db:"number" json:"number"`

	// Date is the business date of the event
	Date time.Time `db:"date" json:"date"`

	// ReversalOf is set on a compensating document
	ReversalOf *id.ID `db:"reversal_of" json:"reversalOf,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewDocument creates a new Document dated now.
func NewDocument() Document {
	now := time.Now().UTC()
	return Document{
		ID:        id.New(),
		Date:      now,
		CreatedAt: now,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewFieldValidation("date", "date is required")
	}
	return nil
}

// IsReversal reports whether the document compensates another one.
func (d *Document) IsReversal() bool {
	return d.ReversalOf != nil
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}

// NewReversalDocument builds the header of a compensating document for original.
// Reversals cannot be reversed themselves.
func NewReversalDocument(entityName string, original *Document) (Document, error) {
	if original.IsReversal() {
		return Document{}, apperror.NewAlreadyReversed(entityName, original.ID.String()).
			WithDetail("reason", "document is itself a reversal")
	}
	doc := NewDocument()
	origID := original.ID
	doc.ReversalOf = &origID
	doc.Notes = "reversal of " + original.Number
	return doc, nil
}
