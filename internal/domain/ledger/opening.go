package ledger

import (
	"context"
	"fmt"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/payment"
	"shopledger/pkg/logger"
)

// OpeningBalanceNote marks payments that carry a party's opening balance.
const OpeningBalanceNote = "Opening balance"

// RecordOpeningBalance brings a new party to amount through an ordinary payment
// event, so the ledger view explains the balance. A positive amount means the
// customer owes the shop or the shop owes the supplier. The party must have no
// documents yet.
func (s *Service) RecordOpeningBalance(ctx context.Context, partyID id.ID, amount types.Money) (id.ID, error) {
	if amount.IsZero() {
		return id.Nil(), apperror.NewFieldValidation("openingBalance", "opening balance must be non-zero")
	}
	if err := entity.CheckMoneyScale("openingBalance", amount); err != nil {
		return id.Nil(), err
	}

	p, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return id.Nil(), apperror.NewNotFound("Party", partyID.String())
		}
		return id.Nil(), err
	}

	var (
		docID  id.ID
		create func(ctx context.Context) error
	)
	if p.Kind == party.KindCustomer {
		t := payment.TypeGiven
		if amount.IsNegative() {
			t = payment.TypeReceived
		}
		pay := payment.NewPayment(partyID, amount.Abs(), t)
		pay.Notes = OpeningBalanceNote
		if err := pay.Validate(ctx); err != nil {
			return id.Nil(), err
		}
		docID = pay.ID
		create = func(ctx context.Context) error {
			_, err := s.createPayment(ctx, pay)
			return err
		}
	} else {
		t := payment.SupplierTypeRefund
		if amount.IsNegative() {
			t = payment.SupplierTypePaid
		}
		pay := payment.NewSupplierPayment(partyID, amount.Abs(), t)
		pay.Notes = OpeningBalanceNote
		if err := pay.Validate(ctx); err != nil {
			return id.Nil(), err
		}
		docID = pay.ID
		create = func(ctx context.Context) error {
			return s.createSupplierPayment(ctx, pay)
		}
	}

	err = s.run(ctx, "record_opening_balance", func(ctx context.Context) error {
		locked, err := s.parties.GetForUpdate(ctx, partyID)
		if err != nil {
			return fmt.Errorf("lock party: %w", err)
		}
		evts, err := s.partyEvents(ctx, locked)
		if err != nil {
			return err
		}
		if len(evts) > 0 || !locked.CurrentBalance.IsZero() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "opening balance can only be recorded before any other document").
				WithDetail("partyId", partyID.String()).
				WithDetail("documents", len(evts))
		}
		return create(ctx)
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "opening balance recorded",
		"party_id", partyID,
		"kind", p.Kind,
		"amount", amount.String(),
		"payment_id", docID,
	)
	return docID, nil
}
