package ledger

import (
	"context"
	"fmt"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/events"
	"shopledger/pkg/logger"
)

// ApplyCustomerPayment records a cash movement with a customer and moves
// the balance by its signed contribution.
func (s *Service) ApplyCustomerPayment(ctx context.Context, p *payment.Payment) (id.ID, error) {
	if p.IsReversal() {
		return id.Nil(), apperror.NewFieldValidation("reversalOf", "use ReverseCustomerPayment to reverse a payment")
	}
	if err := p.Validate(ctx); err != nil {
		return id.Nil(), err
	}
	if _, err := s.requireParty(ctx, party.KindCustomer, p.CustomerID); err != nil {
		return id.Nil(), err
	}

	var balance string
	err := s.run(ctx, "apply_customer_payment", func(ctx context.Context) error {
		b, err := s.createPayment(ctx, p)
		balance = b
		return err
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "customer payment applied",
		"payment_id", p.ID,
		"number", p.Number,
		"customer_id", p.CustomerID,
		"type", p.Type,
		"amount", p.Amount.String(),
		"balance", balance,
	)
	return p.ID, nil
}

func (s *Service) createPayment(ctx context.Context, p *payment.Payment) (string, error) {
	if p.Number == "" {
		num, err := s.nextNumber(ctx, numerator.PrefixPayment, p.Date)
		if err != nil {
			return "", err
		}
		p.Number = num
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return "", fmt.Errorf("create payment: %w", err)
	}

	delta := PaymentContribution(p)
	balance, err := s.adjustBalance(ctx, party.KindCustomer, p.CustomerID, delta)
	if err != nil {
		return "", err
	}

	return balance.String(), s.publish(ctx, events.AggregatePayment, p.ID, events.PaymentApplied, events.DocumentPayload{
		DocumentID:   p.ID,
		Number:       p.Number,
		PartyID:      id.Ptr(p.CustomerID),
		Amount:       p.Amount,
		BalanceDelta: delta,
		ReversalOf:   p.ReversalOf,
		OccurredAt:   s.now(),
	})
}

// ApplySupplierPayment records a cash movement with a supplier.
func (s *Service) ApplySupplierPayment(ctx context.Context, p *payment.SupplierPayment) (id.ID, error) {
	if p.IsReversal() {
		return id.Nil(), apperror.NewFieldValidation("reversalOf", "use ReverseSupplierPayment to reverse a payment")
	}
	if err := p.Validate(ctx); err != nil {
		return id.Nil(), err
	}
	if _, err := s.requireParty(ctx, party.KindSupplier, p.SupplierID); err != nil {
		return id.Nil(), err
	}
	if p.PurchaseID != nil {
		return id.Nil(), apperror.NewFieldValidation("purchaseId", "settlements are recorded with the purchase")
	}

	err := s.run(ctx, "apply_supplier_payment", func(ctx context.Context) error {
		return s.createSupplierPayment(ctx, p)
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "supplier payment applied",
		"payment_id", p.ID,
		"number", p.Number,
		"supplier_id", p.SupplierID,
		"type", p.Type,
		"amount", p.Amount.String(),
	)
	return p.ID, nil
}

// ReverseCustomerPayment writes the opposite payment for the same amount.
func (s *Service) ReverseCustomerPayment(ctx context.Context, paymentID id.ID) (id.ID, error) {
	original, err := s.GetCustomerPayment(ctx, paymentID)
	if err != nil {
		return id.Nil(), err
	}
	rev, err := payment.NewReversal(original)
	if err != nil {
		return id.Nil(), err
	}

	err = s.run(ctx, "reverse_customer_payment", func(ctx context.Context) error {
		done, err := s.payments.HasReversal(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("check reversal: %w", err)
		}
		if done {
			return apperror.NewAlreadyReversed("Payment", original.ID.String())
		}
		_, err = s.createPayment(ctx, rev)
		return err
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "customer payment reversed", "payment_id", original.ID, "reversal_id", rev.ID)
	return rev.ID, nil
}

// ReverseSupplierPayment writes the opposite supplier payment for the same
// amount. A settlement recorded with a purchase can be reversed on its own;
// reversing the purchase later skips it.
func (s *Service) ReverseSupplierPayment(ctx context.Context, paymentID id.ID) (id.ID, error) {
	original, err := s.GetSupplierPayment(ctx, paymentID)
	if err != nil {
		return id.Nil(), err
	}
	rev, err := payment.NewSupplierReversal(original)
	if err != nil {
		return id.Nil(), err
	}

	err = s.run(ctx, "reverse_supplier_payment", func(ctx context.Context) error {
		done, err := s.supplierPayments.HasReversal(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("check reversal: %w", err)
		}
		if done {
			return apperror.NewAlreadyReversed("SupplierPayment", original.ID.String())
		}
		return s.createSupplierPayment(ctx, rev)
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "supplier payment reversed", "payment_id", original.ID, "reversal_id", rev.ID)
	return rev.ID, nil
}

// GetCustomerPayment returns a customer payment.
func (s *Service) GetCustomerPayment(ctx context.Context, paymentID id.ID) (*payment.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("Payment", paymentID.String())
		}
		return nil, err
	}
	return p, nil
}

// GetSupplierPayment returns a supplier payment.
func (s *Service) GetSupplierPayment(ctx context.Context, paymentID id.ID) (*payment.SupplierPayment, error) {
	p, err := s.supplierPayments.GetByID(ctx, paymentID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("SupplierPayment", paymentID.String())
		}
		return nil, err
	}
	return p, nil
}
