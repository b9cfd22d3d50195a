package ledger

import (
	"context"
	"fmt"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/sale"
	"shopledger/internal/domain/events"
	"shopledger/pkg/logger"
)

// ApplySale records a sale: the sale row, one stock deduction per line and,
// when sold on credit, the customer's balance. All or nothing.
func (s *Service) ApplySale(ctx context.Context, sl *sale.Sale) (id.ID, error) {
	if err := s.validateSale(ctx, sl); err != nil {
		return id.Nil(), err
	}

	err := s.run(ctx, "apply_sale", func(ctx context.Context) error {
		return s.applySale(ctx, sl)
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "sale applied",
		"sale_id", sl.ID,
		"number", sl.Number,
		"total", sl.Total.String(),
		"due", sl.DueAmount.String(),
		"lines", len(sl.Lines),
	)

	s.afterCommit(ctx, sl.ProductIDs())
	return sl.ID, nil
}

// validateSale checks everything that can be checked without a transaction.
func (s *Service) validateSale(ctx context.Context, sl *sale.Sale) error {
	if sl.IsReversal() {
		return apperror.NewFieldValidation("reversalOf", "use ReverseSale to reverse a sale")
	}
	if err := sl.Validate(ctx); err != nil {
		return err
	}

	if sl.CustomerID != nil {
		if _, err := s.requireParty(ctx, party.KindCustomer, *sl.CustomerID); err != nil {
			return err
		}
	}

	for i, l := range sl.Lines {
		p, err := s.requireProduct(ctx, l.ProductID, i+1)
		if err != nil {
			return err
		}
		if p.IsBatchTracked && l.BatchID == nil {
			return apperror.NewBatchRequired(p.ID.String()).WithDetail("lineNo", i+1)
		}
		if !p.IsBatchTracked && l.BatchID != nil {
			return apperror.NewFieldValidation("batchId", "product is not batch-tracked").
				WithDetail("lineNo", i+1).
				WithDetail("product_id", p.ID.String())
		}
	}
	return nil
}

func (s *Service) applySale(ctx context.Context, sl *sale.Sale) error {
	if sl.Number == "" {
		num, err := s.nextNumber(ctx, numerator.PrefixSale, sl.Date)
		if err != nil {
			return err
		}
		sl.Number = num
	}

	if err := s.sales.Create(ctx, sl); err != nil {
		return fmt.Errorf("create sale: %w", err)
	}

	for i, l := range sl.Lines {
		if _, err := s.resolver.Deduct(ctx, l.ProductID, l.Quantity, l.BatchID); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("lineNo", i+1)
			}
			return err
		}
	}

	delta := SaleContribution(sl)
	if sl.CustomerID != nil && !delta.IsZero() {
		if _, err := s.adjustBalance(ctx, party.KindCustomer, *sl.CustomerID, delta); err != nil {
			return err
		}
	}

	eventType := events.SaleApplied
	if sl.IsReversal() {
		eventType = events.SaleReversed
	}
	return s.publish(ctx, events.AggregateSale, sl.ID, eventType, events.DocumentPayload{
		DocumentID:   sl.ID,
		Number:       sl.Number,
		PartyID:      sl.CustomerID,
		Amount:       sl.Total,
		BalanceDelta: delta,
		ProductIDs:   sl.ProductIDs(),
		ReversalOf:   sl.ReversalOf,
		OccurredAt:   s.now(),
	})
}

// ReverseSale records a compensating sale: stock goes back to the same
// products and batches and the due amount is taken off the customer.
// A sale can be reversed once; a reversal cannot be reversed.
func (s *Service) ReverseSale(ctx context.Context, saleID id.ID) (id.ID, error) {
	original, err := s.GetSale(ctx, saleID)
	if err != nil {
		return id.Nil(), err
	}

	rev, err := sale.NewReversal(original)
	if err != nil {
		return id.Nil(), err
	}

	err = s.run(ctx, "reverse_sale", func(ctx context.Context) error {
		done, err := s.sales.HasReversal(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("check reversal: %w", err)
		}
		if done {
			return apperror.NewAlreadyReversed("Sale", original.ID.String())
		}
		for i, l := range original.Lines {
			if err := s.requireLineBatch(ctx, "Sale", l.ProductID, l.BatchID, i+1); err != nil {
				return err
			}
		}

		num, err := s.nextNumber(ctx, numerator.PrefixSale, rev.Date)
		if err != nil {
			return err
		}
		rev.Number = num

		if err := s.sales.Create(ctx, rev); err != nil {
			return fmt.Errorf("create sale reversal: %w", err)
		}

		for _, l := range rev.Lines {
			if _, err := s.resolver.Restore(ctx, l.ProductID, l.Quantity, l.BatchID); err != nil {
				return err
			}
		}

		delta := SaleContribution(rev)
		if rev.CustomerID != nil && !delta.IsZero() {
			if _, err := s.adjustBalance(ctx, party.KindCustomer, *rev.CustomerID, delta); err != nil {
				return err
			}
		}

		return s.publish(ctx, events.AggregateSale, rev.ID, events.SaleReversed, events.DocumentPayload{
			DocumentID:   rev.ID,
			Number:       rev.Number,
			PartyID:      rev.CustomerID,
			Amount:       rev.Total,
			BalanceDelta: delta,
			ProductIDs:   rev.ProductIDs(),
			ReversalOf:   rev.ReversalOf,
			OccurredAt:   s.now(),
		})
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "sale reversed", "sale_id", original.ID, "reversal_id", rev.ID, "number", rev.Number)
	s.afterCommit(ctx, rev.ProductIDs())
	return rev.ID, nil
}

// GetSale returns a sale with its lines.
func (s *Service) GetSale(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	sl, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("Sale", saleID.String())
		}
		return nil, err
	}
	return sl, nil
}
