package ledger

import (
	"context"
	"fmt"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/registers/stock"
	"shopledger/pkg/logger"
)

// ApplyPurchase records a goods receipt. Stock grows per line, the product's
// buy price becomes the line's price, and with a supplier the purchase is
// booked as a liability of GrandTotal plus a linked settlement payment of
// PaidAmount.
func (s *Service) ApplyPurchase(ctx context.Context, p *purchase.Purchase) (id.ID, error) {
	if err := s.validatePurchase(ctx, p); err != nil {
		return id.Nil(), err
	}

	var settlement *payment.SupplierPayment
	err := s.run(ctx, "apply_purchase", func(ctx context.Context) error {
		var err error
		settlement, err = s.applyPurchase(ctx, p)
		return err
	})
	if err != nil {
		return id.Nil(), err
	}

	kv := []any{
		"purchase_id", p.ID,
		"number", p.Number,
		"grand_total", p.GrandTotal.String(),
		"paid", p.PaidAmount.String(),
		"lines", len(p.Lines),
	}
	if settlement != nil {
		kv = append(kv, "settlement_id", settlement.ID)
	}
	logger.Info(ctx, "purchase applied", kv...)

	s.afterCommit(ctx, p.ProductIDs())
	return p.ID, nil
}

func (s *Service) validatePurchase(ctx context.Context, p *purchase.Purchase) error {
	if p.IsReversal() {
		return apperror.NewFieldValidation("reversalOf", "use ReversePurchase to reverse a purchase")
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if p.SupplierID != nil {
		if _, err := s.requireParty(ctx, party.KindSupplier, *p.SupplierID); err != nil {
			return err
		}
	}

	for i := range p.Lines {
		l := &p.Lines[i]
		prod, err := s.requireProduct(ctx, l.ProductID, i+1)
		if err != nil {
			return err
		}
		if prod.IsBatchTracked && l.BatchNumber == "" {
			return apperror.NewFieldValidation("batchNumber", "batch number is required for batch-tracked product").
				WithDetail("lineNo", i+1).
				WithDetail("product_id", prod.ID.String())
		}
		if !prod.IsBatchTracked {
			l.BatchNumber = ""
		}
		l.BatchID = nil
	}
	return nil
}

func (s *Service) applyPurchase(ctx context.Context, p *purchase.Purchase) (*payment.SupplierPayment, error) {
	if p.Number == "" {
		num, err := s.nextNumber(ctx, numerator.PrefixPurchase, p.Date)
		if err != nil {
			return nil, err
		}
		p.Number = num
	}

	for i := range p.Lines {
		l := &p.Lines[i]
		change, err := s.resolver.Receive(ctx, l.ProductID, l.Quantity, &stock.BatchReceipt{
			BatchNumber:  l.BatchNumber,
			ExpiryDate:   l.ExpiryDate,
			BuyPrice:     l.BuyPrice,
			PurchaseDate: p.Date,
		})
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, appErr.WithDetail("lineNo", i+1)
			}
			return nil, err
		}
		l.BatchID = change.BatchID

		if err := s.updateBuyPrice(ctx, l); err != nil {
			return nil, err
		}
	}

	if err := s.purchases.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	var settlement *payment.SupplierPayment
	delta := PurchaseContribution(p)
	if p.SupplierID != nil {
		if _, err := s.adjustBalance(ctx, party.KindSupplier, *p.SupplierID, delta); err != nil {
			return nil, err
		}

		if p.PaidAmount.IsPositive() {
			settlement = payment.NewSupplierPayment(*p.SupplierID, p.PaidAmount, payment.SupplierTypePaid)
			settlement.Date = p.Date
			settlement.PurchaseID = id.Ptr(p.ID)
			settlement.Notes = "paid on purchase " + p.Number
			if err := s.createSupplierPayment(ctx, settlement); err != nil {
				return nil, err
			}
		}
	}

	return settlement, s.publish(ctx, events.AggregatePurchase, p.ID, events.PurchaseApplied, events.DocumentPayload{
		DocumentID:   p.ID,
		Number:       p.Number,
		PartyID:      p.SupplierID,
		Amount:       p.GrandTotal,
		BalanceDelta: delta,
		ProductIDs:   p.ProductIDs(),
		OccurredAt:   s.now(),
	})
}

// updateBuyPrice applies last-purchase-price-wins. For a product without
// batch tracking the line's expiry, when given, becomes the product expiry.
func (s *Service) updateBuyPrice(ctx context.Context, l *purchase.Line) error {
	prod, err := s.products.GetForUpdate(ctx, l.ProductID)
	if err != nil {
		return fmt.Errorf("lock product: %w", err)
	}
	prod.BuyPrice = l.BuyPrice
	if !prod.IsBatchTracked && l.ExpiryDate != nil {
		prod.ExpiryDate = l.ExpiryDate
	}
	if err := s.products.UpdateInventory(ctx, prod); err != nil {
		return fmt.Errorf("update buy price: %w", err)
	}
	return nil
}

// createSupplierPayment numbers, persists and books a supplier payment.
// Must run inside a transaction.
func (s *Service) createSupplierPayment(ctx context.Context, sp *payment.SupplierPayment) error {
	if sp.Number == "" {
		num, err := s.nextNumber(ctx, numerator.PrefixSupplierPayment, sp.Date)
		if err != nil {
			return err
		}
		sp.Number = num
	}
	if err := s.supplierPayments.Create(ctx, sp); err != nil {
		return fmt.Errorf("create supplier payment: %w", err)
	}

	delta := SupplierPaymentContribution(sp)
	if _, err := s.adjustBalance(ctx, party.KindSupplier, sp.SupplierID, delta); err != nil {
		return err
	}

	return s.publish(ctx, events.AggregateSupplierPayment, sp.ID, events.SupplierPaymentApplied, events.DocumentPayload{
		DocumentID:   sp.ID,
		Number:       sp.Number,
		PartyID:      id.Ptr(sp.SupplierID),
		Amount:       sp.Amount,
		BalanceDelta: delta,
		ReversalOf:   sp.ReversalOf,
		OccurredAt:   s.now(),
	})
}

// ReversePurchase takes the received quantities back out of the batches they
// went into, removes the liability and reverses the linked settlement.
// Fails with INSUFFICIENT_STOCK when the goods were already sold.
// Product buy prices are left as they are.
func (s *Service) ReversePurchase(ctx context.Context, purchaseID id.ID) (id.ID, error) {
	original, err := s.GetPurchase(ctx, purchaseID)
	if err != nil {
		return id.Nil(), err
	}

	rev, err := purchase.NewReversal(original)
	if err != nil {
		return id.Nil(), err
	}

	err = s.run(ctx, "reverse_purchase", func(ctx context.Context) error {
		done, err := s.purchases.HasReversal(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("check reversal: %w", err)
		}
		if done {
			return apperror.NewAlreadyReversed("Purchase", original.ID.String())
		}
		for i, l := range original.Lines {
			if err := s.requireLineBatch(ctx, "Purchase", l.ProductID, l.BatchID, i+1); err != nil {
				return err
			}
		}

		num, err := s.nextNumber(ctx, numerator.PrefixPurchase, rev.Date)
		if err != nil {
			return err
		}
		rev.Number = num

		for i, l := range rev.Lines {
			if _, err := s.resolver.Deduct(ctx, l.ProductID, l.Quantity, l.BatchID); err != nil {
				if appErr, ok := apperror.AsAppError(err); ok {
					return appErr.WithDetail("lineNo", i+1)
				}
				return err
			}
		}

		if err := s.purchases.Create(ctx, rev); err != nil {
			return fmt.Errorf("create purchase reversal: %w", err)
		}

		delta := PurchaseContribution(rev)
		if rev.SupplierID != nil {
			if _, err := s.adjustBalance(ctx, party.KindSupplier, *rev.SupplierID, delta); err != nil {
				return err
			}
			if err := s.reverseSettlements(ctx, original); err != nil {
				return err
			}
		}

		return s.publish(ctx, events.AggregatePurchase, rev.ID, events.PurchaseReversed, events.DocumentPayload{
			DocumentID:   rev.ID,
			Number:       rev.Number,
			PartyID:      rev.SupplierID,
			Amount:       rev.GrandTotal,
			BalanceDelta: delta,
			ProductIDs:   rev.ProductIDs(),
			ReversalOf:   rev.ReversalOf,
			OccurredAt:   s.now(),
		})
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "purchase reversed", "purchase_id", original.ID, "reversal_id", rev.ID, "number", rev.Number)
	s.afterCommit(ctx, rev.ProductIDs())
	return rev.ID, nil
}

// reverseSettlements reverses the payments recorded with the purchase that
// are not reversed yet.
func (s *Service) reverseSettlements(ctx context.Context, original *purchase.Purchase) error {
	linked, err := s.supplierPayments.ListByPurchase(ctx, original.ID)
	if err != nil {
		return fmt.Errorf("list settlements: %w", err)
	}

	reversed := make(map[id.ID]bool, len(linked))
	for _, sp := range linked {
		if sp.ReversalOf != nil {
			reversed[*sp.ReversalOf] = true
		}
	}

	for _, sp := range linked {
		if sp.IsReversal() || reversed[sp.ID] {
			continue
		}
		rev, err := payment.NewSupplierReversal(sp)
		if err != nil {
			return err
		}
		if err := s.createSupplierPayment(ctx, rev); err != nil {
			return err
		}
	}
	return nil
}

// GetPurchase returns a purchase with its lines.
func (s *Service) GetPurchase(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	p, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("Purchase", purchaseID.String())
		}
		return nil, err
	}
	return p, nil
}
