package ledger

import (
	"context"
	"fmt"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/events"
	"shopledger/pkg/logger"
)

// PartyReconciliation compares a stored balance with the event log.
type PartyReconciliation struct {
	PartyID  id.ID       `json:"partyId"`
	Kind     party.Kind  `json:"kind"`
	Stored   types.Money `json:"stored"`
	Computed types.Money `json:"computed"`
	Drift    types.Money `json:"drift"`
	Fixed    bool        `json:"fixed"`
}

// InSync reports whether the stored balance matches.
func (r PartyReconciliation) InSync() bool {
	return r.Drift.IsZero()
}

// ProductReconciliation compares a product counter with its batches.
type ProductReconciliation struct {
	ProductID id.ID `json:"productId"`
	Stored    int64 `json:"stored"`
	Computed  int64 `json:"computed"`
	Drift     int64 `json:"drift"`
	Fixed     bool  `json:"fixed"`
}

// InSync reports whether the product counter matches.
func (r ProductReconciliation) InSync() bool {
	return r.Drift == 0
}

// ReconcileReport lists records found out of sync.
type ReconcileReport struct {
	PartiesChecked  int                     `json:"partiesChecked"`
	ProductsChecked int                     `json:"productsChecked"`
	Parties         []PartyReconciliation   `json:"parties"`
	Products        []ProductReconciliation `json:"products"`
}

// ReconcileParty recomputes a party balance from its documents. With fix,
// a drifting stored balance is overwritten with the computed one.
func (s *Service) ReconcileParty(ctx context.Context, partyID id.ID, fix bool) (*PartyReconciliation, error) {
	var res *PartyReconciliation

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var (
			p   *party.Party
			err error
		)
		if fix {
			p, err = s.parties.GetForUpdate(ctx, partyID)
		} else {
			p, err = s.parties.GetByID(ctx, partyID)
		}
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewPartyNotFound("Party", partyID.String())
			}
			return fmt.Errorf("get party: %w", err)
		}

		evts, err := s.partyEvents(ctx, p)
		if err != nil {
			return err
		}
		_, computed := Project(evts)

		res = &PartyReconciliation{
			PartyID:  p.ID,
			Kind:     p.Kind,
			Stored:   p.CurrentBalance,
			Computed: computed,
			Drift:    p.CurrentBalance.Sub(computed),
		}
		if !fix || res.InSync() {
			return nil
		}

		if err := s.parties.UpdateBalance(ctx, p.ID, computed); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		res.Fixed = true

		return s.publish(ctx, events.AggregateParty, p.ID, events.BalanceCorrected, events.BalancePayload{
			PartyID:  p.ID,
			Stored:   res.Stored,
			Computed: computed,
		})
	})
	if err != nil {
		return nil, err
	}

	if !res.InSync() {
		logger.Warn(ctx, "party balance drift",
			"party_id", res.PartyID,
			"stored", res.Stored.String(),
			"computed", res.Computed.String(),
			"fixed", res.Fixed,
		)
	}
	return res, nil
}

// ReconcileProduct recomputes a batch-tracked product's counter from its
// batches. Products without tracking are always in sync.
func (s *Service) ReconcileProduct(ctx context.Context, productID id.ID, fix bool) (*ProductReconciliation, error) {
	res := &ProductReconciliation{ProductID: productID}

	if fix {
		err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			before, after, err := s.resolver.RecomputeProductStock(ctx, productID)
			if err != nil {
				return err
			}
			res.Stored, res.Computed, res.Drift = before, after, before-after
			res.Fixed = res.Drift != 0
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFound("Product", productID.String())
			}
			return nil, fmt.Errorf("get product: %w", err)
		}
		res.Stored, res.Computed = p.Stock, p.Stock
		if p.IsBatchTracked {
			sum, err := s.batches.SumCurrentStock(ctx, productID)
			if err != nil {
				return nil, fmt.Errorf("sum batch stock: %w", err)
			}
			res.Computed = sum
			res.Drift = p.Stock - sum
		}
	}

	if !res.InSync() {
		logger.Warn(ctx, "product stock drift",
			"product_id", productID,
			"stored", res.Stored,
			"computed", res.Computed,
			"fixed", res.Fixed,
		)
	}
	return res, nil
}

// ReconcileAll checks every party and every batch-tracked product and
// returns the ones out of sync.
func (s *Service) ReconcileAll(ctx context.Context, fix bool) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	partyIDs, err := s.parties.ListIDs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	for _, pid := range partyIDs {
		res, err := s.ReconcileParty(ctx, pid, fix)
		if err != nil {
			return nil, err
		}
		report.PartiesChecked++
		if !res.InSync() {
			report.Parties = append(report.Parties, *res)
		}
	}

	productIDs, err := s.products.ListBatchTrackedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list batch-tracked products: %w", err)
	}
	for _, pid := range productIDs {
		res, err := s.ReconcileProduct(ctx, pid, fix)
		if err != nil {
			return nil, err
		}
		report.ProductsChecked++
		if !res.InSync() {
			report.Products = append(report.Products, *res)
		}
	}

	logger.Info(ctx, "reconciliation finished",
		"parties", report.PartiesChecked,
		"products", report.ProductsChecked,
		"party_drifts", len(report.Parties),
		"product_drifts", len(report.Products),
		"fix", fix,
	)
	return report, nil
}
