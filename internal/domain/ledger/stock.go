package ledger

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/registers/stock"
	"shopledger/pkg/logger"
)

// ResolveStockDelta applies a manual stock correction in its own
// transaction. Negative deltas deduct, positive deltas return stock to an
// existing product or batch.
func (s *Service) ResolveStockDelta(ctx context.Context, productID id.ID, delta int64, batchID *id.ID, reason string) (*stock.Change, error) {
	var change *stock.Change
	err := s.run(ctx, "resolve_stock_delta", func(ctx context.Context) error {
		c, err := s.resolver.Adjust(ctx, productID, delta, batchID)
		if err != nil {
			return err
		}
		change = c

		return s.publish(ctx, events.AggregateProduct, productID, events.StockAdjusted, events.StockPayload{
			ProductID:  productID,
			BatchID:    c.BatchID,
			Delta:      c.Delta,
			Stock:      c.Stock,
			Reason:     reason,
			OccurredAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjusted",
		"product_id", productID,
		"batch_id", batchID,
		"delta", delta,
		"stock", change.Stock,
		"reason", reason,
	)

	s.afterCommit(ctx, []id.ID{productID})
	return change, nil
}

// EnableBatchTracking switches a product to batch tracking, moving existing
// stock into an opening batch.
func (s *Service) EnableBatchTracking(ctx context.Context, productID id.ID, opening stock.BatchReceipt) (*product.Batch, error) {
	var batch *product.Batch
	err := s.run(ctx, "enable_batch_tracking", func(ctx context.Context) error {
		b, err := s.resolver.EnableBatchTracking(ctx, productID, opening)
		if err != nil {
			return err
		}
		batch = b

		payload := events.StockPayload{ProductID: productID, OccurredAt: s.now()}
		if b != nil {
			payload.BatchID = id.Ptr(b.ID)
			payload.Stock = b.CurrentStock
			payload.ExpiryDate = b.ExpiryDate
		}
		return s.publish(ctx, events.AggregateProduct, productID, events.BatchTrackingEnabled, payload)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, []id.ID{productID})
	return batch, nil
}
