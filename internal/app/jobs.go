package app

import (
	"context"
	"time"

	appctx "shopledger/internal/core/context"
	"shopledger/internal/infrastructure/storage/postgres"
)

// publishedRetention is how long delivered outbox rows are kept.
const publishedRetention = 7 * 24 * time.Hour

// every runs fn on each tick until ctx is done. Each run gets its own
// job trace.
func every(ctx context.Context, job string, interval time.Duration, fn func(ctx context.Context)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(appctx.WithTrace(ctx, appctx.NewJobTrace(job)))
		}
	}
}

// RunOutbox delivers recorded events until ctx is done. With postgres the
// relay locks rows, so several workers can run it; with the memory store
// events are drained in-process.
func (a *App) RunOutbox(ctx context.Context) {
	log := a.log.WithComponent("outbox")

	if a.Memory != nil {
		every(ctx, "outbox", a.Config.Worker.OutboxInterval, func(ctx context.Context) {
			log := log.WithContext(ctx)
			for _, msg := range a.Memory.DrainOutbox(ctx) {
				log.Infow("event",
					"event_type", msg.EventType,
					"aggregate_type", msg.AggregateType,
					"aggregate_id", msg.AggregateID,
					"payload", string(msg.Payload),
				)
			}
		})
		return
	}

	relay := postgres.NewOutboxRelay(a.TxManager, a.Codec, a.Config.Worker.OutboxBatchSize,
		postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
			log.WithContext(ctx).Infow("event",
				"event_type", msg.EventType,
				"aggregate_type", msg.AggregateType,
				"aggregate_id", msg.AggregateID,
				"payload", string(msg.Payload),
			)
			return nil
		}))

	every(ctx, "outbox", a.Config.Worker.OutboxInterval, func(ctx context.Context) {
		log := log.WithContext(ctx)
		n, err := relay.ProcessBatch(ctx)
		if err != nil {
			log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			log.Debugw("processed outbox batch", "count", n)
		}
	})
}

// RunMaintenance periodically reconciles balances and purges expired
// idempotency keys and old outbox rows.
func (a *App) RunMaintenance(ctx context.Context) {
	log := a.log.WithComponent("maintenance")
	cfg := a.Config.Worker

	done := make(chan struct{})
	go func() {
		defer close(done)
		every(ctx, "reconcile", cfg.ReconcileInterval, func(ctx context.Context) {
			a.reconcile(ctx)
		})
	}()

	every(ctx, "cleanup", cfg.CleanupInterval, func(ctx context.Context) {
		log := log.WithContext(ctx)
		if n, err := a.Idempotency.CleanupExpired(ctx); err != nil {
			log.Errorw("idempotency cleanup failed", "error", err)
		} else if n > 0 {
			log.Infow("cleaned up idempotency keys", "count", n)
		}

		if a.TxManager == nil {
			return
		}
		relay := postgres.NewOutboxRelay(a.TxManager, a.Codec, cfg.OutboxBatchSize, nil)
		if n, err := relay.MoveToDLQ(ctx); err != nil {
			log.Errorw("outbox dead-letter move failed", "error", err)
		} else if n > 0 {
			log.Warnw("moved outbox messages to dead letters", "count", n)
		}
		if n, err := relay.PurgePublished(ctx, publishedRetention); err != nil {
			log.Errorw("outbox purge failed", "error", err)
		} else if n > 0 {
			log.Infow("purged published outbox messages", "count", n)
		}
	})

	<-done
}

// reconcile runs one full balance and stock check.
func (a *App) reconcile(ctx context.Context) {
	log := a.log.WithComponent("reconcile").WithContext(ctx)
	fix := a.Config.Worker.ReconcileFix

	report, err := a.Services.Ledger.ReconcileAll(ctx, fix)
	if err != nil {
		log.Errorw("reconciliation failed", "error", err)
		return
	}

	for _, p := range report.Parties {
		log.Warnw("party balance drift",
			"party_id", p.PartyID,
			"kind", p.Kind,
			"stored", p.Stored.String(),
			"computed", p.Computed.String(),
			"fixed", p.Fixed,
		)
	}
	for _, p := range report.Products {
		log.Warnw("product stock drift",
			"product_id", p.ProductID,
			"stored", p.Stored,
			"computed", p.Computed,
			"fixed", p.Fixed,
		)
	}
	log.Infow("reconciliation finished",
		"parties_checked", report.PartiesChecked,
		"products_checked", report.ProductsChecked,
		"drifting_parties", len(report.Parties),
		"drifting_products", len(report.Products),
	)
}
