// Package alert raises low-stock and near-expiry warnings after committed
// stock changes. Rules are CEL boolean expressions compiled once at startup.
//
// Variables available to rules:
//
//	name             string
//	stock            int   product stock, or batch stock for expiry checks
//	reorder_level    int
//	is_batch_tracked bool
//	batch_number     string  empty for product-level checks
//	days_to_expiry   int   -1 when there is no expiry date
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/events"
	"shopledger/pkg/logger"
)

// Default rules.
const (
	DefaultLowStockRule = "stock <= reorder_level"
	DefaultExpiryRule   = "days_to_expiry >= 0 && days_to_expiry <= 30"
)

// Rules holds the rule sources. Empty disables a rule.
type Rules struct {
	LowStock string
	Expiry   string
}

// Alert is a rule hit.
type Alert struct {
	EventType string
	ProductID id.ID
	BatchID   *id.ID
	Stock     int64
	Rule      string
}

// Observer evaluates rules for products touched by a committed operation.
type Observer struct {
	products  product.Repository
	batches   product.BatchRepository
	txm       tx.Manager
	publisher events.Publisher
	now       func() time.Time

	rules    Rules
	lowStock cel.Program
	expiry   cel.Program
}

// Option configures the observer.
type Option func(*Observer)

// WithClock replaces the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *Observer) { o.now = now }
}

// NewObserver compiles the rules. An invalid rule is an error.
func NewObserver(rules Rules, products product.Repository, batches product.BatchRepository, txm tx.Manager, publisher events.Publisher, opts ...Option) (*Observer, error) {
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("stock", cel.IntType),
		cel.Variable("reorder_level", cel.IntType),
		cel.Variable("is_batch_tracked", cel.BoolType),
		cel.Variable("batch_number", cel.StringType),
		cel.Variable("days_to_expiry", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	o := &Observer{
		products:  products,
		batches:   batches,
		txm:       txm,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		rules:     rules,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.publisher == nil {
		o.publisher = events.NopPublisher{}
	}

	if o.lowStock, err = compile(env, rules.LowStock); err != nil {
		return nil, fmt.Errorf("low stock rule: %w", err)
	}
	if o.expiry, err = compile(env, rules.Expiry); err != nil {
		return nil, fmt.Errorf("expiry rule: %w", err)
	}
	return o, nil
}

func compile(env *cel.Env, src string) (cel.Program, error) {
	if src == "" {
		return nil, nil
	}
	ast, iss := env.Compile(src)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("rule %q must return bool, got %s", src, ast.OutputType())
	}
	return env.Program(ast)
}

// ProductsChanged implements ledger.StockObserver. Failures are logged and
// never reach the caller.
func (o *Observer) ProductsChanged(ctx context.Context, productIDs []id.ID) {
	alerts, err := o.Check(ctx, productIDs)
	if err != nil {
		logger.Warn(ctx, "stock alert check failed", "error", err)
	}
	if len(alerts) == 0 {
		return
	}

	for _, a := range alerts {
		logger.Warn(ctx, "stock alert",
			"type", a.EventType,
			"product_id", a.ProductID,
			"batch_id", a.BatchID,
			"stock", a.Stock,
			"rule", a.Rule,
		)
	}

	err = o.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, a := range alerts {
			err := o.publisher.Publish(ctx, events.Event{
				AggregateType: events.AggregateProduct,
				AggregateID:   a.ProductID,
				EventType:     a.EventType,
				Payload: events.StockPayload{
					ProductID:  a.ProductID,
					BatchID:    a.BatchID,
					Stock:      a.Stock,
					Rule:       a.Rule,
					OccurredAt: o.now(),
				},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "stock alert not recorded", "error", err)
	}
}

// Check evaluates the rules and returns the hits.
func (o *Observer) Check(ctx context.Context, productIDs []id.ID) ([]Alert, error) {
	var alerts []Alert
	now := o.now()

	for _, pid := range productIDs {
		p, err := o.products.GetByID(ctx, pid)
		if err != nil {
			return alerts, fmt.Errorf("get product %s: %w", pid, err)
		}

		vars := map[string]any{
			"name":             p.Name,
			"stock":            p.Stock,
			"reorder_level":    p.ReorderLevel,
			"is_batch_tracked": p.IsBatchTracked,
			"batch_number":     "",
			"days_to_expiry":   daysOrUnknown(p.DaysToExpiry(now)),
		}

		hit, err := eval(o.lowStock, vars)
		if err != nil {
			return alerts, err
		}
		if hit {
			alerts = append(alerts, Alert{EventType: events.StockLow, ProductID: p.ID, Stock: p.Stock, Rule: o.rules.LowStock})
		}

		if !p.IsBatchTracked {
			if p.Stock <= 0 {
				continue
			}
			hit, err := eval(o.expiry, vars)
			if err != nil {
				return alerts, err
			}
			if hit {
				alerts = append(alerts, Alert{EventType: events.BatchExpiring, ProductID: p.ID, Stock: p.Stock, Rule: o.rules.Expiry})
			}
			continue
		}

		batches, err := o.batches.ListByProduct(ctx, p.ID)
		if err != nil {
			return alerts, fmt.Errorf("list batches: %w", err)
		}
		for _, b := range batches {
			if b.CurrentStock <= 0 {
				continue
			}
			vars["stock"] = b.CurrentStock
			vars["batch_number"] = b.BatchNumber
			vars["days_to_expiry"] = daysOrUnknown(b.DaysToExpiry(now))

			hit, err := eval(o.expiry, vars)
			if err != nil {
				return alerts, err
			}
			if hit {
				alerts = append(alerts, Alert{
					EventType: events.BatchExpiring,
					ProductID: p.ID,
					BatchID:   id.Ptr(b.ID),
					Stock:     b.CurrentStock,
					Rule:      o.rules.Expiry,
				})
			}
		}
	}
	return alerts, nil
}

func eval(prg cel.Program, vars map[string]any) (bool, error) {
	if prg == nil {
		return false, nil
	}
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate rule: %w", err)
	}
	hit, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule returned %T", out.Value())
	}
	return hit, nil
}

func daysOrUnknown(d *int64) int64 {
	if d == nil {
		return -1
	}
	return *d
}
