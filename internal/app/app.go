// Package app assembles storage, domain services and background jobs
// from configuration. cmd/server and cmd/worker share it.
package app

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/config"
	"shopledger/internal/core/idempotency"
	corenumerator "shopledger/internal/core/numerator"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain/alert"
	"shopledger/internal/domain/catalogs/category"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/domain/documents/payment"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/domain/reports"
	v1 "shopledger/internal/infrastructure/http/v1"
	"shopledger/internal/infrastructure/storage/memory"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/internal/infrastructure/storage/postgres/catalog_repo"
	"shopledger/internal/infrastructure/storage/postgres/document_repo"
	"shopledger/pkg/logger"
	"shopledger/pkg/numerator"
)

// App is a wired process.
type App struct {
	Config   *config.Config
	Services v1.Services

	Idempotency idempotency.Store

	// Pool and TxManager are nil with the memory driver
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Codec     *postgres.PayloadCodec

	// Memory is nil with the postgres driver
	Memory *memory.Store

	log *logger.Logger
}

// repositories is the storage-specific part of the wiring.
type repositories struct {
	txm              tx.Manager
	products         product.Repository
	batches          product.BatchRepository
	parties          party.Repository
	categories       category.Repository
	sales            sale.Repository
	purchases        purchase.Repository
	payments         payment.Repository
	supplierPayments payment.SupplierRepository
	expenses         expense.Repository
	numerator        corenumerator.Generator
	publisher        events.Publisher
}

// New opens storage and builds the services.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	var (
		repos repositories
		err   error
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		repos, err = a.openPostgres(ctx)
	default:
		repos = a.openMemory()
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	numOpts := NumberingOptions(cfg.Numbering)

	ledgerSvc := ledger.NewService(ledger.Deps{
		TxManager:        repos.txm,
		Products:         repos.products,
		Batches:          repos.batches,
		Parties:          repos.parties,
		Sales:            repos.sales,
		Purchases:        repos.purchases,
		Payments:         repos.payments,
		SupplierPayments: repos.supplierPayments,
		Numerator:        repos.numerator,
		NumberingOptions: numOpts,
		Publisher:        repos.publisher,
	})

	if cfg.Alerts.Enabled {
		observer, err := alert.NewObserver(alert.Rules{
			LowStock: cfg.Alerts.LowStockRule,
			Expiry:   cfg.Alerts.ExpiryRule,
		}, repos.products, repos.batches, repos.txm, repos.publisher)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("compile alert rules: %w", err)
		}
		ledgerSvc.SetObserver(observer)
	}

	categories := category.NewService(repos.categories, repos.txm)
	a.Services = v1.Services{
		Ledger:     ledgerSvc,
		Products:   product.NewService(repos.products, repos.batches, categories, repos.txm),
		Parties:    party.NewService(repos.parties, repos.txm),
		Categories: categories,
		Expenses:   expense.NewService(repos.expenses, repos.txm, repos.numerator, numOpts),
		Reports:    reports.NewService(repos.products, repos.parties, repos.sales, repos.purchases, repos.expenses),
	}

	log.Infow("application wired",
		"storage", cfg.Storage.Driver,
		"numbering", cfg.Numbering.Strategy,
		"alerts", cfg.Alerts.Enabled,
	)
	return a, nil
}

func (a *App) openMemory() repositories {
	s := memory.New()
	a.Memory = s
	a.Idempotency = s.Idempotency()
	return repositories{
		txm:              s,
		products:         s.Products(),
		batches:          s.Batches(),
		parties:          s.Parties(),
		categories:       s.Categories(),
		sales:            s.Sales(),
		purchases:        s.Purchases(),
		payments:         s.Payments(),
		supplierPayments: s.SupplierPayments(),
		expenses:         s.Expenses(),
		numerator:        s.Numerator(),
		publisher:        s,
	}
}

func (a *App) openPostgres(ctx context.Context) (repositories, error) {
	cfg := a.Config.Storage

	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg))
	if err != nil {
		return repositories{}, fmt.Errorf("connect database: %w", err)
	}
	a.Pool = pool

	txm := postgres.NewTxManager(pool, postgres.WithStatementTimeout(cfg.StatementTimeout))
	a.TxManager = txm

	if cfg.Migrate {
		if err := postgres.Migrate(ctx, txm); err != nil {
			return repositories{}, fmt.Errorf("migrate: %w", err)
		}
	}

	codec, err := postgres.NewPayloadCodec(postgres.DefaultCompressThreshold)
	if err != nil {
		return repositories{}, err
	}
	a.Codec = codec
	a.Idempotency = postgres.NewIdempotencyStore(txm, 24*time.Hour)

	gen := numerator.NewWithResolver(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	})

	return repositories{
		txm:              txm,
		products:         catalog_repo.NewProductRepo(txm),
		batches:          catalog_repo.NewBatchRepo(txm),
		parties:          catalog_repo.NewPartyRepo(txm),
		categories:       catalog_repo.NewCategoryRepo(txm),
		sales:            document_repo.NewSaleRepo(txm),
		purchases:        document_repo.NewPurchaseRepo(txm),
		payments:         document_repo.NewPaymentRepo(txm),
		supplierPayments: document_repo.NewSupplierPaymentRepo(txm),
		expenses:         document_repo.NewExpenseRepo(txm),
		numerator:        gen,
		publisher:        postgres.NewOutboxPublisher(txm, codec),
	}, nil
}

// NumberingOptions maps the numbering section to generator options.
func NumberingOptions(cfg config.NumberingConfig) *corenumerator.Options {
	opts := corenumerator.DefaultOptions()
	if cfg.Strategy == "cached" {
		opts.Strategy = corenumerator.StrategyCached
		opts.RangeSize = cfg.RangeSize
	}
	return opts
}

// Close releases storage resources.
func (a *App) Close() {
	if a.Codec != nil {
		a.Codec.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
