// Package main is the entry point for the shopledger background worker.
// It relays the PostgreSQL outbox and runs periodic reconciliation and
// cleanup. With the memory driver the server runs these jobs itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"shopledger/internal/app"
	"shopledger/internal/config"
	"shopledger/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	once := flag.Bool("reconcile-once", false, "run one reconciliation pass and exit")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development || cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatalw("worker requires the postgres storage driver", "driver", cfg.Storage.Driver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	if *once {
		report, err := a.Services.Ledger.ReconcileAll(ctx, cfg.Worker.ReconcileFix)
		if err != nil {
			log.Fatalw("reconciliation failed", "error", err)
		}
		log.Infow("reconciliation finished",
			"parties_checked", report.PartiesChecked,
			"products_checked", report.ProductsChecked,
			"drifting_parties", len(report.Parties),
			"drifting_products", len(report.Products),
			"fixed", cfg.Worker.ReconcileFix,
		)
		return
	}

	log.Info("starting shopledger worker")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.RunOutbox(ctx)
	}()
	go func() {
		defer wg.Done()
		a.RunMaintenance(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
