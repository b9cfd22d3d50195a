// Package main is the entry point for the shopledger API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"shopledger/internal/app"
	"shopledger/internal/config"
	v1 "shopledger/internal/infrastructure/http/v1"
	"shopledger/internal/infrastructure/http/v1/handlers"
	"shopledger/pkg/logger"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
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

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development || cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	handlers.Version = version

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("starting shopledger server", "version", version, "storage", cfg.Storage.Driver)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	// The memory store lives in this process, so its events and
	// maintenance run here instead of in cmd/worker.
	var wg sync.WaitGroup
	if a.Memory != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.RunOutbox(ctx)
		}()
		go func() {
			defer wg.Done()
			a.RunMaintenance(ctx)
		}()
	}

	routerCfg := v1.RouterConfig{
		Services: a.Services,
		Pool:     a.Pool,
		Logger:   log,
		Mode:     cfg.Server.Mode,

		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if cfg.Server.Idempotency {
		routerCfg.Idempotency = a.Idempotency
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	cancel()
	wg.Wait()

	if a.Pool != nil {
		a.Pool.LogStats(shutdownCtx)
	}
	log.Info("server stopped")
}
