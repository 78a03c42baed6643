// Happy Paws - Pet shop inventory with a heartbeat.
// Copyright (c) 2025 Happy Paws
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/happy-paws/petshop/internal/alerts"
	"github.com/happy-paws/petshop/internal/api"
	"github.com/happy-paws/petshop/internal/bus"
	"github.com/happy-paws/petshop/internal/domain"
	"github.com/happy-paws/petshop/internal/keeper"
	"github.com/happy-paws/petshop/internal/persist"
	"github.com/happy-paws/petshop/internal/petcare"
	"github.com/happy-paws/petshop/internal/store"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("PETSHOP_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting petshop",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"storage", cfg.Storage.Driver,
		"eventbus", cfg.EventBus.Type,
		"keeper_enabled", cfg.Keeper.Enabled,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Storage
	storage, err := persist.New(cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()
	slog.Info("storage initialized", "driver", cfg.Storage.Driver)

	// Initialize Store and restore the last saved snapshot
	st := store.New(storage)
	if err := st.Restore(ctx); err != nil {
		slog.Error("failed to restore store", "error", err)
		os.Exit(1)
	}
	total, available, sold := st.Counts(ctx)
	slog.Info("store restored",
		"pets", total,
		"available", available,
		"sold", sold,
	)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Care Engine
	engine := petcare.NewEngine(st, busImpl, nil)
	slog.Info("care engine initialized")

	// Initialize Alert Engine with the builtin attention rule.
	// Custom rules can be added via POST /alerts/rules.
	alertEngine, err := alerts.NewEngine()
	if err != nil {
		slog.Error("failed to initialize alert engine", "error", err)
		os.Exit(1)
	}
	if err := alertEngine.LoadRules(alerts.BuiltinRules()); err != nil {
		slog.Error("failed to load builtin alert rules", "error", err)
		os.Exit(1)
	}
	slog.Info("alert engine initialized", "rules_count", alertEngine.RulesCount())

	// Initialize Keeper (periodic decay scheduler)
	var kpr *keeper.Keeper
	if cfg.Keeper.Enabled {
		interval := time.Duration(cfg.Keeper.IntervalSeconds) * time.Second
		kpr = keeper.New(st, engine, alertEngine, busImpl, interval)
		kpr.Start()
		slog.Info("keeper started", "interval", interval)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, st, engine, alertEngine, kpr, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("petshop is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop the keeper first so no tick races the final save
	if kpr != nil {
		kpr.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Final save so nothing since the last persist is lost
	if err := st.Persist(shutdownCtx); err != nil {
		slog.Error("failed to persist store on shutdown", "error", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("petshop shutdown complete")
}

// applyEnvOverrides adjusts the default configuration from PETSHOP_*
// environment variables.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("PETSHOP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PETSHOP_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("PETSHOP_STORAGE_FILE"); v != "" {
		cfg.Storage.FilePath = v
	}
	if v := os.Getenv("PETSHOP_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("PETSHOP_POSTGRES_HOST"); v != "" {
		cfg.Storage.PostgresHost = v
	}
	if v := os.Getenv("PETSHOP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Storage.PostgresPort = port
		}
	}
	if v := os.Getenv("PETSHOP_POSTGRES_USER"); v != "" {
		cfg.Storage.PostgresUser = v
	}
	if v := os.Getenv("PETSHOP_POSTGRES_PASSWORD"); v != "" {
		cfg.Storage.PostgresPassword = v
	}
	if v := os.Getenv("PETSHOP_POSTGRES_DB"); v != "" {
		cfg.Storage.PostgresDB = v
	}
	if v := os.Getenv("PETSHOP_REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("PETSHOP_REDIS_PASSWORD"); v != "" {
		cfg.Storage.RedisPassword = v
	}
	if v := os.Getenv("PETSHOP_BUS"); v != "" {
		cfg.EventBus.Type = v
	}
	if v := os.Getenv("PETSHOP_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("PETSHOP_KEEPER"); v == "false" {
		cfg.Keeper.Enabled = false
	}
	if v := os.Getenv("PETSHOP_KEEPER_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Keeper.IntervalSeconds = secs
		}
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║             🐾 HAPPY PAWS                 ║")
	fmt.Println("  ║        Pet Shop Inventory System          ║")
	fmt.Println("  ║      Every pet finds its person.          ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Storage:  %s\n", cfg.Storage.Driver)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /pets              - Add a pet")
	fmt.Println("    GET  /pets              - List all pets")
	fmt.Println("    GET  /pets/available    - List pets for sale")
	fmt.Println("    GET  /pets/sold         - List sold pets")
	fmt.Println("    POST /pets/{id}/feed    - Feed a pet")
	fmt.Println("    POST /pets/{id}/play    - Play with a pet")
	fmt.Println("    POST /pets/{id}/sell    - Sell a pet")
	fmt.Println("    POST /decay             - Run one decay pass")
	fmt.Println("    GET  /transactions      - List the ledger")
	fmt.Println("    GET  /sales/total       - Total sales revenue")
	fmt.Println("    GET  /stats             - Shop statistics")
	fmt.Println("    GET  /export            - Download a backup")
	fmt.Println("    POST /import            - Restore from a backup")
	fmt.Println("    GET  /alerts/rules      - List attention rules")
	fmt.Println("    POST /alerts/rules      - Add an attention rule")
	fmt.Println("    GET  /health            - Health check")
	fmt.Println()
}
