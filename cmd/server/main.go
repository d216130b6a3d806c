package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradelog-backend/internal/api"
	"tradelog-backend/internal/auth"
	"tradelog-backend/internal/config"
	"tradelog-backend/internal/db"
	"tradelog-backend/internal/journal"
	"tradelog-backend/internal/ledger"
	"tradelog-backend/internal/notifications"
	"tradelog-backend/internal/repository"
	"tradelog-backend/internal/risk"
	"tradelog-backend/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║     TradeLog Journal Backend v0.1    ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	// Database
	fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		fmt.Println("[DB] Connection pool closed")
	}()

	if err := db.TestConnection(pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Test query failed: %v\n", err)
		os.Exit(1)
	}

	if err := db.Migrate(context.Background(), pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Migration failed: %v\n", err)
		os.Exit(1)
	}

	// Core services
	tradeRepo := repository.NewTradeRepo(pool)
	led := ledger.New(pool)
	guard := risk.NewGuardian(risk.Limits{
		MaxDailyTrades:     cfg.MaxDailyTrades,
		MaxCapitalPerTrade: cfg.MaxCapitalPerTrade,
	}, tradeRepo)
	notify := notifications.NewSender(cfg.WebhookURL, cfg.AppName)
	svc := journal.NewService(tradeRepo, led, guard, notify)
	tokens := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. API server
	srv := api.NewServer(pool, svc, led, tokens, cfg.Port, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 2. Ledger reconciliation sweep
	sched := scheduler.NewReconcileScheduler(led, notify, scheduler.ReconcileConfig{
		Interval: time.Duration(cfg.ReconcileIntervalMinutes) * time.Minute,
	})
	sched.Start()

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
