package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spidjo/billing-analyzer/internal/anomaly"
	"github.com/spidjo/billing-analyzer/internal/api"
	"github.com/spidjo/billing-analyzer/internal/auth"
	"github.com/spidjo/billing-analyzer/internal/billing"
	"github.com/spidjo/billing-analyzer/internal/config"
	"github.com/spidjo/billing-analyzer/internal/dispatch"
	"github.com/spidjo/billing-analyzer/internal/report"
	"github.com/spidjo/billing-analyzer/internal/storage"
)

func main() {
	log.Println("Starting billing-analyzer...")

	// Load configuration
	cfg := loadConfig()
	if cfg.Server.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Initialize storage
	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	// Initialize services
	authSvc := auth.NewService(store, cfg.Server.JWTSecret, 24*time.Hour)
	engine := billing.NewEngine(store, decimal.NewFromFloat(cfg.Billing.MonthlyFee))

	threshold := cfg.Anomaly.Threshold
	if cfg.Anomaly.Sensitivity != "" {
		threshold = anomaly.ThresholdForSensitivity(cfg.Anomaly.Sensitivity)
	}
	dispatcher := dispatch.NewService(
		store,
		anomaly.NewScorer(threshold),
		report.NewAssembler(cfg.Report.Title),
		report.NewPDFRenderer(),
		dispatch.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		dispatch.NewPolicy(cfg.SMTP.Sender),
		cfg.Report.MaxRows,
	)

	// Create API server
	server := api.NewServer(cfg, store, authSvc, engine, dispatcher)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("billing-analyzer API listening on port %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down billing-analyzer...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("billing-analyzer stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("BILLING_ANALYZER_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("Failed to load config from %s: %v, using defaults", configPath, err)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}
