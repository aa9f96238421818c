package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spidjo/billing-analyzer/internal/anomaly"
	"github.com/spidjo/billing-analyzer/internal/config"
	"github.com/spidjo/billing-analyzer/internal/dispatch"
	"github.com/spidjo/billing-analyzer/internal/report"
	"github.com/spidjo/billing-analyzer/internal/storage"
)

// report-runner emails the anomaly report to the configured recipient
// once a day. It runs alongside the API server as its own process.
func main() {
	log.Println("Starting report-runner...")

	cfg := loadConfig()
	if cfg.Report.Recipient == "" {
		log.Fatal("REPORT_RECIPIENT must be set")
	}
	if cfg.SMTP.Sender == "" {
		log.Fatal("SENDER_EMAIL must be set")
	}

	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	threshold := cfg.Anomaly.Threshold
	if cfg.Anomaly.Sensitivity != "" {
		threshold = anomaly.ThresholdForSensitivity(cfg.Anomaly.Sensitivity)
	}
	service := dispatch.NewService(
		store,
		anomaly.NewScorer(threshold),
		report.NewAssembler(cfg.Report.Title),
		report.NewPDFRenderer(),
		dispatch.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		dispatch.NewPolicy(cfg.SMTP.Sender),
		cfg.Report.MaxRows,
	)

	spec := dispatch.RecipientSpec{
		Primary: cfg.Report.Recipient,
		CCSelf:  cfg.Report.CCSelf,
	}
	scheduler, err := dispatch.NewScheduler(cfg.Report.DailyAt, service, spec)
	if err != nil {
		log.Fatalf("Invalid schedule %q: %v", cfg.Report.DailyAt, err)
	}

	scheduler.Start()
	log.Printf("Daily anomaly report scheduled for %s, recipient %s", cfg.Report.DailyAt, cfg.Report.Recipient)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down report-runner...")
	scheduler.Stop()
	log.Println("report-runner stopped")
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
