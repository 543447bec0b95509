package main

import (
	"context"
	"fmt"
	"os"

	"github.com/freelanceflow/flow/internal/config"
	"github.com/freelanceflow/flow/internal/database"
	"github.com/freelanceflow/flow/internal/logger"
	"github.com/freelanceflow/flow/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("", "")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	billingService := service.NewBillingService(store, log)

	rootCmd := newRootCmd(billingService, cfg)
	return rootCmd.ExecuteContext(context.Background())
}

func openStore(cfg *config.Config) (database.Store, error) {
	if cfg.DatabaseDriver == "memory" {
		return database.NewMemoryStore(), nil
	}
	return database.NewSQLiteStore(cfg.DatabaseDriver, cfg.DatabaseURL)
}
