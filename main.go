package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mark31d/NobleStarBurstLegacy/bot"
	"github.com/mark31d/NobleStarBurstLegacy/config"
	"github.com/mark31d/NobleStarBurstLegacy/content"
	"github.com/mark31d/NobleStarBurstLegacy/database"
	"github.com/mark31d/NobleStarBurstLegacy/logger"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.LogMode, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()
	logg.Info("Starting Noble Queens bot", "store", cfg.StoreDriver)

	store, err := openStore(cfg)
	if err != nil {
		logg.Fatal("Failed to open store", "driver", cfg.StoreDriver, "error", err)
	}
	defer store.Close()

	catalog, err := content.Load()
	if err != nil {
		logg.Fatal("Failed to load content", "error", err)
	}

	// Initialize and start the bot
	b, err := bot.New(cfg, store, catalog, logg)
	if err != nil {
		logg.Fatal("Failed to initialize bot", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg.Info("Bot initialized successfully", "articles", len(catalog.Articles))
	b.Start(ctx)
}

func openStore(cfg *config.Config) (database.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return database.New(cfg.DatabasePath)
	case config.DriverRedis:
		return database.NewRedis(cfg.RedisAddr, cfg.RedisDB)
	case config.DriverMemory:
		return database.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
