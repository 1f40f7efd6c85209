package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dhaivat-khatri/Inventory/database"
	"github.com/dhaivat-khatri/Inventory/storage"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// --- Store wiring ---
	// The store is owned here and handed to everything by reference;
	// there is no package-level singleton.
	var store storage.Storage
	switch cfg.StorageBackend {
	case "database":
		db, err := database.Connect(logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		store = storage.NewGormStorage(db, logger)
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()
	default:
		store = storage.NewMemoryStorage(logger)
	}
	logger.Info("Storage backend ready", zap.String("backend", cfg.StorageBackend))

	ctx := context.Background()

	user, err := ensureSeedUser(ctx, store)
	if err != nil {
		logger.Fatal("Failed to ensure seed user", zap.Error(err))
	}

	if cfg.SeedSampleData {
		if err := seedSampleData(ctx, store, user.ID, logger); err != nil {
			logger.Fatal("Failed to seed sample data", zap.Error(err))
		}
	}

	// Mirror the dashboard's first fetch: read the cached metrics row,
	// computing it if this user has none yet.
	metrics, err := store.GetMetrics(ctx, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		metrics, err = store.CalculateMetrics(ctx, user.ID)
	}
	if err != nil {
		logger.Fatal("Failed to compute metrics", zap.Error(err))
	}

	logger.Info("Dashboard metrics",
		zap.Int64("user_id", user.ID),
		zap.Int("total_products", metrics.TotalProducts),
		zap.Int("low_stock", metrics.LowStock),
		zap.Int("out_of_stock", metrics.OutOfStock),
		zap.Int("pending_orders", metrics.PendingOrders),
		zap.Time("last_updated", metrics.LastUpdated),
	)
}
