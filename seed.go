package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dhaivat-khatri/Inventory/models"
	"github.com/dhaivat-khatri/Inventory/storage"
)

// ensureSeedUser returns the default dashboard user, creating it if the
// backing store does not have one yet. The memory store seeds it at
// construction; a fresh database does not.
func ensureSeedUser(ctx context.Context, store storage.Storage) (*models.User, error) {
	user, err := store.GetUserByUsername(ctx, storage.SeedUsername)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("look up seed user: %w", err)
	}

	req := models.InsertUser{Username: storage.SeedUsername, Password: storage.SeedPassword}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return store.CreateUser(ctx, req)
}

func strptr(s string) *string { return &s }

// seedSampleData loads the demo fixture: three connected accounts and
// five inventory items across them, followed by a metrics computation.
// Items whose sku already exists are skipped so reruns are harmless.
func seedSampleData(ctx context.Context, store storage.Storage, userID int64, logger *zap.Logger) error {
	type accountFixture struct {
		name     string
		platform string
		apiKey   string
	}
	type itemFixture struct {
		name        string
		sku         string
		category    string
		subcategory string
		quantity    int
		account     int // index into the account fixtures
	}

	accountFixtures := []accountFixture{
		{"My Shopify Store", models.PlatformShopify, "sk_test_shopify123"},
		{"Amazon Seller", models.PlatformAmazon, "sk_test_amazon456"},
		{"Etsy Shop", models.PlatformEtsy, "sk_test_etsy789"},
	}
	itemFixtures := []itemFixture{
		{"Cotton T-Shirt", "TS-001-BLK", "Apparel", "T-Shirts", 42, 0},
		{"Ceramic Coffee Mug", "MUG-101-WHT", "Kitchen", "Mugs", 8, 1},
		{"Leather Wallet", "WAL-220-BRN", "Accessories", "Wallets", 0, 2},
		{"Wireless Headphones", "HP-330-BLK", "Electronics", "Audio", 15, 0},
		{"Bamboo Cutting Board", "CB-440-NAT", "Kitchen", "Cutting Boards", 27, 1},
	}

	accounts := make([]*models.Account, len(accountFixtures))
	for i, f := range accountFixtures {
		req := models.InsertAccount{
			Name:     f.name,
			Platform: f.platform,
			APIKey:   f.apiKey,
			UserID:   userID,
		}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("invalid account fixture %q: %w", f.name, err)
		}
		account, err := store.CreateAccount(ctx, req)
		if err != nil {
			return fmt.Errorf("seed account %q: %w", f.name, err)
		}
		accounts[i] = account
	}

	seeded := 0
	for _, f := range itemFixtures {
		account := accounts[f.account]
		req := models.InsertInventory{
			Name:        f.name,
			SKU:         f.sku,
			Category:    strptr(f.category),
			Subcategory: strptr(f.subcategory),
			Quantity:    f.quantity,
			Platform:    account.Platform,
			AccountID:   account.ID,
		}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("invalid inventory fixture %q: %w", f.sku, err)
		}
		if _, err := store.CreateInventoryItem(ctx, req); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				logger.Debug("sample item already present", zap.String("sku", f.sku))
				continue
			}
			return fmt.Errorf("seed inventory item %q: %w", f.sku, err)
		}
		seeded++
	}

	if _, err := store.CalculateMetrics(ctx, userID); err != nil {
		return fmt.Errorf("calculate metrics after seeding: %w", err)
	}

	logger.Info("sample data seeded",
		zap.Int("accounts", len(accounts)),
		zap.Int("items", seeded),
	)
	return nil
}
