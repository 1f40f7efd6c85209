package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dhaivat-khatri/Inventory/database"
	"github.com/dhaivat-khatri/Inventory/models"
	"github.com/dhaivat-khatri/Inventory/storage"
)

// The whole suite runs once per backend: both implementations must be
// indistinguishable through the Storage interface.
var backends = map[string]func(t *testing.T) storage.Storage{
	"memory": func(t *testing.T) storage.Storage {
		return storage.NewMemoryStorage(zap.NewNop())
	},
	"gorm-sqlite": func(t *testing.T) storage.Storage {
		t.Helper()
		db, err := gorm.Open(
			sqlite.Open(filepath.Join(t.TempDir(), "inventory.db")),
			&gorm.Config{TranslateError: true},
		)
		require.NoError(t, err)
		require.NoError(t, database.Migrate(db))
		return storage.NewGormStorage(db, zap.NewNop())
	},
}

func runForEachBackend(t *testing.T, fn func(t *testing.T, s storage.Storage, userID int64)) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			user := seedUser(t, s)
			fn(t, s, user.ID)
		})
	}
}

// seedUser returns the default user, creating it for backends that do
// not seed one at construction.
func seedUser(t *testing.T, s storage.Storage) *models.User {
	t.Helper()
	ctx := context.Background()

	user, err := s.GetUserByUsername(ctx, storage.SeedUsername)
	if err == nil {
		return user
	}
	require.ErrorIs(t, err, storage.ErrNotFound)

	user, err = s.CreateUser(ctx, models.InsertUser{
		Username: storage.SeedUsername,
		Password: storage.SeedPassword,
	})
	require.NoError(t, err)
	return user
}

func mustAccount(t *testing.T, s storage.Storage, userID int64, name, platform string) *models.Account {
	t.Helper()
	account, err := s.CreateAccount(context.Background(), models.InsertAccount{
		Name:     name,
		Platform: platform,
		APIKey:   "sk_test_" + name,
		UserID:   userID,
	})
	require.NoError(t, err)
	return account
}

func mustItem(t *testing.T, s storage.Storage, account *models.Account, name, sku string, quantity int, category string) *models.Inventory {
	t.Helper()
	req := models.InsertInventory{
		Name:      name,
		SKU:       sku,
		Quantity:  quantity,
		Platform:  account.Platform,
		AccountID: account.ID,
	}
	if category != "" {
		req.Category = &category
	}
	item, err := s.CreateInventoryItem(context.Background(), req)
	require.NoError(t, err)
	return item
}

func intptr(i int) *int       { return &i }
func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

// --- User methods ---

func TestCreateUser_DuplicateUsername(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()

		_, err := s.CreateUser(ctx, models.InsertUser{Username: "second", Password: "pw"})
		assert.NoError(t, err)

		_, err = s.CreateUser(ctx, models.InsertUser{Username: storage.SeedUsername, Password: "pw"})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})
}

func TestGetUser_Absent(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, _ int64) {
		ctx := context.Background()

		_, err := s.GetUser(ctx, 9999)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

// --- Account methods ---

func TestCreateAccount_Defaults(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		account := mustAccount(t, s, userID, "Shop A", models.PlatformShopify)

		assert.NotZero(t, account.ID)
		assert.True(t, account.IsActive)
		assert.Equal(t, 0, account.ProductCount)
		assert.False(t, account.LastSynced.IsZero())
		assert.Equal(t, userID, account.UserID)
	})
}

func TestUpdateAccount_MergesFields(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()
		account := mustAccount(t, s, userID, "Shop A", models.PlatformShopify)

		updated, err := s.UpdateAccount(ctx, account.ID, models.AccountUpdate{
			Name:     strptr("Renamed Shop"),
			IsActive: boolptr(false),
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed Shop", updated.Name)
		assert.False(t, updated.IsActive)
		// Untouched fields survive the merge.
		assert.Equal(t, models.PlatformShopify, updated.Platform)
		assert.Equal(t, account.APIKey, updated.APIKey)
		assert.Equal(t, account.ID, updated.ID)

		_, err = s.UpdateAccount(ctx, 9999, models.AccountUpdate{Name: strptr("x")})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestGetAccounts_OnlyOwned(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()

		other, err := s.CreateUser(ctx, models.InsertUser{Username: "other", Password: "pw"})
		require.NoError(t, err)

		mustAccount(t, s, userID, "Mine 1", models.PlatformShopify)
		mustAccount(t, s, userID, "Mine 2", models.PlatformEtsy)
		mustAccount(t, s, other.ID, "Theirs", models.PlatformAmazon)

		accounts, err := s.GetAccounts(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
		for _, a := range accounts {
			assert.Equal(t, userID, a.UserID)
		}
	})
}

// --- Inventory methods ---

func TestStatusDerivation(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()
		account := mustAccount(t, s, userID, "Shop A", models.PlatformShopify)

		cases := []struct {
			quantity int
			status   string
		}{
			{0, models.StatusOutOfStock},
			{1, models.StatusLowStock},
			{10, models.StatusLowStock},
			{11, models.StatusInStock},
		}
		for i, tc := range cases {
			item := mustItem(t, s, account, "Item", "SKU-"+string(rune('A'+i)), tc.quantity, "")
			assert.Equal(t, tc.status, item.Status, "quantity %d", tc.quantity)
		}

		// Updates that touch quantity recompute the status.
		item := mustItem(t, s, account, "Widget", "W-100", 5, "")
		assert.Equal(t, models.StatusLowStock, item.Status)

		item, err := s.UpdateInventoryItem(ctx, item.ID, models.InventoryUpdate{Quantity: intptr(0)})
		require.NoError(t, err)
		assert.Equal(t, models.StatusOutOfStock, item.Status)

		item, err = s.UpdateInventoryItem(ctx, item.ID, models.InventoryUpdate{Quantity: intptr(50)})
		require.NoError(t, err)
		assert.Equal(t, models.StatusInStock, item.Status)

		// Updates that do not touch quantity leave the status alone.
		item, err = s.UpdateInventoryItem(ctx, item.ID, models.InventoryUpdate{Name: strptr("Widget v2")})
		require.NoError(t, err)
		assert.Equal(t, models.StatusInStock, item.Status)
	})
}

func TestReadAfterWrite(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()
		account := mustAccount(t, s, userID, "Shop A", models.PlatformShopify)

		created := mustItem(t, s, account, "Widget", "W-1", 5, "Gadgets")

		fetched, err := s.GetInventoryItem(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, created.SKU, fetched.SKU)
		assert.Equal(t, created.Status, fetched.Status)
		assert.Equal(t, created.Quantity, fetched.Quantity)

		bySku, err := s.GetInventoryItemBySku(ctx, "W-1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, bySku.ID)
	})
}

func TestProductCountTracksInventory(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()
		account := mustAccount(t, s, userID, "Shop A", models.PlatformShopify)

		first := mustItem(t, s, account, "One", "PC-1", 1, "")
		mustItem(t, s, account, "Two", "PC-2", 2, "")
		mustItem(t, s, account, "Three", "PC-3", 3, "")

		refetched, err := s.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, refetched.ProductCount)

		require.NoError(t, s.DeleteInventoryItem(ctx, first.ID))

		refetched, err = s.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, refetched.ProductCount)
	})
}

func TestCreateInventoryItem_UnknownAccount(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, _ int64) {
		_, err := s.CreateInventoryItem(context.Background(), models.InsertInventory{
			Name:      "Orphan",
			SKU:       "ORPHAN-1",
			Quantity:  1,
			Platform:  models.PlatformShopify,
			AccountID: 9999,
		})
		assert.ErrorIs(t, err, storage.ErrAccountNotFound)
	})
}

func TestDuplicateSKURejected(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()
		account := mustAccount(t, s, userID, "Shop A", models.PlatformShopify)

		mustItem(t, s, account, "First", "DUP", 1, "")

		_, err := s.CreateInventoryItem(ctx, models.InsertInventory{
			Name:      "Second",
			SKU:       "DUP",
			Quantity:  1,
			Platform:  account.Platform,
			AccountID: account.ID,
		})
		assert.ErrorIs(t, err, storage.ErrDuplicate)

		// Renaming an item onto a taken sku is rejected the same way.
		other := mustItem(t, s, account, "Other", "OTHER-1", 1, "")
		_, err = s.UpdateInventoryItem(ctx, other.ID, models.InventoryUpdate{SKU: strptr("DUP")})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})
}

func TestInventoryAbsence(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, _ int64) {
		ctx := context.Background()

		_, err := s.GetInventoryItem(ctx, 9999)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.GetInventoryItemBySku(ctx, "NOPE")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.UpdateInventoryItem(ctx, 9999, models.InventoryUpdate{Quantity: intptr(1)})
		assert.ErrorIs(t, err, storage.ErrNotFound)

		assert.ErrorIs(t, s.DeleteInventoryItem(ctx, 9999), storage.ErrNotFound)
	})
}

func TestFilterComposition(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()
		shopify := mustAccount(t, s, userID, "Shop", models.PlatformShopify)
		amazon := mustAccount(t, s, userID, "Marketplace", models.PlatformAmazon)

		mustItem(t, s, shopify, "Widget", "W-1", 5, "Gadgets")
		mustItem(t, s, shopify, "Widget Pro", "W-2", 50, "Gadgets")
		mustItem(t, s, amazon, "Widget Mini", "W-3", 5, "Gadgets")
		mustItem(t, s, shopify, "Gadget", "G-1", 5, "Widgets")

		// All three predicates must hold at once.
		items, err := s.GetInventoryItems(ctx, storage.InventoryFilter{
			Platform: models.PlatformShopify,
			Status:   models.StatusLowStock,
			Search:   "wid",
		})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Gadget", items[0].Name) // category "Widgets" matches the search
		assert.Equal(t, "Widget", items[1].Name)

		// No filters returns everything, ordered by name.
		items, err = s.GetInventoryItems(ctx, storage.InventoryFilter{})
		require.NoError(t, err)
		require.Len(t, items, 4)
		assert.Equal(t, []string{"Gadget", "Widget", "Widget Mini", "Widget Pro"},
			[]string{items[0].Name, items[1].Name, items[2].Name, items[3].Name})
	})
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()
		account := mustAccount(t, s, userID, "Shop", models.PlatformShopify)

		mustItem(t, s, account, "Widget", "W-1", 5, "")
		mustItem(t, s, account, "Gadget", "G-1", 5, "")

		items, err := s.GetInventoryItems(ctx, storage.InventoryFilter{Search: "WID"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Widget", items[0].Name)

		// The sku participates in the match too.
		items, err = s.GetInventoryItems(ctx, storage.InventoryFilter{Search: "g-1"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Gadget", items[0].Name)
	})
}

// --- Metrics methods ---

func TestMetricsConsistency(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()
		account := mustAccount(t, s, userID, "Shop A", models.PlatformShopify)

		item := mustItem(t, s, account, "Widget", "W-1", 5, "")

		metrics, err := s.GetMetrics(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, metrics.TotalProducts)
		assert.Equal(t, 1, metrics.LowStock)
		assert.Equal(t, 0, metrics.OutOfStock)

		_, err = s.UpdateInventoryItem(ctx, item.ID, models.InventoryUpdate{Quantity: intptr(0)})
		require.NoError(t, err)

		metrics, err = s.GetMetrics(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, metrics.TotalProducts)
		assert.Equal(t, 0, metrics.LowStock)
		assert.Equal(t, 1, metrics.OutOfStock)

		_, err = s.UpdateInventoryItem(ctx, item.ID, models.InventoryUpdate{Quantity: intptr(50)})
		require.NoError(t, err)

		metrics, err = s.GetMetrics(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, metrics.TotalProducts)
		assert.Equal(t, 0, metrics.LowStock)
		assert.Equal(t, 0, metrics.OutOfStock)

		require.NoError(t, s.DeleteInventoryItem(ctx, item.ID))

		metrics, err = s.GetMetrics(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 0, metrics.TotalProducts)
	})
}

func TestMetricsScopedToUser(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()

		other, err := s.CreateUser(ctx, models.InsertUser{Username: "other", Password: "pw"})
		require.NoError(t, err)

		mine := mustAccount(t, s, userID, "Mine", models.PlatformShopify)
		theirs := mustAccount(t, s, other.ID, "Theirs", models.PlatformEtsy)

		mustItem(t, s, mine, "Widget", "W-1", 5, "")
		mustItem(t, s, theirs, "Trinket", "T-1", 0, "")

		metrics, err := s.CalculateMetrics(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, metrics.TotalProducts)
		assert.Equal(t, 0, metrics.OutOfStock)

		metrics, err = s.CalculateMetrics(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, metrics.TotalProducts)
		assert.Equal(t, 1, metrics.OutOfStock)
	})
}

func TestMetricsUpsertAndPendingOrdersCarryOver(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()

		// Absent until first computed.
		_, err := s.GetMetrics(ctx, userID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		// Upsert creates the row with defaults for missing fields.
		metrics, err := s.UpdateMetrics(ctx, userID, models.MetricsUpdate{PendingOrders: intptr(18)})
		require.NoError(t, err)
		assert.Equal(t, 18, metrics.PendingOrders)
		assert.Equal(t, 0, metrics.TotalProducts)

		// Recomputation owns the three derived counts but carries
		// pendingOrders over untouched.
		account := mustAccount(t, s, userID, "Shop A", models.PlatformShopify)
		mustItem(t, s, account, "Widget", "W-1", 5, "")

		metrics, err = s.CalculateMetrics(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, metrics.TotalProducts)
		assert.Equal(t, 1, metrics.LowStock)
		assert.Equal(t, 18, metrics.PendingOrders)
	})
}

// --- Cascade delete ---

func TestCascadeDelete(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()
		doomed := mustAccount(t, s, userID, "Doomed", models.PlatformEtsy)
		kept := mustAccount(t, s, userID, "Kept", models.PlatformShopify)

		a := mustItem(t, s, doomed, "Alpha", "A-1", 5, "")
		b := mustItem(t, s, doomed, "Beta", "B-1", 0, "")
		survivor := mustItem(t, s, kept, "Gamma", "C-1", 20, "")

		require.NoError(t, s.DeleteAccount(ctx, doomed.ID))

		_, err := s.GetInventoryItem(ctx, a.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.GetInventoryItem(ctx, b.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		items, err := s.GetInventoryItems(ctx, storage.InventoryFilter{})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, survivor.ID, items[0].ID)

		accounts, err := s.GetAccounts(ctx, userID)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, kept.ID, accounts[0].ID)

		// Metrics reflect the cascade.
		metrics, err := s.GetMetrics(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, metrics.TotalProducts)
		assert.Equal(t, 0, metrics.OutOfStock)

		// Deleting again is a failure signal, not a crash.
		assert.ErrorIs(t, s.DeleteAccount(ctx, doomed.ID), storage.ErrNotFound)
	})
}

// --- End-to-end dashboard scenario ---

func TestDashboardScenario(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s storage.Storage, userID int64) {
		ctx := context.Background()

		account := mustAccount(t, s, userID, "Shop A", models.PlatformShopify)
		assert.Equal(t, 0, account.ProductCount)

		item := mustItem(t, s, account, "Widget", "W-1", 5, "")
		assert.Equal(t, models.StatusLowStock, item.Status)

		refetched, err := s.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, refetched.ProductCount)

		metrics, err := s.GetMetrics(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, metrics.TotalProducts)
		assert.Equal(t, 1, metrics.LowStock)

		mustItem(t, s, account, "Gadget", "G-1", 30, "")

		items, err := s.GetInventoryItems(ctx, storage.InventoryFilter{Search: "wid"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Widget", items[0].Name)

		require.NoError(t, s.DeleteAccount(ctx, account.ID))
		_, err = s.GetInventoryItem(ctx, item.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		accounts, err := s.GetAccounts(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})
}
