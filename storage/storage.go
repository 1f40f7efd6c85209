package storage

import (
	"context"
	"errors"

	"github.com/dhaivat-khatri/Inventory/models"
)

var (
	// ErrNotFound is returned when a requested id or sku does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (sku, username) already exists.
	ErrDuplicate = errors.New("duplicate key")
	// ErrAccountNotFound is returned when an inventory item references a
	// non-existent account.
	ErrAccountNotFound = errors.New("account not found")
)

// InventoryFilter narrows GetInventoryItems. Platform and Status are
// exact matches; Search is a case-insensitive substring match over name,
// sku or category. Non-empty fields are combined with AND.
type InventoryFilter struct {
	Platform string
	Status   string
	Search   string
}

// Storage defines the persistence contract for the dashboard. Both the
// in-memory and the relational implementation satisfy it and must behave
// identically for every operation.
//
// Single-entity reads, updates and deletes report absence with
// ErrNotFound; they never panic. Input validation is the caller's
// responsibility.
type Storage interface {
	// User methods
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, req models.InsertUser) (*models.User, error)

	// Account methods
	GetAccounts(ctx context.Context, userID int64) ([]models.Account, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	CreateAccount(ctx context.Context, req models.InsertAccount) (*models.Account, error)
	UpdateAccount(ctx context.Context, id int64, upd models.AccountUpdate) (*models.Account, error)
	// DeleteAccount removes the account and every inventory item that
	// references it, then recomputes the owner's metrics.
	DeleteAccount(ctx context.Context, id int64) error

	// Inventory methods
	GetInventoryItems(ctx context.Context, filter InventoryFilter) ([]models.Inventory, error)
	GetInventoryItem(ctx context.Context, id int64) (*models.Inventory, error)
	GetInventoryItemBySku(ctx context.Context, sku string) (*models.Inventory, error)
	CreateInventoryItem(ctx context.Context, req models.InsertInventory) (*models.Inventory, error)
	UpdateInventoryItem(ctx context.Context, id int64, upd models.InventoryUpdate) (*models.Inventory, error)
	DeleteInventoryItem(ctx context.Context, id int64) error

	// Metrics methods
	GetMetrics(ctx context.Context, userID int64) (*models.Metrics, error)
	UpdateMetrics(ctx context.Context, userID int64, upd models.MetricsUpdate) (*models.Metrics, error)
	CalculateMetrics(ctx context.Context, userID int64) (*models.Metrics, error)
}
