package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dhaivat-khatri/Inventory/models"
)

// GormStorage implements Storage against a relational database through
// GORM. Filtering is pushed into WHERE clauses and every multi-statement
// mutation (cascading delete, counter refresh, metrics recompute) runs
// inside a single transaction so a mid-sequence failure cannot leave
// orphaned rows or stale counters.
//
// The *gorm.DB must be opened with TranslateError enabled so unique
// constraint violations surface as gorm.ErrDuplicatedKey.
type GormStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStorage creates a relational-backed store.
func NewGormStorage(db *gorm.DB, logger *zap.Logger) *GormStorage {
	return &GormStorage{db: db, logger: logger}
}

// translateErr maps GORM's sentinel errors onto the storage contract.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// --- User methods ---

func (s *GormStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *GormStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *GormStorage) CreateUser(ctx context.Context, req models.InsertUser) (*models.User, error) {
	user := models.User{Username: req.Username, Password: req.Password}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

// --- Account methods ---

func (s *GormStorage) GetAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *GormStorage) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &account, nil
}

func (s *GormStorage) CreateAccount(ctx context.Context, req models.InsertAccount) (*models.Account, error) {
	account := models.Account{
		Name:         req.Name,
		Platform:     req.Platform,
		APIKey:       req.APIKey,
		IsActive:     true,
		ProductCount: 0,
		LastSynced:   time.Now().UTC(),
		UserID:       req.UserID,
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}

	s.logger.Info("account connected",
		zap.Int64("account_id", account.ID),
		zap.String("platform", account.Platform),
	)
	return &account, nil
}

func (s *GormStorage) UpdateAccount(ctx context.Context, id int64, upd models.AccountUpdate) (*models.Account, error) {
	updates := map[string]interface{}{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Platform != nil {
		updates["platform"] = *upd.Platform
	}
	if upd.APIKey != nil {
		updates["api_key"] = *upd.APIKey
	}
	if upd.IsActive != nil {
		updates["is_active"] = *upd.IsActive
	}
	if upd.LastSynced != nil {
		updates["last_synced"] = *upd.LastSynced
	}

	var account models.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&account, id).Error; err != nil {
			return translateErr(err)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&account).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&account, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *GormStorage) DeleteAccount(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, id).Error; err != nil {
			return translateErr(err)
		}

		// Referential integrity lives here, not in the schema: dependent
		// inventory rows go first, inside the same transaction.
		if err := tx.Where("account_id = ?", id).Delete(&models.Inventory{}).Error; err != nil {
			return fmt.Errorf("delete inventory for account %d: %w", id, err)
		}
		if err := tx.Delete(&models.Account{}, id).Error; err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}

		_, err := s.calculateMetricsTx(tx, account.UserID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.Int64("account_id", id))
	return nil
}

// --- Inventory methods ---

func (s *GormStorage) GetInventoryItems(ctx context.Context, filter InventoryFilter) ([]models.Inventory, error) {
	query := s.db.WithContext(ctx).Model(&models.Inventory{})

	if filter.Platform != "" {
		query = query.Where("platform = ?", filter.Platform)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(COALESCE(category, '')) LIKE ?",
			search, search, search,
		)
	}

	var items []models.Inventory
	if err := query.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStorage) GetInventoryItem(ctx context.Context, id int64) (*models.Inventory, error) {
	var item models.Inventory
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &item, nil
}

func (s *GormStorage) GetInventoryItemBySku(ctx context.Context, sku string) (*models.Inventory, error) {
	var item models.Inventory
	err := s.db.WithContext(ctx).Where("sku = ?", sku).First(&item).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &item, nil
}

func (s *GormStorage) CreateInventoryItem(ctx context.Context, req models.InsertInventory) (*models.Inventory, error) {
	item := models.Inventory{
		Name:        req.Name,
		SKU:         req.SKU,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Quantity:    req.Quantity,
		Status:      models.StatusForQuantity(req.Quantity),
		Platform:    req.Platform,
		AccountID:   req.AccountID,
		LastUpdated: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, req.AccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if err := tx.Create(&item).Error; err != nil {
			return translateErr(err)
		}
		if err := s.refreshProductCountTx(tx, account.ID); err != nil {
			return err
		}
		_, err := s.calculateMetricsTx(tx, account.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GormStorage) UpdateInventoryItem(ctx context.Context, id int64, upd models.InventoryUpdate) (*models.Inventory, error) {
	updates := map[string]interface{}{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.SKU != nil {
		updates["sku"] = *upd.SKU
	}
	if upd.Category != nil {
		updates["category"] = *upd.Category
	}
	if upd.Subcategory != nil {
		updates["subcategory"] = *upd.Subcategory
	}
	if upd.Platform != nil {
		updates["platform"] = *upd.Platform
	}
	if upd.Quantity != nil {
		// Status follows quantity, always.
		updates["quantity"] = *upd.Quantity
		updates["status"] = models.StatusForQuantity(*upd.Quantity)
	}
	updates["last_updated"] = time.Now().UTC()

	var item models.Inventory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return translateErr(err)
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return translateErr(err)
		}
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}

		var account models.Account
		if err := tx.First(&account, item.AccountID).Error; err != nil {
			return err
		}
		_, err := s.calculateMetricsTx(tx, account.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GormStorage) DeleteInventoryItem(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Inventory
		if err := tx.First(&item, id).Error; err != nil {
			return translateErr(err)
		}
		if err := tx.Delete(&models.Inventory{}, id).Error; err != nil {
			return fmt.Errorf("delete inventory item %d: %w", id, err)
		}
		if err := s.refreshProductCountTx(tx, item.AccountID); err != nil {
			return err
		}

		var account models.Account
		if err := tx.First(&account, item.AccountID).Error; err != nil {
			// Dangling reference; nothing left to recompute against.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		_, err := s.calculateMetricsTx(tx, account.UserID)
		return err
	})
}

// --- Metrics methods ---

func (s *GormStorage) GetMetrics(ctx context.Context, userID int64) (*models.Metrics, error) {
	var metrics models.Metrics
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&metrics).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &metrics, nil
}

func (s *GormStorage) UpdateMetrics(ctx context.Context, userID int64, upd models.MetricsUpdate) (*models.Metrics, error) {
	var metrics *models.Metrics
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		metrics, err = s.upsertMetricsTx(tx, userID, upd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func (s *GormStorage) CalculateMetrics(ctx context.Context, userID int64) (*models.Metrics, error) {
	var metrics *models.Metrics
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		metrics, err = s.calculateMetricsTx(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

// calculateMetricsTx recomputes the derived counts through a join from
// inventory to the user's accounts and upserts the metrics row inside
// the given transaction. PendingOrders is carried over; no order entity
// backs it.
func (s *GormStorage) calculateMetricsTx(tx *gorm.DB, userID int64) (*models.Metrics, error) {
	base := func() *gorm.DB {
		return tx.Model(&models.Inventory{}).
			Joins("JOIN accounts ON accounts.id = inventory.account_id").
			Where("accounts.user_id = ?", userID)
	}

	var total, low, out int64
	if err := base().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count total products: %w", err)
	}
	if err := base().Where("inventory.status = ?", models.StatusLowStock).Count(&low).Error; err != nil {
		return nil, fmt.Errorf("count low stock: %w", err)
	}
	if err := base().Where("inventory.status = ?", models.StatusOutOfStock).Count(&out).Error; err != nil {
		return nil, fmt.Errorf("count out of stock: %w", err)
	}

	totalInt, lowInt, outInt := int(total), int(low), int(out)
	return s.upsertMetricsTx(tx, userID, models.MetricsUpdate{
		TotalProducts: &totalInt,
		LowStock:      &lowInt,
		OutOfStock:    &outInt,
	})
}

// upsertMetricsTx creates the user's metrics row with defaults if
// absent, else merges the non-nil fields and bumps last_updated.
func (s *GormStorage) upsertMetricsTx(tx *gorm.DB, userID int64, upd models.MetricsUpdate) (*models.Metrics, error) {
	var metrics models.Metrics
	err := tx.Where("user_id = ?", userID).First(&metrics).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		metrics = models.Metrics{UserID: userID, LastUpdated: time.Now().UTC()}
		if upd.TotalProducts != nil {
			metrics.TotalProducts = *upd.TotalProducts
		}
		if upd.LowStock != nil {
			metrics.LowStock = *upd.LowStock
		}
		if upd.OutOfStock != nil {
			metrics.OutOfStock = *upd.OutOfStock
		}
		if upd.PendingOrders != nil {
			metrics.PendingOrders = *upd.PendingOrders
		}
		if err := tx.Create(&metrics).Error; err != nil {
			return nil, err
		}
		return &metrics, nil
	case err != nil:
		return nil, err
	}

	updates := map[string]interface{}{"last_updated": time.Now().UTC()}
	if upd.TotalProducts != nil {
		updates["total_products"] = *upd.TotalProducts
	}
	if upd.LowStock != nil {
		updates["low_stock"] = *upd.LowStock
	}
	if upd.OutOfStock != nil {
		updates["out_of_stock"] = *upd.OutOfStock
	}
	if upd.PendingOrders != nil {
		updates["pending_orders"] = *upd.PendingOrders
	}
	if err := tx.Model(&metrics).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := tx.First(&metrics, metrics.ID).Error; err != nil {
		return nil, err
	}
	return &metrics, nil
}

// refreshProductCountTx recomputes an account's product_count from the
// authoritative inventory rows instead of incrementing, so concurrent
// writers cannot lose an update.
func (s *GormStorage) refreshProductCountTx(tx *gorm.DB, accountID int64) error {
	err := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("product_count", gorm.Expr(
			"(SELECT COUNT(*) FROM inventory WHERE account_id = ?)", accountID,
		)).Error
	if err != nil {
		return fmt.Errorf("refresh product count for account %d: %w", accountID, err)
	}
	return nil
}
