package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dhaivat-khatri/Inventory/models"
)

// MemoryStorage implements Storage with id-keyed maps held in process
// memory. Nothing survives a restart. All state is guarded by a single
// RWMutex so the store is safe under concurrent requests; derived values
// (product counts, metrics) are recomputed by aggregation inside the
// same critical section as the mutation that invalidated them.
type MemoryStorage struct {
	mu sync.RWMutex

	users     map[int64]models.User
	accounts  map[int64]models.Account
	inventory map[int64]models.Inventory
	metrics   map[int64]models.Metrics

	// Secondary unique indexes, mirroring the relational constraints.
	usersByName map[string]int64
	itemsBySku  map[string]int64

	// Monotonic id counters; ids are never reused after deletion.
	userSeq      int64
	accountSeq   int64
	inventorySeq int64
	metricsSeq   int64

	logger *zap.Logger
}

// SeedUsername and SeedPassword identify the default user created by
// NewMemoryStorage.
const (
	SeedUsername = "admin"
	SeedPassword = "password"
)

// NewMemoryStorage creates an empty in-memory store with the default
// seed user already present.
func NewMemoryStorage(logger *zap.Logger) *MemoryStorage {
	s := &MemoryStorage{
		users:       make(map[int64]models.User),
		accounts:    make(map[int64]models.Account),
		inventory:   make(map[int64]models.Inventory),
		metrics:     make(map[int64]models.Metrics),
		usersByName: make(map[string]int64),
		itemsBySku:  make(map[string]int64),
		logger:      logger,
	}

	s.userSeq++
	seed := models.User{ID: s.userSeq, Username: SeedUsername, Password: SeedPassword}
	s.users[seed.ID] = seed
	s.usersByName[seed.Username] = seed.ID

	return s
}

// --- User methods ---

func (s *MemoryStorage) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[username]
	if !ok {
		return nil, ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *MemoryStorage) CreateUser(_ context.Context, req models.InsertUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByName[req.Username]; exists {
		return nil, ErrDuplicate
	}

	s.userSeq++
	user := models.User{ID: s.userSeq, Username: req.Username, Password: req.Password}
	s.users[user.ID] = user
	s.usersByName[user.Username] = user.ID
	return &user, nil
}

// --- Account methods ---

func (s *MemoryStorage) GetAccounts(_ context.Context, userID int64) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []models.Account
	for _, account := range s.accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (s *MemoryStorage) GetAccount(_ context.Context, id int64) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

func (s *MemoryStorage) CreateAccount(_ context.Context, req models.InsertAccount) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accountSeq++
	account := models.Account{
		ID:           s.accountSeq,
		Name:         req.Name,
		Platform:     req.Platform,
		APIKey:       req.APIKey,
		IsActive:     true,
		ProductCount: 0,
		LastSynced:   time.Now().UTC(),
		UserID:       req.UserID,
	}
	s.accounts[account.ID] = account

	s.logger.Info("account connected",
		zap.Int64("account_id", account.ID),
		zap.String("platform", account.Platform),
	)
	return &account, nil
}

func (s *MemoryStorage) UpdateAccount(_ context.Context, id int64, upd models.AccountUpdate) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}

	if upd.Name != nil {
		account.Name = *upd.Name
	}
	if upd.Platform != nil {
		account.Platform = *upd.Platform
	}
	if upd.APIKey != nil {
		account.APIKey = *upd.APIKey
	}
	if upd.IsActive != nil {
		account.IsActive = *upd.IsActive
	}
	if upd.LastSynced != nil {
		account.LastSynced = *upd.LastSynced
	}

	s.accounts[id] = account
	return &account, nil
}

func (s *MemoryStorage) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}

	// Cascade: drop every item owned by the account before the account
	// itself, keeping the sku index in step.
	removed := 0
	for itemID, item := range s.inventory {
		if item.AccountID == id {
			delete(s.inventory, itemID)
			delete(s.itemsBySku, item.SKU)
			removed++
		}
	}
	delete(s.accounts, id)

	s.calculateMetricsLocked(account.UserID)

	s.logger.Info("account deleted",
		zap.Int64("account_id", id),
		zap.Int("items_removed", removed),
	)
	return nil
}

// --- Inventory methods ---

func (s *MemoryStorage) GetInventoryItems(_ context.Context, filter InventoryFilter) ([]models.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Inventory
	for _, item := range s.inventory {
		if matchesFilter(item, filter) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func matchesFilter(item models.Inventory, filter InventoryFilter) bool {
	if filter.Platform != "" && item.Platform != filter.Platform {
		return false
	}
	if filter.Status != "" && item.Status != filter.Status {
		return false
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		category := ""
		if item.Category != nil {
			category = *item.Category
		}
		if !strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.SKU), search) &&
			!strings.Contains(strings.ToLower(category), search) {
			return false
		}
	}
	return true
}

func (s *MemoryStorage) GetInventoryItem(_ context.Context, id int64) (*models.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.inventory[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (s *MemoryStorage) GetInventoryItemBySku(_ context.Context, sku string) (*models.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.itemsBySku[sku]
	if !ok {
		return nil, ErrNotFound
	}
	item := s.inventory[id]
	return &item, nil
}

func (s *MemoryStorage) CreateInventoryItem(_ context.Context, req models.InsertInventory) (*models.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[req.AccountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if _, exists := s.itemsBySku[req.SKU]; exists {
		return nil, ErrDuplicate
	}

	s.inventorySeq++
	item := models.Inventory{
		ID:          s.inventorySeq,
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
	s.inventory[item.ID] = item
	s.itemsBySku[item.SKU] = item.ID

	s.refreshProductCountLocked(account.ID)
	s.calculateMetricsLocked(account.UserID)

	return &item, nil
}

func (s *MemoryStorage) UpdateInventoryItem(_ context.Context, id int64, upd models.InventoryUpdate) (*models.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.inventory[id]
	if !ok {
		return nil, ErrNotFound
	}

	if upd.SKU != nil && *upd.SKU != item.SKU {
		if _, exists := s.itemsBySku[*upd.SKU]; exists {
			return nil, ErrDuplicate
		}
		delete(s.itemsBySku, item.SKU)
		item.SKU = *upd.SKU
		s.itemsBySku[item.SKU] = id
	}
	if upd.Name != nil {
		item.Name = *upd.Name
	}
	if upd.Category != nil {
		item.Category = upd.Category
	}
	if upd.Subcategory != nil {
		item.Subcategory = upd.Subcategory
	}
	if upd.Platform != nil {
		item.Platform = *upd.Platform
	}
	if upd.Quantity != nil {
		item.Quantity = *upd.Quantity
		item.Status = models.StatusForQuantity(*upd.Quantity)
	}
	item.LastUpdated = time.Now().UTC()

	s.inventory[id] = item

	if account, ok := s.accounts[item.AccountID]; ok {
		s.calculateMetricsLocked(account.UserID)
	}
	return &item, nil
}

func (s *MemoryStorage) DeleteInventoryItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.inventory[id]
	if !ok {
		return ErrNotFound
	}

	delete(s.inventory, id)
	delete(s.itemsBySku, item.SKU)

	if account, ok := s.accounts[item.AccountID]; ok {
		s.refreshProductCountLocked(account.ID)
		s.calculateMetricsLocked(account.UserID)
	}
	return nil
}

// --- Metrics methods ---

func (s *MemoryStorage) GetMetrics(_ context.Context, userID int64) (*models.Metrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.metrics {
		if m.UserID == userID {
			metrics := m
			return &metrics, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) UpdateMetrics(_ context.Context, userID int64, upd models.MetricsUpdate) (*models.Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics := s.upsertMetricsLocked(userID, upd)
	return &metrics, nil
}

func (s *MemoryStorage) CalculateMetrics(_ context.Context, userID int64) (*models.Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics := s.calculateMetricsLocked(userID)
	return &metrics, nil
}

// calculateMetricsLocked recomputes the three derived counts over the
// user's inventory (reached through their accounts) and upserts the
// metrics row. PendingOrders has no source entity and is carried over.
// Callers must hold the write lock.
func (s *MemoryStorage) calculateMetricsLocked(userID int64) models.Metrics {
	owned := make(map[int64]bool)
	for _, account := range s.accounts {
		if account.UserID == userID {
			owned[account.ID] = true
		}
	}

	var total, low, out int
	for _, item := range s.inventory {
		if !owned[item.AccountID] {
			continue
		}
		total++
		switch item.Status {
		case models.StatusLowStock:
			low++
		case models.StatusOutOfStock:
			out++
		}
	}

	return s.upsertMetricsLocked(userID, models.MetricsUpdate{
		TotalProducts: &total,
		LowStock:      &low,
		OutOfStock:    &out,
	})
}

// upsertMetricsLocked creates the user's metrics row if absent, else
// merges the non-nil fields. Callers must hold the write lock.
func (s *MemoryStorage) upsertMetricsLocked(userID int64, upd models.MetricsUpdate) models.Metrics {
	for id, m := range s.metrics {
		if m.UserID != userID {
			continue
		}
		if upd.TotalProducts != nil {
			m.TotalProducts = *upd.TotalProducts
		}
		if upd.LowStock != nil {
			m.LowStock = *upd.LowStock
		}
		if upd.OutOfStock != nil {
			m.OutOfStock = *upd.OutOfStock
		}
		if upd.PendingOrders != nil {
			m.PendingOrders = *upd.PendingOrders
		}
		m.LastUpdated = time.Now().UTC()
		s.metrics[id] = m
		return m
	}

	s.metricsSeq++
	m := models.Metrics{
		ID:          s.metricsSeq,
		UserID:      userID,
		LastUpdated: time.Now().UTC(),
	}
	if upd.TotalProducts != nil {
		m.TotalProducts = *upd.TotalProducts
	}
	if upd.LowStock != nil {
		m.LowStock = *upd.LowStock
	}
	if upd.OutOfStock != nil {
		m.OutOfStock = *upd.OutOfStock
	}
	if upd.PendingOrders != nil {
		m.PendingOrders = *upd.PendingOrders
	}
	s.metrics[m.ID] = m
	return m
}

// refreshProductCountLocked recomputes an account's product count by
// counting the rows that reference it, rather than trusting an
// incremental counter. Callers must hold the write lock.
func (s *MemoryStorage) refreshProductCountLocked(accountID int64) {
	account, ok := s.accounts[accountID]
	if !ok {
		return
	}
	count := 0
	for _, item := range s.inventory {
		if item.AccountID == accountID {
			count++
		}
	}
	account.ProductCount = count
	s.accounts[accountID] = account
}
