package models

import "time"

// Supported storefront platforms.
const (
	PlatformShopify     = "Shopify"
	PlatformAmazon      = "Amazon"
	PlatformEtsy        = "Etsy"
	PlatformWooCommerce = "WooCommerce"
	PlatformEBay        = "eBay"
)

// Inventory status values. Status is always derived from quantity,
// never stored independently (see StatusForQuantity).
const (
	StatusInStock    = "In Stock"
	StatusLowStock   = "Low Stock"
	StatusOutOfStock = "Out of Stock"
)

// LowStockThreshold is the quantity at or below which an item with
// positive stock is reported as "Low Stock".
const LowStockThreshold = 10

// Platforms returns the supported platform names, e.g. for dropdowns.
func Platforms() []string {
	return []string{PlatformShopify, PlatformAmazon, PlatformEtsy, PlatformWooCommerce, PlatformEBay}
}

// User is the model for the 'users' table. A single seed user is created
// at startup; there is no session or credential handling beyond this row.
type User struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string `json:"username" gorm:"column:username;uniqueIndex;not null"`
	Password string `json:"password" gorm:"column:password;not null"`
}

// TableName specifies the table name.
func (User) TableName() string { return "users" }

// Account is the model for the 'accounts' table. One row per connected
// storefront. ProductCount is a denormalized cache of the number of
// inventory rows referencing this account; the storage layer keeps it
// in sync with every inventory mutation.
type Account struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"column:name;not null"`
	Platform     string    `json:"platform" gorm:"column:platform;not null"`
	APIKey       string    `json:"apiKey" gorm:"column:api_key;not null"`
	IsActive     bool      `json:"isActive" gorm:"column:is_active;default:true"`
	ProductCount int       `json:"productCount" gorm:"column:product_count;default:0"`
	LastSynced   time.Time `json:"lastSynced" gorm:"column:last_synced"`
	UserID       int64     `json:"userId" gorm:"column:user_id;not null;index"`
}

// TableName specifies the table name.
func (Account) TableName() string { return "accounts" }

// Inventory is the model for the 'inventory' table. Platform is a
// denormalized copy of the owning account's platform so listings can be
// filtered without a join.
type Inventory struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"column:name;not null"`
	SKU         string    `json:"sku" gorm:"column:sku;uniqueIndex;not null"`
	Category    *string   `json:"category" gorm:"column:category"`
	Subcategory *string   `json:"subcategory" gorm:"column:subcategory"`
	Quantity    int       `json:"quantity" gorm:"column:quantity;default:0"`
	Status      string    `json:"status" gorm:"column:status;default:'Out of Stock'"`
	Platform    string    `json:"platform" gorm:"column:platform;not null"`
	AccountID   int64     `json:"accountId" gorm:"column:account_id;not null;index"`
	LastUpdated time.Time `json:"lastUpdated" gorm:"column:last_updated"`
}

// TableName specifies the table name.
func (Inventory) TableName() string { return "inventory" }

// Metrics is the model for the 'metrics' table: one denormalized summary
// row per user, recomputed after every inventory mutation. PendingOrders
// has no backing entity and is carried as an external input.
type Metrics struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TotalProducts int       `json:"totalProducts" gorm:"column:total_products;default:0"`
	LowStock      int       `json:"lowStock" gorm:"column:low_stock;default:0"`
	OutOfStock    int       `json:"outOfStock" gorm:"column:out_of_stock;default:0"`
	PendingOrders int       `json:"pendingOrders" gorm:"column:pending_orders;default:0"`
	UserID        int64     `json:"userId" gorm:"column:user_id;not null;index"`
	LastUpdated   time.Time `json:"lastUpdated" gorm:"column:last_updated"`
}

// TableName specifies the table name.
func (Metrics) TableName() string { return "metrics" }

// StatusForQuantity derives the inventory status from a quantity.
// quantity <= 0 is out of stock, 1..LowStockThreshold is low stock,
// anything above is in stock.
func StatusForQuantity(quantity int) string {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity <= LowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}
