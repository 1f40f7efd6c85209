package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// InsertUser carries the fields needed to create a user.
type InsertUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate checks the request against its validation rules.
func (r InsertUser) Validate() error { return validate.Struct(r) }

// InsertAccount carries the fields needed to connect a storefront account.
// Connecting only records a name and API key; no external call is made.
type InsertAccount struct {
	Name     string `json:"name" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=Shopify Amazon Etsy WooCommerce eBay"`
	APIKey   string `json:"apiKey" validate:"required"`
	UserID   int64  `json:"userId" validate:"required"`
}

// Validate checks the request against its validation rules.
func (r InsertAccount) Validate() error { return validate.Struct(r) }

// InsertInventory carries the fields needed to create an inventory item.
// Status is not accepted: it is derived from Quantity by the store.
type InsertInventory struct {
	Name        string  `json:"name" validate:"required"`
	SKU         string  `json:"sku" validate:"required"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	Quantity    int     `json:"quantity"`
	Platform    string  `json:"platform" validate:"required,oneof=Shopify Amazon Etsy WooCommerce eBay"`
	AccountID   int64   `json:"accountId" validate:"required"`
}

// Validate checks the request against its validation rules.
func (r InsertInventory) Validate() error { return validate.Struct(r) }

// AccountUpdate is a partial update for an account. Nil fields are left
// unchanged. The id is never reassignable and ProductCount is maintained
// by the store itself, so neither appears here.
type AccountUpdate struct {
	Name       *string    `json:"name"`
	Platform   *string    `json:"platform" validate:"omitempty,oneof=Shopify Amazon Etsy WooCommerce eBay"`
	APIKey     *string    `json:"apiKey"`
	IsActive   *bool      `json:"isActive"`
	LastSynced *time.Time `json:"lastSynced"`
}

// Validate checks the request against its validation rules.
func (u AccountUpdate) Validate() error { return validate.Struct(u) }

// InventoryUpdate is a partial update for an inventory item. Nil fields
// are left unchanged. Status is absent on purpose: whenever Quantity is
// set the store recomputes status from it, and it cannot drift otherwise.
type InventoryUpdate struct {
	Name        *string `json:"name"`
	SKU         *string `json:"sku"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	Quantity    *int    `json:"quantity"`
	Platform    *string `json:"platform" validate:"omitempty,oneof=Shopify Amazon Etsy WooCommerce eBay"`
}

// Validate checks the request against its validation rules.
func (u InventoryUpdate) Validate() error { return validate.Struct(u) }

// MetricsUpdate is a partial upsert for a user's metrics row. Nil fields
// default to zero when the row is first created and are left unchanged
// otherwise.
type MetricsUpdate struct {
	TotalProducts *int `json:"totalProducts"`
	LowStock      *int `json:"lowStock"`
	OutOfStock    *int `json:"outOfStock"`
	PendingOrders *int `json:"pendingOrders"`
}
