package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is a salon supply tracked by quantity.
type InventoryItem struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TenantID     uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name         string    `json:"name" db:"name"`
	SKU          *string   `json:"sku,omitempty" db:"sku"`
	Category     *string   `json:"category,omitempty" db:"category"`
	Quantity     int       `json:"quantity" db:"quantity"`
	UnitCost     float64   `json:"unit_cost" db:"unit_cost"`
	ReorderLevel int       `json:"reorder_level" db:"reorder_level"`
	Supplier     *string   `json:"supplier,omitempty" db:"supplier"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// LowStock reports whether the item is at or below its reorder level.
func (i *InventoryItem) LowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

// InventoryAdjustment records a quantity change and its reason.
type InventoryAdjustment struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	ItemID    uuid.UUID  `json:"item_id" db:"item_id"`
	Delta     int        `json:"delta" db:"delta"`
	Reason    string     `json:"reason" db:"reason"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
