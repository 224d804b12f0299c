package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine holds one product's presence in one owner's in-progress cart.
// At most one row exists per (owner_key, product_id); the unique index
// ux_cart_lines_owner_product backs the merge semantics of concurrent adds.
// Quantity is always >= 1 in committed state: a decrement that would reach
// zero deletes the row instead.
type CartLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerKey  string    `gorm:"column:owner_key;not null;uniqueIndex:ux_cart_lines_owner_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_lines_owner_product"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
