package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is the immutable record of one purchased cart line. Rows are only
// ever inserted by the checkout engine; PriceAtPurchase is a frozen snapshot
// and PurchasedAt is shared by every line written in the same checkout batch.
type OrderLine struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BatchID         uuid.UUID       `gorm:"column:batch_id;type:uuid;not null;index:ix_order_lines_batch"`
	OwnerKey        string          `gorm:"column:owner_key;not null;index:ix_order_lines_owner"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	PriceAtPurchase decimal.Decimal `gorm:"column:price_at_purchase;type:numeric(12,2);not null"`
	PurchasedAt     time.Time       `gorm:"column:purchased_at;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
