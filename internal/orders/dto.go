package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoryLine is one purchased line as shown in the order history. Name is
// resolved from the live catalog when possible; the price is always the
// frozen snapshot taken at checkout.
type HistoryLine struct {
	ProductID       uuid.UUID       `json:"productId"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// HistoryBatch groups the lines committed by one checkout.
type HistoryBatch struct {
	BatchID     uuid.UUID       `json:"batchId"`
	PurchasedAt time.Time       `json:"purchasedAt"`
	Lines       []HistoryLine   `json:"lines"`
	Total       decimal.Decimal `json:"total"`
}
