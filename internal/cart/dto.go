package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineDTO is one cart line joined with its catalog data. Available is false
// when the product disappeared from the catalog after the line was added.
type LineDTO struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  *string         `json:"imageUrl,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Available bool            `json:"available"`
}

// SummaryLine is one priced line of a cart summary.
type SummaryLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Summary is the fully priced view of a cart. GrandTotal is the sum of line
// subtotals and ItemCount the sum of line quantities.
type Summary struct {
	Lines      []SummaryLine   `json:"lines"`
	ItemCount  int             `json:"itemCount"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}
