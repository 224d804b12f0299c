package orders

import (
	"context"
	"fmt"

	"github.com/angelboost/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelboost/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service exposes order history reads.
type Service interface {
	History(ctx context.Context, ownerKey string) ([]HistoryBatch, error)
}

type productReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type service struct {
	repo     *Repository
	products productReader
}

// NewService constructs an order history service.
func NewService(repo *Repository, products productReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{repo: repo, products: products}, nil
}

// History groups the owner's order lines by checkout batch, newest first.
// Products deleted from the catalog since purchase keep their lines: history
// is frozen, so an unresolvable name falls back to a placeholder rather than
// failing the read.
func (s *service) History(ctx context.Context, ownerKey string) ([]HistoryBatch, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "listing order lines")
	}
	if len(rows) == 0 {
		return []HistoryBatch{}, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	byID, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "resolving product names")
	}

	batches := make([]HistoryBatch, 0)
	index := make(map[uuid.UUID]int)
	for _, row := range rows {
		pos, ok := index[row.BatchID]
		if !ok {
			pos = len(batches)
			index[row.BatchID] = pos
			batches = append(batches, HistoryBatch{
				BatchID:     row.BatchID,
				PurchasedAt: row.PurchasedAt,
				Lines:       make([]HistoryLine, 0, 4),
				Total:       decimal.Zero,
			})
		}

		name := "(product no longer available)"
		if prod, found := byID[row.ProductID]; found {
			name = prod.Name
		}
		subtotal := row.PriceAtPurchase.Mul(decimal.NewFromInt(int64(row.Quantity)))
		batches[pos].Lines = append(batches[pos].Lines, HistoryLine{
			ProductID:       row.ProductID,
			Name:            name,
			Quantity:        row.Quantity,
			PriceAtPurchase: row.PriceAtPurchase,
			Subtotal:        subtotal,
		})
		batches[pos].Total = batches[pos].Total.Add(subtotal)
	}
	return batches, nil
}
