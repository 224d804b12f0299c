package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelboost/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelboost/storefront-backend/pkg/errors"
	"github.com/angelboost/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes cart mutation and read operations for one owner at a time.
type Service interface {
	AddLine(ctx context.Context, ownerKey string, productID uuid.UUID, quantity int) (*LineDTO, error)
	RemoveLine(ctx context.Context, ownerKey string, productID uuid.UUID) error
	ListCart(ctx context.Context, ownerKey string) ([]LineDTO, error)
	Summarize(ctx context.Context, ownerKey string) (*Summary, error)
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type service struct {
	store    Store
	products productReader
	logg     *logger.Logger
}

// NewService constructs a cart service instance.
func NewService(store Store, products productReader, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{store: store, products: products, logg: logg}, nil
}

// AddLine merges quantity into the owner's line for the product, creating the
// line if absent. Quantity must be positive and the product must exist in the
// catalog.
func (s *service) AddLine(ctx context.Context, ownerKey string, productID uuid.UUID, quantity int) (*LineDTO, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1").
			WithDetails(map[string]int{"quantity": quantity})
	}

	prod, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnknownProduct, "product not found").
				WithDetails(map[string]string{"product_id": productID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "loading product")
	}
	if !prod.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnknownProduct, "product is no longer sold").
			WithDetails(map[string]string{"product_id": productID.String()})
	}

	line, err := s.store.AddOrMerge(ctx, ownerKey, productID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "adding cart line")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id": productID.String(),
			"quantity":   line.Quantity,
		})
		s.logg.Info(logCtx, "cart line merged")
	}

	return &LineDTO{
		ProductID: line.ProductID,
		Name:      prod.Name,
		ImageURL:  prod.ImageURL,
		UnitPrice: prod.Price,
		Quantity:  line.Quantity,
		Available: true,
	}, nil
}

// RemoveLine lowers the line's quantity by one, removing it at zero. Removing
// a product the owner does not hold succeeds without effect.
func (s *service) RemoveLine(ctx context.Context, ownerKey string, productID uuid.UUID) error {
	if err := s.store.DecrementOrRemove(ctx, ownerKey, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "removing cart line")
	}
	return nil
}

// ListCart returns the owner's lines joined with catalog data. Lines whose
// product vanished stay visible, flagged unavailable with a zero price.
func (s *service) ListCart(ctx context.Context, ownerKey string) ([]LineDTO, error) {
	lines, err := s.store.ListLines(ctx, ownerKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "listing cart lines")
	}

	byID, err := s.resolveProducts(ctx, lines)
	if err != nil {
		return nil, err
	}

	dtos := make([]LineDTO, 0, len(lines))
	for _, line := range lines {
		dto := LineDTO{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
		if prod, ok := byID[line.ProductID]; ok {
			dto.Name = prod.Name
			dto.ImageURL = prod.ImageURL
			dto.UnitPrice = prod.Price
			dto.Available = true
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// Summarize prices every line of the owner's cart. A line referencing a
// product missing from the catalog fails the whole summary: partial totals
// would be wrong, not helpful.
func (s *service) Summarize(ctx context.Context, ownerKey string) (*Summary, error) {
	lines, err := s.store.ListLines(ctx, ownerKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "listing cart lines")
	}

	byID, err := s.resolveProducts(ctx, lines)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Lines:      make([]SummaryLine, 0, len(lines)),
		GrandTotal: decimal.Zero,
	}
	for _, line := range lines {
		prod, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeDanglingProduct, "cart references a missing product").
				WithDetails(map[string]string{"product_id": line.ProductID.String()})
		}
		subtotal := prod.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		summary.Lines = append(summary.Lines, SummaryLine{
			ProductID: line.ProductID,
			Name:      prod.Name,
			UnitPrice: prod.Price,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
		summary.ItemCount += line.Quantity
		summary.GrandTotal = summary.GrandTotal.Add(subtotal)
	}
	return summary, nil
}

func (s *service) resolveProducts(ctx context.Context, lines []models.CartLine) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	byID, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "resolving cart products")
	}
	return byID, nil
}
