package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelboost/storefront-backend/internal/cart"
	"github.com/angelboost/storefront-backend/internal/orders"
	"github.com/angelboost/storefront-backend/pkg/db/models"
	"github.com/angelboost/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelboost/storefront-backend/pkg/errors"
	"github.com/angelboost/storefront-backend/pkg/logger"
	"github.com/angelboost/storefront-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service converts a whole cart into an immutable order batch, atomically.
type Service interface {
	Commit(ctx context.Context, ownerKey string) (*Receipt, error)
}

// Receipt summarizes a committed checkout.
type Receipt struct {
	BatchID     uuid.UUID       `json:"batchId"`
	PurchasedAt time.Time       `json:"purchasedAt"`
	LineCount   int             `json:"lineCount"`
	ItemCount   int             `json:"itemCount"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

// BatchCreatedPayload is the outbox payload for a committed checkout.
type BatchCreatedPayload struct {
	BatchID     uuid.UUID `json:"batchId"`
	OwnerKey    string    `json:"ownerKey"`
	LineCount   int       `json:"lineCount"`
	ItemCount   int       `json:"itemCount"`
	GrandTotal  string    `json:"grandTotal"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

type service struct {
	tx       txRunner
	cartRepo cart.Store
	orders   orders.Writer
	catalog  catalogReader
	outbox   outboxPublisher
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.Store,
	ordersRepo orders.Writer,
	catalog catalogReader,
	publisher outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders writer required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:       tx,
		cartRepo: cartRepo,
		orders:   ordersRepo,
		catalog:  catalog,
		outbox:   publisher,
		logg:     logg,
	}, nil
}

// Commit converts every line of the owner's cart into order lines sharing one
// batch id and one purchase timestamp, with prices frozen from the catalog at
// commit time, then clears the cart. Everything happens in a single
// transaction: either the whole cart becomes an order or nothing changes.
func (s *service) Commit(ctx context.Context, ownerKey string) (*Receipt, error) {
	if ownerKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner key required")
	}

	var receipt *Receipt
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartStore := s.cartRepo.WithTx(tx)
		ordersWriter := s.orders.WithTx(tx)

		lines, err := cartStore.ListLinesForUpdate(ctx, ownerKey)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "locking cart lines")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "nothing to check out")
		}

		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ProductID)
		}
		byID, err := s.catalog.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "resolving product prices")
		}

		batchID := uuid.New()
		purchasedAt := time.Now().UTC()
		itemCount := 0
		grandTotal := decimal.Zero

		orderLines := make([]models.OrderLine, 0, len(lines))
		for _, line := range lines {
			prod, ok := byID[line.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeDanglingProduct, "cart references a missing product").
					WithDetails(map[string]string{"product_id": line.ProductID.String()})
			}
			orderLines = append(orderLines, models.OrderLine{
				ID:              uuid.New(),
				BatchID:         batchID,
				OwnerKey:        ownerKey,
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				PriceAtPurchase: prod.Price,
				PurchasedAt:     purchasedAt,
			})
			itemCount += line.Quantity
			grandTotal = grandTotal.Add(prod.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		if err := ordersWriter.CreateOrderLines(ctx, orderLines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "writing order lines")
		}

		// Each delete is guarded by the quantity observed under the lock. A
		// miss means another request touched the cart mid-checkout; roll the
		// whole batch back and let the client retry.
		for _, line := range lines {
			deleted, err := cartStore.DeleteLineExact(ctx, ownerKey, line.ProductID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "clearing cart line")
			}
			if !deleted {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart changed during checkout").
					WithDetails(map[string]string{"product_id": line.ProductID.String()})
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderBatchCreated,
			AggregateType: enums.OutboxAggregateOrderBatch,
			AggregateID:   batchID,
			OwnerKey:      ownerKey,
			Data: BatchCreatedPayload{
				BatchID:     batchID,
				OwnerKey:    ownerKey,
				LineCount:   len(orderLines),
				ItemCount:   itemCount,
				GrandTotal:  grandTotal.StringFixed(2),
				PurchasedAt: purchasedAt,
			},
			Version:    1,
			OccurredAt: purchasedAt,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "queueing order event")
		}

		receipt = &Receipt{
			BatchID:     batchID,
			PurchasedAt: purchasedAt,
			LineCount:   len(orderLines),
			ItemCount:   itemCount,
			GrandTotal:  grandTotal,
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "checkout transaction failed")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"batch_id":   receipt.BatchID.String(),
			"line_count": receipt.LineCount,
		})
		s.logg.Info(logCtx, "checkout committed")
	}
	return receipt, nil
}
