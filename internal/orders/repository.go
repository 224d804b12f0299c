package orders

import (
	"context"

	"github.com/angelboost/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Writer is the append surface used by the checkout engine.
type Writer interface {
	WithTx(tx *gorm.DB) Writer
	CreateOrderLines(ctx context.Context, lines []models.OrderLine) error
}

// Repository persists and reads immutable order lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) Writer {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateOrderLines appends the batch in one insert. Order lines are never
// updated afterwards.
func (r *Repository) CreateOrderLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// ListByOwner returns the owner's full purchase history, newest batch first.
// Within a batch, lines come back in insertion order.
func (r *Repository) ListByOwner(ctx context.Context, ownerKey string) ([]models.OrderLine, error) {
	var rows []models.OrderLine
	err := r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Order("purchased_at DESC").
		Order("batch_id").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
