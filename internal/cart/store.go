package cart

import (
	"context"

	"github.com/angelboost/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store exposes persistence operations for cart lines. One row exists per
// (owner_key, product_id); concurrent adds merge instead of duplicating.
type Store interface {
	WithTx(tx *gorm.DB) Store
	AddOrMerge(ctx context.Context, ownerKey string, productID uuid.UUID, quantity int) (*models.CartLine, error)
	DecrementOrRemove(ctx context.Context, ownerKey string, productID uuid.UUID) error
	ListLines(ctx context.Context, ownerKey string) ([]models.CartLine, error)
	ListLinesForUpdate(ctx context.Context, ownerKey string) ([]models.CartLine, error)
	DeleteLineExact(ctx context.Context, ownerKey string, productID uuid.UUID, quantity int) (bool, error)
}

// Repository implements Store on GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// AddOrMerge inserts the line or, when the owner already holds the product,
// folds the quantity into the existing row. The upsert rides on
// ux_cart_lines_owner_product, so two racing adds both land: one inserts,
// the other merges. Upsert and read-back share a transaction so the returned
// line reflects this call's merge, not a later concurrent one.
func (r *Repository) AddOrMerge(ctx context.Context, ownerKey string, productID uuid.UUID, quantity int) (*models.CartLine, error) {
	var merged models.CartLine
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line := models.CartLine{
			ID:        uuid.New(),
			OwnerKey:  ownerKey,
			ProductID: productID,
			Quantity:  quantity,
		}
		err := tx.
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "owner_key"}, {Name: "product_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quantity":   gorm.Expr("quantity + excluded.quantity"),
					"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
				}),
			}).
			Create(&line).Error
		if err != nil {
			return err
		}

		return tx.
			Where("owner_key = ? AND product_id = ?", ownerKey, productID).
			First(&merged).Error
	})
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

// DecrementOrRemove lowers the line's quantity by one, deleting the row when
// it reaches zero. A missing line is a no-op. The unconditional decrement and
// the quantity-guarded delete run in one transaction so racing decrements
// never resurrect or double-delete a line.
func (r *Repository) DecrementOrRemove(ctx context.Context, ownerKey string, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartLine{}).
			Where("owner_key = ? AND product_id = ?", ownerKey, productID).
			Update("quantity", gorm.Expr("quantity - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.
			Where("owner_key = ? AND product_id = ? AND quantity <= 0", ownerKey, productID).
			Delete(&models.CartLine{}).Error
	})
}

// ListLines returns the owner's cart, most recently touched first.
func (r *Repository) ListLines(ctx context.Context, ownerKey string) ([]models.CartLine, error) {
	var rows []models.CartLine
	err := r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ListLinesForUpdate locks and returns the owner's cart for the duration of
// the surrounding transaction. Lines come back in product_id order so
// concurrent checkouts acquire row locks in the same sequence. SQLite has no
// row locks; there the quantity guard on DeleteLineExact carries the
// correctness instead.
func (r *Repository) ListLinesForUpdate(ctx context.Context, ownerKey string) ([]models.CartLine, error) {
	query := r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Order("product_id ASC")
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []models.CartLine
	err := query.Find(&rows).Error
	return rows, err
}

// DeleteLineExact removes the line only if its quantity still matches the
// observed value. Returns false when the row changed or vanished underneath
// the caller.
func (r *Repository) DeleteLineExact(ctx context.Context, ownerKey string, productID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("owner_key = ? AND product_id = ? AND quantity = ?", ownerKey, productID, quantity).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
