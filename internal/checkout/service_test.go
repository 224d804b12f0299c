package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/angelboost/storefront-backend/internal/cart"
	"github.com/angelboost/storefront-backend/internal/orders"
	product "github.com/angelboost/storefront-backend/internal/products"
	"github.com/angelboost/storefront-backend/pkg/db/models"
	"github.com/angelboost/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelboost/storefront-backend/pkg/errors"
	"github.com/angelboost/storefront-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  image_url TEXT,
  price TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  owner_key TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_lines_owner_product ON cart_lines (owner_key, product_id);
CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  batch_id TEXT NOT NULL,
  owner_key TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_at_purchase TEXT NOT NULL,
  purchased_at DATETIME NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedCheckoutProduct(t *testing.T, db *gorm.DB, name, price string) models.Product {
	t.Helper()

	row := models.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func newCheckoutService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(
		testTxRunner{db: db},
		cart.NewRepository(db),
		orders.NewRepository(db),
		product.NewRepository(db),
		outbox.NewService(outbox.NewRepository(db), nil),
		nil,
	)
	require.NoError(t, err)
	return svc
}

func cartCount(t *testing.T, db *gorm.DB, ownerKey string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.CartLine{}).Where("owner_key = ?", ownerKey).Count(&n).Error)
	return n
}

func orderCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.OrderLine{}).Count(&n).Error)
	return n
}

func TestCommit_convertsWholeCart(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	cartRepo := cart.NewRepository(db)

	mouse := seedCheckoutProduct(t, db, "Wireless Gaming Mouse", "259.90")
	dock := seedCheckoutProduct(t, db, "USB-C Dock 11-in-1", "429.00")

	_, err := cartRepo.AddOrMerge(context.Background(), "owner-1", mouse.ID, 2)
	require.NoError(t, err)
	_, err = cartRepo.AddOrMerge(context.Background(), "owner-1", dock.ID, 1)
	require.NoError(t, err)

	receipt, err := svc.Commit(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.LineCount)
	assert.Equal(t, 3, receipt.ItemCount)
	assert.True(t, receipt.GrandTotal.Equal(decimal.RequireFromString("948.80")))

	var lines []models.OrderLine
	require.NoError(t, db.Find(&lines).Error)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, receipt.BatchID, line.BatchID)
		assert.Equal(t, receipt.PurchasedAt.Unix(), line.PurchasedAt.Unix())
	}

	assert.Equal(t, int64(0), cartCount(t, db, "owner-1"))

	var events []models.OutboxEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.OutboxEventOrderBatchCreated, events[0].EventType)
	assert.Equal(t, receipt.BatchID, events[0].AggregateID)
}

func TestCommit_freezesPriceAtCommitTime(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	cartRepo := cart.NewRepository(db)

	prod := seedCheckoutProduct(t, db, "Keyboard", "349.90")
	_, err := cartRepo.AddOrMerge(context.Background(), "owner-1", prod.ID, 1)
	require.NoError(t, err)

	// Catalog price changes after the line was added but before checkout.
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", prod.ID).
		Update("price", decimal.RequireFromString("299.90")).Error)

	receipt, err := svc.Commit(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.True(t, receipt.GrandTotal.Equal(decimal.RequireFromString("299.90")))

	var line models.OrderLine
	require.NoError(t, db.First(&line).Error)
	assert.True(t, line.PriceAtPurchase.Equal(decimal.RequireFromString("299.90")))
}

func TestCommit_emptyCart(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	_, err := svc.Commit(context.Background(), "owner-1")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeEmptyCart))
	assert.Equal(t, int64(0), orderCount(t, db))
}

func TestCommit_danglingProductRollsBack(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	cartRepo := cart.NewRepository(db)

	prod := seedCheckoutProduct(t, db, "Monitor", "1599.00")
	_, err := cartRepo.AddOrMerge(context.Background(), "owner-1", prod.ID, 1)
	require.NoError(t, err)
	// Line added directly, pointing at a product that was never seeded.
	_, err = cartRepo.AddOrMerge(context.Background(), "owner-1", uuid.New(), 1)
	require.NoError(t, err)

	_, err = svc.Commit(context.Background(), "owner-1")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDanglingProduct))

	assert.Equal(t, int64(0), orderCount(t, db))
	assert.Equal(t, int64(2), cartCount(t, db, "owner-1"))
}

type failingOrdersWriter struct{}

func (failingOrdersWriter) WithTx(*gorm.DB) orders.Writer { return failingOrdersWriter{} }

func (failingOrdersWriter) CreateOrderLines(context.Context, []models.OrderLine) error {
	return errors.New("disk full")
}

func TestCommit_orderWriteFailureLeavesCartIntact(t *testing.T) {
	db := setupCheckoutTestDB(t)
	cartRepo := cart.NewRepository(db)

	prod := seedCheckoutProduct(t, db, "Headset", "899.00")
	_, err := cartRepo.AddOrMerge(context.Background(), "owner-1", prod.ID, 2)
	require.NoError(t, err)

	svc, err := NewService(
		testTxRunner{db: db},
		cartRepo,
		failingOrdersWriter{},
		product.NewRepository(db),
		outbox.NewService(outbox.NewRepository(db), nil),
		nil,
	)
	require.NoError(t, err)

	_, err = svc.Commit(context.Background(), "owner-1")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStorage))

	assert.Equal(t, int64(1), cartCount(t, db, "owner-1"))
	assert.Equal(t, int64(0), orderCount(t, db))

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Equal(t, int64(0), events)
}

type staleDeleteStore struct {
	cart.Store
}

func (s staleDeleteStore) WithTx(tx *gorm.DB) cart.Store {
	return staleDeleteStore{Store: s.Store.WithTx(tx)}
}

func (s staleDeleteStore) DeleteLineExact(context.Context, string, uuid.UUID, int) (bool, error) {
	return false, nil
}

func TestCommit_concurrentCartChangeRollsBack(t *testing.T) {
	db := setupCheckoutTestDB(t)
	cartRepo := cart.NewRepository(db)

	prod := seedCheckoutProduct(t, db, "SSD", "549.90")
	_, err := cartRepo.AddOrMerge(context.Background(), "owner-1", prod.ID, 1)
	require.NoError(t, err)

	svc, err := NewService(
		testTxRunner{db: db},
		staleDeleteStore{Store: cartRepo},
		orders.NewRepository(db),
		product.NewRepository(db),
		outbox.NewService(outbox.NewRepository(db), nil),
		nil,
	)
	require.NoError(t, err)

	_, err = svc.Commit(context.Background(), "owner-1")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	assert.Equal(t, int64(0), orderCount(t, db))
	assert.Equal(t, int64(1), cartCount(t, db, "owner-1"))
}
