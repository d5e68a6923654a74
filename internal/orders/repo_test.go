package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db/models"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'processing',
  subtotal_original_cents INTEGER NOT NULL,
  seller_discount_cents INTEGER NOT NULL,
  volume_discount_cents INTEGER NOT NULL,
  coupon_discount_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL,
  shipping_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  coupon_code TEXT,
  shipping_address TEXT,
  billing_address TEXT,
  shipping_breakdown TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  final_unit_price_cents INTEGER NOT NULL,
  line_subtotal_cents INTEGER NOT NULL,
  seller_discount_percent REAL NOT NULL,
  volume_discount_percent REAL NOT NULL,
  seller_savings_cents INTEGER NOT NULL,
  volume_savings_cents INTEGER NOT NULL,
  attributes TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func orderFixture(userID uuid.UUID, orderNumber string) *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: orderNumber,
		UserID:      userID,
		Status:      enums.OrderStatusProcessing,
		TotalCents:  2570,
		TaxCents:    270,
		Items: []models.OrderItem{
			{
				ID:                  uuid.New(),
				ProductID:           uuid.New(),
				SellerID:            uuid.New(),
				Qty:                 2,
				UnitPriceCents:      1000,
				FinalUnitPriceCents: 1000,
				LineSubtotalCents:   2000,
			},
		},
	}
}

func TestCreateAndFindOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	created, err := repo.Create(ctx, orderFixture(userID, "ORD-20260901-AAAAAA"))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260901-AAAAAA", found.OrderNumber)
	assert.Equal(t, 2570, found.TotalCents)
	require.Len(t, found.Items, 1, "line items must be persisted with the order")

	byNumber, err := repo.FindByOrderNumber(ctx, "ORD-20260901-AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)
}

func TestFindOrderNotFound(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListByUserNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.Create(ctx, orderFixture(userID, "ORD-20260901-AAAAAA"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, orderFixture(userID, "ORD-20260901-BBBBBB"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, orderFixture(uuid.New(), "ORD-20260901-CCCCCC"))
	require.NoError(t, err)

	listed, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, listed, 2, "only the user's orders are listed")
}
