package payments

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

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS payment_records (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  gateway TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  checkout_id TEXT,
  session_id TEXT,
  payment_method TEXT,
  order_id TEXT,
  error_code TEXT,
  error_message TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, gdb.Exec(ddl).Error)
	return gdb
}

func recordFixture(transactionID string) *models.PaymentRecord {
	return &models.PaymentRecord{
		ID:            uuid.New(),
		TransactionID: transactionID,
		UserID:        uuid.New(),
		Gateway:       enums.PaymentGatewayDatafast,
		Status:        enums.PaymentStatusPending,
		AmountCents:   12920,
		Currency:      "USD",
	}
}

func TestCreateRejectsDuplicateTransactionID(t *testing.T) {
	gdb := setupPaymentsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	_, err := repo.Create(ctx, recordFixture("txn-1"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, recordFixture("txn-1"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestFindByTransactionID(t *testing.T) {
	gdb := setupPaymentsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	created, err := repo.Create(ctx, recordFixture("txn-1"))
	require.NoError(t, err)

	found, err := repo.FindByTransactionID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, enums.PaymentStatusPending, found.Status)

	_, err = repo.FindByTransactionID(ctx, "missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCompleteIfOpenWinsOnce(t *testing.T) {
	gdb := setupPaymentsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	_, err := repo.Create(ctx, recordFixture("txn-1"))
	require.NoError(t, err)

	firstOrder := uuid.New()
	checkoutID := "chk_1"
	won, err := repo.CompleteIfOpen(ctx, "txn-1", firstOrder, &checkoutID)
	require.NoError(t, err)
	assert.True(t, won, "first settlement must win")

	won, err = repo.CompleteIfOpen(ctx, "txn-1", uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, won, "second settlement must lose")

	record, err := repo.FindByTransactionID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, record.Status)
	require.NotNil(t, record.OrderID)
	assert.Equal(t, firstOrder, *record.OrderID, "winner's order link must survive the replay")
	require.NotNil(t, record.CheckoutID)
	assert.Equal(t, "chk_1", *record.CheckoutID)
}

func TestCompleteIfOpenFromProcessing(t *testing.T) {
	gdb := setupPaymentsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	_, err := repo.Create(ctx, recordFixture("txn-1"))
	require.NoError(t, err)
	require.NoError(t, repo.MarkProcessing(ctx, "txn-1"))

	record, err := repo.FindByTransactionID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusProcessing, record.Status)

	won, err := repo.CompleteIfOpen(ctx, "txn-1", uuid.New(), nil)
	require.NoError(t, err)
	assert.True(t, won, "processing records are still open")
}

func TestFailIfOpen(t *testing.T) {
	gdb := setupPaymentsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	_, err := repo.Create(ctx, recordFixture("txn-1"))
	require.NoError(t, err)

	done, err := repo.FailIfOpen(ctx, "txn-1", enums.PaymentStatusFailed, "800.100.153", "declined by issuer")
	require.NoError(t, err)
	assert.True(t, done)

	record, err := repo.FindByTransactionID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, record.Status)
	require.NotNil(t, record.ErrorCode)
	assert.Equal(t, "800.100.153", *record.ErrorCode)

	// A settled record cannot fail again.
	done, err = repo.FailIfOpen(ctx, "txn-1", enums.PaymentStatusCancelled, "x", "y")
	require.NoError(t, err)
	assert.False(t, done)

	record, err = repo.FindByTransactionID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, record.Status)
}

func TestFailIfOpenRejectsNonTerminalStatus(t *testing.T) {
	gdb := setupPaymentsTestDB(t)
	repo := NewRepository(gdb)

	_, err := repo.FailIfOpen(context.Background(), "txn-1", enums.PaymentStatusProcessing, "", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
