package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db/models"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

// openStatuses are the states a record may leave via reconciliation.
var openStatuses = []enums.PaymentStatus{
	enums.PaymentStatusPending,
	enums.PaymentStatusProcessing,
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payment record repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error) {
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment record is required")
	}
	record.TransactionID = strings.TrimSpace(record.TransactionID)
	if record.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "transaction id already registered").
				WithDetails(map[string]any{"transaction_id": record.TransactionID})
		}
		return nil, err
	}
	return record, nil
}

func (r *repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error) {
	trimmed := strings.TrimSpace(transactionID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	var record models.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", trimmed).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found").
				WithDetails(map[string]any{"transaction_id": trimmed})
		}
		return nil, err
	}
	return &record, nil
}

// CompleteIfOpen flips an open record to completed and links the order, in one
// conditional update. Exactly one concurrent caller observes true; everyone
// else sees the already-settled row.
func (r *repository) CompleteIfOpen(ctx context.Context, transactionID string, orderID uuid.UUID, checkoutID *string) (bool, error) {
	updates := map[string]any{
		"status":   enums.PaymentStatusCompleted,
		"order_id": orderID,
	}
	if checkoutID != nil && *checkoutID != "" {
		updates["checkout_id"] = *checkoutID
	}

	result := r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Where("transaction_id = ? AND status IN ?", strings.TrimSpace(transactionID), openStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FailIfOpen settles an open record into a failure state with the gateway's
// reason. Terminal records are left untouched.
func (r *repository) FailIfOpen(ctx context.Context, transactionID string, status enums.PaymentStatus, errorCode, errorMessage string) (bool, error) {
	if !status.IsTerminal() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "failure status must be terminal").
			WithDetails(map[string]any{"status": status.String()})
	}

	updates := map[string]any{"status": status}
	if errorCode != "" {
		updates["error_code"] = errorCode
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}

	result := r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Where("transaction_id = ? AND status IN ?", strings.TrimSpace(transactionID), openStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkProcessing moves a pending record forward so stale-session sweeps can
// tell untouched attempts from in-flight ones. Losing the race is fine.
func (r *repository) MarkProcessing(ctx context.Context, transactionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Where("transaction_id = ? AND status = ?", strings.TrimSpace(transactionID), enums.PaymentStatusPending).
		Update("status", enums.PaymentStatusProcessing).Error
}
