package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db/models"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
)

// Repository defines persistence operations for payment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error)
	CompleteIfOpen(ctx context.Context, transactionID string, orderID uuid.UUID, checkoutID *string) (bool, error)
	FailIfOpen(ctx context.Context, transactionID string, status enums.PaymentStatus, errorCode, errorMessage string) (bool, error)
	MarkProcessing(ctx context.Context, transactionID string) error
}
