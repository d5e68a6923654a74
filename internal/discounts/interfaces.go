package discounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db/models"
)

// Repository defines persistence operations for discount codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	Consume(ctx context.Context, code string, orderID uuid.UUID) error
	Create(ctx context.Context, discount *models.DiscountCode) (*models.DiscountCode, error)
}
