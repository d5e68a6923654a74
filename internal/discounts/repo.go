package discounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db/models"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discount code repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}

	var discount models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("code = ?", normalized).
		First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "discount code not found").
				WithDetails(map[string]any{"code": normalized})
		}
		return nil, err
	}
	return &discount, nil
}

// Consume marks a code as used, guarded by a conditional update so two
// concurrent consumers cannot both succeed. Run it inside the order
// transaction so a rollback releases the code.
func (r *repository) Consume(ctx context.Context, code string, orderID uuid.UUID) error {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	now := time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("code = ? AND is_used = ?", normalized, false).
		Updates(map[string]any{
			"is_used":          true,
			"used_at":          now,
			"used_on_order_id": orderID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeCouponInvalid, "discount code already used").
			WithDetails(map[string]any{"code": normalized})
	}
	return nil
}

func (r *repository) Create(ctx context.Context, discount *models.DiscountCode) (*models.DiscountCode, error) {
	if discount == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount is required")
	}
	discount.Code = strings.ToUpper(strings.TrimSpace(discount.Code))
	if err := r.db.WithContext(ctx).Create(discount).Error; err != nil {
		return nil, err
	}
	return discount, nil
}
