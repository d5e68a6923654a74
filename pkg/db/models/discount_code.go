package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
)

// DiscountCode is a single-use percentage code earned through feedback or
// issued as a coupon. Consumption happens transactionally with order creation.
type DiscountCode struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string             `gorm:"column:code;uniqueIndex;not null"`
	Kind               enums.DiscountKind `gorm:"column:kind;not null"`
	DiscountPercentage float64            `gorm:"column:discount_percentage;not null"`
	OwnerUserID        *uuid.UUID         `gorm:"column:owner_user_id;type:uuid"`
	ScopeProductID     *uuid.UUID         `gorm:"column:scope_product_id;type:uuid"`
	ScopeSellerID      *uuid.UUID         `gorm:"column:scope_seller_id;type:uuid"`
	IsUsed             bool               `gorm:"column:is_used;not null;default:false"`
	UsedAt             *time.Time         `gorm:"column:used_at"`
	UsedOnOrderID      *uuid.UUID         `gorm:"column:used_on_order_id;type:uuid"`
	ExpiresAt          time.Time          `gorm:"column:expires_at;not null"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (DiscountCode) TableName() string {
	return "discount_codes"
}
