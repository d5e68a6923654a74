package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/types"
)

// Order is created exactly once per completed payment attempt. The reconciler
// is the only writer of the PaymentRecord/Order link.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string            `gorm:"column:order_number;uniqueIndex;not null"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'processing'"`

	SubtotalOriginalCents int `gorm:"column:subtotal_original_cents;not null"`
	SellerDiscountCents   int `gorm:"column:seller_discount_cents;not null"`
	VolumeDiscountCents   int `gorm:"column:volume_discount_cents;not null"`
	CouponDiscountCents   int `gorm:"column:coupon_discount_cents;not null"`
	TaxCents              int `gorm:"column:tax_cents;not null"`
	ShippingCents         int `gorm:"column:shipping_cents;not null"`
	TotalCents            int `gorm:"column:total_cents;not null"`

	CouponCode        *string                  `gorm:"column:coupon_code"`
	ShippingAddress   *types.Address           `gorm:"column:shipping_address;type:jsonb"`
	BillingAddress    *types.Address           `gorm:"column:billing_address;type:jsonb"`
	ShippingBreakdown *types.ShippingBreakdown `gorm:"column:shipping_breakdown;type:jsonb"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Order) TableName() string {
	return "orders"
}
