package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/types"
)

// OrderItem snapshots one priced cart line at the moment the order was created.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SellerID  uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`

	Qty                   int     `gorm:"column:qty;not null"`
	UnitPriceCents        int     `gorm:"column:unit_price_cents;not null"`
	FinalUnitPriceCents   int     `gorm:"column:final_unit_price_cents;not null"`
	LineSubtotalCents     int     `gorm:"column:line_subtotal_cents;not null"`
	SellerDiscountPercent float64 `gorm:"column:seller_discount_percent;not null"`
	VolumeDiscountPercent float64 `gorm:"column:volume_discount_percent;not null"`
	SellerSavingsCents    int     `gorm:"column:seller_savings_cents;not null"`
	VolumeSavingsCents    int     `gorm:"column:volume_savings_cents;not null"`

	Attributes types.JSONMap `gorm:"column:attributes;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (OrderItem) TableName() string {
	return "order_items"
}
