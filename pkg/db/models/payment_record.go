package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
)

// PaymentRecord tracks a single payment attempt against a gateway. The
// transaction id is caller-chosen and correlates every confirmation path
// (redirect return, webhook, manual re-verification) to one record.
type PaymentRecord struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID string               `gorm:"column:transaction_id;uniqueIndex;not null"`
	UserID        uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	Gateway       enums.PaymentGateway `gorm:"column:gateway;not null"`
	Status        enums.PaymentStatus  `gorm:"column:status;not null;default:'pending'"`
	AmountCents   int                  `gorm:"column:amount_cents;not null"`
	Currency      string               `gorm:"column:currency;not null;default:'USD'"`
	CheckoutID    *string              `gorm:"column:checkout_id"`
	SessionID     *string              `gorm:"column:session_id"`
	PaymentMethod *string              `gorm:"column:payment_method"`
	OrderID       *uuid.UUID           `gorm:"column:order_id;type:uuid"`
	ErrorCode     *string              `gorm:"column:error_code"`
	ErrorMessage  *string              `gorm:"column:error_message"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (PaymentRecord) TableName() string {
	return "payment_records"
}
