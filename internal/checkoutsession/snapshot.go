package checkoutsession

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/pricing"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/types"
)

// Snapshot freezes a validated checkout so a later payment can be reconciled
// against the exact cart the buyer saw. It is immutable once stored.
type Snapshot struct {
	SessionID       string             `json:"session_id"`
	UserID          uuid.UUID          `json:"user_id"`
	Items           []pricing.LineItem `json:"items"`
	CouponCode      string             `json:"coupon_code,omitempty"`
	ShippingAddress types.Address      `json:"shipping_address"`
	BillingAddress  types.Address      `json:"billing_address"`
	PaymentMethod   string             `json:"payment_method"`
	Totals          pricing.Result     `json:"totals"`
	CreatedAt       time.Time          `json:"created_at"`
	ExpiresAt       time.Time          `json:"expires_at"`
}

// Expired reports whether the snapshot's validity window has passed. The Redis
// TTL is the enforcement mechanism; this is the belt for recovered payloads.
func (s *Snapshot) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
