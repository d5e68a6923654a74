package types

import (
	"database/sql/driver"
	"encoding/json"
)

// SellerShippingShare is the slice of the shipping cost credited to one seller.
type SellerShippingShare struct {
	SellerID    string `json:"seller_id"`
	AmountCents int    `json:"amount_cents"`
}

// ShippingBreakdown records how a shipping cost splits between sellers and the
// platform. Informational for payout accounting, never part of the buyer total.
type ShippingBreakdown struct {
	SellerShares  []SellerShippingShare `json:"seller_shares"`
	PlatformCents int                   `json:"platform_cents"`
}

// Value serializes the breakdown to JSON for a JSONB column.
func (s *ShippingBreakdown) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan decodes JSONB into the breakdown struct.
func (s *ShippingBreakdown) Scan(value interface{}) error {
	if value == nil {
		*s = ShippingBreakdown{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}
