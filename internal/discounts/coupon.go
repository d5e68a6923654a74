package discounts

import (
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/pricing"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db/models"
)

// ToPricingCoupon adapts a stored discount code for the pricing engine.
func ToPricingCoupon(code *models.DiscountCode) *pricing.Coupon {
	if code == nil {
		return nil
	}
	return &pricing.Coupon{
		Code:           code.Code,
		Kind:           code.Kind,
		Percentage:     code.DiscountPercentage,
		OwnerUserID:    code.OwnerUserID,
		ScopeProductID: code.ScopeProductID,
		ScopeSellerID:  code.ScopeSellerID,
		IsUsed:         code.IsUsed,
		ExpiresAt:      code.ExpiresAt,
	}
}
