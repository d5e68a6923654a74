package pricing

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

// Coupon is a discount code already loaded by the caller. The engine only
// judges applicability; persistence state changes happen elsewhere.
type Coupon struct {
	Code           string
	Kind           enums.DiscountKind
	Percentage     float64
	OwnerUserID    *uuid.UUID
	ScopeProductID *uuid.UUID
	ScopeSellerID  *uuid.UUID
	IsUsed         bool
	ExpiresAt      time.Time
}

func (c *Coupon) validate(items []LineItem, now time.Time) error {
	if c.Percentage <= 0 || c.Percentage > 100 {
		return pkgerrors.New(pkgerrors.CodeCouponInvalid, "discount percentage out of range").
			WithDetails(map[string]any{"code": c.Code})
	}
	if c.IsUsed {
		return pkgerrors.New(pkgerrors.CodeCouponInvalid, "discount code already used").
			WithDetails(map[string]any{"code": c.Code})
	}
	if !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeCouponInvalid, "discount code expired").
			WithDetails(map[string]any{"code": c.Code, "expired_at": c.ExpiresAt})
	}
	if c.ScopeProductID != nil && !containsProduct(items, *c.ScopeProductID) {
		return pkgerrors.New(pkgerrors.CodeCouponInvalid, "discount code does not apply to any item in the cart").
			WithDetails(map[string]any{"code": c.Code})
	}
	if c.ScopeSellerID != nil && !containsSeller(items, *c.ScopeSellerID) {
		return pkgerrors.New(pkgerrors.CodeCouponInvalid, "discount code does not apply to any seller in the cart").
			WithDetails(map[string]any{"code": c.Code})
	}
	return nil
}

func containsProduct(items []LineItem, productID uuid.UUID) bool {
	for _, item := range items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func containsSeller(items []LineItem, sellerID uuid.UUID) bool {
	for _, item := range items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}
