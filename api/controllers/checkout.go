package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/api/responses"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/api/validators"
	checkoutsvc "github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/checkout"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/pricing"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/logger"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/types"
)

// CreateCheckout freezes the submitted cart into a priced checkout session.
func CreateCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]pricing.LineItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, pricing.LineItem{
				ProductID:             item.ProductID,
				SellerID:              item.SellerID,
				Qty:                   item.Qty,
				UnitPriceCents:        item.UnitPriceCents,
				SellerDiscountPercent: item.SellerDiscountPercent,
				Attributes:            item.Attributes,
			})
		}

		result, err := svc.CreateIntent(r.Context(), checkoutsvc.CreateIntentInput{
			UserID:            userID,
			Items:             items,
			CouponCode:        payload.CouponCode,
			ShippingAddress:   payload.ShippingAddress,
			BillingAddress:    payload.BillingAddress,
			PaymentMethod:     payload.PaymentMethod,
			ShippingCostCents: payload.ShippingCostCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type checkoutRequest struct {
	Items             []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode        string                `json:"coupon_code,omitempty"`
	ShippingAddress   types.Address         `json:"shipping_address" validate:"required"`
	BillingAddress    types.Address         `json:"billing_address,omitempty"`
	PaymentMethod     string                `json:"payment_method,omitempty"`
	ShippingCostCents int                   `json:"shipping_cost_cents" validate:"min=0"`
}

type checkoutItemRequest struct {
	ProductID             uuid.UUID      `json:"product_id" validate:"required"`
	SellerID              uuid.UUID      `json:"seller_id" validate:"required"`
	Qty                   int            `json:"qty" validate:"required,gt=0"`
	UnitPriceCents        int            `json:"unit_price_cents" validate:"min=0"`
	SellerDiscountPercent float64        `json:"seller_discount_percent" validate:"min=0,max=100"`
	Attributes            map[string]any `json:"attributes,omitempty"`
}

type checkoutResponse struct {
	SessionID string         `json:"session_id"`
	ExpiresAt time.Time      `json:"expires_at"`
	Totals    pricing.Result `json:"totals"`
}

func newCheckoutResponse(result *checkoutsvc.CreateIntentResult) checkoutResponse {
	if result == nil {
		return checkoutResponse{}
	}
	return checkoutResponse{
		SessionID: result.SessionID,
		ExpiresAt: result.ExpiresAt,
		Totals:    result.Totals,
	}
}
