package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/config"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

// LineItem is one cart line as validated by the caller. Attributes carry no
// pricing effect and are copied through untouched.
type LineItem struct {
	ProductID             uuid.UUID      `json:"product_id"`
	SellerID              uuid.UUID      `json:"seller_id"`
	Qty                   int            `json:"qty"`
	UnitPriceCents        int            `json:"unit_price_cents"`
	SellerDiscountPercent float64        `json:"seller_discount_percent"`
	Attributes            map[string]any `json:"attributes,omitempty"`
}

// Context carries the discount inputs resolved by the caller. Now is part of
// the input so the same context always yields the same result.
type Context struct {
	UserID            uuid.UUID
	Coupon            *Coupon
	ShippingCostCents int
	Now               time.Time
}

// ItemBreakdown reports one line's pricing. The cent values here are rounded
// for display; aggregates are computed from unrounded sums, never from these.
type ItemBreakdown struct {
	ProductID             uuid.UUID `json:"product_id"`
	SellerID              uuid.UUID `json:"seller_id"`
	Qty                   int       `json:"qty"`
	UnitPriceCents        int       `json:"unit_price_cents"`
	FinalUnitPriceCents   int       `json:"final_unit_price_cents"`
	LineSubtotalCents     int       `json:"line_subtotal_cents"`
	SellerDiscountPercent float64   `json:"seller_discount_percent"`
	VolumeDiscountPercent float64   `json:"volume_discount_percent"`
	SellerSavingsCents    int       `json:"seller_savings_cents"`
	VolumeSavingsCents    int       `json:"volume_savings_cents"`
}

// SellerShare is the informational slice of shipping credited to one seller.
type SellerShare struct {
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int       `json:"amount_cents"`
}

// ShippingSplit distributes the shipping cost for payout accounting. It never
// changes the buyer-facing total.
type ShippingSplit struct {
	SellerShares  []SellerShare `json:"seller_shares"`
	PlatformCents int           `json:"platform_cents"`
}

// Result is the itemized and aggregate pricing outcome.
//
// Invariant: TotalCents == SubtotalWithDiscountsCents - CouponDiscountCents +
// TaxCents + ShippingCents, exactly, with every aggregate rounded once.
type Result struct {
	SubtotalOriginalCents      int             `json:"subtotal_original_cents"`
	SubtotalWithDiscountsCents int             `json:"subtotal_with_discounts_cents"`
	SellerDiscountCents        int             `json:"seller_discount_cents"`
	VolumeDiscountCents        int             `json:"volume_discount_cents"`
	CouponDiscountCents        int             `json:"coupon_discount_cents"`
	CouponPercentage           float64         `json:"coupon_percentage"`
	TaxCents                   int             `json:"tax_cents"`
	ShippingCents              int             `json:"shipping_cents"`
	Shipping                   ShippingSplit   `json:"shipping_split"`
	TotalCents                 int             `json:"total_cents"`
	Items                      []ItemBreakdown `json:"items"`
}

// Engine computes cart totals deterministically. It holds configuration only
// and performs no I/O, so it is safe for concurrent use.
type Engine struct {
	ivaRate           decimal.Decimal
	tiers             []config.VolumeTier
	singleSellerShare decimal.Decimal
	multiSellerShare  decimal.Decimal
}

// NewEngine builds an engine from the pricing configuration.
func NewEngine(cfg config.PricingConfig) (*Engine, error) {
	if cfg.IVARatePercent < 0 || cfg.IVARatePercent > 100 {
		return nil, fmt.Errorf("iva rate must be within [0,100]")
	}
	if cfg.SingleSellerShippingPercent < 0 || cfg.SingleSellerShippingPercent > 100 {
		return nil, fmt.Errorf("single seller shipping percent must be within [0,100]")
	}
	if cfg.MultiSellerShippingPercent < 0 || cfg.MultiSellerShippingPercent > 100 {
		return nil, fmt.Errorf("multi seller shipping percent must be within [0,100]")
	}
	tiers, err := cfg.ParseVolumeTiers()
	if err != nil {
		return nil, err
	}
	return &Engine{
		ivaRate:           decimal.NewFromFloat(cfg.IVARatePercent).Div(decimal.NewFromInt(100)),
		tiers:             tiers,
		singleSellerShare: decimal.NewFromFloat(cfg.SingleSellerShippingPercent).Div(decimal.NewFromInt(100)),
		multiSellerShare:  decimal.NewFromFloat(cfg.MultiSellerShippingPercent).Div(decimal.NewFromInt(100)),
	}, nil
}

// ComputeTotals recomputes the cart's monetary totals from authoritative
// inputs. Same inputs always yield the same cents-accurate output.
func (e *Engine) ComputeTotals(items []LineItem, pctx Context) (*Result, error) {
	if len(items) == 0 {
		return &Result{Items: []ItemBreakdown{}}, nil
	}

	hundred := decimal.NewFromInt(100)
	one := decimal.NewFromInt(1)

	var (
		subtotalOriginal decimal.Decimal
		subtotalFinal    decimal.Decimal
		sellerSavings    decimal.Decimal
		volumeSavings    decimal.Decimal
	)
	breakdowns := make([]ItemBreakdown, 0, len(items))

	for i, item := range items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.UnitPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unit price cannot be negative", i))
		}
		if item.SellerDiscountPercent < 0 || item.SellerDiscountPercent > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: seller discount must be within [0,100]", i))
		}

		qty := decimal.NewFromInt(int64(item.Qty))
		base := decimal.NewFromInt(int64(item.UnitPriceCents))
		sellerPct := decimal.NewFromFloat(item.SellerDiscountPercent).Div(hundred)
		afterSeller := base.Mul(one.Sub(sellerPct))

		volumePercent := e.selectVolumeTier(item.Qty)
		volumePct := decimal.NewFromFloat(volumePercent).Div(hundred)
		final := afterSeller.Mul(one.Sub(volumePct))

		lineOriginal := base.Mul(qty)
		lineFinal := final.Mul(qty)
		lineSellerSavings := base.Sub(afterSeller).Mul(qty)
		lineVolumeSavings := afterSeller.Sub(final).Mul(qty)

		subtotalOriginal = subtotalOriginal.Add(lineOriginal)
		subtotalFinal = subtotalFinal.Add(lineFinal)
		sellerSavings = sellerSavings.Add(lineSellerSavings)
		volumeSavings = volumeSavings.Add(lineVolumeSavings)

		breakdowns = append(breakdowns, ItemBreakdown{
			ProductID:             item.ProductID,
			SellerID:              item.SellerID,
			Qty:                   item.Qty,
			UnitPriceCents:        item.UnitPriceCents,
			FinalUnitPriceCents:   toCents(final),
			LineSubtotalCents:     toCents(lineFinal),
			SellerDiscountPercent: item.SellerDiscountPercent,
			VolumeDiscountPercent: volumePercent,
			SellerSavingsCents:    toCents(lineSellerSavings),
			VolumeSavingsCents:    toCents(lineVolumeSavings),
		})
	}

	subtotalWithDiscounts := toCents(subtotalFinal)

	var (
		couponCents   int
		couponPercent float64
	)
	if pctx.Coupon != nil {
		if err := pctx.Coupon.validate(items, pctx.Now); err != nil {
			return nil, err
		}
		couponPercent = pctx.Coupon.Percentage
		pct := decimal.NewFromFloat(couponPercent).Div(hundred)
		couponCents = toCents(decimal.NewFromInt(int64(subtotalWithDiscounts)).Mul(pct))
		if couponCents > subtotalWithDiscounts {
			couponCents = subtotalWithDiscounts
		}
	}

	taxable := decimal.NewFromInt(int64(subtotalWithDiscounts - couponCents))
	taxCents := toCents(taxable.Mul(e.ivaRate))

	if pctx.ShippingCostCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}
	split := e.splitShipping(items, pctx.ShippingCostCents)

	return &Result{
		SubtotalOriginalCents:      toCents(subtotalOriginal),
		SubtotalWithDiscountsCents: subtotalWithDiscounts,
		SellerDiscountCents:        toCents(sellerSavings),
		VolumeDiscountCents:        toCents(volumeSavings),
		CouponDiscountCents:        couponCents,
		CouponPercentage:           couponPercent,
		TaxCents:                   taxCents,
		ShippingCents:              pctx.ShippingCostCents,
		Shipping:                   split,
		TotalCents:                 subtotalWithDiscounts - couponCents + taxCents + pctx.ShippingCostCents,
		Items:                      breakdowns,
	}, nil
}

// selectVolumeTier picks the highest qualifying tier; on equal thresholds the
// larger discount wins.
func (e *Engine) selectVolumeTier(qty int) float64 {
	var (
		selectedQty     = -1
		selectedPercent float64
	)
	for _, tier := range e.tiers {
		if tier.MinQty > qty {
			continue
		}
		if tier.MinQty > selectedQty || (tier.MinQty == selectedQty && tier.Percent > selectedPercent) {
			selectedQty = tier.MinQty
			selectedPercent = tier.Percent
		}
	}
	if selectedQty < 0 {
		return 0
	}
	return selectedPercent
}

func (e *Engine) splitShipping(items []LineItem, shippingCents int) ShippingSplit {
	sellers := map[uuid.UUID]struct{}{}
	for _, item := range items {
		sellers[item.SellerID] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(sellers))
	for id := range sellers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	shipping := decimal.NewFromInt(int64(shippingCents))
	share := e.multiSellerShare
	if len(ids) == 1 {
		share = e.singleSellerShare
	}

	shares := make([]SellerShare, 0, len(ids))
	allocated := 0
	for _, id := range ids {
		amount := toCents(shipping.Mul(share))
		shares = append(shares, SellerShare{SellerID: id, AmountCents: amount})
		allocated += amount
	}
	platform := shippingCents - allocated
	if platform < 0 {
		platform = 0
	}
	return ShippingSplit{SellerShares: shares, PlatformCents: platform}
}

// toCents rounds a cent-denominated decimal half up, once.
func toCents(d decimal.Decimal) int {
	return int(d.Round(0).IntPart())
}
