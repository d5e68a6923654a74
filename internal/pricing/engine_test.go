package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/config"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

func testEngine(t *testing.T, tiers string) *Engine {
	t.Helper()
	engine, err := NewEngine(config.PricingConfig{
		IVARatePercent:              15,
		VolumeTiers:                 tiers,
		SingleSellerShippingPercent: 80,
		MultiSellerShippingPercent:  40,
	})
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}
	return engine
}

func TestComputeTotals_FullPipeline(t *testing.T) {
	engine := testEngine(t, "5:5,10:10")
	seller := uuid.New()
	items := []LineItem{
		{ProductID: uuid.New(), SellerID: seller, Qty: 12, UnitPriceCents: 1000},
		{ProductID: uuid.New(), SellerID: seller, Qty: 3, UnitPriceCents: 500, SellerDiscountPercent: 20},
	}
	coupon := &Coupon{
		Code:       "SAVE10",
		Percentage: 10,
		ExpiresAt:  time.Now().Add(time.Hour),
	}

	result, err := engine.ComputeTotals(items, Context{
		UserID:            uuid.New(),
		Coupon:            coupon,
		ShippingCostCents: 500,
		Now:               time.Now(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Item 1: qty 12 hits the 10% tier, 1000 -> 900, line 10800.
	// Item 2: 20% seller discount, 500 -> 400, no tier, line 1200.
	if result.SubtotalOriginalCents != 13500 {
		t.Fatalf("expected original subtotal 13500, got %d", result.SubtotalOriginalCents)
	}
	if result.SubtotalWithDiscountsCents != 12000 {
		t.Fatalf("expected discounted subtotal 12000, got %d", result.SubtotalWithDiscountsCents)
	}
	if result.SellerDiscountCents != 300 {
		t.Fatalf("expected seller discount 300, got %d", result.SellerDiscountCents)
	}
	if result.VolumeDiscountCents != 1200 {
		t.Fatalf("expected volume discount 1200, got %d", result.VolumeDiscountCents)
	}
	if result.CouponDiscountCents != 1200 {
		t.Fatalf("expected coupon discount 1200, got %d", result.CouponDiscountCents)
	}
	// 15% of (12000 - 1200).
	if result.TaxCents != 1620 {
		t.Fatalf("expected tax 1620, got %d", result.TaxCents)
	}
	if result.TotalCents != 12920 {
		t.Fatalf("expected total 12920, got %d", result.TotalCents)
	}

	if len(result.Shipping.SellerShares) != 1 {
		t.Fatalf("expected one seller share, got %d", len(result.Shipping.SellerShares))
	}
	if result.Shipping.SellerShares[0].AmountCents != 400 {
		t.Fatalf("expected seller shipping share 400, got %d", result.Shipping.SellerShares[0].AmountCents)
	}
	if result.Shipping.PlatformCents != 100 {
		t.Fatalf("expected platform shipping share 100, got %d", result.Shipping.PlatformCents)
	}
}

func TestComputeTotals_TotalIdentityHolds(t *testing.T) {
	engine := testEngine(t, "3:5,5:8,6:10,10:15")
	items := []LineItem{
		{ProductID: uuid.New(), SellerID: uuid.New(), Qty: 7, UnitPriceCents: 333, SellerDiscountPercent: 12.5},
		{ProductID: uuid.New(), SellerID: uuid.New(), Qty: 1, UnitPriceCents: 999, SellerDiscountPercent: 33.33},
		{ProductID: uuid.New(), SellerID: uuid.New(), Qty: 11, UnitPriceCents: 147, SellerDiscountPercent: 7},
	}
	coupon := &Coupon{Code: "ODD", Percentage: 7.5, ExpiresAt: time.Now().Add(time.Hour)}

	result, err := engine.ComputeTotals(items, Context{
		Coupon:            coupon,
		ShippingCostCents: 750,
		Now:               time.Now(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	reassembled := result.SubtotalWithDiscountsCents - result.CouponDiscountCents + result.TaxCents + result.ShippingCents
	if result.TotalCents != reassembled {
		t.Fatalf("total %d does not equal reassembled components %d", result.TotalCents, reassembled)
	}
}

func TestComputeTotals_Deterministic(t *testing.T) {
	engine := testEngine(t, "3:5,5:8,6:10,10:15")
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	items := []LineItem{
		{ProductID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), SellerID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Qty: 6, UnitPriceCents: 275, SellerDiscountPercent: 3},
		{ProductID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), SellerID: uuid.MustParse("44444444-4444-4444-4444-444444444444"), Qty: 2, UnitPriceCents: 5125},
	}
	pctx := Context{
		Coupon:            &Coupon{Code: "STABLE", Percentage: 5, ExpiresAt: now.Add(time.Hour)},
		ShippingCostCents: 500,
		Now:               now,
	}

	first, err := engine.ComputeTotals(items, pctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := engine.ComputeTotals(items, pctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.TotalCents != second.TotalCents {
		t.Fatalf("totals diverged across identical runs: %d vs %d", first.TotalCents, second.TotalCents)
	}
	if first.TaxCents != second.TaxCents || first.CouponDiscountCents != second.CouponDiscountCents {
		t.Fatalf("components diverged across identical runs")
	}
}

func TestComputeTotals_RoundsHalfUp(t *testing.T) {
	engine := testEngine(t, "")
	items := []LineItem{
		{ProductID: uuid.New(), SellerID: uuid.New(), Qty: 1, UnitPriceCents: 1010},
	}

	result, err := engine.ComputeTotals(items, Context{Now: time.Now()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// 15% of 1010 is 151.5, rounded half up to 152.
	if result.TaxCents != 152 {
		t.Fatalf("expected tax 152, got %d", result.TaxCents)
	}
	if result.TotalCents != 1162 {
		t.Fatalf("expected total 1162, got %d", result.TotalCents)
	}
}

func TestComputeTotals_VolumeTierBoundaries(t *testing.T) {
	engine := testEngine(t, "5:5,10:10")
	cases := []struct {
		qty     int
		percent float64
	}{
		{qty: 4, percent: 0},
		{qty: 5, percent: 5},
		{qty: 9, percent: 5},
		{qty: 10, percent: 10},
		{qty: 12, percent: 10},
	}
	for _, tc := range cases {
		items := []LineItem{{ProductID: uuid.New(), SellerID: uuid.New(), Qty: tc.qty, UnitPriceCents: 100}}
		result, err := engine.ComputeTotals(items, Context{Now: time.Now()})
		if err != nil {
			t.Fatalf("qty %d: expected no error, got %v", tc.qty, err)
		}
		if result.Items[0].VolumeDiscountPercent != tc.percent {
			t.Fatalf("qty %d: expected tier %.1f%%, got %.1f%%", tc.qty, tc.percent, result.Items[0].VolumeDiscountPercent)
		}
	}
}

func TestComputeTotals_EmptyCartIsAllZero(t *testing.T) {
	engine := testEngine(t, "5:5")
	result, err := engine.ComputeTotals(nil, Context{ShippingCostCents: 500, Now: time.Now()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.TotalCents != 0 || result.ShippingCents != 0 || result.TaxCents != 0 {
		t.Fatalf("expected all-zero result, got %+v", result)
	}
}

func TestComputeTotals_RejectsNonPositiveQty(t *testing.T) {
	engine := testEngine(t, "5:5")
	items := []LineItem{{ProductID: uuid.New(), SellerID: uuid.New(), Qty: 0, UnitPriceCents: 100}}
	_, err := engine.ComputeTotals(items, Context{Now: time.Now()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComputeTotals_MultiSellerShippingSplit(t *testing.T) {
	engine := testEngine(t, "")
	items := []LineItem{
		{ProductID: uuid.New(), SellerID: uuid.New(), Qty: 1, UnitPriceCents: 100},
		{ProductID: uuid.New(), SellerID: uuid.New(), Qty: 1, UnitPriceCents: 100},
	}

	result, err := engine.ComputeTotals(items, Context{ShippingCostCents: 500, Now: time.Now()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Shipping.SellerShares) != 2 {
		t.Fatalf("expected two seller shares, got %d", len(result.Shipping.SellerShares))
	}
	for _, share := range result.Shipping.SellerShares {
		if share.AmountCents != 200 {
			t.Fatalf("expected each seller share 200, got %d", share.AmountCents)
		}
	}
	if result.Shipping.PlatformCents != 100 {
		t.Fatalf("expected platform share 100, got %d", result.Shipping.PlatformCents)
	}
	// The split is informational, never part of the buyer total.
	if result.ShippingCents != 500 {
		t.Fatalf("expected shipping 500, got %d", result.ShippingCents)
	}
}

func TestComputeTotals_CouponValidation(t *testing.T) {
	engine := testEngine(t, "")
	now := time.Now()
	productID := uuid.New()
	items := []LineItem{{ProductID: productID, SellerID: uuid.New(), Qty: 1, UnitPriceCents: 1000}}

	cases := []struct {
		name   string
		coupon *Coupon
	}{
		{
			name:   "expired",
			coupon: &Coupon{Code: "OLD", Percentage: 10, ExpiresAt: now.Add(-time.Minute)},
		},
		{
			name:   "already used",
			coupon: &Coupon{Code: "SPENT", Percentage: 10, IsUsed: true, ExpiresAt: now.Add(time.Hour)},
		},
		{
			name: "product scope mismatch",
			coupon: func() *Coupon {
				other := uuid.New()
				return &Coupon{Code: "SCOPED", Percentage: 10, ScopeProductID: &other, ExpiresAt: now.Add(time.Hour)}
			}(),
		},
		{
			name: "seller scope mismatch",
			coupon: func() *Coupon {
				other := uuid.New()
				return &Coupon{Code: "SELLER", Percentage: 10, ScopeSellerID: &other, ExpiresAt: now.Add(time.Hour)}
			}(),
		},
		{
			name:   "percentage out of range",
			coupon: &Coupon{Code: "WILD", Percentage: 150, ExpiresAt: now.Add(time.Hour)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.ComputeTotals(items, Context{Coupon: tc.coupon, Now: now})
			if !pkgerrors.IsCode(err, pkgerrors.CodeCouponInvalid) {
				t.Fatalf("expected coupon invalid error, got %v", err)
			}
		})
	}
}

func TestComputeTotals_ScopedCouponApplies(t *testing.T) {
	engine := testEngine(t, "")
	now := time.Now()
	productID := uuid.New()
	items := []LineItem{{ProductID: productID, SellerID: uuid.New(), Qty: 1, UnitPriceCents: 1000}}
	coupon := &Coupon{Code: "SCOPED", Percentage: 10, ScopeProductID: &productID, ExpiresAt: now.Add(time.Hour)}

	result, err := engine.ComputeTotals(items, Context{Coupon: coupon, Now: now})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.CouponDiscountCents != 100 {
		t.Fatalf("expected coupon discount 100, got %d", result.CouponDiscountCents)
	}
}
