package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/checkoutsession"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/pricing"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/types"
)

func snapshotFixture() *checkoutsession.Snapshot {
	productID := uuid.New()
	sellerID := uuid.New()
	now := time.Now()
	return &checkoutsession.Snapshot{
		SessionID:  "sess-1",
		UserID:     uuid.New(),
		CouponCode: "SAVE10",
		Items: []pricing.LineItem{
			{
				ProductID:      productID,
				SellerID:       sellerID,
				Qty:            2,
				UnitPriceCents: 1000,
				Attributes:     map[string]any{"color": "blue"},
			},
		},
		ShippingAddress: types.Address{Name: "Ana", Line1: "Av. Amazonas 123", City: "Quito", Country: "EC"},
		PaymentMethod:   "card",
		Totals: pricing.Result{
			SubtotalOriginalCents:      2000,
			SubtotalWithDiscountsCents: 2000,
			CouponDiscountCents:        200,
			TaxCents:                   270,
			ShippingCents:              500,
			TotalCents:                 2570,
			Shipping: pricing.ShippingSplit{
				SellerShares:  []pricing.SellerShare{{SellerID: sellerID, AmountCents: 400}},
				PlatformCents: 100,
			},
			Items: []pricing.ItemBreakdown{
				{
					ProductID:           productID,
					SellerID:            sellerID,
					Qty:                 2,
					UnitPriceCents:      1000,
					FinalUnitPriceCents: 1000,
					LineSubtotalCents:   2000,
				},
			},
		},
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
}

func TestBuildFromSnapshot(t *testing.T) {
	svc := NewService()
	snapshot := snapshotFixture()

	order, err := svc.BuildFromSnapshot(snapshot)
	require.NoError(t, err)

	assert.Equal(t, snapshot.UserID, order.UserID)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	assert.Equal(t, 2570, order.TotalCents)
	assert.Equal(t, 270, order.TaxCents)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE10", *order.CouponCode)

	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "Quito", order.ShippingAddress.City)
	assert.Nil(t, order.BillingAddress, "unset billing address must stay nil")

	require.NotNil(t, order.ShippingBreakdown)
	require.Len(t, order.ShippingBreakdown.SellerShares, 1)
	assert.Equal(t, 400, order.ShippingBreakdown.SellerShares[0].AmountCents)
	assert.Equal(t, 100, order.ShippingBreakdown.PlatformCents)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Qty)
	assert.Equal(t, 2000, order.Items[0].LineSubtotalCents)
	assert.Equal(t, "blue", order.Items[0].Attributes["color"])
}

func TestBuildFromSnapshotKeepsPerLineAttributes(t *testing.T) {
	svc := NewService()
	snapshot := snapshotFixture()

	// Same product twice, e.g. one blue and one red variant.
	productID := snapshot.Items[0].ProductID
	sellerID := snapshot.Items[0].SellerID
	snapshot.Items = append(snapshot.Items, pricing.LineItem{
		ProductID:      productID,
		SellerID:       sellerID,
		Qty:            1,
		UnitPriceCents: 1000,
		Attributes:     map[string]any{"color": "red"},
	})
	snapshot.Totals.Items = append(snapshot.Totals.Items, pricing.ItemBreakdown{
		ProductID:           productID,
		SellerID:            sellerID,
		Qty:                 1,
		UnitPriceCents:      1000,
		FinalUnitPriceCents: 1000,
		LineSubtotalCents:   1000,
	})

	order, err := svc.BuildFromSnapshot(snapshot)
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "blue", order.Items[0].Attributes["color"])
	assert.Equal(t, "red", order.Items[1].Attributes["color"], "each line keeps its own attributes")
}

func TestBuildFromSnapshotRequiresItems(t *testing.T) {
	svc := NewService()
	snapshot := snapshotFixture()
	snapshot.Items = nil

	_, err := svc.BuildFromSnapshot(snapshot)
	require.Error(t, err)

	_, err = svc.BuildFromSnapshot(nil)
	require.Error(t, err)
}

func TestOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD-20260901-[0-9A-F]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		number := newOrderNumber(now)
		assert.Regexp(t, pattern, number)
		seen[number] = true
	}
	assert.Greater(t, len(seen), 1, "order numbers should not repeat deterministically")
}
