package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/checkoutsession"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db/models"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/types"
)

// Service assembles order aggregates from reconciled checkout snapshots.
type Service interface {
	BuildFromSnapshot(snapshot *checkoutsession.Snapshot) (*models.Order, error)
}

type service struct {
	now func() time.Time
}

// NewService wires the orders service.
func NewService() Service {
	return &service{now: time.Now}
}

// BuildFromSnapshot turns a frozen checkout into an unsaved order aggregate.
// Persistence happens in the caller's transaction alongside the payment record
// update and coupon consumption.
func (s *service) BuildFromSnapshot(snapshot *checkoutsession.Snapshot) (*models.Order, error) {
	if snapshot == nil {
		return nil, errors.New("snapshot is required")
	}
	if len(snapshot.Items) == 0 {
		return nil, errors.New("snapshot has no items")
	}

	totals := snapshot.Totals
	order := &models.Order{
		OrderNumber:           newOrderNumber(s.now()),
		UserID:                snapshot.UserID,
		Status:                enums.OrderStatusProcessing,
		SubtotalOriginalCents: totals.SubtotalOriginalCents,
		SellerDiscountCents:   totals.SellerDiscountCents,
		VolumeDiscountCents:   totals.VolumeDiscountCents,
		CouponDiscountCents:   totals.CouponDiscountCents,
		TaxCents:              totals.TaxCents,
		ShippingCents:         totals.ShippingCents,
		TotalCents:            totals.TotalCents,
		ShippingAddress:       addressOrNil(snapshot.ShippingAddress),
		BillingAddress:        addressOrNil(snapshot.BillingAddress),
	}

	if snapshot.CouponCode != "" {
		code := snapshot.CouponCode
		order.CouponCode = &code
	}

	if len(totals.Shipping.SellerShares) > 0 {
		shares := make([]types.SellerShippingShare, 0, len(totals.Shipping.SellerShares))
		for _, share := range totals.Shipping.SellerShares {
			shares = append(shares, types.SellerShippingShare{
				SellerID:    share.SellerID.String(),
				AmountCents: share.AmountCents,
			})
		}
		order.ShippingBreakdown = &types.ShippingBreakdown{
			SellerShares:  shares,
			PlatformCents: totals.Shipping.PlatformCents,
		}
	}

	items := make([]models.OrderItem, 0, len(totals.Items))
	for i, line := range totals.Items {
		item := models.OrderItem{
			ProductID:             line.ProductID,
			SellerID:              line.SellerID,
			Qty:                   line.Qty,
			UnitPriceCents:        line.UnitPriceCents,
			FinalUnitPriceCents:   line.FinalUnitPriceCents,
			LineSubtotalCents:     line.LineSubtotalCents,
			SellerDiscountPercent: line.SellerDiscountPercent,
			VolumeDiscountPercent: line.VolumeDiscountPercent,
			SellerSavingsCents:    line.SellerSavingsCents,
			VolumeSavingsCents:    line.VolumeSavingsCents,
		}
		// Priced lines mirror snapshot items one to one and in order, so
		// attributes carry over by index. A product id lookup would collapse
		// two lines of the same product onto one set of attributes.
		if i < len(snapshot.Items) && len(snapshot.Items[i].Attributes) > 0 {
			item.Attributes = types.JSONMap(snapshot.Items[i].Attributes)
		}
		items = append(items, item)
	}
	order.Items = items

	return order, nil
}

func addressOrNil(addr types.Address) *types.Address {
	if addr.IsZero() {
		return nil
	}
	copied := addr
	return &copied
}

// newOrderNumber yields a human-quotable id like ORD-20260901-4F9A2C. The
// unique index on order_number catches the unlikely collision.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}
