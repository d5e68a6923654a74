package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/checkoutsession"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/discounts"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/pricing"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/logger"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/types"
)

type snapshotStore interface {
	Save(ctx context.Context, snapshot *checkoutsession.Snapshot) error
	TTL() time.Duration
}

// Service freezes a validated cart into a priced checkout snapshot that a
// payment attempt can later be reconciled against.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*CreateIntentResult, error)
}

// CreateIntentInput is the buyer's cart plus checkout context.
type CreateIntentInput struct {
	UserID            uuid.UUID
	Items             []pricing.LineItem
	CouponCode        string
	ShippingAddress   types.Address
	BillingAddress    types.Address
	PaymentMethod     string
	ShippingCostCents int
}

// CreateIntentResult hands the frontend the snapshot handle and the priced
// totals to display.
type CreateIntentResult struct {
	SessionID string         `json:"session_id"`
	ExpiresAt time.Time      `json:"expires_at"`
	Totals    pricing.Result `json:"totals"`
}

type service struct {
	engine    *pricing.Engine
	store     snapshotStore
	discounts discounts.Repository
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout intent service.
func NewService(engine *pricing.Engine, store snapshotStore, discountsRepo discounts.Repository, logg *logger.Logger) (Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if discountsRepo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		engine:    engine,
		store:     store,
		discounts: discountsRepo,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// CreateIntent validates the cart, prices it, and stores the frozen snapshot.
func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*CreateIntentResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout requires at least one item")
	}
	for i, item := range input.Items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}

	var coupon *pricing.Coupon
	couponCode := strings.ToUpper(strings.TrimSpace(input.CouponCode))
	if couponCode != "" {
		stored, err := s.discounts.FindByCode(ctx, couponCode)
		if err != nil {
			return nil, err
		}
		coupon = discounts.ToPricingCoupon(stored)
	}

	now := s.now()
	totals, err := s.engine.ComputeTotals(input.Items, pricing.Context{
		UserID:            input.UserID,
		Coupon:            coupon,
		ShippingCostCents: input.ShippingCostCents,
		Now:               now,
	})
	if err != nil {
		return nil, err
	}

	snapshot := &checkoutsession.Snapshot{
		SessionID:       newSessionID(),
		UserID:          input.UserID,
		Items:           input.Items,
		CouponCode:      couponCode,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		PaymentMethod:   strings.TrimSpace(input.PaymentMethod),
		Totals:          *totals,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.store.TTL()),
	}
	if err := s.store.Save(ctx, snapshot); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"session_id":  snapshot.SessionID,
		"total_cents": totals.TotalCents,
	})
	s.logg.Info(ctx, "checkout snapshot stored")

	return &CreateIntentResult{
		SessionID: snapshot.SessionID,
		ExpiresAt: snapshot.ExpiresAt,
		Totals:    *totals,
	}, nil
}

func newSessionID() string {
	return "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
