package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/checkoutsession"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/discounts"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/orders"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/payments/gateway"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/pricing"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/config"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db/models"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/logger"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/metrics"
)

const defaultCurrency = "USD"

// errAlreadySettled aborts the settlement transaction when another reconciler
// completed the record first.
var errAlreadySettled = errors.New("payment already settled")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type leaser interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	ReconcileLeaseKey(transactionID string) string
}

type snapshotStore interface {
	Get(ctx context.Context, sessionID string) (*checkoutsession.Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
	SessionsForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type checkoutCreator interface {
	CreateCheckout(ctx context.Context, transactionID string, amountCents int, currency string) (*gateway.CheckoutIntent, error)
}

type paymentCreator interface {
	CreatePayment(ctx context.Context, transactionID string, amountCents int, currency string) (*gateway.PaymentIntent, error)
}

// Service coordinates payment initiation and reconciliation. Reconcile is the
// single settlement path: redirect returns, webhooks, and manual verification
// all funnel through it.
type Service interface {
	InitiateCheckout(ctx context.Context, input InitiateCheckoutInput) (*InitiateCheckoutResult, error)
	Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileResult, error)
	Status(ctx context.Context, userID uuid.UUID, transactionID string) (*StatusResult, error)
}

type service struct {
	repo      Repository
	ordersSvc orders.Service
	orders    orders.Repository
	discounts discounts.Repository
	tx        txRunner
	snapshots snapshotStore
	engine    *pricing.Engine
	verifiers map[enums.PaymentGateway]gateway.Verifier
	datafast  checkoutCreator
	deuna     paymentCreator
	leases    leaser
	metrics   *metrics.PaymentMetrics
	logg      *logger.Logger
	cfg       config.CheckoutConfig
	now       func() time.Time
}

// ServiceDeps carries the collaborators the payments service needs.
type ServiceDeps struct {
	Repo          Repository
	OrdersService orders.Service
	OrdersRepo    orders.Repository
	Discounts     discounts.Repository
	Tx            txRunner
	Snapshots     snapshotStore
	Engine        *pricing.Engine
	Verifiers     map[enums.PaymentGateway]gateway.Verifier
	Datafast      checkoutCreator
	DeUna         paymentCreator
	Leases        leaser
	Metrics       *metrics.PaymentMetrics
	Logger        *logger.Logger
	Config        config.CheckoutConfig
}

// NewService builds the payments service with the required dependencies.
func NewService(deps ServiceDeps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if deps.OrdersService == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if deps.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Discounts == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if len(deps.Verifiers) == 0 {
		return nil, fmt.Errorf("at least one gateway verifier required")
	}
	if deps.Leases == nil {
		return nil, fmt.Errorf("lease client required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      deps.Repo,
		ordersSvc: deps.OrdersService,
		orders:    deps.OrdersRepo,
		discounts: deps.Discounts,
		tx:        deps.Tx,
		snapshots: deps.Snapshots,
		engine:    deps.Engine,
		verifiers: deps.Verifiers,
		datafast:  deps.Datafast,
		deuna:     deps.DeUna,
		leases:    deps.Leases,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		cfg:       deps.Config,
		now:       time.Now,
	}, nil
}

// InitiateCheckout registers a pending payment attempt for a stored snapshot
// and opens the charge at the chosen gateway.
func (s *service) InitiateCheckout(ctx context.Context, input InitiateCheckoutInput) (*InitiateCheckoutResult, error) {
	if !input.Gateway.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment gateway").
			WithDetails(map[string]any{"gateway": input.Gateway.String()})
	}

	snapshot, err := s.snapshots.Get(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if snapshot.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "checkout session belongs to another user")
	}
	if snapshot.Expired(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeCheckoutExpired, "checkout session expired").
			WithDetails(map[string]any{"session_id": input.SessionID})
	}

	transactionID := newTransactionID()
	sessionID := snapshot.SessionID
	method := strings.TrimSpace(input.PaymentMethod)

	record := &models.PaymentRecord{
		TransactionID: transactionID,
		UserID:        input.UserID,
		Gateway:       input.Gateway,
		Status:        enums.PaymentStatusPending,
		AmountCents:   snapshot.Totals.TotalCents,
		Currency:      defaultCurrency,
		SessionID:     &sessionID,
	}
	if method != "" {
		record.PaymentMethod = &method
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	ctx = s.logg.WithTransactionID(ctx, transactionID)
	result := &InitiateCheckoutResult{
		TransactionID: transactionID,
		Gateway:       input.Gateway,
		AmountCents:   record.AmountCents,
		Currency:      record.Currency,
	}

	switch input.Gateway {
	case enums.PaymentGatewayDatafast:
		if s.datafast == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "datafast gateway not configured")
		}
		intent, err := s.datafast.CreateCheckout(ctx, transactionID, record.AmountCents, record.Currency)
		if err != nil {
			s.failInitiation(ctx, transactionID, err)
			return nil, err
		}
		result.CheckoutID = intent.CheckoutID
		result.WidgetURL = intent.WidgetURL
	case enums.PaymentGatewayDeUna:
		if s.deuna == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "deuna gateway not configured")
		}
		intent, err := s.deuna.CreatePayment(ctx, transactionID, record.AmountCents, record.Currency)
		if err != nil {
			s.failInitiation(ctx, transactionID, err)
			return nil, err
		}
		result.CheckoutID = intent.OrderID
		result.PaymentURL = intent.PaymentURL
		result.QRCode = intent.QRCode
	}

	s.logg.Info(ctx, "payment attempt opened at gateway")
	return result, nil
}

func (s *service) failInitiation(ctx context.Context, transactionID string, cause error) {
	if _, err := s.repo.FailIfOpen(ctx, transactionID, enums.PaymentStatusFailed, string(pkgerrors.CodeGateway), cause.Error()); err != nil {
		s.logg.Error(ctx, "marking failed initiation", err)
	}
}

// Reconcile settles one payment attempt from the gateway's authoritative
// verdict. It is idempotent: replays of a completed transaction return the
// original outcome without creating anything.
func (s *service) Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileResult, error) {
	transactionID := strings.TrimSpace(input.TransactionID)
	if transactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	ctx = s.logg.WithTransactionID(ctx, transactionID)

	leaseKey := s.leases.ReconcileLeaseKey(transactionID)
	acquired, err := s.leases.SetNX(ctx, leaseKey, "1", s.leaseTTL())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring reconcile lease")
	}
	if !acquired {
		// Another caller holds the lease and will settle the record. Losing
		// the race is not an error: report the record as it stands.
		record, err := s.repo.FindByTransactionID(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		if record.Status.IsTerminal() {
			return s.settledResult(ctx, record)
		}
		return &ReconcileResult{
			TransactionID: transactionID,
			Status:        record.Status,
			AmountCents:   record.AmountCents,
			Currency:      record.Currency,
			Message:       "payment verification already in progress",
		}, nil
	}
	defer func() {
		if err := s.leases.Del(context.WithoutCancel(ctx), leaseKey); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "lease_key", leaseKey), "releasing reconcile lease failed")
		}
	}()

	record, err := s.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// Terminal records settle immediately, no gateway round trip.
	if record.Status.IsTerminal() {
		return s.settledResult(ctx, record)
	}

	verification := input.Verification
	if verification == nil {
		verifier, ok := s.verifiers[record.Gateway]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "no verifier for gateway").
				WithDetails(map[string]any{"gateway": record.Gateway.String()})
		}
		verification, err = verifier.Verify(ctx, gateway.VerificationRef{
			TransactionID: transactionID,
			ResourcePath:  input.ResourcePath,
			SessionID:     input.SessionID,
		})
		if err != nil {
			return nil, err
		}
	}

	// Gateways report replayed confirmations of an already captured payment
	// with decline-shaped result codes. The money moved, so settle as approved.
	if verification.AlreadyProcessed {
		verification.Outcome = gateway.OutcomeApproved
	}

	switch verification.Outcome {
	case gateway.OutcomePending:
		if err := s.repo.MarkProcessing(ctx, transactionID); err != nil {
			return nil, err
		}
		s.countOutcome(record.Gateway, "pending")
		return &ReconcileResult{
			TransactionID: transactionID,
			Status:        enums.PaymentStatusProcessing,
			AmountCents:   record.AmountCents,
			Currency:      record.Currency,
			ResultCode:    verification.ResultCode,
			Message:       "payment still processing at the gateway",
		}, nil

	case gateway.OutcomeDeclined:
		if _, err := s.repo.FailIfOpen(ctx, transactionID, enums.PaymentStatusFailed, verification.ResultCode, verification.ResultMessage); err != nil {
			return nil, err
		}
		s.countOutcome(record.Gateway, "declined")
		s.logg.Warn(ctx, "gateway declined payment")
		return &ReconcileResult{
			TransactionID: transactionID,
			Status:        enums.PaymentStatusFailed,
			AmountCents:   record.AmountCents,
			Currency:      record.Currency,
			ResultCode:    verification.ResultCode,
			Message:       verification.ResultMessage,
		}, nil
	}

	return s.settleApproved(ctx, record, verification)
}

// settleApproved runs the money-critical path: recompute totals from the
// snapshot, check the paid amount, then atomically create the order, consume
// the coupon, and complete the record.
func (s *service) settleApproved(ctx context.Context, record *models.PaymentRecord, verification *gateway.VerificationResult) (*ReconcileResult, error) {
	snapshot, err := s.resolveSnapshot(ctx, record)
	if err != nil {
		return nil, err
	}

	recomputed, err := s.recomputeTotals(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	if recomputed.TotalCents != snapshot.Totals.TotalCents {
		return nil, s.rejectDiscrepancy(ctx, record, verification, recomputed.TotalCents, "stored snapshot totals diverge from recomputation")
	}
	if diff := verification.AmountCents - recomputed.TotalCents; abs(diff) > s.cfg.AmountToleranceCents {
		return nil, s.rejectDiscrepancy(ctx, record, verification, recomputed.TotalCents, "gateway amount does not match the checkout total")
	}

	order, err := s.ordersSvc.BuildFromSnapshot(snapshot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assembling order from snapshot")
	}

	var checkoutID *string
	if verification.CheckoutID != "" {
		checkoutID = &verification.CheckoutID
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.orders.WithTx(tx).Create(ctx, order)
		if err != nil {
			return err
		}
		if snapshot.CouponCode != "" {
			if err := s.discounts.WithTx(tx).Consume(ctx, snapshot.CouponCode, created.ID); err != nil {
				return err
			}
		}
		won, err := s.repo.WithTx(tx).CompleteIfOpen(ctx, record.TransactionID, created.ID, checkoutID)
		if err != nil {
			return err
		}
		if !won {
			return errAlreadySettled
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, errAlreadySettled) {
			fresh, err := s.repo.FindByTransactionID(ctx, record.TransactionID)
			if err != nil {
				return nil, err
			}
			return s.settledResult(ctx, fresh)
		}
		return nil, txErr
	}

	// The snapshot is consumed; losing this delete only costs TTL time.
	if err := s.snapshots.Delete(ctx, snapshot.SessionID); err != nil {
		s.logg.Warn(ctx, "deleting consumed checkout snapshot failed")
	}

	s.countOutcome(record.Gateway, "completed")
	if s.metrics != nil {
		s.metrics.IncOrderCreated(record.Gateway.String())
	}
	s.logg.Info(s.logg.WithField(ctx, "order_number", order.OrderNumber), "payment reconciled and order created")

	orderID := order.ID
	return &ReconcileResult{
		TransactionID: record.TransactionID,
		Status:        enums.PaymentStatusCompleted,
		AmountCents:   record.AmountCents,
		Currency:      record.Currency,
		OrderID:       &orderID,
		OrderNumber:   order.OrderNumber,
		ResultCode:    verification.ResultCode,
		Message:       "payment confirmed",
	}, nil
}

// resolveSnapshot loads the checkout the record points at, falling back to the
// owner's recent-session index when the pointer is missing (webhooks carry no
// session id). Candidates must match the charged amount exactly.
func (s *service) resolveSnapshot(ctx context.Context, record *models.PaymentRecord) (*checkoutsession.Snapshot, error) {
	if record.SessionID != nil && *record.SessionID != "" {
		snapshot, err := s.snapshots.Get(ctx, *record.SessionID)
		if err == nil {
			return snapshot, nil
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeCheckoutExpired) {
			return nil, err
		}
	}

	sessionIDs, err := s.snapshots.SessionsForUser(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	for _, sessionID := range sessionIDs {
		snapshot, err := s.snapshots.Get(ctx, sessionID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeCheckoutExpired) {
				continue
			}
			return nil, err
		}
		if snapshot.Totals.TotalCents == record.AmountCents {
			return snapshot, nil
		}
	}

	// The money moved but the cart is gone. Leave the record open for support
	// instead of guessing at order contents.
	s.logg.Error(ctx, "approved payment has no recoverable checkout snapshot", nil)
	return nil, pkgerrors.New(pkgerrors.CodeCheckoutExpired, "checkout session expired before confirmation").
		WithDetails(map[string]any{"transaction_id": record.TransactionID})
}

// recomputeTotals re-runs pricing from the snapshot's raw inputs. The clock is
// pinned to the snapshot's creation time so a coupon valid at checkout stays
// valid through confirmation.
func (s *service) recomputeTotals(ctx context.Context, snapshot *checkoutsession.Snapshot) (*pricing.Result, error) {
	var coupon *pricing.Coupon
	if snapshot.CouponCode != "" {
		stored, err := s.discounts.FindByCode(ctx, snapshot.CouponCode)
		if err != nil {
			return nil, err
		}
		coupon = discounts.ToPricingCoupon(stored)
		// A code consumed by this user's own earlier attempt must not block
		// the recomputation; single-use is enforced by Consume in the
		// settlement transaction.
		coupon.IsUsed = false
	}

	return s.engine.ComputeTotals(snapshot.Items, pricing.Context{
		UserID:            snapshot.UserID,
		Coupon:            coupon,
		ShippingCostCents: snapshot.Totals.ShippingCents,
		Now:               snapshot.CreatedAt,
	})
}

func (s *service) rejectDiscrepancy(ctx context.Context, record *models.PaymentRecord, verification *gateway.VerificationResult, expectedCents int, reason string) error {
	if _, err := s.repo.FailIfOpen(ctx, record.TransactionID, enums.PaymentStatusFailed, string(pkgerrors.CodeAmountMismatch), reason); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncDiscrepancy(record.Gateway.String())
	}
	s.countOutcome(record.Gateway, "discrepancy")
	s.logg.Error(s.logg.WithFields(ctx, map[string]any{
		"expected_cents": expectedCents,
		"gateway_cents":  verification.AmountCents,
	}), "amount discrepancy on reconciliation", nil)

	return pkgerrors.New(pkgerrors.CodeAmountMismatch, reason).WithDetails(map[string]any{
		"transaction_id": record.TransactionID,
		"expected_cents": expectedCents,
		"gateway_cents":  verification.AmountCents,
	})
}

// settledResult maps a terminal record to its reconciliation outcome. A
// completed replay is a success; a failed one reports the stored reason.
func (s *service) settledResult(ctx context.Context, record *models.PaymentRecord) (*ReconcileResult, error) {
	result := &ReconcileResult{
		TransactionID: record.TransactionID,
		Status:        record.Status,
		AmountCents:   record.AmountCents,
		Currency:      record.Currency,
		OrderID:       record.OrderID,
	}

	switch record.Status {
	case enums.PaymentStatusCompleted:
		if record.OrderID != nil {
			if order, err := s.orders.FindByID(ctx, *record.OrderID); err == nil {
				result.OrderNumber = order.OrderNumber
			}
		}
		result.Message = "payment already confirmed"
		return result, nil
	default:
		if record.ErrorCode != nil {
			result.ResultCode = *record.ErrorCode
		}
		if record.ErrorMessage != nil {
			result.Message = *record.ErrorMessage
		}
		return result, nil
	}
}

// Status returns the caller's view of a payment attempt.
func (s *service) Status(ctx context.Context, userID uuid.UUID, transactionID string) (*StatusResult, error) {
	record, err := s.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found")
	}

	return &StatusResult{
		TransactionID: record.TransactionID,
		Gateway:       record.Gateway,
		Status:        record.Status,
		AmountCents:   record.AmountCents,
		Currency:      record.Currency,
		OrderID:       record.OrderID,
		ErrorCode:     record.ErrorCode,
		ErrorMessage:  record.ErrorMessage,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}, nil
}

func (s *service) leaseTTL() time.Duration {
	if s.cfg.ReconcileLeaseTTL > 0 {
		return s.cfg.ReconcileLeaseTTL
	}
	return 30 * time.Second
}

func (s *service) countOutcome(gw enums.PaymentGateway, outcome string) {
	if s.metrics != nil {
		s.metrics.IncReconciliation(gw.String(), outcome)
	}
}

func newTransactionID() string {
	return "txn_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
