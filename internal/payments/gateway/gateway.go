package gateway

import (
	"context"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
)

// Outcome is the normalized verdict a gateway gives for a transaction.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomePending  Outcome = "pending"
	OutcomeDeclined Outcome = "declined"
)

// VerificationResult is the gateway-agnostic answer to "did this payment
// actually happen". Amounts are in cents, matching the rest of the platform.
type VerificationResult struct {
	TransactionID string
	CheckoutID    string
	Outcome       Outcome
	AmountCents   int
	Currency      string
	ResultCode    string
	ResultMessage string

	// AlreadyProcessed marks gateway-side duplicate submissions. The money
	// moved on the first attempt, so the reconciler settles these as approved.
	AlreadyProcessed bool
}

// Approved reports whether the gateway confirmed the charge.
func (r *VerificationResult) Approved() bool {
	return r != nil && r.Outcome == OutcomeApproved
}

// VerificationRef identifies a transaction to look up at the gateway. Datafast
// uses the resource path from the redirect; DeUna uses the order id.
type VerificationRef struct {
	TransactionID string
	ResourcePath  string
	SessionID     string
}

// Verifier fetches the authoritative payment state from a gateway.
type Verifier interface {
	Name() enums.PaymentGateway
	Verify(ctx context.Context, ref VerificationRef) (*VerificationResult, error)
}
