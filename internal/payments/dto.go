package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/payments/gateway"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
)

// InitiateCheckoutInput starts a payment attempt against a stored checkout
// snapshot.
type InitiateCheckoutInput struct {
	UserID        uuid.UUID
	SessionID     string
	Gateway       enums.PaymentGateway
	PaymentMethod string
}

// InitiateCheckoutResult carries the handles the frontend needs to collect the
// payment.
type InitiateCheckoutResult struct {
	TransactionID string               `json:"transaction_id"`
	Gateway       enums.PaymentGateway `json:"gateway"`
	AmountCents   int                  `json:"amount_cents"`
	Currency      string               `json:"currency"`

	// Datafast hosted widget.
	CheckoutID string `json:"checkout_id,omitempty"`
	WidgetURL  string `json:"widget_url,omitempty"`

	// DeUna wallet handles.
	PaymentURL string `json:"payment_url,omitempty"`
	QRCode     string `json:"qr_code,omitempty"`
}

// ReconcileInput identifies a payment to settle. Verification is pre-parsed
// when the gateway pushed the result (webhook); otherwise the record's gateway
// is polled using ResourcePath or the transaction id.
type ReconcileInput struct {
	TransactionID string
	ResourcePath  string
	SessionID     string

	Verification *gateway.VerificationResult
}

// ReconcileResult reports the settled state of a payment attempt.
type ReconcileResult struct {
	TransactionID string              `json:"transaction_id"`
	Status        enums.PaymentStatus `json:"status"`
	AmountCents   int                 `json:"amount_cents"`
	Currency      string              `json:"currency"`
	OrderID       *uuid.UUID          `json:"order_id,omitempty"`
	OrderNumber   string              `json:"order_number,omitempty"`
	ResultCode    string              `json:"result_code,omitempty"`
	Message       string              `json:"message,omitempty"`
}

// StatusResult is the read-only view of a payment record.
type StatusResult struct {
	TransactionID string               `json:"transaction_id"`
	Gateway       enums.PaymentGateway `json:"gateway"`
	Status        enums.PaymentStatus  `json:"status"`
	AmountCents   int                  `json:"amount_cents"`
	Currency      string               `json:"currency"`
	OrderID       *uuid.UUID           `json:"order_id,omitempty"`
	ErrorCode     *string              `json:"error_code,omitempty"`
	ErrorMessage  *string              `json:"error_message,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}
