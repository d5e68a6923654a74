package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/config"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

const deunaBodyReadLimit int64 = 2048

var (
	errDeUnaKeyRequired    = errors.New("deuna api key is required")
	errDeUnaSecretRequired = errors.New("deuna api secret is required")
)

// DeUna integrates the wallet/QR processor. Payment requests are created
// server side; the final verdict arrives on a signed webhook, with a polling
// fallback for reconciliation.
type DeUna struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	apiSecret   string
	pointOfSale string
}

// DeUnaOption configures optional client behavior.
type DeUnaOption func(*DeUna)

// WithDeUnaHTTPClient overrides the default HTTP client.
func WithDeUnaHTTPClient(client *http.Client) DeUnaOption {
	return func(d *DeUna) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// NewDeUna builds the DeUna client from configuration.
func NewDeUna(cfg config.DeUnaConfig, opts ...DeUnaOption) (*DeUna, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errDeUnaKeyRequired
	}
	if strings.TrimSpace(cfg.APISecret) == "" {
		return nil, errDeUnaSecretRequired
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &DeUna{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		apiSecret:   strings.TrimSpace(cfg.APISecret),
		pointOfSale: strings.TrimSpace(cfg.PointOfSale),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Name identifies this verifier.
func (d *DeUna) Name() enums.PaymentGateway {
	return enums.PaymentGatewayDeUna
}

// PaymentIntent is the handle the frontend uses to send the buyer to DeUna.
type PaymentIntent struct {
	OrderID    string
	PaymentURL string
	QRCode     string
}

// CreatePayment registers a pending charge. transactionID is echoed back as
// the order_id on the webhook, tying the notification to our record.
func (d *DeUna) CreatePayment(ctx context.Context, transactionID string, amountCents int, currency string) (*PaymentIntent, error) {
	if d == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "deuna client not configured")
	}
	if strings.TrimSpace(transactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	payload, err := json.Marshal(map[string]any{
		"order_id":      transactionID,
		"amount":        amountCents,
		"currency":      currency,
		"point_of_sale": d.pointOfSale,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "marshal payment request")
	}

	endpoint := d.baseURL + "/merchants/transaction/create"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build payment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", d.apiKey)
	httpReq.Header.Set("X-Api-Secret", d.apiSecret)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute payment request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, deunaBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "payment creation failed")
	}

	var apiResp struct {
		TransactionID string `json:"transaction_id"`
		PaymentURL    string `json:"deeplink"`
		QR            string `json:"qr"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode payment response")
	}

	return &PaymentIntent{
		OrderID:    apiResp.TransactionID,
		PaymentURL: apiResp.PaymentURL,
		QRCode:     apiResp.QR,
	}, nil
}

// webhookEvent is the notification body DeUna posts on state changes.
type webhookEvent struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	AmountCents   int    `json:"amount"`
	Currency      string `json:"currency"`
	Reason        string `json:"reason"`
}

// ParseWebhook authenticates and decodes a notification body. The signature is
// hex HMAC-SHA256 of the raw body keyed with the API secret; anything that
// fails the check is rejected before the payload is trusted.
func (d *DeUna) ParseWebhook(body []byte, signature string) (*VerificationResult, error) {
	if d == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "deuna client not configured")
	}
	if !d.validSignature(body, signature) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload")
	}
	if event.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing order id")
	}

	return &VerificationResult{
		TransactionID: event.OrderID,
		CheckoutID:    event.TransactionID,
		Outcome:       classifyDeUnaStatus(event.Status),
		AmountCents:   event.AmountCents,
		Currency:      event.Currency,
		ResultCode:    strings.ToUpper(event.Status),
		ResultMessage: event.Reason,
	}, nil
}

// Verify polls the transaction state, the fallback when a webhook was missed.
func (d *DeUna) Verify(ctx context.Context, ref VerificationRef) (*VerificationResult, error) {
	if d == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "deuna client not configured")
	}
	transactionID := strings.TrimSpace(ref.TransactionID)
	if transactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	endpoint := fmt.Sprintf("%s/merchants/transaction/%s", d.baseURL, url.PathEscape(transactionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build verify request")
	}
	httpReq.Header.Set("X-Api-Key", d.apiKey)
	httpReq.Header.Set("X-Api-Secret", d.apiSecret)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute verify request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, deunaBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "transaction lookup failed")
	}

	var event webhookEvent
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode verify response")
	}

	return &VerificationResult{
		TransactionID: transactionID,
		CheckoutID:    event.TransactionID,
		Outcome:       classifyDeUnaStatus(event.Status),
		AmountCents:   event.AmountCents,
		Currency:      event.Currency,
		ResultCode:    strings.ToUpper(event.Status),
		ResultMessage: event.Reason,
	}, nil
}

func (d *DeUna) validSignature(body []byte, signature string) bool {
	trimmed := strings.TrimSpace(signature)
	if trimmed == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(d.apiSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(trimmed)))
}

func classifyDeUnaStatus(status string) Outcome {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESS", "APPROVED", "COMPLETED":
		return OutcomeApproved
	case "PENDING", "PROCESSING":
		return OutcomePending
	default:
		return OutcomeDeclined
	}
}
