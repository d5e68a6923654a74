package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/config"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

const (
	datafastBodyReadLimit int64 = 2048

	// Result code families per the processor's documentation.
	resultCodeAlreadyProcessed = "700.400.110"
)

var (
	datafastSuccessCode = regexp.MustCompile(`^(000\.000\.|000\.100\.1|000\.[36])`)
	datafastPendingCode = regexp.MustCompile(`^(000\.200)`)

	errDatafastEntityRequired = errors.New("datafast entity id is required")
	errDatafastTokenRequired  = errors.New("datafast access token is required")
)

// Datafast integrates the card processor's hosted checkout. A checkout is
// created server side, the buyer pays on the hosted widget, and the resulting
// resource path is fetched back to learn the authoritative outcome.
type Datafast struct {
	httpClient *http.Client
	baseURL    string
	entityID   string
	token      string
}

// DatafastOption configures optional client behavior.
type DatafastOption func(*Datafast)

// WithDatafastHTTPClient overrides the default HTTP client.
func WithDatafastHTTPClient(client *http.Client) DatafastOption {
	return func(d *Datafast) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// NewDatafast builds the Datafast client from configuration.
func NewDatafast(cfg config.DatafastConfig, opts ...DatafastOption) (*Datafast, error) {
	if strings.TrimSpace(cfg.EntityID) == "" {
		return nil, errDatafastEntityRequired
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errDatafastTokenRequired
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Datafast{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		entityID:   strings.TrimSpace(cfg.EntityID),
		token:      strings.TrimSpace(cfg.AccessToken),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Name identifies this verifier.
func (d *Datafast) Name() enums.PaymentGateway {
	return enums.PaymentGatewayDatafast
}

// CheckoutIntent is the hosted-widget handle returned on checkout creation.
type CheckoutIntent struct {
	CheckoutID string
	WidgetURL  string
}

// CreateCheckout registers a pending charge and returns the widget handle the
// frontend renders. transactionID becomes the merchant reference at the
// gateway.
func (d *Datafast) CreateCheckout(ctx context.Context, transactionID string, amountCents int, currency string) (*CheckoutIntent, error) {
	if d == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "datafast client not configured")
	}
	if strings.TrimSpace(transactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	form := url.Values{}
	form.Set("entityId", d.entityID)
	form.Set("amount", centsToAmount(amountCents))
	form.Set("currency", currency)
	form.Set("paymentType", "DB")
	form.Set("merchantTransactionId", transactionID)

	endpoint := d.baseURL + "/v1/checkouts"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build checkout request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+d.token)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute checkout request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, datafastBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "checkout creation failed")
	}

	var apiResp struct {
		ID     string `json:"id"`
		Result struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode checkout response")
	}
	if apiResp.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "checkout response missing id").
			WithDetails(map[string]any{"result_code": apiResp.Result.Code})
	}

	return &CheckoutIntent{
		CheckoutID: apiResp.ID,
		WidgetURL:  fmt.Sprintf("%s/v1/paymentWidgets.js?checkoutId=%s", d.baseURL, url.QueryEscape(apiResp.ID)),
	}, nil
}

// Verify fetches the payment result at the resource path the widget redirect
// handed back. The response's result code decides the normalized outcome.
func (d *Datafast) Verify(ctx context.Context, ref VerificationRef) (*VerificationResult, error) {
	if d == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "datafast client not configured")
	}
	resourcePath := strings.TrimSpace(ref.ResourcePath)
	if resourcePath == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource path is required")
	}
	if !strings.HasPrefix(resourcePath, "/") {
		resourcePath = "/" + resourcePath
	}

	endpoint := fmt.Sprintf("%s%s?entityId=%s", d.baseURL, resourcePath, url.QueryEscape(d.entityID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build verify request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+d.token)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute verify request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, datafastBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "payment verification failed")
	}

	var apiResp struct {
		ID                    string `json:"id"`
		Amount                string `json:"amount"`
		Currency              string `json:"currency"`
		MerchantTransactionID string `json:"merchantTransactionId"`
		Result                struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode verify response")
	}

	amountCents, err := amountToCents(apiResp.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "parse verified amount")
	}

	return &VerificationResult{
		TransactionID:    apiResp.MerchantTransactionID,
		CheckoutID:       apiResp.ID,
		Outcome:          classifyDatafastCode(apiResp.Result.Code),
		AmountCents:      amountCents,
		Currency:         apiResp.Currency,
		ResultCode:       apiResp.Result.Code,
		ResultMessage:    apiResp.Result.Description,
		AlreadyProcessed: apiResp.Result.Code == resultCodeAlreadyProcessed,
	}, nil
}

func classifyDatafastCode(code string) Outcome {
	switch {
	case code == resultCodeAlreadyProcessed:
		// The money moved on an earlier attempt. A replayed confirmation
		// is a success, not a decline.
		return OutcomeApproved
	case datafastSuccessCode.MatchString(code):
		return OutcomeApproved
	case datafastPendingCode.MatchString(code):
		return OutcomePending
	default:
		return OutcomeDeclined
	}
}

// centsToAmount renders cents as the gateway's "129.20" decimal string.
func centsToAmount(cents int) string {
	return decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// amountToCents parses a gateway decimal string into cents.
func amountToCents(amount string) (int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return 0, nil
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, err
	}
	return int(parsed.Mul(decimal.NewFromInt(100)).Round(0).IntPart()), nil
}
