package gateway

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/config"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestDatafast(t *testing.T, rt roundTripFunc) *Datafast {
	t.Helper()
	client, err := NewDatafast(config.DatafastConfig{
		BaseURL:     "http://datafast.test",
		EntityID:    "entity-1",
		AccessToken: "token-1",
	}, WithDatafastHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	return client
}

func TestDatafastCreateCheckout(t *testing.T) {
	var capturedForm url.Values
	var capturedAuth string
	client := newTestDatafast(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/checkouts" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		capturedAuth = req.Header.Get("Authorization")
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		capturedForm, err = url.ParseQuery(string(body))
		if err != nil {
			t.Fatalf("parse form: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"id":"chk_123","result":{"code":"000.200.100","description":"created"}}`), nil
	})

	intent, err := client.CreateCheckout(context.Background(), "txn-1", 12920, "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.CheckoutID != "chk_123" {
		t.Fatalf("unexpected checkout id %s", intent.CheckoutID)
	}
	if !strings.Contains(intent.WidgetURL, "checkoutId=chk_123") {
		t.Fatalf("widget url missing checkout id: %s", intent.WidgetURL)
	}
	if capturedAuth != "Bearer token-1" {
		t.Fatalf("unexpected auth header %q", capturedAuth)
	}
	if capturedForm.Get("amount") != "129.20" {
		t.Fatalf("expected amount 129.20, got %q", capturedForm.Get("amount"))
	}
	if capturedForm.Get("merchantTransactionId") != "txn-1" {
		t.Fatalf("expected merchant reference txn-1, got %q", capturedForm.Get("merchantTransactionId"))
	}
	if capturedForm.Get("entityId") != "entity-1" {
		t.Fatalf("expected entity id forwarded, got %q", capturedForm.Get("entityId"))
	}
}

func TestDatafastVerifyApproved(t *testing.T) {
	var capturedURL string
	client := newTestDatafast(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return jsonResponse(http.StatusOK, `{
			"id":"pay_9",
			"amount":"129.20",
			"currency":"USD",
			"merchantTransactionId":"txn-1",
			"result":{"code":"000.000.000","description":"Transaction succeeded"}
		}`), nil
	})

	result, err := client.Verify(context.Background(), VerificationRef{ResourcePath: "/v1/checkouts/chk_123/payment"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Approved() {
		t.Fatalf("expected approved outcome, got %s", result.Outcome)
	}
	if result.AmountCents != 12920 {
		t.Fatalf("expected amount 12920, got %d", result.AmountCents)
	}
	if result.TransactionID != "txn-1" {
		t.Fatalf("expected merchant reference txn-1, got %s", result.TransactionID)
	}
	if !strings.Contains(capturedURL, "entityId=entity-1") {
		t.Fatalf("verify url missing entity id: %s", capturedURL)
	}
}

func TestDatafastVerifyGatewayDown(t *testing.T) {
	client := newTestDatafast(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusServiceUnavailable, `{"error":"maintenance"}`), nil
	})

	_, err := client.Verify(context.Background(), VerificationRef{ResourcePath: "/v1/checkouts/chk_123/payment"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestClassifyDatafastCode(t *testing.T) {
	cases := []struct {
		code    string
		outcome Outcome
	}{
		{"000.000.000", OutcomeApproved},
		{"000.100.110", OutcomeApproved},
		{"000.300.000", OutcomeApproved},
		{"000.600.000", OutcomeApproved},
		{"000.200.000", OutcomePending},
		{"700.400.110", OutcomeApproved},
		{"800.100.153", OutcomeDeclined},
		{"100.396.101", OutcomeDeclined},
		{"", OutcomeDeclined},
	}
	for _, tc := range cases {
		if got := classifyDatafastCode(tc.code); got != tc.outcome {
			t.Fatalf("code %q: expected %s, got %s", tc.code, tc.outcome, got)
		}
	}
}

func TestDatafastAlreadyProcessedFlag(t *testing.T) {
	client := newTestDatafast(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{
			"id":"pay_9",
			"amount":"129.20",
			"currency":"USD",
			"merchantTransactionId":"txn-1",
			"result":{"code":"700.400.110","description":"already processed"}
		}`), nil
	})

	result, err := client.Verify(context.Background(), VerificationRef{ResourcePath: "/v1/checkouts/chk_123/payment"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.AlreadyProcessed {
		t.Fatal("expected already-processed flag")
	}
	if !result.Approved() {
		t.Fatal("already captured payment must verify as approved")
	}
}

func TestAmountConversions(t *testing.T) {
	if got := centsToAmount(12920); got != "129.20" {
		t.Fatalf("expected 129.20, got %s", got)
	}
	if got := centsToAmount(5); got != "0.05" {
		t.Fatalf("expected 0.05, got %s", got)
	}
	cents, err := amountToCents("129.20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cents != 12920 {
		t.Fatalf("expected 12920, got %d", cents)
	}
	if _, err := amountToCents("not-a-number"); err == nil {
		t.Fatal("expected parse error")
	}
}
