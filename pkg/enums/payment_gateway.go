package enums

import "fmt"

// PaymentGateway identifies the external processor behind a payment attempt.
type PaymentGateway string

const (
	PaymentGatewayDatafast PaymentGateway = "datafast"
	PaymentGatewayDeUna    PaymentGateway = "deuna"
)

var validPaymentGateways = []PaymentGateway{
	PaymentGatewayDatafast,
	PaymentGatewayDeUna,
}

func (g PaymentGateway) String() string {
	return string(g)
}

func (g PaymentGateway) IsValid() bool {
	for _, candidate := range validPaymentGateways {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParsePaymentGateway converts raw input into a PaymentGateway.
func ParsePaymentGateway(value string) (PaymentGateway, error) {
	for _, candidate := range validPaymentGateways {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment gateway %q", value)
}
