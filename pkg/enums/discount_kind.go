package enums

import "fmt"

// DiscountKind distinguishes how a discount code was earned.
type DiscountKind string

const (
	DiscountKindFeedback DiscountKind = "feedback"
	DiscountKindCoupon   DiscountKind = "coupon"
)

var validDiscountKinds = []DiscountKind{
	DiscountKindFeedback,
	DiscountKindCoupon,
}

func (d DiscountKind) String() string {
	return string(d)
}

func (d DiscountKind) IsValid() bool {
	for _, candidate := range validDiscountKinds {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountKind converts raw input into a DiscountKind.
func ParseDiscountKind(value string) (DiscountKind, error) {
	for _, candidate := range validDiscountKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount kind %q", value)
}
