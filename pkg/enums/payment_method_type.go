package enums

import "fmt"

// PaymentMethodType selects how a payment method collects money.
type PaymentMethodType string

const (
	PaymentMethodTypeCard     PaymentMethodType = "card"
	PaymentMethodTypeManual   PaymentMethodType = "manual"
	PaymentMethodTypeExternal PaymentMethodType = "external"
	PaymentMethodTypeCrypto   PaymentMethodType = "crypto"
)

var validPaymentMethodTypes = []PaymentMethodType{
	PaymentMethodTypeCard,
	PaymentMethodTypeManual,
	PaymentMethodTypeExternal,
	PaymentMethodTypeCrypto,
}

// String implements fmt.Stringer.
func (p PaymentMethodType) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentMethodType) IsValid() bool {
	for _, candidate := range validPaymentMethodTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodType converts raw input into a PaymentMethodType.
func ParsePaymentMethodType(value string) (PaymentMethodType, error) {
	for _, candidate := range validPaymentMethodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method type %q", value)
}
