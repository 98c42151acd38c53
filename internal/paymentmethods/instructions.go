package paymentmethods

import (
	"encoding/json"

	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
)

// Instructions tells the customer how to complete payment after placing an
// order. The concrete type follows the method type.
type Instructions interface {
	Kind() enums.PaymentMethodType
}

// CardInstructions has nothing to render; the hosted checkout collects payment.
type CardInstructions struct {
	Text string `json:"text,omitempty"`
}

type ManualInstructions struct {
	Text    string `json:"text,omitempty"`
	Account string `json:"account,omitempty"`
	Memo    string `json:"memo,omitempty"`
}

type CryptoInstructions struct {
	Text    string `json:"text,omitempty"`
	Address string `json:"address,omitempty"`
	Network string `json:"network,omitempty"`
}

type ExternalInstructions struct {
	Text         string `json:"text,omitempty"`
	RedirectHint string `json:"redirectHint,omitempty"`
}

func (CardInstructions) Kind() enums.PaymentMethodType     { return enums.PaymentMethodTypeCard }
func (ManualInstructions) Kind() enums.PaymentMethodType   { return enums.PaymentMethodTypeManual }
func (CryptoInstructions) Kind() enums.PaymentMethodType   { return enums.PaymentMethodTypeCrypto }
func (ExternalInstructions) Kind() enums.PaymentMethodType { return enums.PaymentMethodTypeExternal }

func (i CardInstructions) MarshalJSON() ([]byte, error) {
	type plain CardInstructions
	return json.Marshal(struct {
		Kind enums.PaymentMethodType `json:"kind"`
		plain
	}{i.Kind(), plain(i)})
}

func (i ManualInstructions) MarshalJSON() ([]byte, error) {
	type plain ManualInstructions
	return json.Marshal(struct {
		Kind enums.PaymentMethodType `json:"kind"`
		plain
	}{i.Kind(), plain(i)})
}

func (i CryptoInstructions) MarshalJSON() ([]byte, error) {
	type plain CryptoInstructions
	return json.Marshal(struct {
		Kind enums.PaymentMethodType `json:"kind"`
		plain
	}{i.Kind(), plain(i)})
}

func (i ExternalInstructions) MarshalJSON() ([]byte, error) {
	type plain ExternalInstructions
	return json.Marshal(struct {
		Kind enums.PaymentMethodType `json:"kind"`
		plain
	}{i.Kind(), plain(i)})
}

// InstructionsFor resolves the variant for a stored method.
func InstructionsFor(m models.PaymentMethod) Instructions {
	switch m.Type {
	case enums.PaymentMethodTypeManual:
		return ManualInstructions{Text: m.Instructions, Account: m.Details.Account, Memo: m.Details.Memo}
	case enums.PaymentMethodTypeCrypto:
		return CryptoInstructions{Text: m.Instructions, Address: m.Details.Address, Network: m.Details.Network}
	case enums.PaymentMethodTypeExternal:
		return ExternalInstructions{Text: m.Instructions, RedirectHint: m.Details.RedirectHint}
	default:
		return CardInstructions{Text: m.Instructions}
	}
}
