package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// EventKind is the subset of webhook events the storefront reacts to.
type EventKind string

const (
	EventSessionCompleted EventKind = "checkout.session.completed"
	EventSessionExpired   EventKind = "checkout.session.expired"
)

// Event is a verified webhook delivery.
type Event struct {
	ID      string
	Kind    EventKind
	Session *Session
}

// ConstructEvent verifies the signature header and decodes checkout session
// payloads. Events of other types come back with a nil Session.
func (c *Client) ConstructEvent(payload []byte, signature string) (*Event, error) {
	if c.SigningSecret() == "" {
		return nil, ErrWebhookDisabled
	}
	raw, err := webhook.ConstructEventWithOptions(payload, signature, c.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify stripe signature: %w", err)
	}

	event := &Event{ID: raw.ID, Kind: EventKind(raw.Type)}
	switch event.Kind {
	case EventSessionCompleted, EventSessionExpired:
		if raw.Data == nil {
			return nil, fmt.Errorf("stripe event %s has no data", raw.ID)
		}
		var s stripe.CheckoutSession
		if err := json.Unmarshal(raw.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		event.Session = toSession(&s)
	}
	return event, nil
}
