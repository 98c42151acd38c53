package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sethvargo/go-retry"
	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
)

// sessionAPI is the slice of the SDK used here; tests substitute a fake.
type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type sdkSessions struct{}

func (sdkSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return checkoutsession.New(params)
}

func (sdkSessions) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return checkoutsession.Get(id, params)
}

// LineItem is one row on the hosted checkout page.
type LineItem struct {
	Name           string
	UnitAmountCent int64
	Quantity       int64
	ImageURL       string
}

// SessionRequest describes a hosted checkout session to open.
type SessionRequest struct {
	// Reference is echoed back as client_reference_id and doubles as the
	// idempotency key so a retried create cannot open two sessions.
	Reference     string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	LineItems     []LineItem
	Metadata      map[string]string
}

// Session is the provider-agnostic view of a checkout session.
type Session struct {
	ID            string
	URL           string
	Reference     string
	Status        string
	PaymentStatus string
}

// Paid reports whether the customer completed payment.
func (s Session) Paid() bool {
	return s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid)
}

// Expired reports whether the session can no longer be paid.
func (s Session) Expired() bool {
	return s.Status == string(stripe.CheckoutSessionStatusExpired)
}

// CreateCheckoutSession opens a payment-mode session.
func (c *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if c == nil || c.sessions == nil {
		return nil, errAPIKeyRequired
	}
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("checkout session needs at least one line item")
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, fmt.Errorf("checkout session reference is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.Reference),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, item := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{item.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(c.currency),
				UnitAmount:  stripe.Int64(item.UnitAmountCent),
				ProductData: product,
			},
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	params.SetIdempotencyKey("checkout-" + req.Reference)

	var out *stripe.CheckoutSession
	err := c.withRetry(ctx, func() error {
		created, err := c.sessions.New(params)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return toSession(out), nil
}

// GetCheckoutSession looks a session up by id.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*Session, error) {
	if c == nil || c.sessions == nil {
		return nil, errAPIKeyRequired
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	var out *stripe.CheckoutSession
	err := c.withRetry(ctx, func() error {
		got, err := c.sessions.Get(id, params)
		if err != nil {
			return err
		}
		out = got
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return toSession(out), nil
}

// IsNotFound reports whether err is Stripe's "no such resource" response.
func IsNotFound(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound
}

// withRetry runs fn and retries it once when the failure looks transient.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(c.retryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn()
		if err != nil && transient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// transient treats transport failures, rate limiting and 5xx as retryable.
func transient(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return true
	}
	return stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= http.StatusInternalServerError
}

func toSession(s *stripe.CheckoutSession) *Session {
	if s == nil {
		return nil
	}
	return &Session{
		ID:            s.ID,
		URL:           s.URL,
		Reference:     s.ClientReferenceID,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
	}
}
