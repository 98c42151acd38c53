package stripe

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

type fakeSessions struct {
	newCalls int
	getCalls int
	errs     []error
	last     *stripe.CheckoutSessionParams
}

func (f *fakeSessions) next() error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.newCalls++
	f.last = params
	if err := f.next(); err != nil {
		return nil, err
	}
	return &stripe.CheckoutSession{
		ID:                "cs_test_1",
		URL:               "https://checkout.stripe.test/cs_test_1",
		ClientReferenceID: *params.ClientReferenceID,
		Status:            stripe.CheckoutSessionStatusOpen,
		PaymentStatus:     stripe.CheckoutSessionPaymentStatusUnpaid,
	}, nil
}

func (f *fakeSessions) Get(id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.getCalls++
	if err := f.next(); err != nil {
		return nil, err
	}
	return &stripe.CheckoutSession{ID: id, PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid, Status: stripe.CheckoutSessionStatusComplete}, nil
}

func testClient(f *fakeSessions) *Client {
	c := newClient(f, testEnv, "whsec_test", "USD")
	c.retryBackoff = time.Millisecond
	return c
}

func sampleRequest() SessionRequest {
	return SessionRequest{
		Reference:     "order-1",
		CustomerEmail: "ada@example.com",
		SuccessURL:    "https://shop.test/success",
		CancelURL:     "https://shop.test/cancel",
		LineItems:     []LineItem{{Name: "Widget", UnitAmountCent: 1999, Quantity: 3, ImageURL: "https://img.test/w.png"}},
	}
}

func TestCreateCheckoutSessionBuildsParams(t *testing.T) {
	f := &fakeSessions{}
	s, err := testClient(f).CreateCheckoutSession(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.URL == "" || s.Reference != "order-1" {
		t.Fatalf("unexpected session %+v", s)
	}
	item := f.last.LineItems[0]
	if *item.Quantity != 3 || *item.PriceData.UnitAmount != 1999 || *item.PriceData.Currency != "usd" {
		t.Fatalf("unexpected line item %+v", item.PriceData)
	}
	if *f.last.Mode != string(stripe.CheckoutSessionModePayment) {
		t.Fatalf("expected payment mode")
	}
	if f.last.IdempotencyKey == nil || *f.last.IdempotencyKey != "checkout-order-1" {
		t.Fatalf("expected idempotency key derived from reference")
	}
}

func TestCreateCheckoutSessionRetriesTransientOnce(t *testing.T) {
	f := &fakeSessions{errs: []error{
		&stripe.Error{HTTPStatusCode: http.StatusServiceUnavailable},
		&stripe.Error{HTTPStatusCode: http.StatusServiceUnavailable},
	}}
	_, err := testClient(f).CreateCheckoutSession(context.Background(), sampleRequest())
	if err == nil {
		t.Fatalf("expected failure after one retry")
	}
	if f.newCalls != 2 {
		t.Fatalf("expected exactly two attempts, got %d", f.newCalls)
	}

	f = &fakeSessions{errs: []error{errors.New("connection reset")}}
	if _, err := testClient(f).CreateCheckoutSession(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("second attempt should succeed: %v", err)
	}
	if f.newCalls != 2 {
		t.Fatalf("expected retry after network error, got %d calls", f.newCalls)
	}
}

func TestCreateCheckoutSessionDoesNotRetryClientErrors(t *testing.T) {
	f := &fakeSessions{errs: []error{&stripe.Error{HTTPStatusCode: http.StatusBadRequest}}}
	if _, err := testClient(f).CreateCheckoutSession(context.Background(), sampleRequest()); err == nil {
		t.Fatalf("expected error")
	}
	if f.newCalls != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", f.newCalls)
	}
}

func TestCreateCheckoutSessionValidates(t *testing.T) {
	c := testClient(&fakeSessions{})
	req := sampleRequest()
	req.LineItems = nil
	if _, err := c.CreateCheckoutSession(context.Background(), req); err == nil {
		t.Fatalf("expected empty line items to fail")
	}
	req = sampleRequest()
	req.Reference = ""
	if _, err := c.CreateCheckoutSession(context.Background(), req); err == nil {
		t.Fatalf("expected missing reference to fail")
	}
	var nilClient *Client
	if _, err := nilClient.GetCheckoutSession(context.Background(), "cs"); err == nil {
		t.Fatalf("nil client should fail")
	}
}

func TestGetCheckoutSessionPaid(t *testing.T) {
	s, err := testClient(&fakeSessions{}).GetCheckoutSession(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !s.Paid() || s.Expired() {
		t.Fatalf("expected paid session, got %+v", s)
	}
}

func TestConstructEvent(t *testing.T) {
	c := testClient(&fakeSessions{})
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","client_reference_id":"order-1","payment_status":"paid","status":"complete"}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	event, err := c.ConstructEvent(signed.Payload, signed.Header)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if event.Kind != EventSessionCompleted || event.Session == nil || event.Session.Reference != "order-1" || !event.Session.Paid() {
		t.Fatalf("unexpected event %+v", event)
	}

	if _, err := c.ConstructEvent(payload, "t=1,v1=bad"); err == nil {
		t.Fatalf("expected bad signature to fail")
	}

	noSecret := newClient(&fakeSessions{}, testEnv, "", "usd")
	if _, err := noSecret.ConstructEvent(signed.Payload, signed.Header); !errors.Is(err, ErrWebhookDisabled) {
		t.Fatalf("expected ErrWebhookDisabled, got %v", err)
	}
}

func TestValidateAPIKey(t *testing.T) {
	if err := validateAPIKey(testEnv, "sk_live_1"); err == nil {
		t.Fatalf("live key in test env should fail")
	}
	if err := validateAPIKey(liveEnv, "sk_live_1"); err != nil {
		t.Fatalf("live key in live env should pass: %v", err)
	}
	if _, err := normalizeEnv("staging"); err == nil {
		t.Fatalf("unknown env should fail")
	}
}
