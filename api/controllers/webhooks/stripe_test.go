package webhooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	stripewebhook "github.com/forgeformula/storefront-backend/internal/webhooks/stripe"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
	pkgstripe "github.com/forgeformula/storefront-backend/pkg/stripe"
)

func TestStripeWebhook_SuccessAndIdempotent(t *testing.T) {
	service := &fakeStripeWebhookService{}
	guard := newGuard(t)
	handler := StripeWebhook(service, &fakeVerifier{}, guard, logger.Nop())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, signedRequest("evt_1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d (%s)", i, rec.Code, rec.Body.String())
		}
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	service := &fakeStripeWebhookService{}
	handler := StripeWebhook(service, &fakeVerifier{err: errors.New("bad signature")}, newGuard(t), logger.Nop())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest("evt_1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	handler := StripeWebhook(&fakeStripeWebhookService{}, &fakeVerifier{}, newGuard(t), logger.Nop())
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStripeWebhook_Disabled(t *testing.T) {
	handler := StripeWebhook(&fakeStripeWebhookService{}, &fakeVerifier{err: pkgstripe.ErrWebhookDisabled}, newGuard(t), logger.Nop())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest("evt_1"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when webhooks are disabled, got %d", rec.Code)
	}

	handler = StripeWebhook(&fakeStripeWebhookService{}, nil, newGuard(t), logger.Nop())
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest("evt_1"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a verifier, got %d", rec.Code)
	}
}

func TestStripeWebhook_FailureReleasesClaim(t *testing.T) {
	service := &fakeStripeWebhookService{err: pkgerrors.New(pkgerrors.CodeInternal, "db down")}
	handler := StripeWebhook(service, &fakeVerifier{}, newGuard(t), logger.Nop())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest("evt_2"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	service.err = nil
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest("evt_2"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", rec.Code)
	}
	if service.calls != 2 {
		t.Fatalf("expected retry to reach the service, call count %d", service.calls)
	}
}

func signedRequest(eventID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader([]byte(eventID)))
	req.Header.Set("Stripe-Signature", "t=1,v1=test")
	return req
}

func newGuard(t *testing.T) *stripewebhook.IdempotencyGuard {
	t.Helper()
	guard, err := stripewebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "stripe")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

// fakeVerifier treats the body as the event id.
type fakeVerifier struct {
	err error
}

func (f *fakeVerifier) ConstructEvent(payload []byte, _ string) (*pkgstripe.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pkgstripe.Event{
		ID:      string(payload),
		Kind:    pkgstripe.EventSessionCompleted,
		Session: &pkgstripe.Session{ID: "cs_1", Status: "complete", PaymentStatus: "paid"},
	}, nil
}

type fakeStripeWebhookService struct {
	calls int
	err   error
}

func (f *fakeStripeWebhookService) HandleEvent(context.Context, *pkgstripe.Event) error {
	f.calls++
	return f.err
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) WebhookEventKey(provider, eventID string) string {
	return fmt.Sprintf("sf:webhook:%s:%s", provider, eventID)
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
