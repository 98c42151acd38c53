package stripewebhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	pkgstripe "github.com/forgeformula/storefront-backend/pkg/stripe"
)

type stubOrders struct {
	orders    map[string]*models.Order
	findErr   error
	cancelErr error
	paid      []uuid.UUID
	cancelled []uuid.UUID
}

func (s *stubOrders) FindBySessionID(_ context.Context, id string) (*models.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrders) MarkPaid(_ context.Context, id uuid.UUID) error {
	s.paid = append(s.paid, id)
	return nil
}

func (s *stubOrders) CancelUnpaid(_ context.Context, id uuid.UUID) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.cancelled = append(s.cancelled, id)
	return nil
}

func newStubOrders() (*stubOrders, *models.Order) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending}
	return &stubOrders{orders: map[string]*models.Order{"cs_1": order}}, order
}

func mustService(t *testing.T, orders orderUpdater) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Orders: orders})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func TestHandleEventCompletedMarksPaid(t *testing.T) {
	orders, order := newStubOrders()
	svc := mustService(t, orders)

	event := &pkgstripe.Event{
		ID:      "evt_1",
		Kind:    pkgstripe.EventSessionCompleted,
		Session: &pkgstripe.Session{ID: "cs_1", Reference: order.ID.String(), Status: "complete", PaymentStatus: "paid"},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(orders.paid) != 1 || orders.paid[0] != order.ID {
		t.Fatalf("expected order marked paid, got %v", orders.paid)
	}
}

func TestHandleEventCompletedButUnpaidIsIgnored(t *testing.T) {
	orders, _ := newStubOrders()
	svc := mustService(t, orders)

	event := &pkgstripe.Event{
		ID:      "evt_2",
		Kind:    pkgstripe.EventSessionCompleted,
		Session: &pkgstripe.Session{ID: "cs_1", Status: "complete", PaymentStatus: "unpaid"},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(orders.paid) != 0 {
		t.Fatalf("unpaid session must not settle the order")
	}
}

func TestHandleEventExpiredCancels(t *testing.T) {
	orders, order := newStubOrders()
	svc := mustService(t, orders)

	event := &pkgstripe.Event{ID: "evt_3", Kind: pkgstripe.EventSessionExpired, Session: &pkgstripe.Session{ID: "cs_1", Status: "expired"}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(orders.cancelled) != 1 || orders.cancelled[0] != order.ID {
		t.Fatalf("expected order cancelled, got %v", orders.cancelled)
	}
}

func TestHandleEventExpiredAfterPaymentIsIgnored(t *testing.T) {
	orders, _ := newStubOrders()
	orders.cancelErr = pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")
	svc := mustService(t, orders)

	event := &pkgstripe.Event{ID: "evt_4", Kind: pkgstripe.EventSessionExpired, Session: &pkgstripe.Session{ID: "cs_1"}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected state conflict to be swallowed, got %v", err)
	}
}

func TestHandleEventUnknownSessionAcknowledged(t *testing.T) {
	orders, _ := newStubOrders()
	svc := mustService(t, orders)

	event := &pkgstripe.Event{ID: "evt_5", Kind: pkgstripe.EventSessionCompleted, Session: &pkgstripe.Session{ID: "cs_missing", PaymentStatus: "paid"}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(orders.paid) != 0 {
		t.Fatalf("no order should be touched")
	}
}

func TestHandleEventSurfacesLookupFailures(t *testing.T) {
	orders, _ := newStubOrders()
	orders.findErr = errors.New("db down")
	svc := mustService(t, orders)

	event := &pkgstripe.Event{ID: "evt_6", Kind: pkgstripe.EventSessionCompleted, Session: &pkgstripe.Session{ID: "cs_1", PaymentStatus: "paid"}}
	if err := svc.HandleEvent(context.Background(), event); err == nil {
		t.Fatalf("expected lookup failure to be returned for redelivery")
	}
}

func TestHandleEventIgnoresOtherKinds(t *testing.T) {
	orders, _ := newStubOrders()
	svc := mustService(t, orders)

	if err := svc.HandleEvent(context.Background(), &pkgstripe.Event{ID: "evt_7", Kind: "invoice.paid"}); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), nil); err == nil {
		t.Fatalf("expected nil event to be rejected")
	}
}

type memoryEventStore struct {
	keys map[string]struct{}
}

func (m *memoryEventStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *memoryEventStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func (m *memoryEventStore) WebhookEventKey(provider, eventID string) string {
	return "webhook:" + provider + ":" + eventID
}

func TestIdempotencyGuard(t *testing.T) {
	store := &memoryEventStore{keys: map[string]struct{}{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil || seen {
		t.Fatalf("first delivery should be fresh, seen=%v err=%v", seen, err)
	}
	seen, _ = guard.CheckAndMark(ctx, "evt_1")
	if !seen {
		t.Fatalf("redelivery should be detected")
	}
	if err := guard.Delete(ctx, "evt_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seen, _ = guard.CheckAndMark(ctx, "evt_1")
	if seen {
		t.Fatalf("released event should be processed again")
	}
	if _, err := guard.CheckAndMark(ctx, ""); err == nil {
		t.Fatalf("expected empty event id to fail")
	}
	if _, err := NewIdempotencyGuard(nil, time.Hour, "stripe"); err == nil {
		t.Fatalf("expected nil store to be rejected")
	}
}
