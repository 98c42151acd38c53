package stripewebhook

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/forgeformula/storefront-backend/pkg/db/models"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
	pkgstripe "github.com/forgeformula/storefront-backend/pkg/stripe"
)

type orderUpdater interface {
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID) error
	CancelUnpaid(ctx context.Context, orderID uuid.UUID) error
}

type ServiceParams struct {
	Orders orderUpdater
	Logger *logger.Logger
}

// Service applies checkout session events to orders.
type Service struct {
	orders orderUpdater
	logg   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order updater required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{orders: params.Orders, logg: logg}, nil
}

// HandleEvent returns nil for events that need no action, including those for
// sessions without a matching order, so the processor stops redelivering them.
func (s *Service) HandleEvent(ctx context.Context, event *pkgstripe.Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}
	ctx = s.logg.WithField(ctx, "stripe_event_id", event.ID)

	switch event.Kind {
	case pkgstripe.EventSessionCompleted:
		if event.Session == nil || !event.Session.Paid() {
			return nil
		}
		order, err := s.resolveOrder(ctx, event.Session)
		if err != nil || order == nil {
			return err
		}
		if err := s.orders.MarkPaid(ctx, order.ID); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "stripe.session_paid")
	case pkgstripe.EventSessionExpired:
		if event.Session == nil {
			return nil
		}
		order, err := s.resolveOrder(ctx, event.Session)
		if err != nil || order == nil {
			return err
		}
		err = s.orders.CancelUnpaid(ctx, order.ID)
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			// paid before the expiry landed
			return nil
		}
		if err != nil {
			return fmt.Errorf("cancel unpaid order: %w", err)
		}
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "stripe.session_expired")
	}
	return nil
}

// resolveOrder returns nil, nil when no order matches the session.
func (s *Service) resolveOrder(ctx context.Context, session *pkgstripe.Session) (*models.Order, error) {
	order, err := s.orders.FindBySessionID(ctx, session.ID)
	if err == nil {
		if session.Reference != "" && order.ID.String() != session.Reference {
			s.logg.Warn(ctx, "stripe.session_reference_mismatch")
		}
		return order, nil
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		s.logg.Warn(s.logg.WithField(ctx, "session_id", session.ID), "stripe.session_without_order")
		return nil, nil
	}
	return nil, err
}
