package paymentmethods

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forgeformula/storefront-backend/pkg/db"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
)

// Service is the admin-managed registry of payment options.
type Service interface {
	ListEnabled(ctx context.Context) ([]models.PaymentMethod, error)
	ListAll(ctx context.Context) ([]models.PaymentMethod, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	GetByProviderKey(ctx context.Context, key string) (*models.PaymentMethod, error)
	Create(ctx context.Context, input CreateInput) (*models.PaymentMethod, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.PaymentMethod, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput is a validated create payload. Enabled defaults to true.
type CreateInput struct {
	Name         string
	Type         enums.PaymentMethodType
	Enabled      *bool
	Description  string
	Instructions string
	Icon         string
	FeeNote      string
	SortOrder    int
	ProviderKey  string
	Details      models.PaymentMethodDetails
}

// UpdateInput applies only the non-nil fields.
type UpdateInput struct {
	Name         *string
	Type         *enums.PaymentMethodType
	Enabled      *bool
	Description  *string
	Instructions *string
	Icon         *string
	FeeNote      *string
	SortOrder    *int
	ProviderKey  *string
	Details      *models.PaymentMethodDetails
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment methods repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) ListEnabled(ctx context.Context) ([]models.PaymentMethod, error) {
	methods, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment methods")
	}
	return methods, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.PaymentMethod, error) {
	methods, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment methods")
	}
	return methods, nil
}

// Get returns the method regardless of whether it is enabled.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	method, err := s.repo.FindByID(ctx, id)
	return method, mapLookupError(err)
}

func (s *service) GetByProviderKey(ctx context.Context, key string) (*models.PaymentMethod, error) {
	method, err := s.repo.FindByProviderKey(ctx, normalizeKey(key))
	return method, mapLookupError(err)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PaymentMethod, error) {
	method := &models.PaymentMethod{
		Name:         strings.TrimSpace(input.Name),
		Type:         input.Type,
		Enabled:      true,
		Description:  strings.TrimSpace(input.Description),
		Instructions: strings.TrimSpace(input.Instructions),
		Icon:         strings.TrimSpace(input.Icon),
		FeeNote:      strings.TrimSpace(input.FeeNote),
		SortOrder:    input.SortOrder,
		ProviderKey:  normalizeKey(input.ProviderKey),
		Details:      input.Details,
	}
	if input.Enabled != nil {
		method.Enabled = *input.Enabled
	}
	if err := validateMethod(method); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, method); err != nil {
		return nil, mapWriteError(err, method.ProviderKey)
	}
	s.logg.Info(s.logg.WithField(ctx, "provider_key", method.ProviderKey), "payment_methods.created")
	return method, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.PaymentMethod, error) {
	method, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		method.Name = strings.TrimSpace(*input.Name)
	}
	if input.Type != nil {
		method.Type = *input.Type
	}
	if input.Enabled != nil {
		method.Enabled = *input.Enabled
	}
	if input.Description != nil {
		method.Description = strings.TrimSpace(*input.Description)
	}
	if input.Instructions != nil {
		method.Instructions = strings.TrimSpace(*input.Instructions)
	}
	if input.Icon != nil {
		method.Icon = strings.TrimSpace(*input.Icon)
	}
	if input.FeeNote != nil {
		method.FeeNote = strings.TrimSpace(*input.FeeNote)
	}
	if input.SortOrder != nil {
		method.SortOrder = *input.SortOrder
	}
	if input.ProviderKey != nil {
		method.ProviderKey = normalizeKey(*input.ProviderKey)
	}
	if input.Details != nil {
		method.Details = *input.Details
	}

	if err := validateMethod(method); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, method); err != nil {
		return nil, mapWriteError(err, method.ProviderKey)
	}
	s.logg.Info(s.logg.WithField(ctx, "provider_key", method.ProviderKey), "payment_methods.updated")
	return method, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete payment method")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
	}
	return nil
}

func validateMethod(m *models.PaymentMethod) error {
	details := map[string]string{}
	if m.Name == "" {
		details["name"] = "is required"
	}
	if m.ProviderKey == "" {
		details["providerKey"] = "is required"
	}
	if !m.Type.IsValid() {
		details["type"] = "must be one of card, manual, external, crypto"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func mapLookupError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment method")
}

func mapWriteError(err error, key string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "provider key already in use").
			WithDetails(map[string]any{"providerKey": key})
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save payment method")
}
