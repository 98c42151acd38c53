package paymentmethods

import (
	"time"

	"github.com/google/uuid"

	"github.com/forgeformula/storefront-backend/pkg/db/models"
)

// PublicDTO is what shoppers see at checkout.
type PublicDTO struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	Description  string       `json:"description,omitempty"`
	Icon         string       `json:"icon,omitempty"`
	FeeNote      string       `json:"feeNote,omitempty"`
	ProviderKey  string       `json:"providerKey"`
	Instructions Instructions `json:"instructions"`
}

// AdminDTO adds the raw, editable fields.
type AdminDTO struct {
	PublicDTO
	Enabled          bool                        `json:"enabled"`
	SortOrder        int                         `json:"sortOrder"`
	InstructionsText string                      `json:"instructionsText,omitempty"`
	Details          models.PaymentMethodDetails `json:"details"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

func NewPublicDTO(m models.PaymentMethod) PublicDTO {
	return PublicDTO{
		ID:           m.ID,
		Name:         m.Name,
		Type:         m.Type.String(),
		Description:  m.Description,
		Icon:         m.Icon,
		FeeNote:      m.FeeNote,
		ProviderKey:  m.ProviderKey,
		Instructions: InstructionsFor(m),
	}
}

func NewAdminDTO(m models.PaymentMethod) AdminDTO {
	return AdminDTO{
		PublicDTO:        NewPublicDTO(m),
		Enabled:          m.Enabled,
		SortOrder:        m.SortOrder,
		InstructionsText: m.Instructions,
		Details:          m.Details,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func NewPublicDTOs(methods []models.PaymentMethod) []PublicDTO {
	out := make([]PublicDTO, 0, len(methods))
	for _, m := range methods {
		out = append(out, NewPublicDTO(m))
	}
	return out
}

func NewAdminDTOs(methods []models.PaymentMethod) []AdminDTO {
	out := make([]AdminDTO, 0, len(methods))
	for _, m := range methods {
		out = append(out, NewAdminDTO(m))
	}
	return out
}
