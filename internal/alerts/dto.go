package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
)

// CreateCustomInput is the request shape for a user-authored alert.
type CreateCustomInput struct {
	Title       string      `json:"title" validate:"required,notblank,max=200"`
	Description string      `json:"description" validate:"max=2000"`
	FireAt      *time.Time  `json:"fire_at"`
	UserIDs     []uuid.UUID `json:"user_ids" validate:"required,min=1"`
	ProductIDs  []uuid.UUID `json:"product_ids"`
	CreatedBy   *uuid.UUID  `json:"-"`
}

// UpdateCustomInput patches a custom alert; nil fields are left unchanged.
type UpdateCustomInput struct {
	Title       *string      `json:"title" validate:"omitempty,max=200"`
	Description *string      `json:"description" validate:"omitempty,max=2000"`
	FireAt      *time.Time   `json:"fire_at"`
	UserIDs     *[]uuid.UUID `json:"user_ids"`
	ProductIDs  *[]uuid.UUID `json:"product_ids"`
}

// ListParams filters the alert listing.
type ListParams struct {
	Kind   *enums.AlertKind
	Active *bool
}

// AlertDTO is the read shape of an alert.
type AlertDTO struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Kind        enums.AlertKind `json:"kind"`
	FireAt      *time.Time      `json:"fire_at,omitempty"`
	Active      bool            `json:"active"`
	CreatorRead bool            `json:"creator_read"`
	CreatedBy   *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UserIDs     []uuid.UUID     `json:"user_ids"`
	ProductIDs  []uuid.UUID     `json:"product_ids"`
}

// FromModel maps a loaded alert to its DTO.
func FromModel(a *models.Alert) AlertDTO {
	productIDs := make([]uuid.UUID, 0, len(a.Products))
	for _, p := range a.Products {
		productIDs = append(productIDs, p.ID)
	}
	return AlertDTO{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Kind:        a.Kind,
		FireAt:      a.FireAt,
		Active:      a.Active,
		CreatorRead: a.CreatorRead,
		CreatedBy:   a.CreatedByID,
		CreatedAt:   a.CreatedAt,
		UserIDs:     a.UserIDs(),
		ProductIDs:  productIDs,
	}
}
