package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/shelfwatch-backend/internal/expiry"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
)

func TestBuildViewFlattensAssociations(t *testing.T) {
	reason := "damage"
	inspector := "Ana"
	item := models.InventoryItem{
		ID:               uuid.New(),
		ProductID:        uuid.New(),
		Lot:              "L-01",
		UnitPrice:        decimal.RequireFromString("3.50"),
		ExpiresAt:        at(testNow.Add(-time.Hour)),
		Inspected:        true,
		InspectionReason: &reason,
		InspectedBy:      &inspector,
		Product: &models.Product{
			Description: "Iogurte",
			Brand:       "Acme",
			Barcode:     "123",
			Unit:        "un",
			Category:    &models.Category{Name: "Laticínios", Aisle: &models.Aisle{Name: "A1"}},
			Suppliers:   []models.Supplier{{Name: "Primeiro"}, {Name: "Segundo"}},
		},
	}

	v := BuildView(item, expiry.Classifier{}, testNow)

	assert.Equal(t, "Iogurte", v.Description)
	assert.Equal(t, "Laticínios", v.Category)
	assert.Equal(t, "A1", v.Aisle)
	assert.Equal(t, "Primeiro", v.Supplier)
	assert.Equal(t, enums.ExpiryBucketExpired, v.Status)
	assert.Equal(t, "damage", v.InspectionReason)
	assert.Equal(t, "Ana", v.InspectedBy)
}

func TestBuildViewDegradesMissingAssociations(t *testing.T) {
	item := models.InventoryItem{ID: uuid.New(), Product: &models.Product{Description: "Pão"}}

	v := BuildView(item, expiry.Classifier{}, testNow)

	assert.Equal(t, "Pão", v.Description)
	assert.Empty(t, v.Category)
	assert.Empty(t, v.Aisle)
	assert.Empty(t, v.Supplier)
	assert.Empty(t, v.Status)

	bare := BuildView(models.InventoryItem{ID: uuid.New()}, expiry.Classifier{}, testNow)
	assert.Empty(t, bare.Description)
}
