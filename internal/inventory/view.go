package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shelfwatch-backend/internal/expiry"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
)

// View is the flattened display record of one inventory item.
type View struct {
	ItemID           uuid.UUID          `json:"item_id"`
	ProductID        uuid.UUID          `json:"product_id"`
	Description      string             `json:"description"`
	Brand            string             `json:"brand"`
	Barcode          string             `json:"barcode"`
	Unit             string             `json:"unit"`
	Category         string             `json:"category"`
	Aisle            string             `json:"aisle"`
	Supplier         string             `json:"supplier"`
	Lot              string             `json:"lot"`
	UnitPrice        decimal.Decimal    `json:"unit_price"`
	ManufacturedAt   *time.Time         `json:"manufactured_at,omitempty"`
	ExpiresAt        *time.Time         `json:"expires_at,omitempty"`
	ReceivedAt       *time.Time         `json:"received_at,omitempty"`
	Status           enums.ExpiryBucket `json:"status"`
	Inspected        bool               `json:"inspected"`
	InspectionReason string             `json:"inspection_reason"`
	InspectedBy      string             `json:"inspected_by"`
	InspectedAt      *time.Time         `json:"inspected_at,omitempty"`
}

// BuildView projects item into a View classified against now. Missing associations
// become empty strings.
func BuildView(item models.InventoryItem, classifier expiry.Classifier, now time.Time) View {
	v := View{
		ItemID:         item.ID,
		ProductID:      item.ProductID,
		Lot:            item.Lot,
		UnitPrice:      item.UnitPrice,
		ManufacturedAt: item.ManufacturedAt,
		ExpiresAt:      item.ExpiresAt,
		ReceivedAt:     item.ReceivedAt,
		Status:         classifier.ClassifyPtr(item.ExpiresAt, now),
		Inspected:      item.Inspected,
		InspectedAt:    item.InspectedAt,
	}
	if item.InspectionReason != nil {
		v.InspectionReason = *item.InspectionReason
	}
	if item.InspectedBy != nil {
		v.InspectedBy = *item.InspectedBy
	}

	product := item.Product
	if product == nil {
		return v
	}
	v.Description = product.Description
	v.Brand = product.Brand
	v.Barcode = product.Barcode
	v.Unit = product.Unit
	if product.Category != nil {
		v.Category = product.Category.Name
		if product.Category.Aisle != nil {
			v.Aisle = product.Category.Aisle.Name
		}
	}
	if len(product.Suppliers) > 0 {
		v.Supplier = product.Suppliers[0].Name
	}
	return v
}

// BuildViews projects every item against the same instant.
func BuildViews(items []models.InventoryItem, classifier expiry.Classifier, now time.Time) []View {
	views := make([]View, 0, len(items))
	for _, item := range items {
		views = append(views, BuildView(item, classifier, now))
	}
	return views
}
