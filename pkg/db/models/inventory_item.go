package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem is one received lot of a product.
// Once Inspected is true the inspection columns are never rewritten.
type InventoryItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Product          *Product        `gorm:"foreignKey:ProductID"`
	Lot              string          `gorm:"column:lot;not null;default:''"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	ManufacturedAt   *time.Time      `gorm:"column:manufactured_at"`
	ExpiresAt        *time.Time      `gorm:"column:expires_at;index"`
	ReceivedAt       *time.Time      `gorm:"column:received_at"`
	Inspected        bool            `gorm:"column:inspected;not null;default:false"`
	InspectionReason *string         `gorm:"column:inspection_reason"`
	InspectedByID    *uuid.UUID      `gorm:"column:inspected_by_id;type:uuid"`
	InspectedBy      *string         `gorm:"column:inspected_by"`
	InspectedAt      *time.Time      `gorm:"column:inspected_at"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
