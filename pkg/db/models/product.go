package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the catalog entry that inventory lots belong to.
type Product struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Description string     `gorm:"column:description;not null"`
	Brand       string     `gorm:"column:brand;not null;default:''"`
	Barcode     string     `gorm:"column:barcode;not null;default:''"`
	Unit        string     `gorm:"column:unit;not null;default:''"`
	Quantity    int        `gorm:"column:quantity;not null;default:0"`
	CategoryID  *uuid.UUID `gorm:"column:category_id;type:uuid"`
	Category    *Category  `gorm:"foreignKey:CategoryID"`
	Suppliers   []Supplier `gorm:"many2many:product_suppliers;joinForeignKey:ProductID;joinReferences:SupplierID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Category groups products and is shelved in one aisle.
type Category struct {
	ID      uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name    string     `gorm:"column:name;not null"`
	AisleID *uuid.UUID `gorm:"column:aisle_id;type:uuid"`
	Aisle   *Aisle     `gorm:"foreignKey:AisleID"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Aisle is a physical shelf section.
type Aisle struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null"`
}

func (a *Aisle) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Supplier provides one or more products.
type Supplier struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
