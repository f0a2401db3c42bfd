package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/internal/repo"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
)

// Repository is the inventory store consumed by the engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListAll(ctx context.Context) ([]models.InventoryItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	MarkInspected(ctx context.Context, id uuid.UUID, rec InspectionRecord) (bool, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
	AdjustProductQuantity(ctx context.Context, productID uuid.UUID, delta int) error
}

// InspectionRecord is written once, on the first inspection of an item.
type InspectionRecord struct {
	Reason      string
	InspectorID *uuid.UUID
	Inspector   string
	At          time.Time
}

type repository struct {
	repo.Base
}

// NewRepository returns an inventory repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) withAssociations(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Preload("Product").
		Preload("Product.Category").
		Preload("Product.Category.Aisle").
		Preload("Product.Suppliers", func(db *gorm.DB) *gorm.DB {
			return db.Order("suppliers.name ASC")
		})
}

func (r *repository) ListAll(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.withAssociations(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	return repo.First[models.InventoryItem](r.withAssociations(ctx), "id = ?", id)
}

// MarkInspected flips inspected only while it is still false. It reports whether this
// call performed the transition.
func (r *repository) MarkInspected(ctx context.Context, id uuid.UUID, rec InspectionRecord) (bool, error) {
	result := r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND inspected = ?", id, false).
		Updates(map[string]any{
			"inspected":         true,
			"inspection_reason": rec.Reason,
			"inspected_by_id":   rec.InspectorID,
			"inspected_by":      rec.Inspector,
			"inspected_at":      rec.At,
			"updated_at":        rec.At,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.DB(ctx).Create(item).Error
}

// Delete removes the item and returns the row as it was before deletion.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.DB(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.DB(ctx).Delete(&models.InventoryItem{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AdjustProductQuantity applies delta to the product's on-hand quantity, clamping at zero.
func (r *repository) AdjustProductQuantity(ctx context.Context, productID uuid.UUID, delta int) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("CASE WHEN quantity + ? < 0 THEN 0 ELSE quantity + ? END", delta, delta)).
		Error
}
