package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shelfwatch-backend/internal/repo"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
)

// Repository persists alerts and their target sets. Deleted alerts are invisible
// to every read.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, alert *models.Alert) error
	CreateIfAbsent(ctx context.Context, alert *models.Alert) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	List(ctx context.Context, filter ListFilter) ([]models.Alert, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	ReplaceUsers(ctx context.Context, alertID uuid.UUID, userIDs []uuid.UUID) error
	ReplaceProducts(ctx context.Context, alertID uuid.UUID, productIDs []uuid.UUID) error
	CountProducts(ctx context.Context, ids []uuid.UUID) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
	ListDue(ctx context.Context, now time.Time) ([]models.Alert, error)
	Activate(ctx context.Context, id uuid.UUID) (bool, error)
}

// ListFilter narrows List; nil fields match everything.
type ListFilter struct {
	Kind   *enums.AlertKind
	Active *bool
}

type alertUser struct {
	AlertID uuid.UUID `gorm:"column:alert_id;type:uuid;primaryKey"`
	UserID  uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
}

func (alertUser) TableName() string { return "alert_users" }

type alertProduct struct {
	AlertID   uuid.UUID `gorm:"column:alert_id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
}

func (alertProduct) TableName() string { return "alert_products" }

type repository struct {
	repo.Base
}

// NewRepository returns an alerts repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) live(ctx context.Context) *gorm.DB {
	return r.DB(ctx).Model(&models.Alert{}).Where("alerts.deleted = ?", false)
}

func (r *repository) withTargets(ctx context.Context) *gorm.DB {
	return r.live(ctx).
		Preload("Users", func(db *gorm.DB) *gorm.DB { return db.Order("users.name ASC") }).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.description ASC") })
}

// Create inserts the alert row only; targets are attached with ReplaceUsers/ReplaceProducts.
func (r *repository) Create(ctx context.Context, alert *models.Alert) error {
	return r.DB(ctx).Omit(clause.Associations).Create(alert).Error
}

// CreateIfAbsent inserts the alert unless another alert already holds its dedupe key.
func (r *repository) CreateIfAbsent(ctx context.Context, alert *models.Alert) (bool, error) {
	result := r.DB(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	return repo.First[models.Alert](r.withTargets(ctx), "alerts.id = ?", id)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Alert, error) {
	query := r.withTargets(ctx)
	if filter.Kind != nil {
		query = query.Where("alerts.kind = ?", *filter.Kind)
	}
	if filter.Active != nil {
		query = query.Where("alerts.active = ?", *filter.Active)
	}
	var alerts []models.Alert
	if err := query.Order("alerts.created_at DESC, alerts.id DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.live(ctx).Where("alerts.id = ?", id).Updates(fields).Error
}

func (r *repository) ReplaceUsers(ctx context.Context, alertID uuid.UUID, userIDs []uuid.UUID) error {
	if err := r.DB(ctx).Where("alert_id = ?", alertID).Delete(&alertUser{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]alertUser, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, alertUser{AlertID: alertID, UserID: id})
	}
	return r.DB(ctx).Create(&rows).Error
}

func (r *repository) ReplaceProducts(ctx context.Context, alertID uuid.UUID, productIDs []uuid.UUID) error {
	if err := r.DB(ctx).Where("alert_id = ?", alertID).Delete(&alertProduct{}).Error; err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return nil
	}
	rows := make([]alertProduct, 0, len(productIDs))
	for _, id := range productIDs {
		rows = append(rows, alertProduct{AlertID: alertID, ProductID: id})
	}
	return r.DB(ctx).Create(&rows).Error
}

func (r *repository) CountProducts(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// SoftDelete flags the alert deleted; it reports false when the alert was missing
// or already deleted.
func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.live(ctx).Where("alerts.id = ?", id).Update("deleted", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListDue returns pending alerts whose fire time is at or before now, oldest first.
// fire_at is stored in UTC, so now is compared in UTC whatever its zone.
func (r *repository) ListDue(ctx context.Context, now time.Time) ([]models.Alert, error) {
	now = now.UTC()
	var alerts []models.Alert
	err := r.live(ctx).
		Where("alerts.active = ? AND alerts.fire_at IS NOT NULL AND alerts.fire_at <= ?", false, now).
		Order("alerts.fire_at ASC, alerts.id ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// Activate performs the single pending->active transition. It reports whether this
// call won it.
func (r *repository) Activate(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND active = ? AND deleted = ?", id, false, false).
		UpdateColumns(map[string]any{"active": true, "creator_read": false})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
