package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shelfwatch-backend/internal/repo"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/pagination"
)

// Repository stores per-user notifications. Reads only see rows whose alert still exists.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error)
	List(ctx context.Context, q ListQuery) ([]models.Notification, *pagination.Cursor, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	// MarkRead reports false when userID has no such notification.
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}

// ListQuery selects one page of a user's inbox, newest first.
type ListQuery struct {
	UserID     uuid.UUID
	Limit      int
	After      *pagination.Cursor
	UnreadOnly bool
}

type gormRepository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: r.Base.WithTx(tx)}
}

// CreateIfAbsent inserts n unless the (alert_id, user_id) pair already has a row.
func (r *gormRepository) CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	res := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "alert_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(n)
	return res.RowsAffected > 0, res.Error
}

func (r *gormRepository) inbox(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.DB(ctx).
		Model(&models.Notification{}).
		Joins("JOIN alerts ON alerts.id = notifications.alert_id AND alerts.deleted = ?", false).
		Where("notifications.user_id = ?", userID)
}

func (r *gormRepository) List(ctx context.Context, q ListQuery) ([]models.Notification, *pagination.Cursor, error) {
	query := r.inbox(ctx, q.UserID).Select("notifications.*").Preload("Alert")
	if q.UnreadOnly {
		query = query.Where("notifications.is_read = ?", false)
	}
	if q.After != nil {
		query = query.Where(
			"notifications.created_at < ? OR (notifications.created_at = ? AND notifications.id < ?)",
			q.After.CreatedAt, q.After.CreatedAt, q.After.ID,
		)
	}

	var rows []models.Notification
	err := query.
		Order("notifications.created_at DESC").
		Order("notifications.id DESC").
		Limit(pagination.ClampLimit(q.Limit) + 1).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, q.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return page, next, nil
}

func (r *gormRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return repo.Count[models.Notification](r.inbox(ctx, userID).Where("notifications.is_read = ?", false))
}

func (r *gormRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (bool, error) {
	n, err := repo.First[models.Notification](r.DB(ctx), "id = ? AND user_id = ?", notificationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if n.Read {
		return true, nil
	}
	return true, r.DB(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", n.ID, false).
		UpdateColumns(map[string]any{"is_read": true, "read_at": at}).Error
}

func (r *gormRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumns(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}
