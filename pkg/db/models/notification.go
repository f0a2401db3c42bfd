package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is the per-user delivery record of one alert.
// (alert_id, user_id) is unique; rows are never deleted.
type Notification struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	AlertID   uuid.UUID  `gorm:"column:alert_id;type:uuid;not null;uniqueIndex:idx_notifications_alert_user"`
	Alert     *Alert     `gorm:"foreignKey:AlertID"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_notifications_alert_user;index:idx_notifications_user_read"`
	Read      bool       `gorm:"column:is_read;not null;default:false;index:idx_notifications_user_read"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// All lists every model managed by migrations, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Aisle{},
		&Category{},
		&Supplier{},
		&Product{},
		&InventoryItem{},
		&Alert{},
		&Notification{},
	}
}
