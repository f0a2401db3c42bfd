package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
)

// Alert is a rule surfaced to its target users once FireAt has elapsed.
// Active only ever moves from false to true; deleted alerts stay in the table.
type Alert struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title       string          `gorm:"column:title;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Kind        enums.AlertKind `gorm:"column:kind;not null"`
	FireAt      *time.Time      `gorm:"column:fire_at;index"`
	Active      bool            `gorm:"column:active;not null;default:false"`
	Deleted     bool            `gorm:"column:deleted;not null;default:false"`
	CreatorRead bool            `gorm:"column:creator_read;not null;default:false"`
	DedupeKey   *string         `gorm:"column:dedupe_key;uniqueIndex"`
	CreatedByID *uuid.UUID      `gorm:"column:created_by_id;type:uuid"`
	CreatedBy   *User           `gorm:"foreignKey:CreatedByID"`
	Users       []User          `gorm:"many2many:alert_users;joinForeignKey:AlertID;joinReferences:UserID"`
	Products    []Product       `gorm:"many2many:alert_products;joinForeignKey:AlertID;joinReferences:ProductID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Alert) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// UserIDs lists the ids of the alert's target users.
func (a *Alert) UserIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.Users))
	for _, user := range a.Users {
		ids = append(ids, user.ID)
	}
	return ids
}
