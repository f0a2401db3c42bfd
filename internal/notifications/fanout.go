package notifications

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
	"github.com/angelmondragon/shelfwatch-backend/pkg/metrics"
)

// Dispatcher creates one notification per target user of an activated alert.
type Dispatcher struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
}

// NewDispatcher builds a fan-out dispatcher; logg and m may be nil.
func NewDispatcher(repo Repository, logg *logger.Logger, m *metrics.DomainMetrics) (*Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{repo: repo, logg: logg, metrics: m}, nil
}

// FanOut inserts a notification for every active user targeted by alert.
// alert.Users must be loaded. Existing (alert, user) pairs are left untouched,
// so repeated calls never duplicate. Returns how many rows were created.
func (d *Dispatcher) FanOut(ctx context.Context, tx *gorm.DB, alert *models.Alert, now time.Time) (int, error) {
	if alert == nil {
		return 0, fmt.Errorf("alert required")
	}
	repo := d.repo.WithTx(tx)
	created := 0
	for _, user := range alert.Users {
		if !user.IsActive {
			continue
		}
		ok, err := repo.CreateIfAbsent(ctx, &models.Notification{
			AlertID:   alert.ID,
			UserID:    user.ID,
			CreatedAt: now.UTC(),
		})
		if err != nil {
			return created, fmt.Errorf("notify user %s: %w", user.ID, err)
		}
		if ok {
			created++
		}
	}

	d.metrics.AddNotifications(created)
	if created > 0 {
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"alert_id":      alert.ID.String(),
			"notifications": created,
		})
		d.logg.Debug(logCtx, "alert fanned out")
	}
	return created, nil
}
