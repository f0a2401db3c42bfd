package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
	"github.com/angelmondragon/shelfwatch-backend/pkg/metrics"
)

// FanOuter creates the per-user notifications of an activated alert inside tx.
type FanOuter interface {
	FanOut(ctx context.Context, tx *gorm.DB, alert *models.Alert, now time.Time) (int, error)
}

// ActivationResult summarizes one activation pass.
type ActivationResult struct {
	Due           int
	Activated     int
	Notifications int
}

// ActivatorParams wires the activator.
type ActivatorParams struct {
	Repo    Repository
	Tx      txRunner
	FanOut  FanOuter
	Logger  *logger.Logger
	Metrics *metrics.DomainMetrics
}

// Activator promotes pending alerts whose fire time has passed.
type Activator struct {
	repo    Repository
	tx      txRunner
	fanOut  FanOuter
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
}

func NewActivator(params ActivatorParams) (*Activator, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.FanOut == nil {
		return nil, fmt.Errorf("notification fan-out required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Activator{
		repo:    params.Repo,
		tx:      params.Tx,
		fanOut:  params.FanOut,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// ActivateDue activates every non-deleted pending alert with fire_at <= now. Each alert
// is switched and fanned out in its own transaction; a failing alert is logged and
// skipped, and all failures are returned combined.
func (a *Activator) ActivateDue(ctx context.Context, now time.Time) (ActivationResult, error) {
	now = now.UTC()
	due, err := a.repo.ListDue(ctx, now)
	if err != nil {
		return ActivationResult{}, fmt.Errorf("list due alerts: %w", err)
	}
	result := ActivationResult{Due: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	var errs error
	for _, alert := range due {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}
		activated, created, err := a.activate(ctx, alert.ID, now)
		if err != nil {
			logCtx := a.logg.WithField(ctx, "alert_id", alert.ID.String())
			a.logg.Error(logCtx, "alert activation failed", err)
			errs = multierr.Append(errs, fmt.Errorf("alert %s: %w", alert.ID, err))
			continue
		}
		if activated {
			result.Activated++
		}
		result.Notifications += created
	}

	a.metrics.AddActivations(result.Activated)
	return result, errs
}

func (a *Activator) activate(ctx context.Context, alertID uuid.UUID, now time.Time) (bool, int, error) {
	var (
		activated bool
		created   int
	)
	err := a.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := a.repo.WithTx(tx)
		won, err := repo.Activate(ctx, alertID)
		if err != nil {
			return fmt.Errorf("activate: %w", err)
		}
		if !won {
			return nil
		}
		activated = true
		alert, err := repo.FindByID(ctx, alertID)
		if err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		created, err = a.fanOut.FanOut(ctx, tx, alert, now)
		if err != nil {
			return fmt.Errorf("fan out: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return activated, created, nil
}
