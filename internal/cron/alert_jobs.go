package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shelfwatch-backend/internal/alerts"
	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
)

type alertActivator interface {
	ActivateDue(ctx context.Context, now time.Time) (alerts.ActivationResult, error)
}

type alertGenerator interface {
	Generate(ctx context.Context, now time.Time) (int, error)
}

type AlertActivationJobParams struct {
	Logger    *logger.Logger
	Activator alertActivator
	Clock     clock.Clock
}

func NewAlertActivationJob(params AlertActivationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Activator == nil {
		return nil, fmt.Errorf("alert activator required")
	}
	if params.Clock == nil {
		params.Clock = clock.NewSystem(time.UTC)
	}
	return &alertActivationJob{
		logg:      params.Logger,
		activator: params.Activator,
		clock:     params.Clock,
	}, nil
}

type alertActivationJob struct {
	logg      *logger.Logger
	activator alertActivator
	clock     clock.Clock
}

func (j *alertActivationJob) Name() string { return "alert-activation" }

func (j *alertActivationJob) Run(ctx context.Context) error {
	result, err := j.activator.ActivateDue(ctx, j.clock.Now())
	if result.Due > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"due":           result.Due,
			"activated":     result.Activated,
			"notifications": result.Notifications,
		})
		j.logg.Info(logCtx, "alert activation complete")
	}
	if err != nil {
		return fmt.Errorf("alert activation: %w", err)
	}
	return nil
}

type AlertGenerationJobParams struct {
	Logger    *logger.Logger
	Generator alertGenerator
	Clock     clock.Clock
}

func NewAlertGenerationJob(params AlertGenerationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("alert generator required")
	}
	if params.Clock == nil {
		params.Clock = clock.NewSystem(time.UTC)
	}
	return &alertGenerationJob{
		logg:      params.Logger,
		generator: params.Generator,
		clock:     params.Clock,
	}, nil
}

type alertGenerationJob struct {
	logg      *logger.Logger
	generator alertGenerator
	clock     clock.Clock
}

func (j *alertGenerationJob) Name() string { return "alert-generation" }

func (j *alertGenerationJob) Run(ctx context.Context) error {
	created, err := j.generator.Generate(ctx, j.clock.Now())
	if created > 0 {
		j.logg.Info(j.logg.WithField(ctx, "alerts_created", created), "automatic alerts generated")
	}
	if err != nil {
		return fmt.Errorf("alert generation: %w", err)
	}
	return nil
}
