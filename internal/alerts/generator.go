package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
	"github.com/angelmondragon/shelfwatch-backend/pkg/metrics"
)

// DueSource reports which products have lots overdue, due today or due tomorrow.
type DueSource interface {
	DueProducts(ctx context.Context, now time.Time) (inventory.DueProducts, error)
}

// generatedKinds is the order automatic alerts are created in within one pass.
var generatedKinds = []enums.AlertKind{
	enums.AlertKindOverdue,
	enums.AlertKindDueToday,
	enums.AlertKindDueTomorrow,
}

// GeneratorParams wires the generator.
type GeneratorParams struct {
	Repo      Repository
	Tx        txRunner
	Inventory DueSource
	Directory Directory
	Location  *time.Location
	Logger    *logger.Logger
	Metrics   *metrics.DomainMetrics
}

// Generator creates at most one automatic alert per kind and calendar day.
type Generator struct {
	repo      Repository
	tx        txRunner
	inventory DueSource
	directory Directory
	loc       *time.Location
	logg      *logger.Logger
	metrics   *metrics.DomainMetrics
}

func NewGenerator(params GeneratorParams) (*Generator, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory source required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Location == nil {
		params.Location = time.UTC
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Generator{
		repo:      params.Repo,
		tx:        params.Tx,
		inventory: params.Inventory,
		directory: params.Directory,
		loc:       params.Location,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// DedupeKey identifies the automatic alert of kind for now's calendar day.
func DedupeKey(kind enums.AlertKind, day time.Time) string {
	return fmt.Sprintf("%s:%s", kind, day.Format("2006-01-02"))
}

func generatedTitle(kind enums.AlertKind, count int) string {
	noun := "products"
	if count == 1 {
		noun = "product"
	}
	switch kind {
	case enums.AlertKindOverdue:
		return fmt.Sprintf("%d %s past expiration", count, noun)
	case enums.AlertKindDueToday:
		return fmt.Sprintf("%d %s expiring today", count, noun)
	default:
		return fmt.Sprintf("%d %s expiring tomorrow", count, noun)
	}
}

// Generate creates the missing automatic alerts for now's day and returns how many
// were created. Re-running on the same day creates nothing. A kind that fails is
// logged and skipped; the failures are returned combined.
func (g *Generator) Generate(ctx context.Context, now time.Time) (int, error) {
	due, err := g.inventory.DueProducts(ctx, now.In(g.loc))
	if err != nil {
		return 0, fmt.Errorf("due products: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}
	targets, err := g.directory.ActiveUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("alert targets: %w", err)
	}

	day := now.In(g.loc)
	fireAt := now.UTC()
	created := 0
	var errs error
	for _, kind := range generatedKinds {
		products := due[kind]
		if len(products) == 0 {
			continue
		}
		key := DedupeKey(kind, day)
		alert := &models.Alert{
			Title:     generatedTitle(kind, len(products)),
			Kind:      kind,
			FireAt:    &fireAt,
			DedupeKey: &key,
			CreatedAt: fireAt,
			UpdatedAt: fireAt,
		}
		ok, err := g.create(ctx, alert, targets, products)
		if err != nil {
			logCtx := g.logg.WithField(ctx, "dedupe_key", key)
			g.logg.Error(logCtx, "automatic alert generation failed", err)
			errs = multierr.Append(errs, fmt.Errorf("generate %s alert: %w", kind, err))
			continue
		}
		if !ok {
			continue
		}
		created++
		g.metrics.IncGenerated(kind.String())
		logCtx := g.logg.WithFields(ctx, map[string]any{
			"alert_id":   alert.ID.String(),
			"dedupe_key": key,
			"products":   len(products),
		})
		g.logg.Info(logCtx, "automatic alert generated")
	}
	return created, errs
}

func (g *Generator) create(ctx context.Context, alert *models.Alert, userIDs, productIDs []uuid.UUID) (bool, error) {
	var created bool
	err := g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := g.repo.WithTx(tx)
		ok, err := repo.CreateIfAbsent(ctx, alert)
		if err != nil || !ok {
			return err
		}
		created = true
		if err := repo.ReplaceUsers(ctx, alert.ID, userIDs); err != nil {
			return err
		}
		return repo.ReplaceProducts(ctx, alert.ID, productIDs)
	})
	return created, err
}
