package alerts

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/internal/users"
	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	pkgdb "github.com/angelmondragon/shelfwatch-backend/pkg/db"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Directory resolves alert targets and creators.
type Directory interface {
	ResolveActor(ctx context.Context, id *uuid.UUID) (users.Actor, error)
	ActiveUserIDs(ctx context.Context) ([]uuid.UUID, error)
	FilterActive(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

// Service manages alert records. Activation is owned by Activator.
type Service interface {
	CreateCustom(ctx context.Context, input CreateCustomInput) (*AlertDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*AlertDTO, error)
	List(ctx context.Context, params ListParams) ([]AlertDTO, error)
	UpdateCustom(ctx context.Context, id uuid.UUID, input UpdateCustomInput) (*AlertDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams wires the alert service.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Directory Directory
	Clock     clock.Clock
}

type service struct {
	repo      Repository
	tx        txRunner
	directory Directory
	clock     clock.Clock
}

// NewService validates dependencies and builds the alert service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Clock == nil {
		params.Clock = clock.NewSystem(time.UTC)
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		directory: params.Directory,
		clock:     params.Clock,
	}, nil
}

// CreateCustom stores a pending custom alert. Without a fire time it fires at creation,
// so the next scheduler tick activates it.
func (s *service) CreateCustom(ctx context.Context, input CreateCustomInput) (*AlertDTO, error) {
	title := strings.TrimSpace(input.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}
	userIDs, err := s.resolveTargets(ctx, input.UserIDs)
	if err != nil {
		return nil, err
	}
	productIDs, err := s.checkProducts(ctx, input.ProductIDs)
	if err != nil {
		return nil, err
	}

	actor, err := s.directory.ResolveActor(ctx, input.CreatedBy)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	fireAt := now
	if input.FireAt != nil {
		fireAt = input.FireAt.UTC()
	}
	alert := &models.Alert{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Kind:        enums.AlertKindCustom,
		FireAt:      &fireAt,
		CreatedByID: actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, alert); err != nil {
			return err
		}
		if err := repo.ReplaceUsers(ctx, alert.ID, userIDs); err != nil {
			return err
		}
		return repo.ReplaceProducts(ctx, alert.ID, productIDs)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create alert")
	}
	return s.Get(ctx, alert.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AlertDTO, error) {
	alert, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(alert)
	return &dto, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "alert id required")
	}
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
	}
	return alert, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]AlertDTO, error) {
	if params.Kind != nil && !params.Kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid alert kind %q", *params.Kind)
	}
	rows, err := s.repo.List(ctx, ListFilter{Kind: params.Kind, Active: params.Active})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list alerts")
	}
	out := make([]AlertDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

// UpdateCustom edits a custom alert. Automatic kinds are immutable, and the fire time
// of an alert that already fired cannot move.
func (s *service) UpdateCustom(ctx context.Context, id uuid.UUID, input UpdateCustomInput) (*AlertDTO, error) {
	alert, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !alert.Kind.IsEditable() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "alerts of kind %s cannot be edited", alert.Kind)
	}

	fields := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if input.Description != nil {
		if err := validateDescription(*input.Description); err != nil {
			return nil, err
		}
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.FireAt != nil {
		if alert.Active {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "fire time of an active alert cannot change")
		}
		fields["fire_at"] = input.FireAt.UTC()
	}

	var userIDs, productIDs []uuid.UUID
	if input.UserIDs != nil {
		if userIDs, err = s.resolveTargets(ctx, *input.UserIDs); err != nil {
			return nil, err
		}
	}
	if input.ProductIDs != nil {
		if productIDs, err = s.checkProducts(ctx, *input.ProductIDs); err != nil {
			return nil, err
		}
	}
	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now().UTC()
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, id, fields); err != nil {
			return err
		}
		if input.UserIDs != nil {
			if err := repo.ReplaceUsers(ctx, id, userIDs); err != nil {
				return err
			}
		}
		if input.ProductIDs != nil {
			return repo.ReplaceProducts(ctx, id, productIDs)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update alert")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "alert id required")
	}
	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete alert")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if len(title) > maxTitleLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "title exceeds %d characters", maxTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "description exceeds %d characters", maxDescriptionLength)
	}
	return nil
}

// resolveTargets requires at least one target and every target to be an active user.
func (s *service) resolveTargets(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one target user required")
	}
	active, err := s.directory.FilterActive(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(active) != len(unique) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target user not found or inactive")
	}
	return unique, nil
}

func (s *service) checkProducts(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return nil, nil
	}
	count, err := s.repo.CountProducts(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check alert products")
	}
	if count != int64(len(unique)) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return unique, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
