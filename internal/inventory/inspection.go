package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shelfwatch-backend/internal/users"
	pkgdb "github.com/angelmondragon/shelfwatch-backend/pkg/db"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

// InspectInput marks one item inspected.
type InspectInput struct {
	ItemID       uuid.UUID
	Reason       string
	CustomReason string
	ActorID      *uuid.UUID
}

// BatchInspectInput applies one reason, actor and timestamp to every listed item.
type BatchInspectInput struct {
	ItemIDs      []uuid.UUID
	Reason       string
	CustomReason string
	ActorID      *uuid.UUID
}

// effectiveReason validates the reason and returns the enum plus the text to store.
func effectiveReason(reason, custom string) (enums.InspectionReason, string, error) {
	if strings.TrimSpace(reason) == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "inspection reason required")
	}
	parsed, err := enums.ParseInspectionReason(reason)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inspection reason")
	}
	if parsed != enums.InspectionReasonOther {
		return parsed, parsed.String(), nil
	}
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "custom reason required when reason is other")
	}
	return parsed, custom, nil
}

func (s *service) Inspect(ctx context.Context, input InspectInput) (*View, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	kind, text, err := effectiveReason(input.Reason, input.CustomReason)
	if err != nil {
		return nil, err
	}
	actor, err := s.actors.ResolveActor(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	view, updated, err := s.inspectOne(ctx, input.ItemID, kind, recordFor(text, actor, now), now)
	if err != nil {
		return nil, err
	}
	if updated {
		s.invalidateFilterOptions(ctx)
	}
	return view, nil
}

// InspectBatch inspects each id independently. Items that fail are logged and left out
// of the result; the call only fails when no item could be inspected.
func (s *service) InspectBatch(ctx context.Context, input BatchInspectInput) ([]View, error) {
	ids := uniqueIDs(input.ItemIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item id required")
	}
	kind, text, err := effectiveReason(input.Reason, input.CustomReason)
	if err != nil {
		return nil, err
	}
	actor, err := s.actors.ResolveActor(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rec := recordFor(text, actor, now)
	inspected := make([]View, 0, len(ids))
	var lastErr error
	anyUpdated := false
	for _, id := range ids {
		view, updated, err := s.inspectOne(ctx, id, kind, rec, now)
		if err != nil {
			lastErr = err
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"item_id": id.String(),
				"error":   err.Error(),
			}), "skipping item in batch inspection")
			continue
		}
		anyUpdated = anyUpdated || updated
		inspected = append(inspected, *view)
	}

	if anyUpdated {
		s.invalidateFilterOptions(ctx)
	}
	if len(inspected) == 0 {
		if pkgerrors.IsCode(lastErr, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "none of the inventory items could be inspected")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "batch inspection failed")
	}
	return inspected, nil
}

// inspectOne performs the conditional transition and reloads the item. An item that was
// already inspected is returned unchanged.
func (s *service) inspectOne(ctx context.Context, id uuid.UUID, kind enums.InspectionReason, rec InspectionRecord, now time.Time) (*View, bool, error) {
	updated, err := s.repo.MarkInspected(ctx, id, rec)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark item inspected")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, false, pkgerrors.Newf(pkgerrors.CodeNotFound, "inventory item %s not found", id)
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	if updated {
		s.metrics.IncInspection(kind.String())
	}
	view := BuildView(*item, s.classifier, now)
	return &view, updated, nil
}

func recordFor(reason string, actor users.Actor, at time.Time) InspectionRecord {
	return InspectionRecord{
		Reason:      reason,
		InspectorID: actor.ID,
		Inspector:   actor.Name,
		At:          at,
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
