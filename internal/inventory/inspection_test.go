package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shelfwatch-backend/internal/users"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

func TestInspectRecordsReasonAndActor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	ana := f.seedUser("Ana")
	item := f.seedItem(f.product, "L1", at(testNow))

	view, err := f.svc.Inspect(ctx, InspectInput{ItemID: item.ID, Reason: "damage", ActorID: &ana.ID})
	require.NoError(t, err)
	assert.True(t, view.Inspected)
	assert.Equal(t, "damage", view.InspectionReason)
	assert.Equal(t, "Ana", view.InspectedBy)
	require.NotNil(t, view.InspectedAt)
	assert.True(t, view.InspectedAt.Equal(testNow))

	var stored models.InventoryItem
	require.NoError(t, f.db.First(&stored, "id = ?", item.ID).Error)
	require.NotNil(t, stored.InspectedByID)
	assert.Equal(t, ana.ID, *stored.InspectedByID)
}

func TestInspectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	item := f.seedItem(f.product, "L1", nil)

	first, err := f.svc.Inspect(ctx, InspectInput{ItemID: item.ID, Reason: "promotion"})
	require.NoError(t, err)
	assert.Equal(t, users.SystemActor, first.InspectedBy)

	f.clock.Advance(time.Hour)
	second, err := f.svc.Inspect(ctx, InspectInput{ItemID: item.ID, Reason: "other", CustomReason: "late"})
	require.NoError(t, err)
	assert.Equal(t, "promotion", second.InspectionReason, "first inspection wins")
	assert.True(t, second.InspectedAt.Equal(*first.InspectedAt))
}

func TestInspectOtherUsesCustomText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	item := f.seedItem(f.product, "L1", nil)

	_, err := f.svc.Inspect(ctx, InspectInput{ItemID: item.ID, Reason: "other", CustomReason: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	view, err := f.svc.Inspect(ctx, InspectInput{ItemID: item.ID, Reason: "Other", CustomReason: " embalagem violada "})
	require.NoError(t, err)
	assert.Equal(t, "embalagem violada", view.InspectionReason)
}

func TestInspectValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	item := f.seedItem(f.product, "L1", nil)

	_, err := f.svc.Inspect(ctx, InspectInput{ItemID: item.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Inspect(ctx, InspectInput{ItemID: item.ID, Reason: "stolen"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Inspect(ctx, InspectInput{Reason: "damage"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	unknown := uuid.New()
	_, err = f.svc.Inspect(ctx, InspectInput{ItemID: item.ID, Reason: "damage", ActorID: &unknown})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Inspect(ctx, InspectInput{ItemID: uuid.New(), Reason: "damage"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestInspectBatchSkipsMissingItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	a := f.seedItem(f.product, "A", nil)
	b := f.seedItem(f.product, "B", nil)

	views, err := f.svc.InspectBatch(ctx, BatchInspectInput{
		ItemIDs: []uuid.UUID{a.ID, uuid.New(), b.ID},
		Reason:  "damage",
	})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, []uuid.UUID{views[0].ItemID, views[1].ItemID})
	assert.True(t, views[0].InspectedAt.Equal(*views[1].InspectedAt), "one timestamp for the whole batch")
}

// Failed ids are dropped from the response without being reported.
func TestInspectBatchDoesNotReportFailedIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	a := f.seedItem(f.product, "A", nil)
	missing := uuid.New()

	views, err := f.svc.InspectBatch(ctx, BatchInspectInput{ItemIDs: []uuid.UUID{missing, a.ID}, Reason: "promotion"})
	require.NoError(t, err)
	for _, v := range views {
		assert.NotEqual(t, missing, v.ItemID)
	}
}

func TestInspectBatchFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.InspectBatch(ctx, BatchInspectInput{Reason: "damage"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.InspectBatch(ctx, BatchInspectInput{ItemIDs: []uuid.UUID{uuid.New()}, Reason: "other"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.InspectBatch(ctx, BatchInspectInput{ItemIDs: []uuid.UUID{uuid.New(), uuid.New()}, Reason: "damage"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestConcurrentInspectionsWriteOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	item := f.seedItem(f.product, "L1", nil)

	reasons := []string{"damage", "promotion", "damage", "promotion"}
	results := make([]*View, len(reasons))
	var wg sync.WaitGroup
	for i, reason := range reasons {
		wg.Add(1)
		go func(i int, reason string) {
			defer wg.Done()
			view, err := f.svc.Inspect(ctx, InspectInput{ItemID: item.ID, Reason: reason})
			if err == nil {
				results[i] = view
			}
		}(i, reason)
	}
	wg.Wait()

	var stored models.InventoryItem
	require.NoError(t, f.db.First(&stored, "id = ?", item.ID).Error)
	require.NotNil(t, stored.InspectionReason)
	for _, view := range results {
		require.NotNil(t, view)
		assert.Equal(t, *stored.InspectionReason, view.InspectionReason)
	}
}
