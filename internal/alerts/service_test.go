package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

func TestCreateCustomDefaultsFireTimeToCreation(t *testing.T) {
	f := newFixture(t)
	creator := f.seedUser("Ana", true)
	bruno := f.seedUser("Bruno", true)
	product := f.seedProduct("Leite Integral")

	alert, err := f.svc.CreateCustom(context.Background(), CreateCustomInput{
		Title:      "  Conferir lote L1 ",
		UserIDs:    []uuid.UUID{creator.ID, bruno.ID, bruno.ID},
		ProductIDs: []uuid.UUID{product.ID},
		CreatedBy:  &creator.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Conferir lote L1", alert.Title)
	assert.Equal(t, enums.AlertKindCustom, alert.Kind)
	assert.False(t, alert.Active)
	require.NotNil(t, alert.FireAt)
	assert.True(t, alert.FireAt.Equal(testNow))
	assert.ElementsMatch(t, ids(creator, bruno), alert.UserIDs)
	assert.Equal(t, []uuid.UUID{product.ID}, alert.ProductIDs)
	require.NotNil(t, alert.CreatedBy)
	assert.Equal(t, creator.ID, *alert.CreatedBy)
}

func TestCreateCustomValidation(t *testing.T) {
	f := newFixture(t)
	ana := f.seedUser("Ana", true)
	inactive := f.seedUser("Inativo", false)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateCustomInput
		code  pkgerrors.Code
	}{
		{"blank title", CreateCustomInput{Title: "   ", UserIDs: ids(ana)}, pkgerrors.CodeValidation},
		{"no targets", CreateCustomInput{Title: "x"}, pkgerrors.CodeValidation},
		{"unknown target", CreateCustomInput{Title: "x", UserIDs: []uuid.UUID{uuid.New()}}, pkgerrors.CodeNotFound},
		{"inactive target", CreateCustomInput{Title: "x", UserIDs: ids(inactive)}, pkgerrors.CodeNotFound},
		{"unknown product", CreateCustomInput{Title: "x", UserIDs: ids(ana), ProductIDs: []uuid.UUID{uuid.New()}}, pkgerrors.CodeNotFound},
		{"unknown creator", CreateCustomInput{Title: "x", UserIDs: ids(ana), CreatedBy: idPtr(uuid.New())}, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateCustom(ctx, tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.CodeOf(err))
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Alert{}).Count(&count).Error)
	assert.Zero(t, count, "rejected requests leave no partial state")
}

func TestUpdateCustomRules(t *testing.T) {
	f := newFixture(t)
	ana := f.seedUser("Ana", true)
	bruno := f.seedUser("Bruno", true)
	ctx := context.Background()

	alert, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "original", UserIDs: ids(ana), FireAt: at(testNow.Add(time.Hour))})
	require.NoError(t, err)

	title := "renamed"
	targets := ids(bruno)
	updated, err := f.svc.UpdateCustom(ctx, alert.ID, UpdateCustomInput{Title: &title, UserIDs: &targets, FireAt: at(testNow.Add(2 * time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, ids(bruno), updated.UserIDs)
	assert.True(t, updated.FireAt.Equal(testNow.Add(2*time.Hour)))

	f.clock.Advance(3 * time.Hour)
	f.tick()
	_, err = f.svc.UpdateCustom(ctx, alert.ID, UpdateCustomInput{FireAt: at(testNow.Add(10 * time.Hour))})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	desc := "still editable"
	edited, err := f.svc.UpdateCustom(ctx, alert.ID, UpdateCustomInput{Description: &desc})
	require.NoError(t, err)
	assert.True(t, edited.Active, "editing never deactivates")
	assert.Equal(t, desc, edited.Description)
}

func TestUpdateRejectsAutomaticKinds(t *testing.T) {
	f := newFixture(t)
	key := "overdue:2026-03-10"
	auto := &models.Alert{Title: "auto", Kind: enums.AlertKindOverdue, FireAt: at(testNow), DedupeKey: &key}
	require.NoError(t, f.repo.Create(context.Background(), auto))

	title := "hijack"
	_, err := f.svc.UpdateCustom(context.Background(), auto.ID, UpdateCustomInput{Title: &title})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSoftDeleteHidesAlertEverywhere(t *testing.T) {
	f := newFixture(t)
	ana := f.seedUser("Ana", true)
	ctx := context.Background()

	kept, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "kept", UserIDs: ids(ana)})
	require.NoError(t, err)
	dropped, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "dropped", UserIDs: ids(ana)})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, dropped.ID))
	assert.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, dropped.ID), pkgerrors.CodeNotFound))

	_, err = f.svc.Get(ctx, dropped.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	list, err := f.svc.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)

	result := f.tick()
	assert.Equal(t, 1, result.Activated)
	assert.Empty(t, f.notificationsFor(dropped.ID))

	var row models.Alert
	require.NoError(t, f.db.First(&row, "id = ?", dropped.ID).Error)
	assert.True(t, row.Deleted, "soft-deleted rows stay in the table")
	assert.False(t, row.Active)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ana := f.seedUser("Ana", true)
	ctx := context.Background()

	_, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "now", UserIDs: ids(ana)})
	require.NoError(t, err)
	_, err = f.svc.CreateCustom(ctx, CreateCustomInput{Title: "later", UserIDs: ids(ana), FireAt: at(testNow.Add(24 * time.Hour))})
	require.NoError(t, err)
	f.tick()

	active := true
	list, err := f.svc.List(ctx, ListParams{Active: &active})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "now", list[0].Title)

	kind := enums.AlertKindOverdue
	list, err = f.svc.List(ctx, ListParams{Kind: &kind})
	require.NoError(t, err)
	assert.Empty(t, list)

	bogus := enums.AlertKind("weekly")
	_, err = f.svc.List(ctx, ListParams{Kind: &bogus})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
