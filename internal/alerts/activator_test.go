package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
)

func TestActivateDueFiresAlertOneSecondPast(t *testing.T) {
	f := newFixture(t)
	ana := f.seedUser("Ana", true)
	bruno := f.seedUser("Bruno", true)
	carla := f.seedUser("Carla", true)
	ctx := context.Background()

	alert, err := f.svc.CreateCustom(ctx, CreateCustomInput{
		Title:   "Conferir validade",
		UserIDs: ids(ana, bruno, carla),
		FireAt:  at(testNow.Add(-time.Second)),
	})
	require.NoError(t, err)

	result := f.tick()
	assert.Equal(t, ActivationResult{Due: 1, Activated: 1, Notifications: 3}, result)

	got, err := f.svc.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.False(t, got.CreatorRead)

	rows := f.notificationsFor(alert.ID)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.False(t, row.Read)
		assert.Nil(t, row.ReadAt)
		assert.True(t, row.CreatedAt.Equal(testNow))
	}
}

func TestActivationIsMonotonicAcrossTicks(t *testing.T) {
	f := newFixture(t)
	ana := f.seedUser("Ana", true)
	ctx := context.Background()

	alert, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "x", UserIDs: ids(ana)})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		f.tick()
		got, err := f.svc.Get(ctx, alert.ID)
		require.NoError(t, err)
		assert.True(t, got.Active, "tick %d", i)
		f.clock.Advance(time.Minute)
	}
	assert.Len(t, f.notificationsFor(alert.ID), 1)
}

func TestActivateDueLeavesFutureAlertsPending(t *testing.T) {
	f := newFixture(t)
	ana := f.seedUser("Ana", true)
	ctx := context.Background()

	alert, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "later", UserIDs: ids(ana), FireAt: at(testNow.Add(time.Minute))})
	require.NoError(t, err)

	assert.Equal(t, ActivationResult{}, f.tick(), "zero eligible alerts is a no-op")
	got, err := f.svc.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	f.clock.Advance(time.Minute)
	assert.Equal(t, 1, f.tick().Activated)
}

func TestActivateDueWithZonedClock(t *testing.T) {
	zones := []*time.Location{
		time.FixedZone("UTC-3", -3*60*60),
		time.FixedZone("UTC+9", 9*60*60),
	}
	for _, zone := range zones {
		t.Run(zone.String(), func(t *testing.T) {
			f := newFixture(t)
			ana := f.seedUser("Ana", true)
			ctx := context.Background()

			past, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "due", UserIDs: ids(ana), FireAt: at(testNow.Add(-time.Minute))})
			require.NoError(t, err)
			future, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "later", UserIDs: ids(ana), FireAt: at(testNow.Add(time.Minute))})
			require.NoError(t, err)

			due, err := f.repo.ListDue(ctx, testNow.In(zone))
			require.NoError(t, err)
			require.Len(t, due, 1)
			assert.Equal(t, past.ID, due[0].ID)

			result, err := f.activator.ActivateDue(ctx, testNow.In(zone))
			require.NoError(t, err)
			assert.Equal(t, ActivationResult{Due: 1, Activated: 1, Notifications: 1}, result)

			rows := f.notificationsFor(past.ID)
			require.Len(t, rows, 1)
			assert.True(t, rows[0].CreatedAt.Equal(testNow))
			assert.Empty(t, f.notificationsFor(future.ID))
		})
	}
}

func TestActivateDueContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	ana := f.seedUser("Ana", true)
	ctx := context.Background()

	broken, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "broken", UserIDs: ids(ana), FireAt: at(testNow.Add(-2 * time.Minute))})
	require.NoError(t, err)
	healthy, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "healthy", UserIDs: ids(ana), FireAt: at(testNow.Add(-time.Minute))})
	require.NoError(t, err)
	f.fanOut.failFor[broken.ID] = true

	result, err := f.activator.ActivateDue(ctx, f.clock.Now())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), broken.ID.String())
	assert.Equal(t, ActivationResult{Due: 2, Activated: 1, Notifications: 1}, result)

	var row models.Alert
	require.NoError(t, f.db.First(&row, "id = ?", broken.ID).Error)
	assert.False(t, row.Active, "failed fan-out rolls the activation back")
	assert.Len(t, f.notificationsFor(healthy.ID), 1)

	delete(f.fanOut.failFor, broken.ID)
	result = f.tick()
	assert.Equal(t, 1, result.Activated)
	assert.Len(t, f.notificationsFor(broken.ID), 1)
}

func TestActivateDueSkipsInactiveTargets(t *testing.T) {
	f := newFixture(t)
	ana := f.seedUser("Ana", true)
	bruno := f.seedUser("Bruno", true)
	ctx := context.Background()

	alert, err := f.svc.CreateCustom(ctx, CreateCustomInput{Title: "x", UserIDs: ids(ana, bruno)})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", bruno.ID).Update("is_active", false).Error)

	result := f.tick()
	assert.Equal(t, 1, result.Notifications)
	rows := f.notificationsFor(alert.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, ana.ID, rows[0].UserID)
}
