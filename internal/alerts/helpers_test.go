package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/internal/notifications"
	"github.com/angelmondragon/shelfwatch-backend/internal/users"
	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	pkgdb "github.com/angelmondragon/shelfwatch-backend/pkg/db"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	t         *testing.T
	client    *pkgdb.Client
	db        *gorm.DB
	clock     *clock.Manual
	repo      Repository
	users     *users.Repository
	directory *users.Directory
	svc       Service
	activator *Activator
	fanOut    *flakyFanOut
}

// flakyFanOut delegates to the real dispatcher but fails for the alerts in failFor.
type flakyFanOut struct {
	next    FanOuter
	failFor map[uuid.UUID]bool
}

func (f *flakyFanOut) FanOut(ctx context.Context, tx *gorm.DB, alert *models.Alert, now time.Time) (int, error) {
	if f.failFor[alert.ID] {
		return 0, errors.New("notification store unavailable")
	}
	return f.next.FanOut(ctx, tx, alert, now)
}

type fakeDueSource struct {
	due   inventory.DueProducts
	calls []time.Time
}

func (f *fakeDueSource) DueProducts(_ context.Context, now time.Time) (inventory.DueProducts, error) {
	f.calls = append(f.calls, now)
	return f.due, nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	clk := clock.NewManual(testNow)
	repo := NewRepository(client.DB())
	userRepo := users.NewRepository(client.DB())
	directory := users.NewDirectory(userRepo)

	svc, err := NewService(ServiceParams{Repo: repo, Tx: client, Directory: directory, Clock: clk})
	require.NoError(t, err)

	dispatcher, err := notifications.NewDispatcher(notifications.NewRepository(client.DB()), nil, nil)
	require.NoError(t, err)
	flaky := &flakyFanOut{next: dispatcher, failFor: map[uuid.UUID]bool{}}
	activator, err := NewActivator(ActivatorParams{Repo: repo, Tx: client, FanOut: flaky})
	require.NoError(t, err)

	return &fixture{
		t:         t,
		client:    client,
		db:        client.DB(),
		clock:     clk,
		repo:      repo,
		users:     userRepo,
		directory: directory,
		svc:       svc,
		activator: activator,
		fanOut:    flaky,
	}
}

func (f *fixture) seedUser(name string, active bool) *models.User {
	f.t.Helper()
	user, err := f.users.Create(context.Background(), users.NewUser{
		Name:     name,
		Email:    uuid.NewString() + "@example.com",
		IsActive: &active,
	})
	require.NoError(f.t, err)
	return user
}

func (f *fixture) seedProduct(description string) *models.Product {
	f.t.Helper()
	product := &models.Product{Description: description}
	require.NoError(f.t, f.db.Create(product).Error)
	return product
}

func (f *fixture) notificationsFor(alertID uuid.UUID) []models.Notification {
	f.t.Helper()
	var rows []models.Notification
	require.NoError(f.t, f.db.Where("alert_id = ?", alertID).Order("user_id").Find(&rows).Error)
	return rows
}

func (f *fixture) tick() ActivationResult {
	f.t.Helper()
	result, err := f.activator.ActivateDue(context.Background(), f.clock.Now())
	require.NoError(f.t, err)
	return result
}

func ids(list ...*models.User) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(list))
	for _, u := range list {
		out = append(out, u.ID)
	}
	return out
}

func at(t time.Time) *time.Time {
	return &t
}
