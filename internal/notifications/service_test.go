package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
	"github.com/angelmondragon/shelfwatch-backend/pkg/pagination"
)

var inboxNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

// stubRepo records calls and returns canned results.
type stubRepo struct {
	query    ListQuery
	rows     []models.Notification
	next     *pagination.Cursor
	found    bool
	markedAt time.Time
	count    int64
	err      error
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) CreateIfAbsent(context.Context, *models.Notification) (bool, error) {
	return true, s.err
}

func (s *stubRepo) List(_ context.Context, q ListQuery) ([]models.Notification, *pagination.Cursor, error) {
	s.query = q
	return s.rows, s.next, s.err
}

func (s *stubRepo) CountUnread(context.Context, uuid.UUID) (int64, error) {
	return s.count, s.err
}

func (s *stubRepo) MarkRead(_ context.Context, _, _ uuid.UUID, at time.Time) (bool, error) {
	s.markedAt = at
	return s.found, s.err
}

func (s *stubRepo) MarkAllRead(_ context.Context, _ uuid.UUID, at time.Time) (int64, error) {
	s.markedAt = at
	return s.count, s.err
}

func newInboxService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, clock.NewManual(inboxNow))
	require.NoError(t, err)
	return svc
}

func TestListMapsAlertAndEncodesCursor(t *testing.T) {
	alert := &models.Alert{ID: uuid.New(), Title: "Leite vence hoje", Kind: enums.AlertKindDueToday}
	next := &pagination.Cursor{CreatedAt: inboxNow.Add(-time.Hour), ID: uuid.New()}
	repo := &stubRepo{
		rows: []models.Notification{{ID: uuid.New(), AlertID: alert.ID, Alert: alert, CreatedAt: inboxNow}},
		next: next,
	}
	svc := newInboxService(t, repo)

	res, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Limit: 1, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, alert.Title, res.Items[0].Title)
	assert.Equal(t, enums.AlertKindDueToday, res.Items[0].Kind)
	assert.Equal(t, 1, repo.query.Limit)
	assert.True(t, repo.query.UnreadOnly)
	assert.Nil(t, repo.query.After)

	decoded, err := pagination.DecodeCursor(res.Cursor)
	require.NoError(t, err)
	assert.Equal(t, next.ID, decoded.ID)
}

func TestListPassesCursorThrough(t *testing.T) {
	repo := &stubRepo{}
	svc := newInboxService(t, repo)
	after := pagination.Cursor{CreatedAt: inboxNow, ID: uuid.New()}

	res, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: after.Encode()})
	require.NoError(t, err)
	assert.Empty(t, res.Cursor)
	assert.Empty(t, res.Items)
	require.NotNil(t, repo.query.After)
	assert.Equal(t, after.ID, repo.query.After.ID)
}

func TestListRejectsBadCursor(t *testing.T) {
	svc := newInboxService(t, &stubRepo{})
	_, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMarkReadStampsClockAndReportsMissing(t *testing.T) {
	repo := &stubRepo{found: true}
	svc := newInboxService(t, repo)

	require.NoError(t, svc.MarkRead(context.Background(), uuid.New(), uuid.New()))
	assert.True(t, repo.markedAt.Equal(inboxNow))

	repo.found = false
	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMarkAllReadReturnsCount(t *testing.T) {
	repo := &stubRepo{count: 3}
	svc := newInboxService(t, repo)

	n, err := svc.MarkAllRead(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.True(t, repo.markedAt.Equal(inboxNow))
}

func TestRepositoryFailuresAreDependencyErrors(t *testing.T) {
	svc := newInboxService(t, &stubRepo{err: errors.New("db down")})
	ctx := context.Background()

	_, err := svc.List(ctx, ListParams{UserID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	_, err = svc.CountUnread(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	_, err = svc.MarkAllRead(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	err = svc.MarkRead(ctx, uuid.New(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestOperationsRequireIDs(t *testing.T) {
	svc := newInboxService(t, &stubRepo{})
	ctx := context.Background()

	_, err := svc.List(ctx, ListParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.CountUnread(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.MarkAllRead(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(svc.MarkRead(ctx, uuid.New(), uuid.Nil), pkgerrors.CodeValidation))
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}
