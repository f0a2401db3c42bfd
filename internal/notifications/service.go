package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
	"github.com/angelmondragon/shelfwatch-backend/pkg/pagination"
)

// Service is a user's notification inbox.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// NotificationDTO is one inbox entry with the alert it points at.
type NotificationDTO struct {
	ID          uuid.UUID       `json:"id"`
	AlertID     uuid.UUID       `json:"alert_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Kind        enums.AlertKind `json:"kind"`
	Read        bool            `json:"read"`
	ReadAt      *time.Time      `json:"read_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListResult carries one page; Cursor is empty on the last page.
type ListResult struct {
	Items  []NotificationDTO `json:"items"`
	Cursor string            `json:"cursor"`
}

var errUserRequired = pkgerrors.New(pkgerrors.CodeValidation, "user id required")

type inbox struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository, clk clock.Clock) (Service, error) {
	if repo == nil {
		return nil, errors.New("notifications: repository required")
	}
	if clk == nil {
		clk = clock.NewSystem(time.UTC)
	}
	return &inbox{repo: repo, clock: clk}, nil
}

func (s *inbox) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, errUserRequired
	}
	after, err := pagination.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.List(ctx, ListQuery{
		UserID:     params.UserID,
		Limit:      params.Limit,
		After:      after,
		UnreadOnly: params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	out := &ListResult{Items: make([]NotificationDTO, 0, len(rows))}
	for i := range rows {
		out.Items = append(out.Items, entry(&rows[i]))
	}
	if next != nil {
		out.Cursor = next.Encode()
	}
	return out, nil
}

func entry(n *models.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:        n.ID,
		AlertID:   n.AlertID,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
	if a := n.Alert; a != nil {
		dto.Title, dto.Description, dto.Kind = a.Title, a.Description, a.Kind
	}
	return dto
}

func (s *inbox) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, errUserRequired
	}
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return n, nil
}

// MarkRead is idempotent; marking an already read notification keeps its read_at.
func (s *inbox) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return errUserRequired
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	found, err := s.repo.MarkRead(ctx, userID, notificationID, s.clock.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !found {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "notification %s not found", notificationID)
	}
	return nil
}

func (s *inbox) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, errUserRequired
	}
	n, err := s.repo.MarkAllRead(ctx, userID, s.clock.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return n, nil
}
