package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shelfwatch-backend/api/responses"
	"github.com/angelmondragon/shelfwatch-backend/api/validators"
	"github.com/angelmondragon/shelfwatch-backend/internal/notifications"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
	"github.com/angelmondragon/shelfwatch-backend/pkg/pagination"
)

var errInboxUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable")

// inboxAction handles one request on behalf of an authenticated user and returns the payload.
type inboxAction func(r *http.Request, svc notifications.Service, userID uuid.UUID) (any, error)

// inboxHandler resolves the caller and writes whatever the action produced.
func inboxHandler(svc notifications.Service, logg *logger.Logger, action inboxAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errInboxUnavailable)
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payload, err := action(r, svc, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}

// ListNotifications returns the caller's inbox, newest first.
// Query: limit (1..MaxLimit), cursor (opaque), unreadOnly (bool).
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return inboxHandler(svc, logg, func(r *http.Request, svc notifications.Service, userID uuid.UUID) (any, error) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			return nil, err
		}
		unread, err := validators.ParseQueryBool(r, "unreadOnly")
		if err != nil {
			return nil, err
		}
		return svc.List(r.Context(), notifications.ListParams{
			UserID:     userID,
			Limit:      limit,
			Cursor:     validators.QueryString(r, "cursor"),
			UnreadOnly: unread != nil && *unread,
		})
	})
}

// UnreadNotificationCount powers the inbox badge.
func UnreadNotificationCount(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return inboxHandler(svc, logg, func(r *http.Request, svc notifications.Service, userID uuid.UUID) (any, error) {
		n, err := svc.CountUnread(r.Context(), userID)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"unread": n}, nil
	})
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return inboxHandler(svc, logg, func(r *http.Request, svc notifications.Service, userID uuid.UUID) (any, error) {
		id, err := parseUUIDParam(r, "notificationId", "notification id")
		if err != nil {
			return nil, err
		}
		if err := svc.MarkRead(r.Context(), userID, id); err != nil {
			return nil, err
		}
		return map[string]bool{"read": true}, nil
	})
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return inboxHandler(svc, logg, func(r *http.Request, svc notifications.Service, userID uuid.UUID) (any, error) {
		n, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"updated": n}, nil
	})
}
