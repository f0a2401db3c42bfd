package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/shelfwatch-backend/api/middleware"
	"github.com/angelmondragon/shelfwatch-backend/api/responses"
	"github.com/angelmondragon/shelfwatch-backend/api/validators"
	"github.com/angelmondragon/shelfwatch-backend/internal/alerts"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
)

var errAlertsUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "alerts service unavailable")

// ListAlerts returns live alerts, optionally narrowed by kind and activation state.
func ListAlerts(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errAlertsUnavailable)
			return
		}

		var params alerts.ListParams
		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParseAlertKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			params.Kind = &kind
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("active")); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid active value"))
				return
			}
			params.Active = &active
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": list})
	}
}

// CreateAlert schedules a custom alert authored by the caller.
func CreateAlert(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errAlertsUnavailable)
			return
		}
		var input alerts.CreateCustomInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.CreatedBy = middleware.ActorFromContext(r.Context())

		alert, err := svc.CreateCustom(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, alert)
	}
}

func GetAlert(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errAlertsUnavailable)
			return
		}
		alertID, err := parseUUIDParam(r, "alertId", "alert id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alert, err := svc.Get(r.Context(), alertID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}

// UpdateAlert patches a custom alert. Automatic alerts are rejected by the service.
func UpdateAlert(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errAlertsUnavailable)
			return
		}
		alertID, err := parseUUIDParam(r, "alertId", "alert id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input alerts.UpdateCustomInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alert, err := svc.UpdateCustom(r.Context(), alertID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}

func DeleteAlert(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errAlertsUnavailable)
			return
		}
		alertID, err := parseUUIDParam(r, "alertId", "alert id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
