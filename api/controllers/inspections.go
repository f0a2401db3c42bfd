package controllers

import (
	"net/http"

	"github.com/angelmondragon/shelfwatch-backend/api/middleware"
	"github.com/angelmondragon/shelfwatch-backend/api/responses"
	"github.com/angelmondragon/shelfwatch-backend/api/validators"
	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
)

type inspectRequest struct {
	Reason       string `json:"reason" validate:"required"`
	CustomReason string `json:"custom_reason" validate:"max=500"`
}

type batchInspectRequest struct {
	ItemIDs      []string `json:"item_ids" validate:"required,min=1,max=500"`
	Reason       string   `json:"reason" validate:"required"`
	CustomReason string   `json:"custom_reason" validate:"max=500"`
}

// InspectItem marks one item inspected on behalf of the caller. Repeating the call on
// an inspected item returns it unchanged.
func InspectItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInventoryUnavailable)
			return
		}
		itemID, err := parseUUIDParam(r, "itemId", "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inspectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Inspect(r.Context(), inventory.InspectInput{
			ItemID:       itemID,
			Reason:       body.Reason,
			CustomReason: validators.SanitizeString(body.CustomReason, 500),
			ActorID:      middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// InspectItems applies one inspection to many items and returns the ones that succeeded.
func InspectItems(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInventoryUnavailable)
			return
		}
		var body batchInspectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ids, err := parseUUIDList(body.ItemIDs, "item_ids")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views, err := svc.InspectBatch(r.Context(), inventory.BatchInspectInput{
			ItemIDs:      ids,
			Reason:       body.Reason,
			CustomReason: validators.SanitizeString(body.CustomReason, 500),
			ActorID:      middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": views, "inspected": len(views)})
	}
}
