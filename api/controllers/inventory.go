package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shelfwatch-backend/api/responses"
	"github.com/angelmondragon/shelfwatch-backend/api/validators"
	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
)

var errInventoryUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable")

// InventoryList returns the filtered, sorted and optionally paged inventory. Date filters
// are read in loc.
func InventoryList(svc inventory.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInventoryUnavailable)
			return
		}
		q, err := parseInventoryQuery(r, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Query(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func InventoryCount(svc inventory.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInventoryUnavailable)
			return
		}
		filter, err := parseInventoryFilter(r, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		count, err := svc.Count(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"count": count})
	}
}

// InventoryPageCount answers how many pages of the given size the filter produces.
func InventoryPageCount(svc inventory.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInventoryUnavailable)
			return
		}
		filter, err := parseInventoryFilter(r, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", 0, 0, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if size == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "size is required").WithDetails(map[string]any{"field": "size"}))
			return
		}
		pages, err := svc.PageCount(r.Context(), filter, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"pages": pages, "size": size})
	}
}

func InventoryBucket(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInventoryUnavailable)
			return
		}
		bucket, err := enums.ParseExpiryBucket(chi.URLParam(r, "bucket"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bucket"))
			return
		}
		sortBy, err := parseInventorySort(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListBucket(r.Context(), bucket, sortBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"bucket": bucket, "items": items})
	}
}

func InventoryFilterOptions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInventoryUnavailable)
			return
		}
		opts, err := svc.FilterOptions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, opts)
	}
}

// InventoryReport downloads the filtered subset as xlsx (default) or pdf.
func InventoryReport(svc inventory.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInventoryUnavailable)
			return
		}
		format, err := enums.ParseReportFormat(r.URL.Query().Get("format"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid format"))
			return
		}
		q, err := parseInventoryQuery(r, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Report(r.Context(), q, format)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteFile(w, report.Filename, report.ContentType, report.Body)
	}
}

// InventoryReceive registers a new lot.
func InventoryReceive(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInventoryUnavailable)
			return
		}
		var input inventory.ReceiveInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Lot = validators.SanitizeString(input.Lot, 64)
		view, err := svc.Receive(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func InventoryRemove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.Remove(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
