package controllers

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/shelfwatch-backend/api/validators"
	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
	"github.com/angelmondragon/shelfwatch-backend/pkg/pagination"
)

const (
	maxPageSize   = 500
	maxPageNumber = 1 << 20
)

// parseInventoryFilter reads every filter field from the query string. Date bounds are
// interpreted in loc.
func parseInventoryFilter(r *http.Request, loc *time.Location) (inventory.Filter, error) {
	q := r.URL.Query()
	f := inventory.Filter{
		Search:           strings.TrimSpace(q.Get("search")),
		Brand:            strings.TrimSpace(q.Get("brand")),
		Aisle:            strings.TrimSpace(q.Get("aisle")),
		Category:         strings.TrimSpace(q.Get("category")),
		Supplier:         strings.TrimSpace(q.Get("supplier")),
		Lot:              strings.TrimSpace(q.Get("lot")),
		InspectionReason: strings.TrimSpace(q.Get("inspectionReason")),
	}

	inspected, err := validators.ParseQueryBool(r, "inspected")
	if err != nil {
		return f, err
	}
	f.Inspected = inspected

	if raw := strings.TrimSpace(q.Get("bucket")); raw != "" {
		bucket, err := enums.ParseExpiryBucket(raw)
		if err != nil {
			return f, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bucket")
		}
		f.Bucket = bucket
	}

	ranges := []struct {
		from, to string
		dest     *inventory.DateRange
	}{
		{"expiresFrom", "expiresTo", &f.Expiration},
		{"manufacturedFrom", "manufacturedTo", &f.Manufacture},
		{"receivedFrom", "receivedTo", &f.Receipt},
	}
	for _, rg := range ranges {
		from, err := inventory.ParseDateBound(q.Get(rg.from), loc, false)
		if err != nil {
			return f, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+rg.from)
		}
		to, err := inventory.ParseDateBound(q.Get(rg.to), loc, true)
		if err != nil {
			return f, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+rg.to)
		}
		rg.dest.From, rg.dest.To = from, to
	}
	return f, nil
}

func parseInventorySort(r *http.Request) (inventory.Sort, error) {
	dir, err := enums.ParseSortDirection(r.URL.Query().Get("direction"))
	if err != nil {
		return inventory.Sort{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction")
	}
	return inventory.Sort{
		Field:     inventory.ParseSortField(r.URL.Query().Get("sort")),
		Direction: dir,
	}, nil
}

// parseInventoryPage treats a zero or negative page or size as "no pagination".
func parseInventoryPage(r *http.Request) (pagination.Page, error) {
	page, err := validators.ParseQueryInt(r, "page", 0, math.MinInt32, maxPageNumber)
	if err != nil {
		return pagination.Page{}, err
	}
	size, err := validators.ParseQueryInt(r, "size", 0, math.MinInt32, maxPageSize)
	if err != nil {
		return pagination.Page{}, err
	}
	return pagination.Page{Number: max(page, 0), Size: max(size, 0)}, nil
}

func parseInventoryQuery(r *http.Request, loc *time.Location) (inventory.Query, error) {
	filter, err := parseInventoryFilter(r, loc)
	if err != nil {
		return inventory.Query{}, err
	}
	sortBy, err := parseInventorySort(r)
	if err != nil {
		return inventory.Query{}, err
	}
	page, err := parseInventoryPage(r)
	if err != nil {
		return inventory.Query{}, err
	}
	return inventory.Query{Filter: filter, Sort: sortBy, Page: page}, nil
}
