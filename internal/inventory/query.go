package inventory

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/angelmondragon/shelfwatch-backend/internal/expiry"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	"github.com/angelmondragon/shelfwatch-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive window; either bound may be nil.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

func (r DateRange) contains(t *time.Time) bool {
	if r.IsZero() {
		return true
	}
	if t == nil {
		return false
	}
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Filter is the conjunction of every populated field.
type Filter struct {
	Search           string             `json:"search,omitempty"`
	Brand            string             `json:"brand,omitempty"`
	Aisle            string             `json:"aisle,omitempty"`
	Category         string             `json:"category,omitempty"`
	Supplier         string             `json:"supplier,omitempty"`
	Lot              string             `json:"lot,omitempty"`
	Inspected        *bool              `json:"inspected,omitempty"`
	InspectionReason string             `json:"inspection_reason,omitempty"`
	Expiration       DateRange          `json:"expiration"`
	Manufacture      DateRange          `json:"manufacture"`
	Receipt          DateRange          `json:"receipt"`
	Bucket           enums.ExpiryBucket `json:"bucket,omitempty"`
}

// Query bundles a filter with ordering and an optional page.
type Query struct {
	Filter Filter
	Sort   Sort
	Page   pagination.Page
}

// ParseDateBound accepts YYYY-MM-DD (expanded to the start or end of that day in loc)
// or an RFC3339 instant used as-is. Empty input yields nil.
func ParseDateBound(value string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if day, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		bound := day
		if endOfDay {
			bound = expiry.EndOfDay(day)
		}
		return &bound, nil
	}
	instant, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", value)
	}
	return &instant, nil
}

// matcher holds the case-folded filter inputs.
type matcher struct {
	filter  Filter
	fold    cases.Caser
	search  string
	brand   string
	aisle   string
	cat     string
	sup     string
	lot     string
	reason  string
	anyElse bool
}

func newMatcher(f Filter) *matcher {
	m := &matcher{filter: f, fold: cases.Fold()}
	m.search = m.norm(f.Search)
	m.brand = m.norm(f.Brand)
	m.aisle = m.norm(f.Aisle)
	m.cat = m.norm(f.Category)
	m.sup = m.norm(f.Supplier)
	m.lot = m.norm(f.Lot)
	m.reason = m.norm(f.InspectionReason)
	m.anyElse = m.reason == string(enums.InspectionReasonOther)
	return m
}

func (m *matcher) norm(s string) string {
	return m.fold.String(strings.TrimSpace(s))
}

func (m *matcher) equal(want, got string) bool {
	return want == "" || want == m.norm(got)
}

func (m *matcher) match(v View) bool {
	if m.search != "" &&
		!strings.Contains(m.norm(v.Description), m.search) &&
		!strings.Contains(m.norm(v.Barcode), m.search) &&
		!strings.Contains(m.norm(v.Brand), m.search) &&
		!strings.Contains(m.norm(v.Lot), m.search) {
		return false
	}
	if !m.equal(m.brand, v.Brand) ||
		!m.equal(m.aisle, v.Aisle) ||
		!m.equal(m.cat, v.Category) ||
		!m.equal(m.sup, v.Supplier) ||
		!m.equal(m.lot, v.Lot) {
		return false
	}
	if m.filter.Inspected != nil && *m.filter.Inspected != v.Inspected {
		return false
	}
	if m.reason != "" {
		if m.anyElse {
			if v.InspectionReason == "" || enums.IsFixedInspectionReason(v.InspectionReason) {
				return false
			}
		} else if m.reason != m.norm(v.InspectionReason) {
			return false
		}
	}
	if !m.filter.Expiration.contains(v.ExpiresAt) ||
		!m.filter.Manufacture.contains(v.ManufacturedAt) ||
		!m.filter.Receipt.contains(v.ReceivedAt) {
		return false
	}
	if m.filter.Bucket != "" && v.Status != m.filter.Bucket {
		return false
	}
	return true
}

// Apply filters views, keeping their order.
func Apply(views []View, f Filter) []View {
	m := newMatcher(f)
	out := make([]View, 0, len(views))
	for _, v := range views {
		if m.match(v) {
			out = append(out, v)
		}
	}
	return out
}

// Run executes filter, then sort, then pagination. total is the filtered size
// before paging.
func Run(views []View, q Query) (page []View, total int) {
	filtered := Apply(views, q.Filter)
	SortViews(filtered, q.Sort)
	return pagination.Window(filtered, q.Page), len(filtered)
}
