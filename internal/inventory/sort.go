package inventory

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
)

// SortField names a sortable view attribute.
type SortField string

const (
	SortDescription SortField = "description"
	SortBrand       SortField = "brand"
	SortBarcode     SortField = "barcode"
	SortUnit        SortField = "unit"
	SortCategory    SortField = "category"
	SortAisle       SortField = "aisle"
	SortSupplier    SortField = "supplier"
	SortLot         SortField = "lot"
	SortPrice       SortField = "price"
	SortExpiration  SortField = "expiration"
	SortManufacture SortField = "manufacture"
	SortReceipt     SortField = "receipt"
	SortInspected   SortField = "inspected"
	SortInspectedAt SortField = "inspectedAt"
	SortStatus      SortField = "status"
)

var sortFieldAliases = map[string]SortField{
	"description":     SortDescription,
	"product":         SortDescription,
	"brand":           SortBrand,
	"barcode":         SortBarcode,
	"unit":            SortUnit,
	"category":        SortCategory,
	"aisle":           SortAisle,
	"supplier":        SortSupplier,
	"lot":             SortLot,
	"price":           SortPrice,
	"unit_price":      SortPrice,
	"expiration":      SortExpiration,
	"expires_at":      SortExpiration,
	"manufacture":     SortManufacture,
	"manufactured_at": SortManufacture,
	"receipt":         SortReceipt,
	"received_at":     SortReceipt,
	"inspected":       SortInspected,
	"inspectedat":     SortInspectedAt,
	"inspected_at":    SortInspectedAt,
	"status":          SortStatus,
}

// ParseSortField maps a caller-supplied key to a field. Unknown keys sort by description.
func ParseSortField(value string) SortField {
	if field, ok := sortFieldAliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return field
	}
	return SortDescription
}

// Sort is a single-key ordering.
type Sort struct {
	Field     SortField           `json:"field"`
	Direction enums.SortDirection `json:"direction"`
}

var statusRank = map[enums.ExpiryBucket]int{
	enums.ExpiryBucketExpired:  0,
	enums.ExpiryBucketDueToday: 1,
	enums.ExpiryBucketUpcoming: 2,
	enums.ExpiryBucketOK:       3,
}

// SortViews orders views in place. Missing dates and statuses always sink to the end;
// equal keys fall back to item id ascending.
func SortViews(views []View, s Sort) {
	field := ParseSortField(string(s.Field))
	desc := s.Direction == enums.SortDesc
	fold := cases.Fold()

	str := func(a, b string) int {
		return strings.Compare(fold.String(a), fold.String(b))
	}
	directed := func(c int) int {
		if desc {
			return -c
		}
		return c
	}

	compare := func(a, b View) int {
		var c int
		switch field {
		case SortBrand:
			c = directed(str(a.Brand, b.Brand))
		case SortBarcode:
			c = directed(str(a.Barcode, b.Barcode))
		case SortUnit:
			c = directed(str(a.Unit, b.Unit))
		case SortCategory:
			c = directed(str(a.Category, b.Category))
		case SortAisle:
			c = directed(str(a.Aisle, b.Aisle))
		case SortSupplier:
			c = directed(str(a.Supplier, b.Supplier))
		case SortLot:
			c = directed(str(a.Lot, b.Lot))
		case SortPrice:
			c = directed(a.UnitPrice.Cmp(b.UnitPrice))
		case SortExpiration:
			c = compareTimes(a.ExpiresAt, b.ExpiresAt, desc)
		case SortManufacture:
			c = compareTimes(a.ManufacturedAt, b.ManufacturedAt, desc)
		case SortReceipt:
			c = compareTimes(a.ReceivedAt, b.ReceivedAt, desc)
		case SortInspectedAt:
			c = compareTimes(a.InspectedAt, b.InspectedAt, desc)
		case SortInspected:
			c = directed(compareBool(a.Inspected, b.Inspected))
		case SortStatus:
			c = compareStatus(a.Status, b.Status, desc)
		default:
			c = directed(str(a.Description, b.Description))
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ItemID.String(), b.ItemID.String())
	}

	slices.SortStableFunc(views, compare)
}

func compareTimes(a, b *time.Time, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := a.Compare(*b)
	if desc {
		return -c
	}
	return c
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareStatus(a, b enums.ExpiryBucket, desc bool) int {
	ra, okA := statusRank[a]
	rb, okB := statusRank[b]
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	c := cmp.Compare(ra, rb)
	if desc {
		return -c
	}
	return c
}
