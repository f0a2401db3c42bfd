// Package reports renders inventory views into downloadable documents.
package reports

import (
	"time"

	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
)

const reportDateLayout = "2006-01-02"

var statusLabels = map[enums.ExpiryBucket]string{
	enums.ExpiryBucketExpired:  "Expired",
	enums.ExpiryBucketDueToday: "Due today",
	enums.ExpiryBucketUpcoming: "Upcoming",
	enums.ExpiryBucketOK:       "OK",
}

type column struct {
	header string
	width  float64
	value  func(v inventory.View, loc *time.Location) any
}

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(reportDateLayout)
}

func statusLabel(b enums.ExpiryBucket) string {
	if label, ok := statusLabels[b]; ok {
		return label
	}
	return "-"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

var columns = []column{
	{"Product", 32, func(v inventory.View, _ *time.Location) any { return v.Description }},
	{"Brand", 16, func(v inventory.View, _ *time.Location) any { return v.Brand }},
	{"Barcode", 16, func(v inventory.View, _ *time.Location) any { return v.Barcode }},
	{"Category", 16, func(v inventory.View, _ *time.Location) any { return v.Category }},
	{"Aisle", 10, func(v inventory.View, _ *time.Location) any { return v.Aisle }},
	{"Supplier", 18, func(v inventory.View, _ *time.Location) any { return v.Supplier }},
	{"Lot", 12, func(v inventory.View, _ *time.Location) any { return v.Lot }},
	{"Unit price", 12, func(v inventory.View, _ *time.Location) any { return v.UnitPrice.InexactFloat64() }},
	{"Manufactured", 13, func(v inventory.View, loc *time.Location) any { return formatDate(v.ManufacturedAt, loc) }},
	{"Expires", 13, func(v inventory.View, loc *time.Location) any { return formatDate(v.ExpiresAt, loc) }},
	{"Received", 13, func(v inventory.View, loc *time.Location) any { return formatDate(v.ReceivedAt, loc) }},
	{"Status", 11, func(v inventory.View, _ *time.Location) any { return statusLabel(v.Status) }},
	{"Inspected", 10, func(v inventory.View, _ *time.Location) any { return yesNo(v.Inspected) }},
	{"Reason", 18, func(v inventory.View, _ *time.Location) any { return v.InspectionReason }},
	{"Inspected by", 16, func(v inventory.View, _ *time.Location) any { return v.InspectedBy }},
}
