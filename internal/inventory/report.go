package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

var bucketReportTitles = map[enums.ExpiryBucket]string{
	enums.ExpiryBucketExpired:  "Expired items",
	enums.ExpiryBucketDueToday: "Items expiring today",
	enums.ExpiryBucketUpcoming: "Items expiring soon",
	enums.ExpiryBucketOK:       "Items within shelf life",
}

// ReportTitle picks the export title for a filter.
func ReportTitle(f Filter) string {
	if title, ok := bucketReportTitles[f.Bucket]; ok {
		return title
	}
	if f.Inspected != nil && *f.Inspected {
		return "Inspected items"
	}
	return "Inventory report"
}

func (s *service) Report(ctx context.Context, q Query, format enums.ReportFormat) (*Report, error) {
	renderer, ok := s.renderers[format]
	if !ok || renderer == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported report format %q", format)
	}

	all, now, err := s.views(ctx)
	if err != nil {
		return nil, err
	}
	rows, _ := Run(all, q)
	title := ReportTitle(q.Filter)

	body, err := renderer.Render(ctx, title, rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render report")
	}

	slug := strings.ReplaceAll(strings.ToLower(title), " ", "-")
	return &Report{
		Title:       title,
		Filename:    fmt.Sprintf("%s-%s.%s", slug, now.Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
		Rows:        len(rows),
	}, nil
}
