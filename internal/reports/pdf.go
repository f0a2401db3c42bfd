package reports

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// pdfColumn lays a view field on maroto's 12-column grid.
type pdfColumn struct {
	header string
	size   int
	align  align.Type
	value  func(v inventory.View, loc *time.Location) string
}

var pdfColumns = []pdfColumn{
	{"Product", 3, align.Left, func(v inventory.View, _ *time.Location) string { return v.Description }},
	{"Lot", 1, align.Left, func(v inventory.View, _ *time.Location) string { return v.Lot }},
	{"Aisle", 1, align.Left, func(v inventory.View, _ *time.Location) string { return v.Aisle }},
	{"Expires", 2, align.Center, func(v inventory.View, loc *time.Location) string { return formatDate(v.ExpiresAt, loc) }},
	{"Status", 2, align.Center, func(v inventory.View, _ *time.Location) string { return statusLabel(v.Status) }},
	{"Price", 1, align.Right, func(v inventory.View, _ *time.Location) string { return v.UnitPrice.StringFixed(2) }},
	{"Inspected by", 2, align.Left, func(v inventory.View, _ *time.Location) string { return v.InspectedBy }},
}

// PDFRenderer prints views as an A4 table.
type PDFRenderer struct {
	loc *time.Location
	now func() time.Time
}

// NewPDFRenderer formats dates in loc; now stamps the generation time in the header.
func NewPDFRenderer(loc *time.Location, now func() time.Time) *PDFRenderer {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &PDFRenderer{loc: loc, now: now}
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }

func (r *PDFRenderer) Extension() string { return "pdf" }

func (r *PDFRenderer) Render(ctx context.Context, title string, rows []inventory.View) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(title, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(r.headerRow(title, len(rows)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeader())
	for i, view := range rows {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		m.AddRows(r.tableRow(view))
	}
	if len(rows) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("No items match this report.", props.Text{Size: 8, Top: 2, Color: colorGray}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return doc.GetBytes(), nil
}

func (r *PDFRenderer) headerRow(title string, count int) core.Row {
	generated := r.now().In(r.loc).Format("2006-01-02 15:04")
	return row.New(16).Add(
		col.New(8).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		),
		col.New(4).Add(
			text.New(fmt.Sprintf("%d items", count), props.Text{Size: 8, Align: align.Right, Top: 2}),
			text.New("Generated "+generated, props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorGray}),
		),
	)
}

func tableHeader() core.Row {
	cols := make([]core.Col, 0, len(pdfColumns))
	for _, c := range pdfColumns {
		cols = append(cols, col.New(c.size).Add(text.New(c.header, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cols...)
}

func (r *PDFRenderer) tableRow(v inventory.View) core.Row {
	cols := make([]core.Col, 0, len(pdfColumns))
	for _, c := range pdfColumns {
		cols = append(cols, col.New(c.size).Add(text.New(c.value(v, r.loc), props.Text{
			Size: 7, Align: c.align, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}
