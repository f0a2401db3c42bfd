package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
)

const xlsxSheet = "Inventory"

// XLSXRenderer writes one worksheet: a title row, a header row and one row per view.
type XLSXRenderer struct {
	loc *time.Location
}

// NewXLSXRenderer formats dates in loc (UTC when nil).
func NewXLSXRenderer(loc *time.Location) *XLSXRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &XLSXRenderer{loc: loc}
}

func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *XLSXRenderer) Extension() string { return "xlsx" }

func (r *XLSXRenderer) Render(ctx context.Context, title string, rows []inventory.View) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00467F"}},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx: header style: %w", err)
	}

	if err := f.SetCellValue(xlsxSheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}

	for i, c := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(xlsxSheet, cell, c.header); err != nil {
			return nil, err
		}
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(xlsxSheet, colName, colName, c.width); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(columns), 2)
	if err := f.SetCellStyle(xlsxSheet, "A2", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for i, view := range rows {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		values := make([]any, 0, len(columns))
		for _, c := range columns {
			values = append(values, c.value(view, r.loc))
		}
		start, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(xlsxSheet, start, &values); err != nil {
			return nil, fmt.Errorf("xlsx: write row %d: %w", i+3, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
