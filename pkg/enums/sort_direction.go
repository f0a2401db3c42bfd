package enums

import (
	"fmt"
	"strings"
)

// SortDirection orders listing results.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection accepts asc/desc in any case; empty input means ascending.
func ParseSortDirection(value string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", value)
}

// ReportFormat selects the export renderer.
type ReportFormat string

const (
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ParseReportFormat defaults to xlsx for empty input.
func ParseReportFormat(value string) (ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "xlsx":
		return ReportFormatXLSX, nil
	case "pdf":
		return ReportFormatPDF, nil
	}
	return "", fmt.Errorf("invalid report format %q", value)
}
