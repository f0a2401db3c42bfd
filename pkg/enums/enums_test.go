package enums

import "testing"

func TestParseExpiryBucketAliases(t *testing.T) {
	cases := map[string]ExpiryBucket{
		"vencido":   ExpiryBucketExpired,
		"Hoje":      ExpiryBucketDueToday,
		"due-today": ExpiryBucketDueToday,
		" upcoming": ExpiryBucketUpcoming,
		"ok":        ExpiryBucketOK,
	}
	for raw, want := range cases {
		got, err := ParseExpiryBucket(raw)
		if err != nil {
			t.Fatalf("ParseExpiryBucket(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseExpiryBucket(%q) = %s, want %s", raw, got, want)
		}
	}
	if _, err := ParseExpiryBucket("later"); err == nil {
		t.Fatal("expected error for unknown bucket")
	}
}

func TestFixedInspectionReason(t *testing.T) {
	if !IsFixedInspectionReason("Damage") {
		t.Fatal("damage should be fixed")
	}
	if IsFixedInspectionReason("cracked seal") {
		t.Fatal("free text should not be fixed")
	}
}

func TestAlertKindEditable(t *testing.T) {
	if !AlertKindCustom.IsEditable() {
		t.Fatal("custom alerts must be editable")
	}
	for _, kind := range []AlertKind{AlertKindDueToday, AlertKindDueTomorrow, AlertKindOverdue} {
		if kind.IsEditable() {
			t.Fatalf("%s must not be editable", kind)
		}
	}
}

func TestParseSortDirection(t *testing.T) {
	for raw, want := range map[string]SortDirection{"": SortAsc, "ASC": SortAsc, " desc ": SortDesc} {
		got, err := ParseSortDirection(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSortDirection(%q) = %s, %v", raw, got, err)
		}
	}
	if _, err := ParseSortDirection("sideways"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestParseReportFormat(t *testing.T) {
	for raw, want := range map[string]ReportFormat{"": ReportFormatXLSX, "XLSX": ReportFormatXLSX, "pdf": ReportFormatPDF} {
		got, err := ParseReportFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseReportFormat(%q) = %s, %v", raw, got, err)
		}
	}
	if _, err := ParseReportFormat("csv"); err == nil {
		t.Fatal("expected error for csv")
	}
}
