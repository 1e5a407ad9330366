package services

import (
	"math"
	"testing"
	"time"

	"climate-dashboard/models"
	"climate-dashboard/utils"
)

func newTestLogger() *utils.Logger { return utils.Discard() }

func newTable(headers []string, rows ...[]string) *models.Table {
	t := &models.Table{Sheet: "Resumen 2025", Headers: headers}
	for _, r := range rows {
		row := make([]string, len(headers))
		copy(row, r)
		t.Rows = append(t.Rows, row)
	}
	return t
}

func TestParseNumericField(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"$1,200.50", 1200.50, true},
		{"1.200,50", 1.2005, true},
		{"1.200.50", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"nan", 0, false},
		{"1,234.56 USD", 1234.56, true},
		{"3500", 3500, true},
		{"0.45", 0.45, true},
		{"45%", 45, true},
		{"-5", 5, true},
		{"1.", 1, true},
		{".5", 0.5, true},
		{".", 0, false},
		{"1.2.3", 0, false},
		{"USD 99", 99, true},
	}

	for _, tt := range tests {
		got := ParseNumericField(tt.raw)
		if got.Valid != tt.valid {
			t.Errorf("ParseNumericField(%q).Valid = %v; want %v", tt.raw, got.Valid, tt.valid)
			continue
		}
		if tt.valid && got.Float64 != tt.want {
			t.Errorf("ParseNumericField(%q) = %v; want %v", tt.raw, got.Float64, tt.want)
		}
	}
}

func TestParseNumericFieldAlwaysFinite(t *testing.T) {
	huge := ""
	for i := 0; i < 400; i++ {
		huge += "9"
	}
	inputs := []string{huge, "∞", "Inf", "NaN", "1e400", "💰💰", "..", "0x1F", "\x00\xff"}

	for _, in := range inputs {
		got := ParseNumericField(in)
		if got.Valid && (math.IsInf(got.Float64, 0) || math.IsNaN(got.Float64)) {
			t.Errorf("ParseNumericField(%q) = %v; want finite or missing", in, got.Float64)
		}
	}
}

func TestParseDateField(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		raw   string
		want  time.Time
		valid bool
	}{
		{"2025-12-31", date(2025, 12, 31), true},
		{"2025-12-31 00:00:00", date(2025, 12, 31), true},
		{"2025-06-30T12:00:00Z", date(2025, 6, 30), true},
		{"2025/03/01", date(2025, 3, 1), true},
		{"03/01/2025", date(2025, 3, 1), true},
		{"Mar 1, 2025", date(2025, 3, 1), true},
		{"45658", date(2025, 1, 1), true},
		{"  ", time.Time{}, false},
		{"pronto", time.Time{}, false},
		{"31/12/2025", date(2025, 12, 31), true},
		{"5/9/2025", date(2025, 5, 9), true},
		{"25/9/2025", date(2025, 9, 25), true},
		{"31-12-2025", date(2025, 12, 31), true},
		{"2025", date(2025, 1, 1), true},
		{"32/13/2025", time.Time{}, false},
	}

	for _, tt := range tests {
		got := ParseDateField(tt.raw)
		if got.Valid != tt.valid {
			t.Errorf("ParseDateField(%q).Valid = %v; want %v", tt.raw, got.Valid, tt.valid)
			continue
		}
		if tt.valid && !got.Time.Equal(tt.want) {
			t.Errorf("ParseDateField(%q) = %v; want %v", tt.raw, got.Time, tt.want)
		}
	}
}

func TestNormalizeRecords(t *testing.T) {
	tbl := newTable(
		[]string{ColProject, ColPhase, ColProvinceMap, ColRequiredBudget, ColExecutedBudget, ColProgress, ColEndDate},
		[]string{"Reforestación", "Ejecución", "Pichincha", "$1,200.50", "1.200,50", "0.4", "2025-12-31"},
		[]string{"", "", "", "abc", "", "", "nunca"},
	)

	ds := NewNormalizer(newTestLogger()).Normalize(tbl)
	if len(ds.Records) != 2 {
		t.Fatalf("records: got %d, want 2", len(ds.Records))
	}

	r := ds.Records[0]
	if !r.Project.Valid || r.Project.String != "Reforestación" {
		t.Errorf("Project: got %+v", r.Project)
	}
	if r.RequiredBudget.Float64 != 1200.50 || !r.RequiredBudget.Valid {
		t.Errorf("RequiredBudget: got %+v", r.RequiredBudget)
	}
	if !r.ExecutedBudget.Valid || math.Abs(r.ExecutedBudget.Float64-1.2005) > 1e-9 {
		t.Errorf("ExecutedBudget: got %+v, want 1.2005", r.ExecutedBudget)
	}
	if !r.EndDate.Valid || r.Year != 2025 {
		t.Errorf("EndDate/Year: got %+v / %d", r.EndDate, r.Year)
	}
	if r.Provinces != "Pichincha" {
		t.Errorf("Provinces: got %q", r.Provinces)
	}

	empty := ds.Records[1]
	if empty.Project.Valid || empty.Phase.Valid || empty.RequiredBudget.Valid || empty.Progress.Valid || empty.EndDate.Valid {
		t.Errorf("second record should be all missing, got %+v", empty)
	}

	if ds.Schema.Area || ds.Schema.AvoidedCO2 {
		t.Error("absent columns must be reported absent in the schema")
	}
	if !ds.Schema.Province {
		t.Error("province column should be bound")
	}
}

func TestNormalizeProvinceFallback(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		row     []string
		want    string
	}{
		{"map column wins", []string{ColProvinceState, ColProvinceMap}, []string{"Azuay", "Loja"}, "Loja"},
		{"state column fallback", []string{ColProject, ColProvinceState}, []string{"P", "Azuay"}, "Azuay"},
		{"empty map cell does not fall back", []string{ColProvinceMap, ColProvinceState}, []string{"", "Azuay"}, ""},
		{"no province column", []string{ColProject}, []string{"P"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := NewNormalizer(newTestLogger()).Normalize(newTable(tt.headers, tt.row))
			if got := ds.Records[0].Provinces; got != tt.want {
				t.Errorf("Provinces = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeDoesNotMutateTable(t *testing.T) {
	tbl := newTable([]string{ColRequiredBudget}, []string{"$1,000"})
	NewNormalizer(newTestLogger()).Normalize(tbl)
	if tbl.Rows[0][0] != "$1,000" {
		t.Errorf("table was modified: %q", tbl.Rows[0][0])
	}
}
