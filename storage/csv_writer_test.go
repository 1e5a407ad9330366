package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"climate-dashboard/models"
)

func TestCSVWriterWritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "records.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	records := []models.ProjectRecord{
		{
			Project:        models.Text("Reforestación"),
			Phase:          models.Text("Ejecución"),
			Provinces:      "Pichincha, Azuay",
			RequiredBudget: models.Float(1200.5),
			Progress:       models.Float(0.25),
			EndDate:        models.NullDate{Time: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), Valid: true},
			Year:           2025,
		},
		{Project: models.Text("Manglares")},
	}
	if err := w.WriteRecords(records); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header: got %v", rows[0])
	}

	first := rows[1]
	if first[3] != "1200.5" || first[7] != "0.25" || first[8] != "2025-12-31" || first[9] != "2025" {
		t.Errorf("first row: got %v", first)
	}
	second := rows[2]
	for i := 1; i < len(second); i++ {
		if second[i] != "" {
			t.Errorf("missing values should be empty cells, column %d = %q", i, second[i])
		}
	}
}
