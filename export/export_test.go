package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"climate-dashboard/charts"
	"climate-dashboard/models"
	"climate-dashboard/services"
	"climate-dashboard/utils"
)

func render(t *testing.T, headers []string, rows ...[]string) *services.Result {
	t.Helper()
	table := &models.Table{Sheet: "Resumen 2025", Headers: headers, Rows: rows}
	return services.NewPipeline(services.DefaultTheme(), utils.Discard()).Render(context.Background(), table)
}

func fullResult(t *testing.T) *services.Result {
	return render(t,
		[]string{services.ColProject, services.ColPhase, services.ColProvinceMap, services.ColRequiredBudget,
			services.ColExecutedBudget, services.ColArea, services.ColAvoidedCO2, services.ColProgress, services.ColEndDate},
		[]string{"Reforestación Andina", "Ejecución", "Pichincha, Azuay", "$1,200.50", "800", "120", "45", "0.6", "2025-12-31"},
		[]string{"Manglares del Golfo", "Planificación", "Guayas", "3,000", "250", "80", "10", "0.2", "2026-03-15"},
	)
}

func newExporter() *Exporter {
	return New(charts.NewRenderer(charts.Options{}), 2, utils.Discard())
}

func TestExportWritesEverything(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res := fullResult(t)

	sum, err := newExporter().Export(context.Background(), res, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(sum.Charts) != 8 || len(sum.Skipped) != 0 {
		t.Errorf("charts: got %d written, %d skipped; want 8, 0", len(sum.Charts), len(sum.Skipped))
	}

	for _, path := range sum.Charts {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("read %s: %v", path, err)
			continue
		}
		if !bytes.HasPrefix(data, []byte("\x89PNG")) {
			t.Errorf("%s is not a PNG", path)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, DashboardFile))
	if err != nil {
		t.Fatal(err)
	}
	var dash models.Dashboard
	if err := json.Unmarshal(raw, &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.Title != services.DashboardTitle || len(dash.Widgets) != 10 {
		t.Errorf("dashboard: got %q with %d widgets", dash.Title, len(dash.Widgets))
	}

	f, err := os.Open(filepath.Join(dir, RecordsFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != sum.Records+1 {
		t.Errorf("csv rows: got %d, want %d", len(rows), sum.Records+1)
	}
}

func TestExportSkipsEmptyCharts(t *testing.T) {
	dir := t.TempDir()
	res := render(t, []string{services.ColProject, services.ColPhase}, []string{"A", "Cierre"})

	sum, err := newExporter().Export(context.Background(), res, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(sum.Charts) != 1 || len(sum.Skipped) != 7 {
		t.Errorf("charts: got %d written, %d skipped; want 1, 7", len(sum.Charts), len(sum.Skipped))
	}
	if _, err := os.Stat(filepath.Join(dir, services.WidgetProjectMap+".png")); !os.IsNotExist(err) {
		t.Error("empty map must not produce a file")
	}
}

func TestExportHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newExporter().Export(ctx, fullResult(t), t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Export error = %v; want context.Canceled", err)
	}
}
