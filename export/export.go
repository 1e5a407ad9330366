// Package export writes a render pass to disk.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"climate-dashboard/charts"
	"climate-dashboard/models"
	"climate-dashboard/services"
	"climate-dashboard/storage"
	"climate-dashboard/utils"
)

const (
	DashboardFile = "dashboard.json"
	RecordsFile   = "records.csv"
)

// Summary lists what an export produced.
type Summary struct {
	Dir     string
	Charts  []string
	Skipped []string
	Records int
}

// Exporter writes the dashboard JSON, the normalized records and one PNG
// per non-empty chart widget.
type Exporter struct {
	renderer *charts.Renderer
	workers  int
	logger   *utils.Logger
}

func New(renderer *charts.Renderer, workers int, logger *utils.Logger) *Exporter {
	return &Exporter{renderer: renderer, workers: workers, logger: logger}
}

// Export writes res into dir, creating it if needed. Chart files are
// rendered concurrently; every chart failure is reported, joined.
func (e *Exporter) Export(ctx context.Context, res *services.Result, dir string) (*Summary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create %s: %w", dir, err)
	}
	sum := &Summary{Dir: dir, Records: len(res.Dataset.Records)}

	if err := writeJSON(filepath.Join(dir, DashboardFile), res.Dashboard); err != nil {
		return nil, err
	}

	csvWriter, err := storage.NewCSVWriter(filepath.Join(dir, RecordsFile))
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := csvWriter.WriteRecords(res.Dataset.Records); err != nil {
		_ = csvWriter.Close()
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := csvWriter.Close(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	pool := utils.NewWorkerPool(e.workers)
	for i := range res.Dashboard.Widgets {
		widget := &res.Dashboard.Widgets[i]
		if !charts.IsChart(widget.Kind) {
			continue
		}
		if widget.IsEmpty() {
			sum.Skipped = append(sum.Skipped, widget.ID)
			continue
		}

		path := filepath.Join(dir, widget.ID+".png")
		sum.Charts = append(sum.Charts, path)
		pool.Submit(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.writeChart(path, widget)
		})
	}

	if errs := pool.Wait(); len(errs) > 0 {
		return sum, fmt.Errorf("export: %d of %d charts failed: %w", len(errs), len(sum.Charts), errors.Join(errs...))
	}

	e.logger.Info("[export] wrote %s, %s and %d charts to %s (%d skipped as empty)",
		DashboardFile, RecordsFile, len(sum.Charts), dir, len(sum.Skipped))
	return sum, nil
}

func (e *Exporter) writeChart(path string, widget *models.Widget) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.renderer.Render(f, widget); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	e.logger.Debug("[export] chart %s → %s", widget.ID, path)
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
