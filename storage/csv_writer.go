package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"climate-dashboard/models"
)

// CSVWriter writes normalized project records as CSV, one row per record,
// with empty cells for missing values. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *csv.Writer
}

var csvHeader = []string{
	"project", "phase", "provinces", "required_budget_usd", "executed_budget_usd",
	"area_ha", "avoided_co2_t", "progress", "end_date", "year",
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w, err := newCSVWriter(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func newCSVWriter(out io.Writer, closer io.Closer) (*CSVWriter, error) {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	return &CSVWriter{closer: closer, writer: w}, nil
}

// WriteRecords appends the given records.
func (c *CSVWriter) WriteRecords(records []models.ProjectRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		year := ""
		if r.EndDate.Valid {
			year = strconv.Itoa(r.Year)
		}
		row := []string{
			r.Project.String,
			r.Phase.String,
			r.Provinces,
			formatNull(r.RequiredBudget),
			formatNull(r.ExecutedBudget),
			formatNull(r.Area),
			formatNull(r.AvoidedCO2),
			formatNull(r.Progress),
			r.EndDate.String(),
			year,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if c.closer == nil {
		return c.writer.Error()
	}
	return c.closer.Close()
}

func formatNull(n models.NullFloat) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}
