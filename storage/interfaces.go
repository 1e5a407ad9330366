package storage

import "climate-dashboard/models"

// TableLoader turns uploaded workbook bytes into a table.
type TableLoader interface {
	Load(name string, data []byte) (*models.Table, error)
}

// RecordWriter is the interface for exporting normalized records.
type RecordWriter interface {
	WriteRecords(records []models.ProjectRecord) error
	Close() error
}
