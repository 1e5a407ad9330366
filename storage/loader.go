package storage

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"climate-dashboard/models"
	"climate-dashboard/utils"
)

var (
	// ErrSheetNotFound reports that the workbook has no sheet with the requested name.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNotSpreadsheet reports bytes that neither xlsx nor xls readers accept.
	ErrNotSpreadsheet = errors.New("not a valid spreadsheet")
	// ErrEmptySheet reports a sheet without a header row.
	ErrEmptySheet = errors.New("sheet is empty")
)

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	// exponentRegexp matches numbers stored in scientific notation, e.g. 1.2E+6.
	exponentRegexp = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)[eE][+-]?\d+$`)
)

// DataLoadError is returned when a workbook cannot produce the requested sheet.
// It is fatal for the render pass.
type DataLoadError struct {
	Source string
	Sheet  string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("loader: %s (sheet %q): %v", e.Source, e.Sheet, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// WorkbookLoader reads one named sheet from .xlsx or .xls bytes.
type WorkbookLoader struct {
	sheet  string
	logger *utils.Logger
}

// NewWorkbookLoader creates a loader for the given sheet name.
func NewWorkbookLoader(sheet string, logger *utils.Logger) *WorkbookLoader {
	return &WorkbookLoader{sheet: sheet, logger: logger}
}

// Sheet returns the sheet name this loader extracts.
func (l *WorkbookLoader) Sheet() string { return l.sheet }

// Load parses data and returns the configured sheet as a table. name is the
// upload's file name; its extension picks the reader, falling back to the
// file signature when the extension is unknown.
func (l *WorkbookLoader) Load(name string, data []byte) (*models.Table, error) {
	var (
		rows [][]string
		err  error
	)

	switch detectFormat(name, data) {
	case formatXLSX:
		rows, err = l.readXLSX(data)
	case formatXLS:
		rows, err = l.readXLS(data)
	default:
		err = ErrNotSpreadsheet
	}
	if err != nil {
		return nil, &DataLoadError{Source: name, Sheet: l.sheet, Err: err}
	}

	table, err := buildTable(l.sheet, rows)
	if err != nil {
		return nil, &DataLoadError{Source: name, Sheet: l.sheet, Err: err}
	}

	l.logger.Info("[loader] %s: sheet %q → %d columns, %d rows",
		name, l.sheet, len(table.Headers), len(table.Rows))
	return table, nil
}

type format int

const (
	formatUnknown format = iota
	formatXLSX
	formatXLS
)

func detectFormat(name string, data []byte) format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return formatXLSX
	case ".xls":
		return formatXLS
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return formatXLSX
	case bytes.HasPrefix(data, ole2Magic):
		return formatXLS
	}
	return formatUnknown
}

func (l *WorkbookLoader) readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSpreadsheet, err)
	}
	defer func() { _ = f.Close() }()

	idx, err := f.GetSheetIndex(l.sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, l.sheet,
			strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(l.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	for _, row := range rows {
		for i, cell := range row {
			row[i] = canonicalNumber(cell)
		}
	}
	return rows, nil
}

func (l *WorkbookLoader) readXLS(data []byte) (rows [][]string, err error) {
	// xls panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: xls reader: %v", ErrNotSpreadsheet, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSpreadsheet, err)
	}

	var names []string
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		if sheet.Name != l.sheet {
			names = append(names, sheet.Name)
			continue
		}

		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = canonicalNumber(row.Col(c))
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}

	return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, l.sheet, strings.Join(names, ", "))
}

// buildTable turns raw rows into a Table: the first row is the header, blank
// rows are skipped and every data row is padded or cut to the header width.
func buildTable(sheet string, rows [][]string) (*models.Table, error) {
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, ErrEmptySheet
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	// Trailing unnamed header cells carry no column.
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}

	table := &models.Table{Sheet: sheet, Headers: headers}
	for _, raw := range rows[1:] {
		if isBlank(raw) {
			continue
		}
		row := make([]string, len(headers))
		copy(row, raw)
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// canonicalNumber rewrites scientific notation as plain decimal text so the
// numeric stripping rule sees the same digits a spreadsheet user would.
func canonicalNumber(cell string) string {
	if !exponentRegexp.MatchString(cell) {
		return cell
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return cell
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
