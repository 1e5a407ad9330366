package models

import (
	"encoding/json"
	"time"
)

// Table holds one worksheet exactly as read from the workbook.
// Headers come from the first row; every row in Rows is padded to len(Headers).
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]string
}

// Column returns the index of the header with the given exact name.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Headers {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the text at (row, col), or "" when either index is out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// NullFloat is a float64 that may be missing. Missing is distinct from zero.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float wraps a present value.
func Float(v float64) NullFloat { return NullFloat{Float64: v, Valid: true} }

// OrZero returns the value, or 0 when missing.
func (n NullFloat) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Float64
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// NullString is a text cell that may be missing (an empty cell).
type NullString struct {
	String string
	Valid  bool
}

// Text wraps a cell's text; the empty string is missing.
func Text(s string) NullString { return NullString{String: s, Valid: s != ""} }

func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

// NullDate is a calendar date that may be missing.
type NullDate struct {
	Time  time.Time
	Valid bool
}

// DateLayout is the canonical rendering of a date throughout the dashboard.
const DateLayout = "2006-01-02"

func (n NullDate) String() string {
	if !n.Valid {
		return ""
	}
	return n.Time.Format(DateLayout)
}

func (n NullDate) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String())
}

// ProjectRecord is one normalized row of the project sheet.
type ProjectRecord struct {
	Project        NullString `json:"project"`
	Phase          NullString `json:"phase"`
	Provinces      string     `json:"provinces"`
	RequiredBudget NullFloat  `json:"required_budget"`
	ExecutedBudget NullFloat  `json:"executed_budget"`
	Area           NullFloat  `json:"area_ha"`
	AvoidedCO2     NullFloat  `json:"avoided_co2_t"`
	Progress       NullFloat  `json:"progress"`
	EndDate        NullDate   `json:"end_date"`
	// Year is the calendar year of EndDate; Valid mirrors EndDate.Valid.
	Year int `json:"year,omitempty"`
}

// Schema records which logical columns a table carries. A missing column
// empties the views that depend on it and nothing else.
type Schema struct {
	Project        bool `json:"project"`
	Phase          bool `json:"phase"`
	Province       bool `json:"province"`
	RequiredBudget bool `json:"required_budget"`
	ExecutedBudget bool `json:"executed_budget"`
	Area           bool `json:"area"`
	AvoidedCO2     bool `json:"avoided_co2"`
	Progress       bool `json:"progress"`
	EndDate        bool `json:"end_date"`
}

// Dataset is the normalizer's output: the records plus the bound schema.
type Dataset struct {
	Schema  Schema
	Records []ProjectRecord
}
