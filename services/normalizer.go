package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"climate-dashboard/models"
	"climate-dashboard/utils"
)

// Source column headers, matched exactly.
const (
	ColProject        = "Plan/Proyecto/Iniciativa"
	ColPhase          = "Fase"
	ColProvinceMap    = "Provincia_mapa"
	ColProvinceState  = "Provincia/Estado"
	ColRequiredBudget = "Monto requerido (USD)"
	ColExecutedBudget = "Monto ejecutado (USD)"
	ColArea           = "Superficie intervenida (ha)"
	ColAvoidedCO2     = "CO2 eq evitado (t)"
	ColProgress       = "Porcentaje de avance global"
	ColEndDate        = "Fecha fin"
)

// provinceColumns is the ordered fallback for the province column.
var provinceColumns = []string{ColProvinceMap, ColProvinceState}

var (
	// nonNumericRegexp matches every character that is not an ASCII digit or a dot.
	nonNumericRegexp = regexp.MustCompile(`[^0-9.]`)
	// serialRegexp matches an Excel date serial as stored in a raw cell.
	serialRegexp = regexp.MustCompile(`^\d+(\.\d+)?$`)
	// yearRegexp matches a bare four-digit year.
	yearRegexp = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// dateLayouts are tried in order for text end dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"1/2/2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseNumericField strips every character that is not an ASCII digit or a
// dot and parses the rest. Anything that does not yield a finite number is
// missing:
//
//	"$1,200.50" → 1200.50
//	"1.200,50"  → "1.20050" → 1.2005
//	"1.200.50"  → missing
//	"abc"       → missing
func ParseNumericField(text string) models.NullFloat {
	cleaned := nonNumericRegexp.ReplaceAllString(text, "")
	if cleaned == "" {
		return models.NullFloat{}
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return models.NullFloat{}
	}
	return models.Float(v)
}

// ParseDateField parses an end-date cell: a bare year, an Excel serial number
// or one of the supported text layouts. Slash dates are read month first and
// fall back to day first when the month is out of range. The result is a UTC
// calendar date.
func ParseDateField(text string) models.NullDate {
	s := strings.TrimSpace(text)
	if s == "" {
		return models.NullDate{}
	}

	if yearRegexp.MatchString(s) {
		year, _ := strconv.Atoi(s)
		return dateOnly(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	}

	if serialRegexp.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err == nil {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return dateOnly(t)
			}
		}
		return models.NullDate{}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t)
		}
	}
	return models.NullDate{}
}

func dateOnly(t time.Time) models.NullDate {
	y, m, d := t.Date()
	return models.NullDate{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// binding maps each logical column to its header index, -1 when absent.
type binding struct {
	project, phase, province int
	required, executed       int
	area, co2, progress      int
	endDate                  int
}

func bind(t *models.Table) binding {
	col := func(name string) int {
		idx, ok := t.Column(name)
		if !ok {
			return -1
		}
		return idx
	}

	b := binding{
		project:  col(ColProject),
		phase:    col(ColPhase),
		province: -1,
		required: col(ColRequiredBudget),
		executed: col(ColExecutedBudget),
		area:     col(ColArea),
		co2:      col(ColAvoidedCO2),
		progress: col(ColProgress),
		endDate:  col(ColEndDate),
	}
	for _, name := range provinceColumns {
		if idx := col(name); idx >= 0 {
			b.province = idx
			break
		}
	}
	return b
}

func (b binding) schema() models.Schema {
	return models.Schema{
		Project:        b.project >= 0,
		Phase:          b.phase >= 0,
		Province:       b.province >= 0,
		RequiredBudget: b.required >= 0,
		ExecutedBudget: b.executed >= 0,
		Area:           b.area >= 0,
		AvoidedCO2:     b.co2 >= 0,
		Progress:       b.progress >= 0,
		EndDate:        b.endDate >= 0,
	}
}

// Normalizer transforms a raw table into typed project records.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize binds the table's schema once and converts every row. It never
// fails: malformed cells become missing values. The table is not modified.
func (n *Normalizer) Normalize(t *models.Table) *models.Dataset {
	b := bind(t)
	ds := &models.Dataset{
		Schema:  b.schema(),
		Records: make([]models.ProjectRecord, 0, len(t.Rows)),
	}

	degraded := 0
	number := func(row, col int) models.NullFloat {
		if col < 0 {
			return models.NullFloat{}
		}
		raw := t.Cell(row, col)
		v := ParseNumericField(raw)
		if !v.Valid && raw != "" {
			degraded++
		}
		return v
	}
	text := func(row, col int) models.NullString {
		if col < 0 {
			return models.NullString{}
		}
		return models.Text(t.Cell(row, col))
	}

	for i := range t.Rows {
		rec := models.ProjectRecord{
			Project:        text(i, b.project),
			Phase:          text(i, b.phase),
			RequiredBudget: number(i, b.required),
			ExecutedBudget: number(i, b.executed),
			Area:           number(i, b.area),
			AvoidedCO2:     number(i, b.co2),
			Progress:       number(i, b.progress),
		}
		if b.province >= 0 {
			rec.Provinces = t.Cell(i, b.province)
		}
		if b.endDate >= 0 {
			raw := t.Cell(i, b.endDate)
			rec.EndDate = ParseDateField(raw)
			if rec.EndDate.Valid {
				rec.Year = rec.EndDate.Time.Year()
			} else if raw != "" {
				degraded++
			}
		}
		ds.Records = append(ds.Records, rec)
	}

	if !ds.Schema.Project {
		n.logger.Warn("[normalizer] column %q not found; project views will be empty", ColProject)
	}
	n.logger.Debug("[normalizer] %d rows normalized, %d cells degraded to missing",
		len(ds.Records), degraded)
	return ds
}
