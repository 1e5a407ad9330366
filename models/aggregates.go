package models

import "time"

// PhaseCount is one slice of the phase distribution.
type PhaseCount struct {
	Phase string `json:"phase"`
	Count int    `json:"count"`
}

// YearValue is one point of a yearly series.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// YearlySeries holds the per-year sums of each measure. Each slice keeps only
// the years whose sum for that measure is non-zero.
type YearlySeries struct {
	Executed   []YearValue `json:"executed"`
	Required   []YearValue `json:"required"`
	AvoidedCO2 []YearValue `json:"avoided_co2"`
}

// ProjectBudget is the summed budget of one project.
type ProjectBudget struct {
	Project  string  `json:"project"`
	Required float64 `json:"required"`
	Executed float64 `json:"executed"`
}

// ProjectImpact is the summed intervened area and avoided CO2 of one project.
type ProjectImpact struct {
	Project    string  `json:"project"`
	Area       float64 `json:"area_ha"`
	AvoidedCO2 float64 `json:"avoided_co2_t"`
}

// MapPoint is one geocoded (record, province) pair.
type MapPoint struct {
	Province string  `json:"province"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Project  string  `json:"project"`
}

// ProjectProgress is a project's global progress as a 0-1 fraction.
type ProjectProgress struct {
	Project  string  `json:"project"`
	Progress float64 `json:"progress"`
}

// Milestone is a distinct (project, end date) pair.
type Milestone struct {
	Project string    `json:"project"`
	EndDate time.Time `json:"end_date"`
}

// Aggregates bundles every view derived from one dataset. Nothing here
// outlives the render pass that built it.
type Aggregates struct {
	Phases       []PhaseCount      `json:"phases"`
	Yearly       YearlySeries      `json:"yearly"`
	Budgets      []ProjectBudget   `json:"budgets"`
	Impacts      []ProjectImpact   `json:"impacts"`
	Points       []MapPoint        `json:"points"`
	TopProgress  []ProjectProgress `json:"top_progress"`
	MeanProgress NullFloat         `json:"mean_progress"`
	Upcoming     []Milestone       `json:"upcoming"`
}
