package services

import (
	"sort"
	"strconv"

	"climate-dashboard/models"
	"climate-dashboard/utils"
)

const (
	// NoPhaseLabel buckets records without a phase.
	NoPhaseLabel = "Sin fase"

	topProgressLimit = 5
	upcomingLimit    = 10
)

// Aggregator derives the dashboard views from a normalized dataset.
type Aggregator struct {
	gazetteer *Gazetteer
	logger    *utils.Logger
}

// NewAggregator creates an Aggregator resolving provinces with gazetteer.
func NewAggregator(gazetteer *Gazetteer, logger *utils.Logger) *Aggregator {
	return &Aggregator{gazetteer: gazetteer, logger: logger}
}

// Aggregate computes every view. Each view depends only on the columns it
// needs; a missing column leaves that view empty and the others untouched.
func (a *Aggregator) Aggregate(ds *models.Dataset) *models.Aggregates {
	agg := &models.Aggregates{
		Phases:       a.ByPhase(ds),
		Yearly:       a.ByYear(ds),
		Budgets:      a.BudgetByProject(ds),
		Impacts:      a.ImpactByProject(ds),
		Points:       a.Points(ds),
		TopProgress:  a.TopProgress(ds, topProgressLimit),
		MeanProgress: a.MeanProgress(ds),
		Upcoming:     a.Upcoming(ds, upcomingLimit),
	}

	a.logger.Debug("[aggregator] phases=%d budgets=%d impacts=%d points=%d top=%d upcoming=%d",
		len(agg.Phases), len(agg.Budgets), len(agg.Impacts), len(agg.Points),
		len(agg.TopProgress), len(agg.Upcoming))
	return agg
}

// ByPhase counts records per phase. Missing phases count as NoPhaseLabel.
// Ordered by count descending, then label.
func (a *Aggregator) ByPhase(ds *models.Dataset) []models.PhaseCount {
	if !ds.Schema.Phase {
		return nil
	}

	counts := make(map[string]int)
	for _, r := range ds.Records {
		label := NoPhaseLabel
		if r.Phase.Valid {
			label = r.Phase.String
		}
		counts[label]++
	}

	out := make([]models.PhaseCount, 0, len(counts))
	for phase, n := range counts {
		out = append(out, models.PhaseCount{Phase: phase, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Phase < out[j].Phase
	})
	return out
}

// ByYear sums executed budget, required budget and avoided CO2 per end-date
// year. Records without a year are skipped. Within each measure, years that
// sum to zero are left out of that measure's series only.
func (a *Aggregator) ByYear(ds *models.Dataset) models.YearlySeries {
	var out models.YearlySeries
	if !ds.Schema.EndDate {
		return out
	}

	type sums struct{ executed, required, co2 float64 }
	byYear := make(map[int]*sums)
	for _, r := range ds.Records {
		if !r.EndDate.Valid {
			continue
		}
		s, ok := byYear[r.Year]
		if !ok {
			s = &sums{}
			byYear[r.Year] = s
		}
		s.executed += r.ExecutedBudget.OrZero()
		s.required += r.RequiredBudget.OrZero()
		s.co2 += r.AvoidedCO2.OrZero()
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	appendNonZero := func(series []models.YearValue, year int, v float64) []models.YearValue {
		if v == 0 {
			return series
		}
		return append(series, models.YearValue{Year: year, Value: v})
	}
	for _, y := range years {
		s := byYear[y]
		if ds.Schema.ExecutedBudget {
			out.Executed = appendNonZero(out.Executed, y, s.executed)
		}
		if ds.Schema.RequiredBudget {
			out.Required = appendNonZero(out.Required, y, s.required)
		}
		if ds.Schema.AvoidedCO2 {
			out.AvoidedCO2 = appendNonZero(out.AvoidedCO2, y, s.co2)
		}
	}
	return out
}

// projectOrder returns the distinct project names of ds in ascending order.
func projectOrder(ds *models.Dataset) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range ds.Records {
		if !r.Project.Valid {
			continue
		}
		if _, ok := seen[r.Project.String]; ok {
			continue
		}
		seen[r.Project.String] = struct{}{}
		names = append(names, r.Project.String)
	}
	sort.Strings(names)
	return names
}

// BudgetByProject sums required and executed budget per project, sorted
// ascending by required budget. Ties keep project name order.
func (a *Aggregator) BudgetByProject(ds *models.Dataset) []models.ProjectBudget {
	if !ds.Schema.Project || (!ds.Schema.RequiredBudget && !ds.Schema.ExecutedBudget) {
		return nil
	}

	totals := make(map[string]*models.ProjectBudget)
	for _, r := range ds.Records {
		if !r.Project.Valid {
			continue
		}
		b, ok := totals[r.Project.String]
		if !ok {
			b = &models.ProjectBudget{Project: r.Project.String}
			totals[r.Project.String] = b
		}
		b.Required += r.RequiredBudget.OrZero()
		b.Executed += r.ExecutedBudget.OrZero()
	}

	names := projectOrder(ds)
	out := make([]models.ProjectBudget, 0, len(names))
	for _, name := range names {
		out = append(out, *totals[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Required < out[j].Required
	})
	return out
}

// ImpactByProject sums intervened area and avoided CO2 per project, ordered
// by project name.
func (a *Aggregator) ImpactByProject(ds *models.Dataset) []models.ProjectImpact {
	if !ds.Schema.Project || (!ds.Schema.Area && !ds.Schema.AvoidedCO2) {
		return nil
	}

	totals := make(map[string]*models.ProjectImpact)
	for _, r := range ds.Records {
		if !r.Project.Valid {
			continue
		}
		p, ok := totals[r.Project.String]
		if !ok {
			p = &models.ProjectImpact{Project: r.Project.String}
			totals[r.Project.String] = p
		}
		p.Area += r.Area.OrZero()
		p.AvoidedCO2 += r.AvoidedCO2.OrZero()
	}

	names := projectOrder(ds)
	out := make([]models.ProjectImpact, 0, len(names))
	for _, name := range names {
		out = append(out, *totals[name])
	}
	return out
}

// Points geocodes every record's province field. A record naming n known
// provinces yields n points; records with no known province yield none.
func (a *Aggregator) Points(ds *models.Dataset) []models.MapPoint {
	if !ds.Schema.Province {
		return nil
	}

	var out []models.MapPoint
	unmatched := 0
	for _, r := range ds.Records {
		pts := a.gazetteer.Locate(r.Provinces, r.Project.String)
		if len(pts) == 0 && r.Provinces != "" {
			unmatched++
		}
		out = append(out, pts...)
	}
	if unmatched > 0 {
		a.logger.Debug("[aggregator] %d records without a recognised province", unmatched)
	}
	return out
}

// TopProgress returns up to limit projects with the highest progress, after
// dropping rows missing either field and exact (project, progress) duplicates.
func (a *Aggregator) TopProgress(ds *models.Dataset, limit int) []models.ProjectProgress {
	if !ds.Schema.Project || !ds.Schema.Progress {
		return nil
	}

	seen := utils.NewKeySet()
	var rows []models.ProjectProgress
	for _, r := range ds.Records {
		if !r.Project.Valid || !r.Progress.Valid {
			continue
		}
		key := r.Project.String + "\x00" + strconv.FormatFloat(r.Progress.Float64, 'g', -1, 64)
		if !seen.Add(key) {
			continue
		}
		rows = append(rows, models.ProjectProgress{Project: r.Project.String, Progress: r.Progress.Float64})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Progress > rows[j].Progress
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// MeanProgress averages the present progress values; missing when none are.
func (a *Aggregator) MeanProgress(ds *models.Dataset) models.NullFloat {
	if !ds.Schema.Progress {
		return models.NullFloat{}
	}

	var total float64
	n := 0
	for _, r := range ds.Records {
		if !r.Progress.Valid {
			continue
		}
		total += r.Progress.Float64
		n++
	}
	if n == 0 {
		return models.NullFloat{}
	}
	return models.Float(total / float64(n))
}

// Upcoming returns up to limit distinct (project, end date) pairs in
// ascending date order. Rows missing either field are skipped.
func (a *Aggregator) Upcoming(ds *models.Dataset, limit int) []models.Milestone {
	if !ds.Schema.Project || !ds.Schema.EndDate {
		return nil
	}

	seen := utils.NewKeySet()
	var rows []models.Milestone
	for _, r := range ds.Records {
		if !r.Project.Valid || !r.EndDate.Valid {
			continue
		}
		if !seen.Add(r.Project.String + "\x00" + r.EndDate.String()) {
			continue
		}
		rows = append(rows, models.Milestone{Project: r.Project.String, EndDate: r.EndDate.Time})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EndDate.Before(rows[j].EndDate)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
