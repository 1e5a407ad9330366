package services

import (
	"fmt"

	"climate-dashboard/models"
)

// Widget ids in page order.
const (
	WidgetPhaseDonut    = "phase-donut"
	WidgetProjectMap    = "project-map"
	WidgetAreaExecuted  = "area-executed"
	WidgetAreaRequired  = "area-required"
	WidgetAreaCO2       = "area-co2"
	WidgetBudgetBars    = "budget-bars"
	WidgetImpactCombo   = "impact-combo"
	WidgetProgressTiles = "progress-tiles"
	WidgetProgressGauge = "progress-gauge"
	WidgetTimeline      = "timeline"
)

// DashboardTitle is the page heading.
const DashboardTitle = "Dashboard de Proyectos de Cambio Climático"

const (
	sectionPhases   = "Distribución por fase"
	sectionMap      = "Ubicación de proyectos"
	sectionFinance  = "Finanzas y avance"
	sectionBudget   = "Ejecución presupuestaria por proyecto"
	sectionImpact   = "Superficie vs CO₂ evitado"
	sectionTiles    = "Progreso por proyecto (top 5)"
	sectionGauge    = "Avance general"
	sectionTimeline = "Cronograma (próximas fechas fin)"

	emptyPhases   = "Sin datos de fase."
	emptyMap      = "No se pudieron geolocalizar las provincias."
	emptySeries   = "Sin datos anuales de %s."
	emptyBudget   = "Sin datos presupuestarios por proyecto."
	emptyImpact   = "Sin datos de superficie ni de CO₂ por proyecto."
	emptyProgress = "Sin datos de avance."
	emptyTimeline = "Sin fechas fin registradas."

	tileLabelRunes = 10
	donutHole      = 0.55
)

// Map view defaults for Ecuador.
const (
	mapCenterLat = -1.5
	mapCenterLon = -78.2
	mapZoom      = 5.2
	mapRadiusM   = 50000
)

var mapPointRGBA = [4]uint8{255, 165, 0, 160}

// Presenter turns aggregates into widget descriptions. It holds no state
// beyond the theme.
type Presenter struct {
	theme *Theme
}

// NewPresenter creates a Presenter styling widgets with theme.
func NewPresenter(theme *Theme) *Presenter {
	return &Presenter{theme: theme}
}

// Present builds the ten dashboard widgets in page order.
func (p *Presenter) Present(agg *models.Aggregates) models.Dashboard {
	return models.Dashboard{
		Title: DashboardTitle,
		Widgets: []models.Widget{
			p.donut(agg.Phases),
			p.mapLayer(agg.Points),
			p.area(WidgetAreaExecuted, ColExecutedBudget, agg.Yearly.Executed),
			p.area(WidgetAreaRequired, ColRequiredBudget, agg.Yearly.Required),
			p.area(WidgetAreaCO2, ColAvoidedCO2, agg.Yearly.AvoidedCO2),
			p.budgetBars(agg.Budgets),
			p.impactCombo(agg.Impacts),
			p.tiles(agg.TopProgress),
			p.gauge(agg.MeanProgress),
			p.timeline(agg.Upcoming),
		},
	}
}

func (p *Presenter) widget(id string, kind models.WidgetKind, section, title string) models.Widget {
	return models.Widget{
		ID:      id,
		Kind:    kind,
		Section: section,
		Title:   title,
		Style:   p.theme.Style(id),
	}
}

func (p *Presenter) donut(phases []models.PhaseCount) models.Widget {
	w := p.widget(WidgetPhaseDonut, models.KindDonut, sectionPhases, sectionPhases)
	if len(phases) == 0 {
		w.Empty = emptyPhases
		return w
	}

	spec := &models.DonutSpec{Hole: donutHole, Slices: make([]models.Slice, 0, len(phases))}
	for _, ph := range phases {
		spec.Slices = append(spec.Slices, models.Slice{Label: ph.Phase, Value: float64(ph.Count)})
	}
	w.Donut = spec
	return w
}

func (p *Presenter) mapLayer(points []models.MapPoint) models.Widget {
	w := p.widget(WidgetProjectMap, models.KindMap, sectionMap, sectionMap)
	if len(points) == 0 {
		w.Empty = emptyMap
		return w
	}

	w.Map = &models.MapSpec{
		CenterLat: mapCenterLat,
		CenterLon: mapCenterLon,
		Zoom:      mapZoom,
		RadiusM:   mapRadiusM,
		RGBA:      mapPointRGBA,
		Points:    points,
	}
	return w
}

func (p *Presenter) area(id, measure string, series []models.YearValue) models.Widget {
	w := p.widget(id, models.KindArea, sectionFinance, measure)
	if len(series) == 0 {
		w.Empty = fmt.Sprintf(emptySeries, measure)
		return w
	}
	w.Area = &models.AreaSpec{Measure: measure, Points: series}
	return w
}

func (p *Presenter) budgetBars(budgets []models.ProjectBudget) models.Widget {
	w := p.widget(WidgetBudgetBars, models.KindBars, sectionBudget, sectionBudget)
	if len(budgets) == 0 {
		w.Empty = emptyBudget
		return w
	}

	spec := &models.BarsSpec{
		Categories: make([]string, len(budgets)),
		Series: []models.BarSeries{
			{Name: "Requerido", Values: make([]float64, len(budgets))},
			{Name: "Ejecutado", Values: make([]float64, len(budgets))},
		},
	}
	for i, b := range budgets {
		spec.Categories[i] = b.Project
		spec.Series[0].Values[i] = b.Required
		spec.Series[1].Values[i] = b.Executed
	}
	w.Bars = spec
	return w
}

func (p *Presenter) impactCombo(impacts []models.ProjectImpact) models.Widget {
	w := p.widget(WidgetImpactCombo, models.KindCombo, sectionImpact, sectionImpact)
	if len(impacts) == 0 {
		w.Empty = emptyImpact
		return w
	}

	spec := &models.ComboSpec{
		Categories: make([]string, len(impacts)),
		Bar:        models.BarSeries{Name: "Ha", Values: make([]float64, len(impacts))},
		Line:       models.BarSeries{Name: "CO₂", Values: make([]float64, len(impacts))},
	}
	for i, im := range impacts {
		spec.Categories[i] = im.Project
		spec.Bar.Values[i] = im.Area
		spec.Line.Values[i] = im.AvoidedCO2
	}
	w.Combo = spec
	return w
}

// tiles shows one tile per top project. Labels longer than tileLabelRunes
// are cut and end in "…"; shorter labels are shown as is.
func (p *Presenter) tiles(top []models.ProjectProgress) models.Widget {
	w := p.widget(WidgetProgressTiles, models.KindTiles, sectionTiles, sectionTiles)
	if len(top) == 0 {
		w.Empty = emptyProgress
		return w
	}

	w.Tiles = make([]models.Tile, 0, len(top))
	for _, t := range top {
		w.Tiles = append(w.Tiles, models.Tile{
			Label:   truncateRunes(t.Project, tileLabelRunes),
			Project: t.Project,
			Value:   fmt.Sprintf("%.0f%%", t.Progress*100),
		})
	}
	return w
}

func (p *Presenter) gauge(mean models.NullFloat) models.Widget {
	w := p.widget(WidgetProgressGauge, models.KindGauge, sectionGauge, sectionGauge)
	if !mean.Valid {
		w.Empty = emptyProgress
		return w
	}

	s := w.Style
	w.Gauge = &models.GaugeSpec{
		Value:    mean.Float64 * 100,
		Min:      0,
		Max:      100,
		BarColor: s.Color(0),
		Bands: []models.Band{
			{From: 0, To: 50, Color: s.Color(1)},
			{From: 50, To: 80, Color: s.Color(2)},
			{From: 80, To: 100, Color: s.Color(3)},
		},
	}
	return w
}

func (p *Presenter) timeline(upcoming []models.Milestone) models.Widget {
	w := p.widget(WidgetTimeline, models.KindTimeline, sectionTimeline, sectionTimeline)
	if len(upcoming) == 0 {
		w.Empty = emptyTimeline
		return w
	}

	w.Timeline = make([]models.TimelineEntry, 0, len(upcoming))
	for _, m := range upcoming {
		date := m.EndDate.Format(models.DateLayout)
		w.Timeline = append(w.Timeline, models.TimelineEntry{
			Project: m.Project,
			Date:    date,
			Text:    m.Project + " → " + date,
		})
	}
	return w
}

// BandFor returns the gauge band containing v. The last band is closed.
func BandFor(g *models.GaugeSpec, v float64) (models.Band, bool) {
	for i, b := range g.Bands {
		last := i == len(g.Bands)-1
		if v >= b.From && (v < b.To || (last && v <= b.To)) {
			return b, true
		}
	}
	return models.Band{}, false
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
