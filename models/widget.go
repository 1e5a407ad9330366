package models

// WidgetKind enumerates the widget shapes the dashboard can show.
type WidgetKind string

const (
	KindDonut    WidgetKind = "donut"
	KindMap      WidgetKind = "map"
	KindArea     WidgetKind = "area"
	KindBars     WidgetKind = "stacked_bars"
	KindCombo    WidgetKind = "combo"
	KindTiles    WidgetKind = "tiles"
	KindGauge    WidgetKind = "gauge"
	KindTimeline WidgetKind = "timeline"
)

// Margins in pixels around a widget's plot area.
type Margins struct {
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
	Left   int `json:"left" yaml:"left"`
}

// WidgetStyle is the explicit presentation configuration of one widget.
type WidgetStyle struct {
	Palette []string `json:"palette" yaml:"palette"`
	Height  int      `json:"height" yaml:"height"`
	Margins Margins  `json:"margins" yaml:"margins"`
}

// Color returns palette entry i, cycling; "" when the palette is empty.
func (s WidgetStyle) Color(i int) string {
	if len(s.Palette) == 0 {
		return ""
	}
	return s.Palette[i%len(s.Palette)]
}

// Slice is one labelled value of a proportion chart.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// DonutSpec describes a proportion chart with a hole.
type DonutSpec struct {
	Hole   float64 `json:"hole"`
	Slices []Slice `json:"slices"`
}

// MapSpec describes a scatter layer over a geographic view.
type MapSpec struct {
	CenterLat float64    `json:"center_lat"`
	CenterLon float64    `json:"center_lon"`
	Zoom      float64    `json:"zoom"`
	RadiusM   float64    `json:"radius_m"`
	RGBA      [4]uint8   `json:"rgba"`
	Points    []MapPoint `json:"points"`
}

// AreaSpec is a single filled time series.
type AreaSpec struct {
	Measure string      `json:"measure"`
	Points  []YearValue `json:"points"`
}

// BarSeries is one named stack of a bar chart, aligned with the categories.
type BarSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// BarsSpec describes horizontal stacked bars, one per category.
type BarsSpec struct {
	Categories []string    `json:"categories"`
	Series     []BarSeries `json:"series"`
}

// ComboSpec is a bar series plus a line series over the same categories.
type ComboSpec struct {
	Categories []string  `json:"categories"`
	Bar        BarSeries `json:"bar"`
	Line       BarSeries `json:"line"`
}

// Tile is one scalar metric.
type Tile struct {
	Label   string `json:"label"`
	Project string `json:"project"`
	Value   string `json:"value"`
}

// Band is a coloured range of a gauge, [From, To).
type Band struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Color string  `json:"color"`
}

// GaugeSpec is a radial gauge over [Min, Max].
type GaugeSpec struct {
	Value    float64 `json:"value"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	BarColor string  `json:"bar_color"`
	Bands    []Band  `json:"bands"`
}

// TimelineEntry is one line of the timeline list.
type TimelineEntry struct {
	Project string `json:"project"`
	Date    string `json:"date"`
	Text    string `json:"text"`
}

// Widget is a declarative description of one dashboard element. Exactly one
// of the spec fields is set, unless Empty carries the empty-state message.
type Widget struct {
	ID      string      `json:"id"`
	Kind    WidgetKind  `json:"kind"`
	Section string      `json:"section"`
	Title   string      `json:"title"`
	Style   WidgetStyle `json:"style"`
	Empty   string      `json:"empty,omitempty"`

	Donut    *DonutSpec      `json:"donut,omitempty"`
	Map      *MapSpec        `json:"map,omitempty"`
	Area     *AreaSpec       `json:"area,omitempty"`
	Bars     *BarsSpec       `json:"bars,omitempty"`
	Combo    *ComboSpec      `json:"combo,omitempty"`
	Tiles    []Tile          `json:"tiles,omitempty"`
	Gauge    *GaugeSpec      `json:"gauge,omitempty"`
	Timeline []TimelineEntry `json:"timeline,omitempty"`
}

// IsEmpty reports whether the widget shows its empty-state message.
func (w *Widget) IsEmpty() bool { return w.Empty != "" }

// Dashboard is the full set of widgets for one render pass, in page order.
type Dashboard struct {
	Title   string   `json:"title"`
	Widgets []Widget `json:"widgets"`
}

// Widget returns the widget with the given id.
func (d *Dashboard) Widget(id string) (*Widget, bool) {
	for i := range d.Widgets {
		if d.Widgets[i].ID == id {
			return &d.Widgets[i], true
		}
	}
	return nil, false
}
