package charts

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"climate-dashboard/models"
)

const screenDPI = 96

func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / screenDPI
}

func (r *Renderer) newPlot(widget *models.Widget) *plot.Plot {
	p := plot.New()
	p.Title.Text = widget.Title
	p.Title.TextStyle.Color = r.foreground
	p.BackgroundColor = r.background
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = r.foreground
		ax.Tick.LineStyle.Color = r.foreground
		ax.Tick.Label.Color = r.foreground
		ax.Label.TextStyle.Color = r.foreground
	}
	p.Legend.TextStyle.Color = r.foreground
	p.Legend.Top = true
	return p
}

func (r *Renderer) save(w io.Writer, p *plot.Plot, widget *models.Widget) error {
	wt, err := p.WriterTo(pixels(r.width), pixels(r.height(widget)), "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func (r *Renderer) labels(xys plotter.XYs, text []string) (*plotter.Labels, error) {
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return nil, err
	}
	for i := range l.TextStyle {
		l.TextStyle[i].Color = r.foreground
	}
	return l, nil
}

// amountTicks relabels the default ticks with Spanish digit grouping.
type amountTicks struct{ r *Renderer }

func (t amountTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = t.r.amount(ticks[i].Value)
		}
	}
	return ticks
}

func yearTicks(points []models.YearValue) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(points))
	for i, pt := range points {
		ticks[i] = plot.Tick{Value: float64(pt.Year), Label: fmt.Sprintf("%d", pt.Year)}
	}
	return ticks
}

func (r *Renderer) area(w io.Writer, widget *models.Widget) error {
	spec := widget.Area
	xys := make(plotter.XYs, len(spec.Points))
	for i, pt := range spec.Points {
		xys[i] = plotter.XY{X: float64(pt.Year), Y: pt.Value}
	}

	p := r.newPlot(widget)
	p.X.Tick.Marker = yearTicks(spec.Points)
	p.Y.Tick.Marker = amountTicks{r}
	p.Y.Min = 0

	col := paletteColor(widget.Style, 0)
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.LineStyle.Color = col
	line.LineStyle.Width = vg.Points(2)
	line.FillColor = col.WithAlpha(96)

	dots, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	dots.GlyphStyle.Color = col
	dots.GlyphStyle.Shape = draw.CircleGlyph{}
	dots.GlyphStyle.Radius = vg.Points(2.5)

	p.Add(line, dots)
	return r.save(w, p, widget)
}

func (r *Renderer) scatterMap(w io.Writer, widget *models.Widget) error {
	spec := widget.Map
	xys := make(plotter.XYs, len(spec.Points))
	names := make([]string, len(spec.Points))
	minX, maxX := spec.CenterLon, spec.CenterLon
	minY, maxY := spec.CenterLat, spec.CenterLat
	for i, pt := range spec.Points {
		xys[i] = plotter.XY{X: pt.Lon, Y: pt.Lat}
		names[i] = pt.Province
		minX, maxX = math.Min(minX, pt.Lon), math.Max(maxX, pt.Lon)
		minY, maxY = math.Min(minY, pt.Lat), math.Max(maxY, pt.Lat)
	}

	p := r.newPlot(widget)
	p.X.Label.Text = "Longitud"
	p.Y.Label.Text = "Latitud"
	p.X.Min, p.X.Max = minX-1, maxX+1
	p.Y.Min, p.Y.Max = minY-1, maxY+1

	grid := plotter.NewGrid()
	grid.Vertical.Color = paletteColor(widget.Style, 0).WithAlpha(40)
	grid.Horizontal.Color = grid.Vertical.Color
	p.Add(grid)

	dots, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	dots.GlyphStyle.Color = rgba(spec.RGBA)
	dots.GlyphStyle.Shape = draw.CircleGlyph{}
	dots.GlyphStyle.Radius = vg.Points(7)
	p.Add(dots)

	lbl, err := r.labels(xys, names)
	if err != nil {
		return err
	}
	lbl.Offset = vg.Point{X: vg.Points(8)}
	p.Add(lbl)

	return r.save(w, p, widget)
}

func (r *Renderer) stackedBars(w io.Writer, widget *models.Widget) error {
	spec := widget.Bars
	p := r.newPlot(widget)
	p.X.Tick.Marker = amountTicks{r}

	width := pixels(r.height(widget)) * 0.6 / vg.Length(len(spec.Categories))
	if width < vg.Points(2) {
		width = vg.Points(2)
	}

	var below *plotter.BarChart
	for i, s := range spec.Series {
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), width)
		if err != nil {
			return err
		}
		bars.Horizontal = true
		bars.Color = paletteColor(widget.Style, i)
		bars.LineStyle.Width = 0
		if below != nil {
			bars.StackOn(below)
		}
		below = bars
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.NominalY(spec.Categories...)

	return r.save(w, p, widget)
}

func (r *Renderer) combo(w io.Writer, widget *models.Widget) error {
	spec := widget.Combo
	p := r.newPlot(widget)
	p.Y.Tick.Marker = amountTicks{r}

	width := pixels(r.width) * 0.5 / vg.Length(len(spec.Categories))
	bars, err := plotter.NewBarChart(plotter.Values(spec.Bar.Values), width)
	if err != nil {
		return err
	}
	bars.Color = paletteColor(widget.Style, 0)
	bars.LineStyle.Width = 0

	xys := make(plotter.XYs, len(spec.Line.Values))
	for i, v := range spec.Line.Values {
		xys[i] = plotter.XY{X: float64(i), Y: v}
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	lineColor := paletteColor(widget.Style, 1)
	line.LineStyle.Color = lineColor
	line.LineStyle.Width = vg.Points(2)
	points.GlyphStyle.Color = lineColor
	points.GlyphStyle.Shape = draw.CircleGlyph{}

	p.Add(bars, line, points)
	p.Legend.Add(spec.Bar.Name, bars)
	p.Legend.Add(spec.Line.Name, line, points)
	p.NominalX(spec.Categories...)
	p.Y.Min = 0

	return r.save(w, p, widget)
}

func (r *Renderer) gauge(w io.Writer, widget *models.Widget) error {
	g := widget.Gauge
	p := r.newPlot(widget)
	p.Title.Text = fmt.Sprintf("%s: %.0f%%", widget.Title, g.Value)
	p.HideY()
	p.X.Min, p.X.Max = g.Min, g.Max
	p.Y.Min, p.Y.Max = 0, 1

	ticks := plot.ConstantTicks{{Value: g.Min, Label: fmt.Sprintf("%.0f%%", g.Min)}}
	for _, b := range g.Bands {
		band, err := rect(b.From, b.To, 0, 1)
		if err != nil {
			return err
		}
		band.Color = parseColor(b.Color, r.foreground).WithAlpha(110)
		p.Add(band)
		if b.To != g.Min {
			ticks = append(ticks, plot.Tick{Value: b.To, Label: fmt.Sprintf("%.0f%%", b.To)})
		}
	}
	p.X.Tick.Marker = ticks

	value := math.Max(g.Min, math.Min(g.Value, g.Max))
	bar, err := rect(g.Min, value, 0.3, 0.7)
	if err != nil {
		return err
	}
	bar.Color = parseColor(g.BarColor, r.foreground)
	p.Add(bar)

	return r.save(w, p, widget)
}

func rect(x0, x1, y0, y1 float64) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(plotter.XYs{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	})
	if err != nil {
		return nil, err
	}
	poly.LineStyle.Width = 0
	return poly, nil
}
