package charts

import (
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"

	"climate-dashboard/models"
)

func (r *Renderer) donut(w io.Writer, widget *models.Widget) error {
	spec := widget.Donut
	values := make([]chart.Value, 0, len(spec.Slices))
	for i, s := range spec.Slices {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%s)", s.Label, r.amount(s.Value)),
			Value: s.Value,
			Style: chart.Style{
				FillColor:   paletteColor(widget.Style, i),
				StrokeColor: r.background,
				StrokeWidth: 2,
				FontColor:   r.background,
			},
		})
	}

	dc := chart.DonutChart{
		Title:      widget.Title,
		TitleStyle: chart.Style{FontColor: r.foreground},
		Width:      r.width,
		Height:     r.height(widget),
		Background: chart.Style{FillColor: r.background},
		Canvas:     chart.Style{FillColor: r.background},
		Values:     values,
	}
	return dc.Render(chart.PNG, w)
}
