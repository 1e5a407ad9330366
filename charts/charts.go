// Package charts rasterizes chart widgets to PNG.
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"climate-dashboard/models"
)

var (
	// ErrEmptyWidget is returned for widgets showing their empty-state message.
	ErrEmptyWidget = errors.New("charts: widget is empty")
	// ErrNotChart is returned for widgets that are not drawn as images.
	ErrNotChart = errors.New("charts: widget is not a chart")
)

const (
	defaultWidth  = 800
	defaultHeight = 300
)

// Options controls the canvas shared by every chart.
type Options struct {
	Width      int
	Background string
	Foreground string
}

// Renderer draws widgets with a fixed canvas style.
type Renderer struct {
	width      int
	background drawing.Color
	foreground drawing.Color
	printer    *message.Printer
}

// NewRenderer builds a Renderer. Zero options fall back to a white canvas
// with black text, 800px wide.
func NewRenderer(opts Options) *Renderer {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	return &Renderer{
		width:      width,
		background: parseColor(opts.Background, chart.ColorWhite),
		foreground: parseColor(opts.Foreground, chart.ColorBlack),
		printer:    message.NewPrinter(language.Spanish),
	}
}

// IsChart reports whether widgets of kind k are rendered as images.
func IsChart(k models.WidgetKind) bool {
	switch k {
	case models.KindDonut, models.KindMap, models.KindArea, models.KindBars,
		models.KindCombo, models.KindGauge:
		return true
	}
	return false
}

// Render writes widget as a PNG to w.
func (r *Renderer) Render(w io.Writer, widget *models.Widget) error {
	if !IsChart(widget.Kind) {
		return fmt.Errorf("%w: %s (%s)", ErrNotChart, widget.ID, widget.Kind)
	}
	if widget.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrEmptyWidget, widget.ID)
	}

	var err error
	switch widget.Kind {
	case models.KindDonut:
		err = r.donut(w, widget)
	case models.KindBars:
		err = r.stackedBars(w, widget)
	case models.KindArea:
		err = r.area(w, widget)
	case models.KindMap:
		err = r.scatterMap(w, widget)
	case models.KindCombo:
		err = r.combo(w, widget)
	case models.KindGauge:
		err = r.gauge(w, widget)
	}
	if err != nil {
		return fmt.Errorf("charts: render %s: %w", widget.ID, err)
	}
	return nil
}

func (r *Renderer) height(widget *models.Widget) int {
	if widget.Style.Height > 0 {
		return widget.Style.Height
	}
	return defaultHeight
}

// amount formats v with Spanish digit grouping.
func (r *Renderer) amount(v float64) string {
	return r.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// parseColor reads "#rrggbb" or "#rgb"; anything else yields fallback.
func parseColor(hex string, fallback drawing.Color) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return fallback
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return fallback
		}
	}
	return drawing.ColorFromHex(hex)
}

func paletteColor(s models.WidgetStyle, i int) drawing.Color {
	return parseColor(s.Color(i), chart.ColorBlue)
}

func rgba(c [4]uint8) color.Color {
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}
