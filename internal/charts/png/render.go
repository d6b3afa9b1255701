// Package png rasterises chart descriptors with go-chart for downloads.
package png

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/lumethik/tablero/internal/charts"
)

// ErrEmptyChart is returned for descriptors without data.
var ErrEmptyChart = errors.New("png: chart has no data")

// Default raster size.
const (
	DefaultWidth  = 960
	DefaultHeight = 400
)

var palette = []string{"#18BC9C", "#2C3E50", "#E74C3C", "#3498DB", "#F39C12", "#95A5A6"}

// Render writes the descriptor as a PNG image.
func Render(w io.Writer, d charts.Descriptor) error {
	if d.Empty() {
		return ErrEmptyChart
	}
	switch d.Kind {
	case charts.KindLine:
		return renderLine(w, d)
	case charts.KindBar:
		return renderBar(w, d)
	case charts.KindStackedBar:
		return renderStacked(w, d)
	case charts.KindPie:
		return renderPie(w, d)
	default:
		return fmt.Errorf("png: unsupported chart kind %q", d.Kind)
	}
}

func renderLine(w io.Writer, d charts.Descriptor) error {
	n := len(d.Categories)
	xs := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i := range d.Categories {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: d.Categories[i]}
	}
	if n == 1 {
		// go-chart needs two points to draw a range
		xs = append(xs, 1)
	}
	top := 0.0
	series := make([]chart.Series, 0, len(d.Series))
	for i, s := range d.Series {
		ys := s.Values
		if n == 1 {
			ys = append(append([]float64(nil), ys...), ys[0])
		}
		top = max(top, maxOf(ys))
		color := colorAt(d, i)
		style := chart.Style{StrokeColor: color, StrokeWidth: 2}
		if d.FillArea {
			style.FillColor = color.WithAlpha(64)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   style,
		})
	}
	ch := chart.Chart{
		Title:      d.Title,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Ticks: ticks},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1}},
		Series:     series,
	}
	if len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.PNG, w)
}

func renderBar(w io.Writer, d charts.Descriptor) error {
	s := d.Series[0]
	bars := make([]chart.Value, len(d.Categories))
	for i, label := range d.Categories {
		c := colorAt(d, 0)
		if len(d.Palette) > 0 {
			c = hexColor(d.Palette[i%len(d.Palette)])
		}
		bars[i] = chart.Value{Label: label, Value: s.Values[i], Style: chart.Style{FillColor: c, StrokeColor: c}}
	}
	ch := chart.BarChart{
		Title:      d.Title,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		BarWidth:   barWidth(len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: maxOf(s.Values) * 1.1}},
		Bars:       bars,
	}
	return ch.Render(chart.PNG, w)
}

func renderStacked(w io.Writer, d charts.Descriptor) error {
	bars := make([]chart.StackedBar, len(d.Categories))
	for i, label := range d.Categories {
		values := make([]chart.Value, len(d.Series))
		for j, s := range d.Series {
			c := colorAt(d, j)
			values[j] = chart.Value{Label: s.Name, Value: s.Values[i], Style: chart.Style{FillColor: c, StrokeColor: c}}
		}
		bars[i] = chart.StackedBar{Name: label, Values: values}
	}
	ch := chart.StackedBarChart{
		Title:      d.Title,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	return ch.Render(chart.PNG, w)
}

func renderPie(w io.Writer, d charts.Descriptor) error {
	s := d.Series[0]
	values := make([]chart.Value, 0, len(d.Categories))
	for i, label := range d.Categories {
		if s.Values[i] <= 0 {
			continue
		}
		c := hexColor(palette[i%len(palette)])
		if len(d.Palette) > 0 {
			c = hexColor(d.Palette[i%len(d.Palette)])
		}
		values = append(values, chart.Value{Label: label, Value: s.Values[i], Style: chart.Style{FillColor: c}})
	}
	if len(values) == 0 {
		return ErrEmptyChart
	}
	ch := chart.PieChart{
		Title:  d.Title,
		Width:  DefaultHeight,
		Height: DefaultHeight,
		Values: values,
	}
	return ch.Render(chart.PNG, w)
}

func colorAt(d charts.Descriptor, i int) drawing.Color {
	if i < len(d.Series) && d.Series[i].Color != "" {
		return hexColor(d.Series[i].Color)
	}
	return hexColor(palette[i%len(palette)])
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func barWidth(n int) int {
	if n <= 0 {
		return 40
	}
	w := (DefaultWidth - 120) / n / 2
	if w < 8 {
		return 8
	}
	return w
}

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	if m == 0 {
		return 1
	}
	return m
}
