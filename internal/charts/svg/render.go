package svg

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/lumethik/tablero/internal/charts"
)

// Render draws a descriptor at the default size.
func Render(d charts.Descriptor) (template.HTML, error) {
	return RenderSize(d, DefaultWidth, DefaultHeight)
}

// RenderSize draws a descriptor. Empty descriptors become a "Sin datos"
// placeholder so callers can always embed the result.
func RenderSize(d charts.Descriptor, width, height int) (template.HTML, error) {
	if d.Empty() {
		return Placeholder(width, height, d.Title), nil
	}
	switch d.Kind {
	case charts.KindLine:
		if len(d.Series) > 1 {
			return Lines(width, height, d.Categories, barSeries(d), LineOpts{Title: d.Title, ShowDots: true})
		}
		s := d.Series[0]
		return Line(width, height, s.Values, d.Categories, LineOpts{
			Title:       d.Title,
			StrokeColor: s.Color,
			Fill:        d.FillArea,
			ShowDots:    true,
		})
	case charts.KindBar, charts.KindStackedBar:
		return Bars(width, height, d.Categories, barSeries(d), BarOpts{
			Title:   d.Title,
			Stacked: d.Kind == charts.KindStackedBar,
		})
	case charts.KindPie:
		return Pie(width, height, d.Series[0].Values, d.Categories, PieOpts{
			Title:   d.Title,
			Palette: d.Palette,
		})
	default:
		return "", fmt.Errorf("svg: unsupported chart kind %q", d.Kind)
	}
}

func barSeries(d charts.Descriptor) []BarSeries {
	series := make([]BarSeries, len(d.Series))
	for i, s := range d.Series {
		color := s.Color
		if color == "" && len(d.Palette) > 0 {
			color = d.Palette[i%len(d.Palette)]
		}
		series[i] = BarSeries{Label: s.Name, Values: s.Values, Color: color}
	}
	return series
}

// Placeholder is the empty chart frame.
func Placeholder(width, height int, title string) template.HTML {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	f := frame{width: width, height: height}
	var b strings.Builder
	f.open(&b, fallback(title, "Gráfico"), "Sin datos", "empty")
	fmt.Fprintf(&b, "<rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"#f8fafc\"></rect>", width, height)
	fmt.Fprintf(&b, "<text x=\"%d\" y=\"%d\" fill=\"#94a3b8\" font-size=\"14\" text-anchor=\"middle\">Sin datos</text>", width/2, height/2)
	b.WriteString("</svg>")
	return template.HTML(b.String())
}
