package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders a responsive SVG line chart for the given series and labels.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	minVal, maxVal := bounds(series)
	f, err := newFrame(width, height, opts.Padding, minVal, maxVal)
	if err != nil {
		return "", err
	}
	strokeColor := fallback(opts.StrokeColor, defaultPalette[0])
	fillColor := fallback(opts.FillColor, strokeColor)
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5e1")

	xAt := func(i int) float64 {
		if len(series) == 1 {
			return f.padding + f.chartWidth/2
		}
		return f.padding + float64(i)*f.chartWidth/float64(len(series)-1)
	}

	var path strings.Builder
	for i, value := range series {
		cmd := " L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%.2f %.2f", cmd, xAt(i), f.y(value))
	}

	var b strings.Builder
	f.open(&b, fallback(opts.Title, "Gráfico de línea"), fallback(opts.Description, "Tendencia"), "line")
	f.grid(&b, opts.TickCount, axisColor, gridColor)

	if opts.Fill {
		base := f.y(0)
		area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path.String(), xAt(len(series)-1), base, xAt(0), base)
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"%s\" fill-opacity=\"0.25\" stroke=\"none\" aria-hidden=\"true\"></path>", area, fillColor)
	}

	fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path.String(), strokeColor)

	if opts.ShowDots {
		for i, value := range series {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", xAt(i), f.y(value), strokeColor)
		}
	}

	for i, label := range labels {
		f.label(&b, xAt(i), axisColor, label)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// Lines renders several series over shared labels, with a legend.
func Lines(width, height int, labels []string, series []BarSeries, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: at least one series required")
	}
	if len(labels) == 0 {
		return "", fmt.Errorf("svg: labels required")
	}
	series = append([]BarSeries(nil), series...)
	var all []float64
	for i := range series {
		if len(series[i].Values) != len(labels) {
			return "", fmt.Errorf("svg: series %q length must match labels", series[i].Label)
		}
		if series[i].Color == "" {
			series[i].Color = defaultPalette[i%len(defaultPalette)]
		}
		all = append(all, series[i].Values...)
	}
	minVal, maxVal := bounds(all)
	f, err := newFrame(width, height, opts.Padding, minVal, maxVal)
	if err != nil {
		return "", err
	}
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5e1")

	xAt := func(i int) float64 {
		if len(labels) == 1 {
			return f.padding + f.chartWidth/2
		}
		return f.padding + float64(i)*f.chartWidth/float64(len(labels)-1)
	}

	var b strings.Builder
	f.open(&b, fallback(opts.Title, "Gráfico de línea"), fallback(opts.Description, "Comparación de series"), "line")
	f.grid(&b, opts.TickCount, axisColor, gridColor)

	for _, ser := range series {
		var path strings.Builder
		for i, value := range ser.Values {
			cmd := " L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s%.2f %.2f", cmd, xAt(i), f.y(value))
		}
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\" aria-label=\"%s\"></path>", path.String(), ser.Color, template.HTMLEscapeString(ser.Label))
		if opts.ShowDots {
			for i, value := range ser.Values {
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", xAt(i), f.y(value), ser.Color)
			}
		}
	}

	for i, label := range labels {
		f.label(&b, xAt(i), axisColor, label)
	}
	legend(&b, f.padding, f.padding-12, axisColor, series)

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
