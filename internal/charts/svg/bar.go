package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders grouped bars, or stacked bars when opts.Stacked is set.
func Bars(width, height int, labels []string, series []BarSeries, opts BarOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: at least one series required")
	}
	if len(labels) == 0 {
		return "", fmt.Errorf("svg: labels required")
	}
	series = append([]BarSeries(nil), series...)
	for i := range series {
		if len(series[i].Values) != len(labels) {
			return "", fmt.Errorf("svg: series %q length must match labels", series[i].Label)
		}
		if series[i].Color == "" {
			series[i].Color = defaultPalette[i%len(defaultPalette)]
		}
	}

	minVal, maxVal := barBounds(series, opts.Stacked)
	f, err := newFrame(width, height, opts.Padding, minVal, maxVal)
	if err != nil {
		return "", err
	}
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5e1")

	var b strings.Builder
	f.open(&b, fallback(opts.Title, "Gráfico de barras"), fallback(opts.Description, "Comparación por categoría"), "bar")
	f.grid(&b, opts.TickCount, axisColor, gridColor)

	groupWidth := f.chartWidth / float64(len(labels))
	slots := len(series)
	if opts.Stacked {
		slots = 1
	}
	barWidth := groupWidth * 0.7 / float64(slots)

	for i, label := range labels {
		baseX := f.padding + float64(i)*groupWidth + groupWidth*0.15
		posBase, negBase := 0.0, 0.0
		for s, ser := range series {
			value := ser.Values[i]
			x := baseX + float64(s)*barWidth
			from := 0.0
			if opts.Stacked {
				x = baseX
				if value >= 0 {
					from = posBase
					posBase += value
				} else {
					from = negBase
					negBase += value
				}
			}
			y, h := barPosition(f, from, from+value)
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s\"></rect>", x, y, barWidth, h, ser.Color, template.HTMLEscapeString(ser.Label), template.HTMLEscapeString(label))
		}
		f.label(&b, f.padding+float64(i)*groupWidth+groupWidth/2, axisColor, label)
	}

	if len(series) > 1 {
		legend(&b, f.padding, f.padding-12, axisColor, series)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barBounds(series []BarSeries, stacked bool) (float64, float64) {
	if !stacked {
		var all []float64
		for _, s := range series {
			all = append(all, s.Values...)
		}
		return bounds(all)
	}
	minVal, maxVal := 0.0, 0.0
	for i := range series[0].Values {
		pos, neg := 0.0, 0.0
		for _, s := range series {
			if s.Values[i] >= 0 {
				pos += s.Values[i]
			} else {
				neg += s.Values[i]
			}
		}
		maxVal = math.Max(maxVal, pos)
		minVal = math.Min(minVal, neg)
	}
	return minVal, maxVal
}

// barPosition maps the value span [from, to] to a clamped rect y and height.
func barPosition(f frame, from, to float64) (float64, float64) {
	top := math.Min(f.y(from), f.y(to))
	bottom := math.Max(f.y(from), f.y(to))
	if top < f.padding {
		top = f.padding
	}
	if bottom > f.bottom() {
		bottom = f.bottom()
	}
	height := bottom - top
	if height < 0 {
		height = 0
	}
	return top, height
}
