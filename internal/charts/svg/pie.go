package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Pie renders one slice per label. Negative values are treated as zero.
func Pie(width, height int, values []float64, labels []string, opts PieOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match values")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	palette := opts.Palette
	if len(palette) == 0 {
		palette = defaultPalette
	}
	textColor := fallback(opts.TextColor, "#475569")

	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}

	cx := float64(height) / 2
	cy := float64(height) / 2
	r := float64(height)/2 - 12
	if r <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	f := frame{width: width, height: height}
	var b strings.Builder
	f.open(&b, fallback(opts.Title, "Gráfico circular"), fallback(opts.Description, "Distribución"), "pie")

	if total <= 0 {
		fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"#e2e8f0\"></circle>", cx, cy, r)
	} else {
		angle := -math.Pi / 2
		for i, v := range values {
			if v <= 0 {
				continue
			}
			color := palette[i%len(palette)]
			share := v / total
			if almostEqual(share, 1) {
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" aria-label=\"%s\"></circle>", cx, cy, r, color, template.HTMLEscapeString(labels[i]))
				continue
			}
			end := angle + share*2*math.Pi
			large := 0
			if share > 0.5 {
				large = 1
			}
			x1, y1 := cx+r*math.Cos(angle), cy+r*math.Sin(angle)
			x2, y2 := cx+r*math.Cos(end), cy+r*math.Sin(end)
			fmt.Fprintf(&b, "<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\" aria-label=\"%s\"></path>", cx, cy, x1, y1, r, r, large, x2, y2, color, template.HTMLEscapeString(labels[i]))
			angle = end
		}
	}

	legendX := float64(height) + 16
	for i, label := range labels {
		y := 24 + float64(i)*16
		pct := 0.0
		if total > 0 && values[i] > 0 {
			pct = values[i] / total * 100
		}
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, y-9, palette[i%len(palette)])
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s (%.1f%%)</text>", legendX+14, y, textColor, template.HTMLEscapeString(label), pct)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
