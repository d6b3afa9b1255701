package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []string{"Ene", "Feb"}, []BarSeries{
		{Label: "Resueltos", Values: []float64{100, 130}, Color: "#2C3E50"},
		{Label: "Pendientes", Values: []float64{20, 20}, Color: "#E74C3C"},
	}, BarOpts{Title: "Estado de Casos"})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	// four bars plus two legend swatches
	if strings.Count(output, "<rect") != 6 {
		t.Fatalf("expected 6 rects, got %d", strings.Count(output, "<rect"))
	}
	if !strings.Contains(output, "Pendientes") {
		t.Fatalf("expected legend label")
	}
}

func TestStackedBarsShareColumn(t *testing.T) {
	html, err := Bars(400, 200, []string{"Ene"}, []BarSeries{
		{Label: "a", Values: []float64{10}},
		{Label: "b", Values: []float64{5}},
	}, BarOpts{Stacked: true})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	first := strings.Index(output, "<rect x=\"")
	second := strings.Index(output[first+1:], "<rect x=\"") + first + 1
	x1 := output[first+9 : strings.Index(output[first+9:], "\"")+first+9]
	x2 := output[second+9 : strings.Index(output[second+9:], "\"")+second+9]
	if x1 != x2 {
		t.Fatalf("expected stacked bars to share x, got %s and %s", x1, x2)
	}
}

func TestBarsDoesNotMutateInput(t *testing.T) {
	series := []BarSeries{{Label: "a", Values: []float64{1}}}
	if _, err := Bars(400, 200, []string{"x"}, series, BarOpts{}); err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	if series[0].Color != "" {
		t.Fatalf("input series colour changed")
	}
}
