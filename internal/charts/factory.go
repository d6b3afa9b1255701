package charts

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// DefaultBins is the histogram bucket count when none is requested.
const DefaultBins = 10

// Bar builds a single-series bar chart.
func Bar(categories []string, values []float64, title string) (Descriptor, error) {
	return single(KindBar, categories, values, title, false)
}

// LineWithArea builds a line chart with the area under the curve filled.
func LineWithArea(categories []string, values []float64, title string) (Descriptor, error) {
	return single(KindLine, categories, values, title, true)
}

// Line builds a line chart without fill.
func Line(categories []string, values []float64, title string) (Descriptor, error) {
	return single(KindLine, categories, values, title, false)
}

// Lines builds a line chart with one line per series, keeping the given
// series order.
func Lines(categories []string, series []Series, title string) (Descriptor, error) {
	return multi(KindLine, categories, series, title)
}

// Pie builds a pie chart with one slice per category.
func Pie(categories []string, values []float64, title string) (Descriptor, error) {
	return single(KindPie, categories, values, title, false)
}

// StackedBars stacks every series additively per category, keeping the given
// series order.
func StackedBars(categories []string, series []Series, title string) (Descriptor, error) {
	return multi(KindStackedBar, categories, series, title)
}

// StackedBarsFromMap is StackedBars over a map; series are ordered by name.
func StackedBarsFromMap(categories []string, series map[string][]float64, title string) (Descriptor, error) {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]Series, 0, len(names))
	for _, name := range names {
		list = append(list, Series{Name: name, Values: series[name]})
	}
	return StackedBars(categories, list, title)
}

// Histogram buckets xs into bins of equal width and sums the matching ys per
// bucket. Pairs with a non-finite x or y are skipped. A bins value below one
// means DefaultBins.
func Histogram(xs, ys []float64, bins int, title string) (Descriptor, error) {
	if len(xs) != len(ys) {
		return Descriptor{}, fmt.Errorf("%w: %d x values for %d y values", ErrShapeMismatch, len(xs), len(ys))
	}
	if bins < 1 {
		bins = DefaultBins
	}
	out := Descriptor{Kind: KindBar, Title: title}

	px := make([]float64, 0, len(xs))
	py := make([]float64, 0, len(ys))
	for i, x := range xs {
		if finite(x) && finite(ys[i]) {
			px = append(px, x)
			py = append(py, ys[i])
		}
	}
	if len(px) == 0 {
		return out, nil
	}

	lo, hi := px[0], px[0]
	for _, x := range px[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	width := (hi - lo) / float64(bins)
	if width == 0 || !finite(width) {
		width = 1
		bins = 1
	}

	sums := make([]float64, bins)
	for i, x := range px {
		idx := int((x - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		sums[idx] += py[i]
	}

	out.Categories = make([]string, bins)
	for i := range out.Categories {
		from := lo + float64(i)*width
		out.Categories[i] = formatEdge(from) + "-" + formatEdge(from+width)
	}
	out.Series = []Series{{Name: "sum", Values: sums}}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func multi(kind Kind, categories []string, series []Series, title string) (Descriptor, error) {
	out := Descriptor{
		Kind:       kind,
		Title:      title,
		Categories: cloneStrings(categories),
		Series:     make([]Series, 0, len(series)),
	}
	for _, s := range series {
		if len(s.Values) != len(categories) {
			return Descriptor{}, fmt.Errorf("%w: series %q has %d values for %d categories", ErrShapeMismatch, s.Name, len(s.Values), len(categories))
		}
		out.Series = append(out.Series, Series{Name: s.Name, Values: cloneFloats(s.Values), Color: s.Color})
	}
	return out, nil
}

func single(kind Kind, categories []string, values []float64, title string, fill bool) (Descriptor, error) {
	if len(categories) != len(values) {
		return Descriptor{}, fmt.Errorf("%w: %d categories vs %d values", ErrShapeMismatch, len(categories), len(values))
	}
	return Descriptor{
		Kind:       kind,
		Title:      title,
		Categories: cloneStrings(categories),
		Series:     []Series{{Name: title, Values: cloneFloats(values)}},
		FillArea:   fill,
	}, nil
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	return append([]float64(nil), in...)
}
