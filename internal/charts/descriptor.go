// Package charts turns tabular columns into renderer-agnostic chart
// descriptors. Every constructor is a pure function.
package charts

import "errors"

// ErrShapeMismatch signals that categories and values differ in length.
var ErrShapeMismatch = errors.New("charts: shape mismatch")

// Kind enumerates supported chart shapes.
type Kind string

const (
	KindBar        Kind = "bar"
	KindLine       Kind = "line"
	KindPie        Kind = "pie"
	KindStackedBar Kind = "stacked_bar"
)

// Series is one named value column.
type Series struct {
	Name   string
	Values []float64
	Color  string
}

// Descriptor describes a chart without committing to a renderer.
type Descriptor struct {
	Kind       Kind
	Title      string
	Categories []string
	Series     []Series
	FillArea   bool
	// Palette colours slices of a pie or bars lacking a series colour.
	Palette []string
}

// Empty reports whether the descriptor has nothing to draw.
func (d Descriptor) Empty() bool {
	if len(d.Categories) == 0 {
		return true
	}
	for _, s := range d.Series {
		if len(s.Values) > 0 {
			return false
		}
	}
	return true
}

// Totals returns the per-category sum across all series.
func (d Descriptor) Totals() []float64 {
	totals := make([]float64, len(d.Categories))
	for _, s := range d.Series {
		for i, v := range s.Values {
			if i < len(totals) {
				totals[i] += v
			}
		}
	}
	return totals
}

// WithColors returns a copy whose series take the given colours in order.
func (d Descriptor) WithColors(colors ...string) Descriptor {
	out := d
	out.Series = make([]Series, len(d.Series))
	copy(out.Series, d.Series)
	for i := range out.Series {
		if i < len(colors) {
			out.Series[i].Color = colors[i]
		}
	}
	return out
}

// WithPalette returns a copy using palette for slice colours.
func (d Descriptor) WithPalette(palette ...string) Descriptor {
	out := d
	out.Palette = append([]string(nil), palette...)
	return out
}

// Placeholder is an empty chart of the given kind, drawn when data is missing
// or a descriptor could not be built.
func Placeholder(kind Kind, title string) Descriptor {
	return Descriptor{Kind: kind, Title: title}
}

// WithSeriesNames returns a copy whose series are renamed in order.
func (d Descriptor) WithSeriesNames(names ...string) Descriptor {
	out := d
	out.Series = make([]Series, len(d.Series))
	copy(out.Series, d.Series)
	for i := range out.Series {
		if i < len(names) {
			out.Series[i].Name = names[i]
		}
	}
	return out
}
