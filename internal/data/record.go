// Package data provides the tabular records behind every dashboard view.
package data

import "fmt"

// Row is one labelled line of metric values, aligned with Record.Metrics.
type Row struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// Record is a table of named numeric metrics for one category.
type Record struct {
	Category    string   `json:"category"`
	LabelHeader string   `json:"label_header"`
	Metrics     []string `json:"metrics"`
	Rows        []Row    `json:"rows"`
}

// Labels returns the label column.
func (r Record) Labels() []string {
	out := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Label
	}
	return out
}

// Column returns the values of the named metric.
func (r Record) Column(name string) ([]float64, bool) {
	idx := r.metricIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		if idx < len(row.Values) {
			out[i] = row.Values[idx]
		}
	}
	return out, true
}

// Require checks that every named metric exists.
func (r Record) Require(names ...string) error {
	for _, name := range names {
		if r.metricIndex(name) < 0 {
			return fmt.Errorf("%w: column %q missing from %q", ErrDataUnavailable, name, r.Category)
		}
	}
	return nil
}

// Head returns a copy limited to the first n rows.
func (r Record) Head(n int) Record {
	out := r
	if n >= 0 && n < len(r.Rows) {
		out.Rows = r.Rows[:n]
	}
	return out
}

// Empty reports whether the record has no rows.
func (r Record) Empty() bool {
	return len(r.Rows) == 0
}

func (r Record) metricIndex(name string) int {
	key := NormalizeHeader(name)
	for i, m := range r.Metrics {
		if NormalizeHeader(m) == key {
			return i
		}
	}
	return -1
}
