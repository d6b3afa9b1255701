package data

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader trims, strips accents, folds case and collapses
// underscores and runs of whitespace into single spaces.
func NormalizeHeader(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, name)
	if err != nil {
		out = strings.ToLower(name)
	}
	out = strings.ReplaceAll(out, "_", " ")
	return strings.Join(strings.Fields(out), " ")
}

// FromTable converts a header plus string cells into a Record. The first
// column that is not fully numeric becomes the label column and every
// numeric column becomes a metric. Blank cells count as zero.
func FromTable(category string, header []string, cells [][]string) (Record, error) {
	if len(header) == 0 {
		return Record{}, fmt.Errorf("%w: %q has no header row", ErrDataUnavailable, category)
	}

	numeric := make([]bool, len(header))
	for col := range header {
		numeric[col] = columnNumeric(cells, col)
	}

	labelCol := -1
	for col := range header {
		if !numeric[col] {
			labelCol = col
			break
		}
	}

	rec := Record{Category: category}
	if labelCol >= 0 {
		rec.LabelHeader = strings.TrimSpace(header[labelCol])
	}
	var metricCols []int
	for col, name := range header {
		if numeric[col] && strings.TrimSpace(name) != "" {
			metricCols = append(metricCols, col)
			rec.Metrics = append(rec.Metrics, strings.TrimSpace(name))
		}
	}

	for i, line := range cells {
		if blankLine(line) {
			continue
		}
		row := Row{Values: make([]float64, len(metricCols))}
		if labelCol >= 0 && labelCol < len(line) {
			row.Label = strings.TrimSpace(line[labelCol])
		} else {
			row.Label = strconv.Itoa(i + 1)
		}
		for j, col := range metricCols {
			if col < len(line) {
				row.Values[j], _ = parseNumber(line[col])
			}
		}
		rec.Rows = append(rec.Rows, row)
	}
	return rec, nil
}

func columnNumeric(cells [][]string, col int) bool {
	seen := false
	for _, line := range cells {
		if col >= len(line) || strings.TrimSpace(line[col]) == "" {
			continue
		}
		if _, ok := parseNumber(line[col]); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func blankLine(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseNumber accepts plain floats plus "1.234,5" and "1,234.5" groupings.
// NaN and infinities are text, not numbers.
func parseNumber(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if s == "" {
		return 0, true
	}
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
