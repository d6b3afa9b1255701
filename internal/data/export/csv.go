// Package export serialises records for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/lumethik/tablero/internal/data"
)

// WriteRecordCSV writes the label column followed by every metric.
func WriteRecordCSV(w io.Writer, rec data.Record) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	labelHeader := rec.LabelHeader
	if labelHeader == "" {
		labelHeader = "Etiqueta"
	}
	if err := writer.Write(append([]string{labelHeader}, rec.Metrics...)); err != nil {
		return err
	}
	for _, row := range rec.Rows {
		line := make([]string, 0, len(rec.Metrics)+1)
		line = append(line, row.Label)
		for i := range rec.Metrics {
			value := 0.0
			if i < len(row.Values) {
				value = row.Values[i]
			}
			line = append(line, formatFloat(value))
		}
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
