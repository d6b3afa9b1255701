// Package sheet reads spreadsheet-shaped sources into data records.
package sheet

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/lumethik/tablero/internal/data"
)

// Workbook reads a local .xlsx file. The fetched category names the
// worksheet; an empty category falls back to Worksheet, then to the first
// sheet of the file.
type Workbook struct {
	Path      string
	Worksheet string
}

// NewWorkbook returns a provider over the workbook at path.
func NewWorkbook(path, worksheet string) *Workbook {
	return &Workbook{Path: path, Worksheet: worksheet}
}

// Fetch opens the workbook and converts the selected worksheet.
func (w *Workbook) Fetch(ctx context.Context, category string) (data.Record, error) {
	if err := ctx.Err(); err != nil {
		return data.Record{}, fmt.Errorf("%w: %v", data.ErrDataUnavailable, err)
	}
	file, err := excelize.OpenFile(w.Path)
	if err != nil {
		return data.Record{}, fmt.Errorf("%w: open %s: %v", data.ErrDataUnavailable, w.Path, err)
	}
	defer func() { _ = file.Close() }()
	return readSheet(file, pick(category, w.Worksheet))
}

// Remote is false; the file is local.
func (w *Workbook) Remote() bool { return false }

// ReadWorkbook converts one worksheet of an .xlsx stream.
func ReadWorkbook(r io.Reader, worksheet string) (data.Record, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return data.Record{}, fmt.Errorf("%w: read workbook: %v", data.ErrDataUnavailable, err)
	}
	defer func() { _ = file.Close() }()
	return readSheet(file, worksheet)
}

func readSheet(file *excelize.File, worksheet string) (data.Record, error) {
	name := worksheet
	if name == "" {
		name = file.GetSheetName(0)
	}
	if name == "" {
		return data.Record{}, fmt.Errorf("%w: no worksheet found", data.ErrDataUnavailable)
	}
	if idx, err := file.GetSheetIndex(name); err != nil || idx < 0 {
		return data.Record{}, fmt.Errorf("%w: worksheet %q not found", data.ErrUnknownCategory, name)
	}
	rows, err := file.GetRows(name)
	if err != nil {
		return data.Record{}, fmt.Errorf("%w: rows of %q: %v", data.ErrDataUnavailable, name, err)
	}
	if len(rows) == 0 {
		return data.Record{}, fmt.Errorf("%w: worksheet %q is empty", data.ErrDataUnavailable, name)
	}
	return data.FromTable(name, rows[0], rows[1:])
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
