package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lumethik/tablero/internal/data"
)

// Export formats understood by Published.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const defaultBaseURL = "https://docs.google.com"

// Published downloads a shared Google spreadsheet. CSV uses the gviz export
// of a single worksheet; XLSX downloads the whole workbook.
type Published struct {
	SheetID   string
	Worksheet string
	Format    string
	BaseURL   string
	Client    *http.Client
}

// NewPublished returns a provider for the spreadsheet id.
func NewPublished(sheetID, worksheet, format string) *Published {
	return &Published{
		SheetID:   sheetID,
		Worksheet: worksheet,
		Format:    format,
		BaseURL:   defaultBaseURL,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Remote is true.
func (p *Published) Remote() bool { return true }

// Fetch downloads and converts the worksheet named by category, or the
// configured one when category is empty.
func (p *Published) Fetch(ctx context.Context, category string) (data.Record, error) {
	worksheet := pick(category, p.Worksheet)
	endpoint := p.exportURL(worksheet)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return data.Record{}, fmt.Errorf("%w: %v", data.ErrDataUnavailable, err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return data.Record{}, fmt.Errorf("%w: %v", data.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return data.Record{}, fmt.Errorf("%w: %s returned %d", data.ErrDataUnavailable, endpoint, resp.StatusCode)
	}

	if p.Format == FormatXLSX {
		return ReadWorkbook(resp.Body, worksheet)
	}
	return readCSV(resp.Body, worksheet)
}

func (p *Published) exportURL(worksheet string) string {
	base := strings.TrimRight(pick(p.BaseURL, defaultBaseURL), "/")
	id := url.PathEscape(p.SheetID)
	if p.Format == FormatXLSX {
		return fmt.Sprintf("%s/spreadsheets/d/%s/export?format=xlsx", base, id)
	}
	q := url.Values{}
	q.Set("tqx", "out:csv")
	if worksheet != "" {
		q.Set("sheet", worksheet)
	}
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?%s", base, id, q.Encode())
}

func readCSV(r io.Reader, worksheet string) (data.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return data.Record{}, fmt.Errorf("%w: parse csv: %v", data.ErrDataUnavailable, err)
	}
	if len(rows) == 0 {
		return data.Record{}, fmt.Errorf("%w: empty csv", data.ErrDataUnavailable)
	}
	return data.FromTable(worksheet, rows[0], rows[1:])
}
