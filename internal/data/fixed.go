package data

import "context"

// Direction dataset columns.
const (
	ColumnMes        = "Mes"
	ColumnCasos      = "Casos"
	ColumnResueltos  = "Resueltos"
	ColumnPendientes = "Pendientes"
)

// Fixed serves the same five month case table for every direction.
type Fixed struct{}

// NewFixed returns the fixed provider.
func NewFixed() Fixed {
	return Fixed{}
}

// Fetch never fails.
func (Fixed) Fetch(_ context.Context, category string) (Record, error) {
	months := []string{"Ene", "Feb", "Mar", "Abr", "May"}
	casos := []float64{120, 150, 140, 170, 190}
	resueltos := []float64{100, 130, 120, 150, 170}
	rec := Record{
		Category:    category,
		LabelHeader: ColumnMes,
		Metrics:     []string{ColumnCasos, ColumnResueltos, ColumnPendientes},
		Rows:        make([]Row, len(months)),
	}
	for i, m := range months {
		rec.Rows[i] = Row{Label: m, Values: []float64{casos[i], resueltos[i], 20}}
	}
	return rec, nil
}

// Remote is false.
func (Fixed) Remote() bool { return false }
