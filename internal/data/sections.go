package data

import (
	"context"
	"fmt"
	"math/rand"
)

// Columns of the business section records.
const (
	ColumnPerformance = "Performance"
	ColumnIngresos    = "Ingresos"
	ColumnGastos      = "Gastos"
)

// DefaultSectionSeed fixes the section figures when no seed is configured.
const DefaultSectionSeed int64 = 42

// Departments are the rows of the talent performance record.
var Departments = []string{"RRHH", "IT", "Ventas", "Marketing"}

// FinanceMonths are the rows of the income and expense record.
var FinanceMonths = []string{"Enero", "Febrero", "Marzo", "Abril", "Mayo"}

// Option is one value of a dropdown with its display label.
type Option struct {
	Value string
	Label string
}

// TalentCategories lists the talent dropdown in display order.
var TalentCategories = []Option{
	{Value: "rotacion", Label: "Rotación de Personal"},
	{Value: "capacitacion", Label: "Capacitación"},
	{Value: "incentivos", Label: "Incentivos"},
	{Value: "evaluacion", Label: "Evaluación"},
	{Value: "bienestar", Label: "Bienestar"},
	{Value: "clima", Label: "Clima Organizacional"},
	{Value: "retencion", Label: "Retención de Talento"},
}

// TalentCategoryLabel returns the display label of a talent category.
func TalentCategoryLabel(value string) (string, bool) {
	for _, o := range TalentCategories {
		if o.Value == value {
			return o.Label, true
		}
	}
	return "", false
}

// Talent serves department performance scores in [50, 100), drawn once at
// construction so every fetch returns the same figures.
type Talent struct {
	rec Record
}

// NewTalent draws the scores from seed; zero means DefaultSectionSeed.
func NewTalent(seed int64) *Talent {
	rng := sectionRand(seed)
	rec := Record{
		Category:    "talento",
		LabelHeader: "Departamento",
		Metrics:     []string{ColumnPerformance},
		Rows:        make([]Row, len(Departments)),
	}
	for i, dept := range Departments {
		rec.Rows[i] = Row{Label: dept, Values: []float64{float64(50 + rng.Intn(50))}}
	}
	return &Talent{rec: rec}
}

// Fetch returns the performance record. The category only labels the
// record; an empty category is allowed.
func (t *Talent) Fetch(_ context.Context, category string) (Record, error) {
	if category != "" {
		if _, ok := TalentCategoryLabel(category); !ok {
			return Record{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
	}
	rec := cloneRecord(t.rec)
	if category != "" {
		rec.Category = category
	}
	return rec, nil
}

// Remote is false.
func (*Talent) Remote() bool { return false }

// Finance serves monthly income in [20000, 50000) and expenses in
// [15000, 40000), drawn once at construction.
type Finance struct {
	rec Record
}

// NewFinance draws the figures from seed; zero means DefaultSectionSeed.
func NewFinance(seed int64) *Finance {
	rng := sectionRand(seed)
	ingresos := make([]float64, len(FinanceMonths))
	for i := range ingresos {
		ingresos[i] = float64(20000 + rng.Intn(30000))
	}
	rec := Record{
		Category:    "finanzas",
		LabelHeader: "Mes",
		Metrics:     []string{ColumnIngresos, ColumnGastos},
		Rows:        make([]Row, len(FinanceMonths)),
	}
	for i, month := range FinanceMonths {
		rec.Rows[i] = Row{Label: month, Values: []float64{ingresos[i], float64(15000 + rng.Intn(25000))}}
	}
	return &Finance{rec: rec}
}

// Fetch returns the income and expense record whatever the category.
func (f *Finance) Fetch(_ context.Context, _ string) (Record, error) {
	return cloneRecord(f.rec), nil
}

// Remote is false.
func (*Finance) Remote() bool { return false }

func sectionRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = DefaultSectionSeed
	}
	return rand.New(rand.NewSource(seed))
}

func cloneRecord(rec Record) Record {
	out := rec
	out.Metrics = append([]string(nil), rec.Metrics...)
	out.Rows = make([]Row, len(rec.Rows))
	for i, row := range rec.Rows {
		out.Rows[i] = Row{Label: row.Label, Values: append([]float64(nil), row.Values...)}
	}
	return out
}
