package data

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// ColumnValor is the single metric of synthetic indicator records.
const ColumnValor = "Valor"

// Areas lists the selectable business areas in display order.
var Areas = []string{"Ventas", "Finanzas", "Recursos Humanos", "Producción", "Marketing", "Atención al Cliente"}

// Periods lists the selectable reporting periods in display order.
var Periods = []string{"Semanal", "Mensual", "Trimestral", "Semestral", "Anual"}

var indicators = map[string][]string{
	"Ventas":              {"Ingresos", "Crecimiento", "Nuevos Clientes", "Satisfacción"},
	"Finanzas":            {"Rentabilidad", "Deuda", "Eficiencia", "ROI"},
	"Recursos Humanos":    {"Retención", "Contratación", "Capacitación", "Satisfacción Empleados"},
	"Producción":          {"Producción Total", "Eficiencia", "Costos", "Tiempo de Inactividad"},
	"Marketing":           {"Alcance", "Conversiones", "Tráfico Web", "Retorno de Inversión"},
	"Atención al Cliente": {"Satisfacción", "Tiempo de Respuesta", "Respuestas Resueltas", "Feedback"},
}

// Synthetic draws random indicator values in [Min, Max] per area.
type Synthetic struct {
	Min, Max int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthetic returns a generator seeded with seed; zero seeds from the clock.
func NewSynthetic(seed int64) *Synthetic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthetic{Min: 50, Max: 100, rng: rand.New(rand.NewSource(seed))}
}

// Fetch returns one row per indicator of area.
func (s *Synthetic) Fetch(_ context.Context, area string) (Record, error) {
	names, ok := indicators[area]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownCategory, area)
	}
	rec := Record{
		Category:    area,
		LabelHeader: "Indicador",
		Metrics:     []string{ColumnValor},
		Rows:        make([]Row, len(names)),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, name := range names {
		v := s.Min + s.rng.Intn(s.Max-s.Min+1)
		rec.Rows[i] = Row{Label: name, Values: []float64{float64(v)}}
	}
	return rec, nil
}

// Remote is false.
func (*Synthetic) Remote() bool { return false }

// ValidArea reports whether area is selectable.
func ValidArea(area string) bool {
	_, ok := indicators[area]
	return ok
}

// ValidPeriod reports whether period is selectable.
func ValidPeriod(period string) bool {
	for _, p := range Periods {
		if p == period {
			return true
		}
	}
	return false
}
