package pgsource

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumethik/tablero/internal/data"
)

type cell struct {
	header, label, metric string
	value                 float64
}

type fakeRows struct {
	cells []cell
	pos   int
	err   error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.cells) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) != 4 {
		return fmt.Errorf("expected 4 destinations, got %d", len(dest))
	}
	c := r.cells[r.pos-1]
	*dest[0].(*string) = c.header
	*dest[1].(*string) = c.label
	*dest[2].(*string) = c.metric
	*dest[3].(*float64) = c.value
	return nil
}

type stubQuerier struct {
	rows *fakeRows
	err  error
	args []any
}

func (s *stubQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.args = args
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func TestFetchPivotsCells(t *testing.T) {
	q := &stubQuerier{rows: &fakeRows{cells: []cell{
		{"Mes", "Ene", "Casos", 120},
		{"Mes", "Ene", "Resueltos", 100},
		{"Mes", "Feb", "Casos", 150},
		{"Mes", "Feb", "Resueltos", 130},
	}}}
	rec, err := NewWithQuerier(q).Fetch(context.Background(), "juridica")
	require.NoError(t, err)
	assert.Equal(t, []any{"juridica"}, q.args)
	assert.Equal(t, "Mes", rec.LabelHeader)
	assert.Equal(t, []string{"Casos", "Resueltos"}, rec.Metrics)
	assert.Equal(t, []string{"Ene", "Feb"}, rec.Labels())
	casos, _ := rec.Column("Casos")
	assert.Equal(t, []float64{120, 150}, casos)
}

func TestFetchPadsSparseRows(t *testing.T) {
	q := &stubQuerier{rows: &fakeRows{cells: []cell{
		{"Mes", "Ene", "Casos", 1},
		{"Mes", "Feb", "Resueltos", 2},
	}}}
	rec, err := NewWithQuerier(q).Fetch(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, rec.Rows[0].Values)
	assert.Equal(t, []float64{0, 2}, rec.Rows[1].Values)
}

func TestFetchErrors(t *testing.T) {
	_, err := NewWithQuerier(&stubQuerier{err: errors.New("conn refused")}).Fetch(context.Background(), "x")
	assert.ErrorIs(t, err, data.ErrDataUnavailable)

	_, err = NewWithQuerier(&stubQuerier{rows: &fakeRows{}}).Fetch(context.Background(), "x")
	assert.ErrorIs(t, err, data.ErrUnknownCategory)

	_, err = NewWithQuerier(&stubQuerier{rows: &fakeRows{err: errors.New("reset")}}).Fetch(context.Background(), "x")
	assert.ErrorIs(t, err, data.ErrDataUnavailable)

	assert.Error(t, NewWithQuerier(&stubQuerier{}).Replace(context.Background(), data.Record{}))
}
