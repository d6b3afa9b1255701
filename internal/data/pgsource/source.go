// Package pgsource serves records stored in PostgreSQL in long format, one
// row per (category, label, metric) cell.
package pgsource

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumethik/tablero/internal/data"
	"github.com/lumethik/tablero/internal/platform/db"
)

//go:embed schema.sql
var schemaSQL string

const selectSQL = `SELECT label_header, label, metric, value
FROM tablero_metrics
WHERE category = $1
ORDER BY position, metric_position`

// Querier is the read surface of a pgx pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source reads records from the tablero_metrics table.
type Source struct {
	q    Querier
	pool *pgxpool.Pool
}

// New returns a Source over pool.
func New(pool *pgxpool.Pool) *Source {
	return &Source{q: pool, pool: pool}
}

// NewWithQuerier returns a read-only Source.
func NewWithQuerier(q Querier) *Source {
	return &Source{q: q}
}

// Remote is true; queries cross the network.
func (s *Source) Remote() bool { return true }

// Fetch pivots the stored cells of category back into a Record.
func (s *Source) Fetch(ctx context.Context, category string) (data.Record, error) {
	rows, err := s.q.Query(ctx, selectSQL, category)
	if err != nil {
		return data.Record{}, fmt.Errorf("%w: query %q: %v", data.ErrDataUnavailable, category, err)
	}
	defer rows.Close()

	rec := data.Record{Category: category}
	metricIdx := make(map[string]int)
	rowIdx := make(map[string]int)
	for rows.Next() {
		var header, label, metric string
		var value float64
		if err := rows.Scan(&header, &label, &metric, &value); err != nil {
			return data.Record{}, fmt.Errorf("%w: scan: %v", data.ErrDataUnavailable, err)
		}
		rec.LabelHeader = header
		mi, ok := metricIdx[metric]
		if !ok {
			mi = len(rec.Metrics)
			metricIdx[metric] = mi
			rec.Metrics = append(rec.Metrics, metric)
		}
		ri, ok := rowIdx[label]
		if !ok {
			ri = len(rec.Rows)
			rowIdx[label] = ri
			rec.Rows = append(rec.Rows, data.Row{Label: label})
		}
		for len(rec.Rows[ri].Values) <= mi {
			rec.Rows[ri].Values = append(rec.Rows[ri].Values, 0)
		}
		rec.Rows[ri].Values[mi] = value
	}
	if err := rows.Err(); err != nil {
		return data.Record{}, fmt.Errorf("%w: rows: %v", data.ErrDataUnavailable, err)
	}
	if len(rec.Rows) == 0 {
		return data.Record{}, fmt.Errorf("%w: %q", data.ErrUnknownCategory, category)
	}
	for i := range rec.Rows {
		for len(rec.Rows[i].Values) < len(rec.Metrics) {
			rec.Rows[i].Values = append(rec.Rows[i].Values, 0)
		}
	}
	return rec, nil
}

// EnsureSchema creates the metrics table when missing.
func (s *Source) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("pgsource: read-only source")
	}
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// Replace swaps every stored cell of rec.Category for the contents of rec
// in one transaction.
func (s *Source) Replace(ctx context.Context, rec data.Record) error {
	if s.pool == nil {
		return errors.New("pgsource: read-only source")
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tablero_metrics WHERE category = $1`, rec.Category); err != nil {
			return fmt.Errorf("pgsource: delete: %w", err)
		}
		batch := &pgx.Batch{}
		for pos, row := range rec.Rows {
			for mpos, metric := range rec.Metrics {
				value := 0.0
				if mpos < len(row.Values) {
					value = row.Values[mpos]
				}
				batch.Queue(`INSERT INTO tablero_metrics (category, label_header, position, label, metric_position, metric, value)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, rec.Category, rec.LabelHeader, pos, row.Label, mpos, metric, value)
			}
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
