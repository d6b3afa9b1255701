package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedDirectionDataset(t *testing.T) {
	rec, err := NewFixed().Fetch(context.Background(), "administrativa")
	require.NoError(t, err)
	assert.Equal(t, "administrativa", rec.Category)
	assert.Equal(t, []string{"Ene", "Feb", "Mar", "Abr", "May"}, rec.Labels())

	casos, ok := rec.Column(ColumnCasos)
	require.True(t, ok)
	assert.Equal(t, []float64{120, 150, 140, 170, 190}, casos)

	resueltos, _ := rec.Column(ColumnResueltos)
	pendientes, _ := rec.Column(ColumnPendientes)
	assert.Equal(t, []float64{100, 130, 120, 150, 170}, resueltos)
	assert.Equal(t, []float64{20, 20, 20, 20, 20}, pendientes)
	assert.NoError(t, rec.Require(ColumnCasos, ColumnResueltos, ColumnPendientes))
	assert.False(t, NewFixed().Remote())
}

func TestSyntheticRangeAndSeed(t *testing.T) {
	a := NewSynthetic(42)
	b := NewSynthetic(42)
	for _, area := range Areas {
		ra, err := a.Fetch(context.Background(), area)
		require.NoError(t, err)
		rb, err := b.Fetch(context.Background(), area)
		require.NoError(t, err)
		assert.Equal(t, ra, rb, area)
		require.Len(t, ra.Rows, 4)
		values, _ := ra.Column(ColumnValor)
		for _, v := range values {
			assert.GreaterOrEqual(t, v, 50.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestSyntheticUnknownArea(t *testing.T) {
	_, err := NewSynthetic(1).Fetch(context.Background(), "Logística")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSelectorValidation(t *testing.T) {
	assert.True(t, ValidArea("Atención al Cliente"))
	assert.False(t, ValidArea("ventas"))
	assert.True(t, ValidPeriod("Trimestral"))
	assert.False(t, ValidPeriod("Diario"))
}

func TestRecordRequireAndHead(t *testing.T) {
	rec, _ := NewFixed().Fetch(context.Background(), "juridica")
	err := rec.Require("Natural_Gas_Price")
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Len(t, rec.Head(2).Rows, 2)
	assert.Len(t, rec.Head(50).Rows, 5)
	assert.Len(t, rec.Rows, 5)
}
