package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	cases := []struct{ in, want string }{
		{in: "  Producción ", want: "produccion"},
		{in: "ATENCIÓN", want: "atencion"},
		{in: "Natural_Gas_Price", want: "natural gas price"},
		{in: "Tiempo   de\tRespuesta", want: "tiempo de respuesta"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeHeader(tc.in), tc.in)
	}
}

func TestFromTablePicksLabelAndMetrics(t *testing.T) {
	rec, err := FromTable("dataset_limpio",
		[]string{"Date", "Natural_Gas_Price", "Crude_oil_Price", "Notes"},
		[][]string{
			{"2024-01-01", "2,5", "70.1", "a"},
			{"2024-01-02", "2.75", "71", ""},
			{"", "", "", ""},
			{"2024-01-03", "", "1,234.5", "b"},
		})
	require.NoError(t, err)
	assert.Equal(t, "Date", rec.LabelHeader)
	assert.Equal(t, []string{"Natural_Gas_Price", "Crude_oil_Price"}, rec.Metrics)
	require.Len(t, rec.Rows, 3)

	gas, ok := rec.Column("natural gas price")
	require.True(t, ok)
	assert.Equal(t, []float64{2.5, 2.75, 0}, gas)
	oil, _ := rec.Column("CRUDE_OIL_PRICE")
	assert.Equal(t, []float64{70.1, 71, 1234.5}, oil)
}

func TestFromTableWithoutLabelColumn(t *testing.T) {
	rec, err := FromTable("x", []string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, rec.Labels())
	assert.Equal(t, []string{"a", "b"}, rec.Metrics)
}

func TestFromTableEmptyHeader(t *testing.T) {
	_, err := FromTable("x", nil, nil)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"1.234,5": 1234.5,
		"1,234.5": 1234.5,
		"3,5":     3.5,
		" 42 ":    42,
	}
	for in, want := range cases {
		got, ok := parseNumber(in)
		assert.True(t, ok, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}
	_, ok := parseNumber("Ene")
	assert.False(t, ok)

	for _, in := range []string{"NaN", "nan", "Inf", "-Inf", "+Infinity", "infinity"} {
		_, ok := parseNumber(in)
		assert.False(t, ok, in)
	}
}

func TestFromTableTreatsNaNCellAsText(t *testing.T) {
	rec, err := FromTable("dataset_limpio",
		[]string{"Date", "Natural_Gas_Price", "Crude_oil_Price"},
		[][]string{
			{"d1", "2.0", "70"},
			{"d2", "NaN", "71"},
			{"d3", "3.0", "Inf"},
		})
	require.NoError(t, err)
	assert.Equal(t, "Date", rec.LabelHeader)
	assert.Empty(t, rec.Metrics)
	assert.ErrorIs(t, rec.Require("Natural_Gas_Price"), ErrDataUnavailable)
}
