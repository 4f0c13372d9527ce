package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObservations_LegacyHeaders(t *testing.T) {
	input := body(legacyHeader,
		row("2019-01-01", "0000 UTC", "0", "887,7"),
		row("2019-01-01", "0100 UTC"),
		row("2019-01-01", "0200 UTC", "", "", "", "", "", "21,4"),
	)

	table, err := ParseObservations(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, 1, table.Dropped)

	first := table.Rows[0]
	assert.Equal(t, time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC), first.Timestamp)
	require.NotNil(t, first.Value(Precipitacao))
	assert.InDelta(t, 0.0, *first.Value(Precipitacao), 1e-9)
	require.NotNil(t, first.Value(PressaoAtmosferica))
	assert.InDelta(t, 887.7, *first.Value(PressaoAtmosferica), 1e-9)
	assert.Nil(t, first.Value(VentoVelocidade))
	assert.Empty(t, first.Passthrough)

	second := table.Rows[1]
	assert.Equal(t, 2, second.Timestamp.Hour())
	require.NotNil(t, second.Value(TemperaturaAr))
	assert.InDelta(t, 21.4, *second.Value(TemperaturaAr), 1e-9)
}

func TestParseObservations_InlineUnitHeaders(t *testing.T) {
	input := body(inlineUnitHeader,
		row("05/03/2020", "13:00", "1,2"),
	)

	table, err := ParseObservations(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, table.Headers, 19)
	for _, h := range table.Headers {
		assert.True(t, h.Recognized, "header %q", h.Raw)
	}

	require.Len(t, table.Rows, 1)
	assert.Equal(t, time.Date(2020, time.March, 5, 13, 0, 0, 0, time.UTC), table.Rows[0].Timestamp)
	require.NotNil(t, table.Rows[0].Value(Precipitacao))
	assert.InDelta(t, 1.2, *table.Rows[0].Value(Precipitacao), 1e-9)
}

func TestParseObservations_BothVintagesAgree(t *testing.T) {
	values := []string{"0,2", "887,7", "888", "887,1", "1200", "21,4", "18", "22", "21", "18,5", "17,5", "90", "80", "85", "120", "5,5", "2,1"}

	legacy, err := ParseObservations(strings.NewReader(body(legacyHeader, row("2020-03-05", "1300 UTC", values...))))
	require.NoError(t, err)
	inline, err := ParseObservations(strings.NewReader(body(inlineUnitHeader, row("2020/03/05", "13:00", values...))))
	require.NoError(t, err)

	require.Len(t, legacy.Rows, 1)
	require.Len(t, inline.Rows, 1)
	assert.Equal(t, legacy.Rows[0], inline.Rows[0])
}

func TestParseObservations_SentinelForms(t *testing.T) {
	input := body(legacyHeader,
		row("2020-03-05", "0000", "-9999,0", "", " -9999 "),
	)

	table, err := ParseObservations(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Equal(t, 1, table.Dropped)
}

func TestParseObservations_NaNTokensAreMissing(t *testing.T) {
	allNaN := make([]string, MeasurementCount)
	for i := range allNaN {
		allNaN[i] = "NaN"
	}

	input := body(legacyHeader,
		row("2020-03-05", "1300", allNaN...),
		row("2020-03-05", "1400", "nan", "NA", "null", "n/a", "-nan", "21,4"),
	)

	table, err := ParseObservations(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 1, table.Dropped, "an all-NaN row carries no measurement")
	require.Len(t, table.Rows, 1)
	kept := table.Rows[0]
	assert.Equal(t, 14, kept.Timestamp.Hour())
	for m := Precipitacao; m <= Radiacao; m++ {
		assert.Nil(t, kept.Value(m), "measurement %s", m)
	}
	require.NotNil(t, kept.Value(TemperaturaAr))
	assert.InDelta(t, 21.4, *kept.Value(TemperaturaAr), 1e-9)
}

func TestParseObservations_PassthroughColumn(t *testing.T) {
	header := strings.Replace(legacyHeader, "VENTO, VELOCIDADE HORARIA (m/s)", "EXTRA", 1)
	values := make([]string, MeasurementCount)
	for i := range values {
		values[i] = "1"
	}
	values[MeasurementCount-1] = " kept "

	table, err := ParseObservations(strings.NewReader(body(header, row("2020-03-05", "1300", values...))))
	require.NoError(t, err)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, []Column{{Name: "EXTRA", Value: "kept"}}, table.Rows[0].Passthrough)
	assert.Nil(t, table.Rows[0].Value(VentoVelocidade))
	assert.False(t, table.Headers[18].Recognized)
}

func TestParseObservations_RowErrors(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		line int
		err  error
	}{
		{
			name: "short row",
			rows: []string{"2020-03-05;1300;1,0"},
			line: 10,
			err:  ErrFieldCount,
		},
		{
			name: "malformed date on second row",
			rows: []string{row("2020-03-05", "1300", "1"), row("March 5", "1400", "1")},
			line: 11,
			err:  ErrMalformedDate,
		},
		{
			name: "malformed hour",
			rows: []string{row("2020-03-05", "x", "1")},
			line: 10,
			err:  ErrMalformedHour,
		},
		{
			name: "malformed value",
			rows: []string{row("2020-03-05", "1300", "abc")},
			line: 10,
			err:  ErrMalformedValue,
		},
		{
			name: "infinite value",
			rows: []string{row("2020-03-05", "1300", "Inf")},
			line: 10,
			err:  ErrMalformedValue,
		},
		{
			name: "negative infinity",
			rows: []string{row("2020-03-05", "1300", "", "-Infinity")},
			line: 10,
			err:  ErrMalformedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseObservations(strings.NewReader(body(legacyHeader, tt.rows...)))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, tt.line, rowErr.Line)
		})
	}
}

func TestParseObservations_HeaderErrors(t *testing.T) {
	t.Run("short header", func(t *testing.T) {
		_, err := ParseObservations(strings.NewReader("DATA;HORA;PRECIPITACAO\n"))
		assert.ErrorIs(t, err, ErrFieldCount)

		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 9, rowErr.Line)
	})

	t.Run("no date column", func(t *testing.T) {
		header := strings.Replace(legacyHeader, "DATA (YYYY-MM-DD)", "DIA", 1)
		_, err := ParseObservations(strings.NewReader(body(header)))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseObservations(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})
}

func TestParseObservations_HeaderOnly(t *testing.T) {
	table, err := ParseObservations(strings.NewReader(legacyHeader + "\n"))
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Zero(t, table.Dropped)
}
