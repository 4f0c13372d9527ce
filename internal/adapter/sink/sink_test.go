package sink

import (
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xuri/excelize/v2"

	"github.com/dankkom/inmet-bdmep-data/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func testDataset() domain.Dataset {
	station := &domain.StationMetadata{
		Region:         "CO",
		State:          "DF",
		Name:           "BRASILIA",
		WMOCode:        "A001",
		Latitude:       ptr(-15.78944444),
		Longitude:      ptr(-47.92583332),
		Altitude:       nil,
		FoundationDate: domain.FoundationDate{Date: time.Date(2000, time.May, 7, 0, 0, 0, 0, time.UTC), Raw: "2000-05-07"},
	}

	first := domain.Observation{
		Timestamp: time.Date(2020, time.March, 5, 13, 0, 0, 0, time.UTC),
		Station:   station,
	}
	first.Values[domain.Precipitacao] = ptr(1.5)
	first.Values[domain.TemperaturaAr] = ptr(21.4)

	second := domain.Observation{
		Timestamp:   time.Date(2020, time.March, 5, 14, 0, 0, 0, time.UTC),
		Station:     station,
		Passthrough: []domain.Column{{Name: "EXTRA", Value: "x"}},
	}
	second.Values[domain.VentoRajada] = ptr(5)

	return domain.Dataset{Rows: []domain.Observation{first, second}}
}

func TestNewTable_Columns(t *testing.T) {
	full := NewTable(testDataset(), true)
	names := full.Names()

	assert.Equal(t, []string{"data", "hora", "data_hora", "regiao", "uf", "estacao", "codigo_wmo",
		"latitude", "longitude", "altitude", "data_fundacao"}, names[:11])
	assert.Equal(t, "precipitacao", names[11])
	assert.Equal(t, "vento_velocidade", names[11+domain.MeasurementCount-1])
	assert.Equal(t, "EXTRA", names[len(names)-1])
	assert.Len(t, names, 11+domain.MeasurementCount+1)

	short := NewTable(testDataset(), false)
	assert.Equal(t, []string{"data", "hora", "data_hora", "codigo_wmo", "precipitacao"}, short.Names()[:5])
}

func TestTable_Row(t *testing.T) {
	tbl := NewTable(testDataset(), false)
	require.Equal(t, 2, tbl.Len())

	row := tbl.Row(0)
	require.Len(t, row, len(tbl.Columns))
	assert.Equal(t, "2020-03-05", row[0])
	assert.Equal(t, "13:00", row[1])
	assert.Equal(t, "2020-03-05 13:00:00", row[2])
	assert.Equal(t, "A001", row[3])
	assert.Equal(t, 1.5, row[4])
	assert.Nil(t, row[5])
	assert.Nil(t, row[len(row)-1], "passthrough missing on this row")

	assert.Equal(t, "x", tbl.Row(1)[len(row)-1])
}

func TestTable_RowWithoutStation(t *testing.T) {
	o := domain.Observation{Timestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	o.Values[domain.Radiacao] = ptr(0)

	row := NewTable(domain.Dataset{Rows: []domain.Observation{o}}, true).Row(0)
	assert.Equal(t, "", row[6])
	assert.Nil(t, row[7])
}

func TestNew(t *testing.T) {
	for _, format := range []string{"csv", "xlsx", "sqlite", "parquet"} {
		w, err := New(format)
		require.NoError(t, err)
		assert.Equal(t, format, w.Format())
	}
	_, err := New("orc")
	assert.Error(t, err)
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "2020-03.csv")
	tbl := NewTable(testDataset(), true)

	require.NoError(t, CSVWriter{}.Write(context.Background(), path, tbl))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	if diff := cmp.Diff(tbl.Names(), records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "2020-03-05", records[1][0])
	assert.Equal(t, "-15.78944444", records[1][7])
	assert.Equal(t, "", records[1][9], "missing altitude")
	assert.Equal(t, "2000-05-07", records[1][10])
	assert.Equal(t, "1.5", records[1][11])
	assert.Equal(t, "x", records[2][len(records[2])-1])
}

func TestCSVWriter_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2020.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the header\n\n\n\n"), 0o644))

	empty := NewTable(domain.Dataset{}, false)
	require.NoError(t, CSVWriter{}.Write(context.Background(), path, empty))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2020-03-05.xlsx")
	tbl := NewTable(testDataset(), false)

	require.NoError(t, XLSXWriter{}.Write(context.Background(), path, tbl))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, tbl.Names(), rows[0])
	assert.Equal(t, "A001", rows[1][3])
	assert.Equal(t, "1.5", rows[1][4])
}

func TestXLSXWriter_RejectsOversizedPartition(t *testing.T) {
	saved := maxSheetRows
	maxSheetRows = 2
	t.Cleanup(func() { maxSheetRows = saved })

	path := filepath.Join(t.TempDir(), "2020.xlsx")
	err := XLSXWriter{}.Write(context.Background(), path, NewTable(testDataset(), false))

	require.ErrorIs(t, err, ErrTooManyRows)
	assert.Contains(t, err.Error(), "partition by month or day")
	assert.NoFileExists(t, path)
}

func TestSQLiteWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2020.sqlite")
	tbl := NewTable(testDataset(), true)

	require.NoError(t, SQLiteWriter{}.Write(context.Background(), path, tbl))
	// A second write replaces the file instead of failing on the existing table.
	require.NoError(t, SQLiteWriter{}.Write(context.Background(), path, tbl))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM observacoes`).Scan(&count))
	assert.Equal(t, 2, count)

	var precip sql.NullFloat64
	var station string
	require.NoError(t, db.QueryRow(`SELECT codigo_wmo, precipitacao FROM observacoes WHERE hora = '13:00'`).Scan(&station, &precip))
	assert.Equal(t, "A001", station)
	assert.True(t, precip.Valid)
	assert.InDelta(t, 1.5, precip.Float64, 1e-9)

	require.NoError(t, db.QueryRow(`SELECT precipitacao FROM observacoes WHERE hora = '14:00'`).Scan(&precip))
	assert.False(t, precip.Valid)

	var extra sql.NullString
	require.NoError(t, db.QueryRow(`SELECT "EXTRA" FROM observacoes WHERE hora = '14:00'`).Scan(&extra))
	assert.Equal(t, "x", extra.String)
}

func TestSQLiteWriter_PathWithURIDelimiters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run?id=1#a b")
	path := filepath.Join(dir, "2020-03.sqlite")

	require.NoError(t, SQLiteWriter{}.Write(context.Background(), path, NewTable(testDataset(), false)))
	require.FileExists(t, path)

	db, err := sql.Open("sqlite3", sqliteDSN(path))
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM observacoes`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN("/data/out?x#y/2020.sqlite")
	assert.Equal(t, "file:%2Fdata%2Fout%3Fx%23y%2F2020.sqlite?_busy_timeout=5000&_journal_mode=OFF", dsn)
}

func TestParquetWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2020-03.parquet")
	tbl := NewTable(testDataset(), true)

	require.NoError(t, ParquetWriter{}.Write(context.Background(), path, tbl))

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()
	pr, err := reader.NewParquetColumnReader(fr, 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.EqualValues(t, 2, pr.GetNumRows())

	station, _, _, err := pr.ReadColumnByIndex(6, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{"A001", "A001"}, station)

	altitude, _, _, err := pr.ReadColumnByIndex(9, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil}, altitude, "missing altitude stays null")

	precip, _, _, err := pr.ReadColumnByIndex(11, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, nil}, precip)
}

func TestParquetSchema(t *testing.T) {
	d := testDataset()
	d.Rows[0].Passthrough = []domain.Column{{Name: "VENTO, EXTRA (m/s)", Value: "1"}, {Name: "VENTO; EXTRA (m/s)", Value: "2"}}
	md := ParquetSchema(NewTable(d, false))

	assert.Equal(t, "name=data, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", md[0])
	assert.Equal(t, "name=precipitacao, type=DOUBLE, repetitiontype=OPTIONAL", md[4])
	assert.Equal(t, []string{
		"name=VENTO_EXTRA_m_s_, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
		"name=VENTO_EXTRA_m_s__2, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
		"name=EXTRA, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	}, md[len(md)-3:])
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
