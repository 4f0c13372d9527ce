// Command genmock writes a synthetic BDMEP yearly archive for local runs and
// demos. Stations alternate between the unaccented legacy header vocabulary
// and the accented inline-unit one, and a share of hours carry only the
// missing-value sentinel, so the archive exercises both header strategies
// and the row filter.
//
// Usage:
//
//	go run ./cmd/genmock -year 2020 -stations 4 -days 3 -out data/raw/inmet-bdmep_2020_20240102.zip
package main

import (
	"archive/zip"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/dankkom/inmet-bdmep-data/internal/domain"
)

var legacyHeader = []string{
	"DATA (YYYY-MM-DD)", "HORA (UTC)", "PRECIPITACAO TOTAL, HORARIO (mm)",
	"PRESSAO ATMOSFERICA AO NIVEL DA ESTACAO, HORARIA (mB)", "PRESSAO ATMOSFERICA MAX.NA HORA ANT. (AUT) (mB)",
	"PRESSAO ATMOSFERICA MIN. NA HORA ANT. (AUT) (mB)", "RADIACAO GLOBAL (KJ/m2)",
	"TEMPERATURA DO AR - BULBO SECO, HORARIA (C)", "TEMPERATURA DO PONTO DE ORVALHO (C)",
	"TEMPERATURA MAXIMA NA HORA ANT. (AUT) (C)", "TEMPERATURA MINIMA NA HORA ANT. (AUT) (C)",
	"TEMPERATURA ORVALHO MAX. NA HORA ANT. (AUT) (C)", "TEMPERATURA ORVALHO MIN. NA HORA ANT. (AUT) (C)",
	"UMIDADE REL. MAX. NA HORA ANT. (AUT) (%)", "UMIDADE REL. MIN. NA HORA ANT. (AUT) (%)",
	"UMIDADE RELATIVA DO AR, HORARIA (%)", "VENTO, DIRECAO HORARIA (gr) (gr)",
	"VENTO, RAJADA MAXIMA (m/s)", "VENTO, VELOCIDADE HORARIA (m/s)",
}

var inlineUnitHeader = []string{
	"Data", "Hora UTC", "PRECIPITAÇÃO TOTAL, HORÁRIO (mm)",
	"PRESSAO ATMOSFERICA AO NIVEL DA ESTACAO, HORARIA (mB)", "PRESSÃO ATMOSFERICA MAX.NA HORA ANT. (AUT) (mB)",
	"PRESSÃO ATMOSFERICA MIN. NA HORA ANT. (AUT) (mB)", "RADIACAO GLOBAL (Kj/m²)",
	"TEMPERATURA DO AR - BULBO SECO, HORARIA (°C)", "TEMPERATURA DO PONTO DE ORVALHO (°C)",
	"TEMPERATURA MÁXIMA NA HORA ANT. (AUT) (°C)", "TEMPERATURA MÍNIMA NA HORA ANT. (AUT) (°C)",
	"TEMPERATURA ORVALHO MAX. NA HORA ANT. (AUT) (°C)", "TEMPERATURA ORVALHO MIN. NA HORA ANT. (AUT) (°C)",
	"UMIDADE REL. MAX. NA HORA ANT. (AUT) (%)", "UMIDADE REL. MIN. NA HORA ANT. (AUT) (%)",
	"UMIDADE RELATIVA DO AR, HORARIA (%)", "VENTO, DIREÇÃO HORARIA (gr) (° (gr))",
	"VENTO, RAJADA MAXIMA (m/s)", "VENTO, VELOCIDADE HORARIA (m/s)",
}

type station struct {
	region, state, name, code string
	lat, lon, alt             float64
	founded                   string
}

var stations = []station{
	{"CO", "DF", "BRASILIA", "A001", -15.78944444, -47.92583332, 1160.96, "2000-05-07"},
	{"SE", "SP", "SÃO PAULO - MIRANTE", "A701", -23.49638888, -46.62, 785.16, "25/07/06"},
	{"S", "RS", "PORTO ALEGRE", "A801", -30.05361111, -51.17472221, 46.97, "2000-09-22"},
	{"N", "AM", "MANAUS", "A101", -3.10333333, -60.01638888, 61.25, "09/05/00"},
	{"NE", "PE", "RECIFE", "A301", -8.05916666, -34.95916666, 10.02, "2004-05-30"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	year := flag.Int("year", 2020, "year the archive covers")
	n := flag.Int("stations", 4, "number of station members (max 5)")
	days := flag.Int("days", 3, "days of hourly rows per station, from January 1st")
	out := flag.String("out", "", "output path of the ZIP archive")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *n < 1 || *n > len(stations) {
		return fmt.Errorf("-stations must be between 1 and %d", len(stations))
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	var total, sentinel int
	for i, st := range stations[:*n] {
		name := fmt.Sprintf("%d/INMET_%s_%s_%s_%s_01-01-%d_A_31-12-%d.CSV",
			*year, st.region, st.state, st.code, strings.ReplaceAll(st.name, " ", "_"), *year, *year)
		text, rows, empty := member(st, *year, *days, i%2 == 1)
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		encoded, err := charmap.ISO8859_1.NewEncoder().String(text)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if _, err := w.Write([]byte(encoded)); err != nil {
			return err
		}
		total += rows
		sentinel += empty
		log.Printf("%s: %d rows (%d sentinel-only)", name, rows, empty)
	}
	if err := zw.Close(); err != nil {
		return err
	}

	log.Printf("wrote %s", *out)
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Members: %d\n", *n)
	fmt.Printf("Rows: %d\n", total)
	fmt.Printf("Sentinel-only rows: %d\n", sentinel)
	fmt.Printf("Rows after filter: %d\n", total-sentinel)
	return nil
}

// member renders one station file and reports its row count and how many
// rows carry only the sentinel.
func member(st station, year, days int, inlineUnits bool) (string, int, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "REGIAO:;%s\nUF:;%s\nESTACAO:;%s\nCODIGO (WMO):;%s\n", st.region, st.state, st.name, st.code)
	fmt.Fprintf(&b, "LATITUDE:;%s\nLONGITUDE:;%s\nALTITUDE:;%s\n", decimalComma(st.lat), decimalComma(st.lon), decimalComma(st.alt))
	fmt.Fprintf(&b, "DATA DE FUNDACAO:;%s\n", st.founded)

	header := legacyHeader
	if inlineUnits {
		header = inlineUnitHeader
	}
	b.WriteString(strings.Join(header, ";") + ";\n")

	sentinel := domain.DefaultSchema().Sentinel
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, empty := 0, 0
	for h := 0; h < days*24; h++ {
		ts := start.Add(time.Duration(h) * time.Hour)
		date, hour := ts.Format("2006-01-02"), ts.Format("1504")+" UTC"
		if inlineUnits {
			date, hour = ts.Format("2006/01/02"), ts.Format("15:04")
		}

		cells := make([]string, domain.MeasurementCount)
		if h%7 == 3 {
			for i := range cells {
				cells[i] = sentinel
			}
			empty++
		} else {
			for i := range cells {
				cells[i] = decimalComma(reading(domain.Measurement(i), h))
			}
		}
		fmt.Fprintf(&b, "%s;%s;%s;\n", date, hour, strings.Join(cells, ";"))
		rows++
	}
	return b.String(), rows, empty
}

// reading is a smooth diurnal curve per measurement.
func reading(m domain.Measurement, hour int) float64 {
	phase := math.Sin(2 * math.Pi * float64(hour%24) / 24)
	base := map[domain.Measurement]float64{
		domain.Precipitacao:       0,
		domain.PressaoAtmosferica: 887,
		domain.Radiacao:           1200,
		domain.TemperaturaAr:      21,
		domain.UmidadeRelativa:    70,
		domain.VentoVelocidade:    2,
	}[m]
	v := math.Round((base+5*phase)*10) / 10
	if m == domain.Precipitacao {
		return math.Max(v, 0)
	}
	return v
}

func decimalComma(v float64) string {
	return strings.Replace(fmt.Sprintf("%g", v), ".", ",", 1)
}
