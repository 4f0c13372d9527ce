package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrFieldCount reports a row or header with fewer columns than the schema expects.
	ErrFieldCount = errors.New("wrong field count")

	// ErrMalformedValue reports a measurement that is neither empty, the
	// sentinel, nor a decimal-comma number.
	ErrMalformedValue = errors.New("malformed measurement value")

	// ErrMissingColumn reports a header row without a date or hour column.
	ErrMissingColumn = errors.New("missing column")
)

// RowError identifies the member-file line that failed to decode.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Table is the decoded tabular body of one member file.
type Table struct {
	Headers []HeaderMapping
	Rows    []Observation

	// Dropped counts rows removed because every measurement was missing.
	Dropped int
}

// columnKind tells the row decoder what to do with each position.
type columnKind int

const (
	columnPassthrough columnKind = iota
	columnDate
	columnHour
	columnMeasurement
)

type columnPlan struct {
	kind        columnKind
	measurement Measurement
	name        string
}

// ParseObservations decodes the tabular body of a member file. r must be
// decoded text positioned at the column header line, which sits right after
// the schema's metadata lines; reported line numbers count from the top of
// the member file on that assumption.
//
// Every row must carry at least the schema's column count; trailing columns
// are ignored. A structurally malformed row fails the whole table.
func ParseObservations(r io.Reader) (Table, error) {
	schema := DefaultSchema()

	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	fileLine := func(csvLine int) int { return schema.MetadataLines + csvLine }

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return Table{}, &RowError{Line: fileLine(1), Err: fmt.Errorf("%w: no header row", ErrMissingColumn)}
		}
		return Table{}, fmt.Errorf("read header: %w", err)
	}
	headerLine, _ := cr.FieldPos(0)
	if len(header) < schema.Columns {
		return Table{}, &RowError{
			Line: fileLine(headerLine),
			Err:  fmt.Errorf("%w: header has %d columns, want %d", ErrFieldCount, len(header), schema.Columns),
		}
	}

	headers := append([]string(nil), header[:schema.Columns]...)
	mappings := NormalizeHeaders(DetectNormalizer(headers), headers)
	plan, dateIdx, hourIdx := planColumns(mappings)
	if dateIdx < 0 {
		return Table{}, &RowError{Line: fileLine(headerLine), Err: fmt.Errorf("%w: %s", ErrMissingColumn, FieldDate)}
	}
	if hourIdx < 0 {
		return Table{}, &RowError{Line: fileLine(headerLine), Err: fmt.Errorf("%w: %s", ErrMissingColumn, FieldHour)}
	}

	table := Table{Headers: mappings}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return table, &RowError{Line: fileLine(pe.Line), Err: pe.Err}
			}
			return table, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if len(record) < schema.Columns {
			return table, &RowError{
				Line: fileLine(line),
				Err:  fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(record), schema.Columns),
			}
		}

		obs, err := decodeRow(record, plan, dateIdx, hourIdx, schema.Sentinel)
		if err != nil {
			return table, &RowError{Line: fileLine(line), Err: err}
		}
		table.Rows = append(table.Rows, obs)
	}

	table.Rows, table.Dropped = DropEmpty(table.Rows)
	return table, nil
}

func planColumns(mappings []HeaderMapping) ([]columnPlan, int, int) {
	plan := make([]columnPlan, len(mappings))
	dateIdx, hourIdx := -1, -1
	for i, m := range mappings {
		plan[i] = columnPlan{kind: columnPassthrough, name: m.Name}
		if !m.Recognized {
			continue
		}
		switch m.Name {
		case FieldDate:
			plan[i].kind = columnDate
			if dateIdx < 0 {
				dateIdx = i
			}
		case FieldHour:
			plan[i].kind = columnHour
			if hourIdx < 0 {
				hourIdx = i
			}
		default:
			if ms, ok := MeasurementByName(m.Name); ok {
				plan[i].kind = columnMeasurement
				plan[i].measurement = ms
			}
		}
	}
	return plan, dateIdx, hourIdx
}

func decodeRow(record []string, plan []columnPlan, dateIdx, hourIdx int, sentinel string) (Observation, error) {
	ts, err := ReconcileTimestamp(record[dateIdx], record[hourIdx])
	if err != nil {
		return Observation{}, err
	}

	obs := Observation{Timestamp: ts}
	for i, p := range plan {
		switch p.kind {
		case columnMeasurement:
			v, err := parseMeasurement(record[i], sentinel)
			if err != nil {
				return Observation{}, fmt.Errorf("column %q: %w", p.name, err)
			}
			obs.Values[p.measurement] = v
		case columnPassthrough:
			obs.Passthrough = append(obs.Passthrough, Column{Name: p.name, Value: strings.TrimSpace(record[i])})
		}
	}
	return obs, nil
}

// missingTokens are cell texts, compared lower-cased, that mean "no
// observation" besides the sentinel. strconv would otherwise read "NaN" as a
// number.
var missingTokens = map[string]bool{
	"nan":  true,
	"-nan": true,
	"na":   true,
	"n/a":  true,
	"#n/a": true,
	"<na>": true,
	"null": true,
}

// parseMeasurement converts a decimal-comma value to a float. Empty cells,
// NaN-like tokens and the sentinel, in literal or numeric form, are missing.
// Infinities are malformed.
func parseMeasurement(raw, sentinel string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == sentinel || missingTokens[strings.ToLower(s)] {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedValue, raw)
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	if sv, err := strconv.ParseFloat(sentinel, 64); err == nil && v == sv {
		return nil, nil
	}
	return &v, nil
}
