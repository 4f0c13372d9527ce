// Package sink persists partitioned observation tables to disk.
package sink

import (
	"strconv"
	"time"

	"github.com/dankkom/inmet-bdmep-data/internal/domain"
)

// Kind is the storage type of a column.
type Kind int

const (
	KindText Kind = iota
	KindReal
)

// Column is one output column.
type Column struct {
	Name string
	Kind Kind
}

// Station columns written in full metadata mode, in order.
const (
	ColRegion         = "regiao"
	ColState          = "uf"
	ColStation        = "estacao"
	ColLatitude       = "latitude"
	ColLongitude      = "longitude"
	ColAltitude       = "altitude"
	ColFoundationDate = "data_fundacao"
)

const hourLayout = "15:04"

// Table is a dataset laid out as rows of typed cells. Cells are string,
// float64 or nil for a missing value.
type Table struct {
	Columns []Column

	rows            []domain.Observation
	includeMetadata bool
	passthrough     []string
}

// NewTable lays out d. With includeMetadata every station column is written,
// otherwise only the station identifier. Passthrough columns follow the
// measurements in first-seen order.
func NewTable(d domain.Dataset, includeMetadata bool) Table {
	t := Table{rows: d.Rows, includeMetadata: includeMetadata}

	t.Columns = append(t.Columns,
		Column{domain.FieldDate, KindText},
		Column{domain.FieldHour, KindText},
		Column{domain.FieldTimestamp, KindText},
	)
	if includeMetadata {
		t.Columns = append(t.Columns,
			Column{ColRegion, KindText},
			Column{ColState, KindText},
			Column{ColStation, KindText},
			Column{domain.FieldStationID, KindText},
			Column{ColLatitude, KindReal},
			Column{ColLongitude, KindReal},
			Column{ColAltitude, KindReal},
			Column{ColFoundationDate, KindText},
		)
	} else {
		t.Columns = append(t.Columns, Column{domain.FieldStationID, KindText})
	}
	for _, name := range domain.DefaultSchema().Measurements {
		t.Columns = append(t.Columns, Column{name, KindReal})
	}

	seen := make(map[string]bool)
	for _, o := range d.Rows {
		for _, c := range o.Passthrough {
			if !seen[c.Name] {
				seen[c.Name] = true
				t.passthrough = append(t.passthrough, c.Name)
				t.Columns = append(t.Columns, Column{c.Name, KindText})
			}
		}
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.rows) }

// Row returns the cells of row i, aligned with Columns.
func (t Table) Row(i int) []any {
	o := t.rows[i]
	cells := make([]any, 0, len(t.Columns))
	cells = append(cells,
		o.Date().String(),
		o.Timestamp.Format(hourLayout),
		o.Timestamp.Format(time.DateTime),
	)

	st := o.Station
	if st == nil {
		st = &domain.StationMetadata{}
	}
	if t.includeMetadata {
		cells = append(cells,
			st.Region,
			st.State,
			st.Name,
			st.WMOCode,
			floatCell(st.Latitude),
			floatCell(st.Longitude),
			floatCell(st.Altitude),
			st.FoundationDate.String(),
		)
	} else {
		cells = append(cells, st.WMOCode)
	}

	for _, v := range o.Values {
		cells = append(cells, floatCell(v))
	}

	if len(t.passthrough) > 0 {
		values := make(map[string]string, len(o.Passthrough))
		for _, c := range o.Passthrough {
			values[c.Name] = c.Value
		}
		for _, name := range t.passthrough {
			if v, ok := values[name]; ok {
				cells = append(cells, v)
			} else {
				cells = append(cells, nil)
			}
		}
	}
	return cells
}

// Names returns the column names.
func (t Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// formatCell renders a cell as text; missing values are empty.
func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return ""
	}
}
