package domain

import "time"

// FoundationDate is a station's foundation date. Date is zero when the raw
// text matched neither known shape; Raw always keeps the source text.
type FoundationDate struct {
	Date time.Time
	Raw  string
}

// Valid reports whether the raw text was parsed into a calendar date.
func (f FoundationDate) Valid() bool { return !f.Date.IsZero() }

// String renders the parsed date as YYYY-MM-DD, or the raw text otherwise.
func (f FoundationDate) String() string {
	if f.Valid() {
		return f.Date.Format(time.DateOnly)
	}
	return f.Raw
}

// StationMetadata is the identity header of one member file. It is parsed
// once per file and shared read-only by every observation decoded from it.
type StationMetadata struct {
	Region         string
	State          string
	Name           string
	WMOCode        string
	Latitude       *float64
	Longitude      *float64
	Altitude       *float64
	FoundationDate FoundationDate
}

// Column is a raw value under a header that did not normalize to a
// canonical name. Name is the header text verbatim.
type Column struct {
	Name  string
	Value string
}

// Observation is one hourly reading at one station.
type Observation struct {
	Timestamp time.Time

	// Values is indexed by Measurement; nil means no observation.
	Values [MeasurementCount]*float64

	// Passthrough keeps unrecognized columns in header order.
	Passthrough []Column

	// Station is attached by the archive aggregator; nil for rows decoded
	// outside an archive.
	Station *StationMetadata
}

// Value returns the reading for m, or nil when missing.
func (o Observation) Value(m Measurement) *float64 {
	if m < 0 || int(m) >= MeasurementCount {
		return nil
	}
	return o.Values[m]
}

// StationID returns the WMO code of the attached station, if any.
func (o Observation) StationID() string {
	if o.Station == nil {
		return ""
	}
	return o.Station.WMOCode
}

// Date returns the discrete calendar components of the timestamp.
func (o Observation) Date() CalendarDate {
	return CalendarDate{
		Year:  o.Timestamp.Year(),
		Month: int(o.Timestamp.Month()),
		Day:   o.Timestamp.Day(),
	}
}

// Dataset is the concatenation of every observation of an archive, in
// member order then in-file row order.
type Dataset struct {
	Rows []Observation
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Append adds rows to the end of the dataset.
func (d *Dataset) Append(rows ...Observation) {
	d.Rows = append(d.Rows, rows...)
}
