package domain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrShortHeader reports a member file with fewer metadata lines than expected.
	ErrShortHeader = errors.New("short metadata header")

	// ErrMalformedMetadata reports a metadata line without a key;value pair.
	ErrMalformedMetadata = errors.New("malformed metadata line")
)

var (
	isoDateRe   = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
	shortDateRe = regexp.MustCompile(`^[0-9]{2}/[0-9]{2}/[0-9]{2}$`)
)

// NewSourceReader decodes the archives' single-byte Latin-1 text into UTF-8.
// The returned reader buffers, so parsers sharing it see a consistent position.
func NewSourceReader(r io.Reader) *bufio.Reader {
	return bufio.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
}

// ParseMetadata consumes exactly the eight station header lines from r, which
// must already be decoded text. On return r is positioned at the start of
// the column header line. Unparseable coordinates become nil and an unknown
// foundation date shape keeps its raw text; both are logged and never fail.
func ParseMetadata(r *bufio.Reader, logger *slog.Logger) (StationMetadata, error) {
	var values [8]string
	for i := range values {
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return StationMetadata{}, fmt.Errorf("%w: %d of %d lines", ErrShortHeader, i, len(values))
			}
			return StationMetadata{}, fmt.Errorf("read metadata line %d: %w", i+1, err)
		}
		_, value, ok := strings.Cut(strings.TrimRight(line, "\r\n"), ";")
		if !ok {
			return StationMetadata{}, fmt.Errorf("%w: line %d: %q", ErrMalformedMetadata, i+1, line)
		}
		// A trailing separator leaves an empty third field; keep the second only.
		value, _, _ = strings.Cut(value, ";")
		values[i] = strings.TrimSpace(value)
	}

	meta := StationMetadata{
		Region:  values[0],
		State:   values[1],
		Name:    values[2],
		WMOCode: values[3],
	}
	meta.Latitude = parseDecimalComma(values[4])
	meta.Longitude = parseDecimalComma(values[5])
	meta.Altitude = parseDecimalComma(values[6])
	meta.FoundationDate = parseFoundationDate(values[7])

	if logger != nil {
		warnMissing(logger, meta, "latitude", meta.Latitude, values[4])
		warnMissing(logger, meta, "longitude", meta.Longitude, values[5])
		warnMissing(logger, meta, "altitude", meta.Altitude, values[6])
		if !meta.FoundationDate.Valid() {
			logger.Warn("unrecognized foundation date, keeping raw text",
				"station", meta.WMOCode,
				"value", meta.FoundationDate.Raw,
			)
		}
	}

	return meta, nil
}

// SkipLines discards n lines from r.
func SkipLines(r *bufio.Reader, n int) error {
	for i := 0; i < n; i++ {
		if _, err := r.ReadString('\n'); err != nil {
			if err == io.EOF {
				return fmt.Errorf("%w: %d of %d lines", ErrShortHeader, i, n)
			}
			return err
		}
	}
	return nil
}

// parseDecimalComma parses "-23,55" style numbers, returning nil on failure.
func parseDecimalComma(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseFoundationDate classifies raw by shape: "YYYY-MM-DD" or "DD/MM/YY".
// Two-digit years follow time.Parse: 69-99 are 19xx, 00-68 are 20xx.
func parseFoundationDate(raw string) FoundationDate {
	fd := FoundationDate{Raw: raw}
	var layout string
	switch {
	case isoDateRe.MatchString(raw):
		layout = time.DateOnly
	case shortDateRe.MatchString(raw):
		layout = "02/01/06"
	default:
		return fd
	}
	if t, err := time.Parse(layout, raw); err == nil {
		fd.Date = t
	}
	return fd
}

func warnMissing(logger *slog.Logger, meta StationMetadata, field string, v *float64, raw string) {
	if v != nil {
		return
	}
	logger.Warn("unparseable station coordinate, using null",
		"station", meta.WMOCode,
		"field", field,
		"value", raw,
	)
}
