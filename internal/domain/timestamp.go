package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMalformedDate reports a date field matching no known shape.
	ErrMalformedDate = errors.New("malformed date")

	// ErrMalformedHour reports an hour field matching no known shape.
	ErrMalformedHour = errors.New("malformed hour")
)

var (
	// colonHourRe matches the already separated "HH:MM" form.
	colonHourRe = regexp.MustCompile(`^(\d{2}):(\d{2})$`)

	// compactHourRe matches "HHMM" and its decorated variants like "0000 UTC".
	compactHourRe = regexp.MustCompile(`^(\d{2})(.*)$`)

	minutesRe = regexp.MustCompile(`^\d{2}$`)
)

// CalendarDate is a date split into discrete components.
type CalendarDate struct {
	Year  int
	Month int
	Day   int
}

// String composes the date as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// NormalizeDateSeparators unifies "/" separators to "-".
func NormalizeDateSeparators(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "/", "-")
}

// SplitDate parses "YYYY-MM-DD", "YYYY/MM/DD", "DD/MM/YYYY" or "DD-MM-YYYY"
// into calendar components. The year is identified by its four digits.
func SplitDate(raw string) (CalendarDate, error) {
	parts := strings.Split(NormalizeDateSeparators(raw), "-")
	if len(parts) != 3 {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}

	var y, m, d string
	switch {
	case len(parts[0]) == 4:
		y, m, d = parts[0], parts[1], parts[2]
	case len(parts[2]) == 4:
		d, m, y = parts[0], parts[1], parts[2]
	default:
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}

	year, errY := atoiDigits(y)
	month, errM := atoiDigits(m)
	day, errD := atoiDigits(d)
	if errY != nil || errM != nil || errD != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}

	// time.Date normalizes overflow; a round trip rejects "2020-02-30".
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	return CalendarDate{Year: year, Month: month, Day: day}, nil
}

// NormalizeHour returns the hour in "HH:MM" form. A compact value gets a
// separator after its first two characters; when the remainder is not a
// two-digit minute ("0000 UTC", "13") the minutes default to "00".
func NormalizeHour(raw string) (string, error) {
	h := strings.TrimSpace(raw)
	if colonHourRe.MatchString(h) {
		return h, nil
	}

	m := compactHourRe.FindStringSubmatch(h)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedHour, raw)
	}
	minutes := m[2]
	if !minutesRe.MatchString(minutes) {
		minutes = "00"
	}
	return m[1] + ":" + minutes, nil
}

// SplitHour parses an hour field into hour and minute.
func SplitHour(raw string) (int, int, error) {
	norm, err := NormalizeHour(raw)
	if err != nil {
		return 0, 0, err
	}
	m := colonHourRe.FindStringSubmatch(norm)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedHour, raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedHour, raw)
	}
	return hour, minute, nil
}

// ReconcileTimestamp fuses a raw date and a raw hour into one UTC timestamp.
// Values are taken as provided; no rounding or zone conversion is applied.
func ReconcileTimestamp(date, hour string) (time.Time, error) {
	d, err := SplitDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := SplitHour(hour)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, h, m, 0, 0, time.UTC), nil
}

func atoiDigits(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.Atoi(s)
}
