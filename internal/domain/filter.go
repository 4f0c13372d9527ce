package domain

// HasMeasurement reports whether at least one measurement of o is present.
// Timestamp, station metadata and passthrough columns do not count.
func HasMeasurement(o Observation) bool {
	for _, v := range o.Values {
		if v != nil {
			return true
		}
	}
	return false
}

// DropEmpty removes, in place, every row whose measurements are all missing,
// and returns the kept rows together with the number removed.
func DropEmpty(rows []Observation) ([]Observation, int) {
	kept := rows[:0]
	for _, o := range rows {
		if HasMeasurement(o) {
			kept = append(kept, o)
		}
	}
	dropped := len(rows) - len(kept)
	clear(rows[len(kept):])
	return kept, dropped
}
