package domain

import (
	"fmt"
	"iter"
)

// Granularity selects the calendar fields a dataset is partitioned by.
type Granularity int

const (
	ByYear Granularity = iota
	ByMonth
	ByDay
)

// ParseGranularity accepts "year", "month" or "day".
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "year":
		return ByYear, nil
	case "month":
		return ByMonth, nil
	case "day":
		return ByDay, nil
	default:
		return 0, fmt.Errorf("unknown partition level %q (allowed: year, month, day)", s)
	}
}

func (g Granularity) String() string {
	switch g {
	case ByYear:
		return "year"
	case ByMonth:
		return "month"
	case ByDay:
		return "day"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// PartitionKey is the (year[, month[, day]]) tuple of a partition. Fields
// finer than the granularity are zero.
type PartitionKey struct {
	Granularity Granularity
	Year        int
	Month       int
	Day         int
}

// KeyOf derives the partition key of one observation.
func KeyOf(o Observation, g Granularity) PartitionKey {
	d := o.Date()
	k := PartitionKey{Granularity: g, Year: d.Year}
	if g >= ByMonth {
		k.Month = d.Month
	}
	if g >= ByDay {
		k.Day = d.Day
	}
	return k
}

// String renders the key zero-padded: "2020", "2020-03" or "2020-03-05".
func (k PartitionKey) String() string {
	switch k.Granularity {
	case ByYear:
		return fmt.Sprintf("%04d", k.Year)
	case ByMonth:
		return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
	}
}

// FileName names the output file of the partition, e.g. "2020-03.csv".
func (k PartitionKey) FileName(ext string) string {
	return k.String() + "." + ext
}

// Partitions groups rows by calendar key at granularity g. Keys are yielded
// in first-encountered order and each row lands in exactly one group. Group
// tables are materialized only as the sequence is consumed.
func Partitions(d Dataset, g Granularity) iter.Seq2[PartitionKey, Dataset] {
	return func(yield func(PartitionKey, Dataset) bool) {
		var order []PartitionKey
		members := make(map[PartitionKey][]int)
		for i, o := range d.Rows {
			k := KeyOf(o, g)
			if _, seen := members[k]; !seen {
				order = append(order, k)
			}
			members[k] = append(members[k], i)
		}

		for _, k := range order {
			idx := members[k]
			part := Dataset{Rows: make([]Observation, len(idx))}
			for j, i := range idx {
				part.Rows[j] = d.Rows[i]
			}
			if !yield(k, part) {
				return
			}
		}
	}
}
