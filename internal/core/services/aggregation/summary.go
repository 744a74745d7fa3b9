// Package aggregation derives statistics and chart series from a record
// sequence. Every function is pure: identical input yields identical output
// and the records are never modified.
package aggregation

import (
	"sort"

	"github.com/HFocko/Dashboard/internal/core/domain"
)

// Summary is the numeric summary of one field.
// When Available is false no value coerced and the other fields are zero.
type Summary struct {
	Available bool    `json:"available"`
	Count     int     `json:"count"`
	Sum       float64 `json:"sum"`
	Mean      float64 `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Median    float64 `json:"median"`
}

// Unavailable is returned when a field has no numeric values
var Unavailable = Summary{}

// Count returns the number of records
func Count(records []*domain.Record) int {
	return len(records)
}

// NumericValues returns the coercible values of field in record order
func NumericValues(records []*domain.Record, field string) []float64 {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if v, ok := ParseNumber(rec.Get(field)); ok {
			values = append(values, v)
		}
	}
	return values
}

// NumericSummary computes mean, min, max and median over the values of
// field that coerce to numbers. Non-numeric and missing values are skipped.
func NumericSummary(records []*domain.Record, field string) Summary {
	values := NumericValues(records, field)
	if len(values) == 0 {
		return Unavailable
	}

	s := Summary{
		Available: true,
		Count:     len(values),
		Min:       values[0],
		Max:       values[0],
	}
	for i, v := range values {
		s.Sum += v
		// halves are scaled before subtracting so the running mean stays
		// finite where the sum overflows
		n := float64(i + 1)
		s.Mean += v/n - s.Mean/n
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}

	// floating point rounding can push the mean a hair outside [min, max]
	if s.Mean < s.Min {
		s.Mean = s.Min
	}
	if s.Mean > s.Max {
		s.Mean = s.Max
	}

	s.Median = median(values)
	return s
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1]/2 + sorted[mid]/2
}
