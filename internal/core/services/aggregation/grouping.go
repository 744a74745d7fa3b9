package aggregation

import (
	"sort"

	"github.com/HFocko/Dashboard/internal/core/domain"
)

// FrequencyEntry is one distinct raw value and how often it occurs
type FrequencyEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// YearBucket counts the records sharing one numeric year
type YearBucket struct {
	Year  float64 `json:"year"`
	Label string  `json:"label"`
	Count int     `json:"count"`
}

// Frequency counts each distinct raw value of field. Entries are returned in
// first-seen order and missing values are counted under "".
func Frequency(records []*domain.Record, field string) []FrequencyEntry {
	index := make(map[string]int)
	entries := make([]FrequencyEntry, 0)

	for _, rec := range records {
		value := rec.Get(field)
		if i, exists := index[value]; exists {
			entries[i].Count++
			continue
		}
		index[value] = len(entries)
		entries = append(entries, FrequencyEntry{Value: value, Count: 1})
	}

	return entries
}

// YearBuckets groups records by the numeric value of yearField, ascending.
// Records whose year does not coerce are dropped.
func YearBuckets(records []*domain.Record, yearField string) []YearBucket {
	index := make(map[float64]int)
	buckets := make([]YearBucket, 0)

	for _, rec := range records {
		year, ok := ParseNumber(rec.Get(yearField))
		if !ok {
			continue
		}
		if i, exists := index[year]; exists {
			buckets[i].Count++
			continue
		}
		index[year] = len(buckets)
		buckets = append(buckets, YearBucket{Year: year, Label: FormatYear(year), Count: 1})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Year < buckets[j].Year
	})
	return buckets
}
