package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record is one dataset row: a stable synthetic identifier plus its field
// values. A missing field and an empty value are equivalent.
type Record struct {
	ID     uuid.UUID         `json:"id"`
	Values map[string]string `json:"values"`
}

// NewRecord creates a record with a fresh identifier and a private copy of values
func NewRecord(values map[string]string) *Record {
	return &Record{
		ID:     uuid.New(),
		Values: copyValues(values),
	}
}

// Get returns the value of field, or "" when absent
func (r *Record) Get(field string) string {
	if r == nil || r.Values == nil {
		return ""
	}
	return r.Values[field]
}

// Replace swaps every value of the record in place, keeping its identity.
// Callers holding the same pointer observe the change.
func (r *Record) Replace(values map[string]string) {
	r.Values = copyValues(values)
}

// Row returns the values ordered by columns
func (r *Record) Row(columns []string) []string {
	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = r.Get(col)
	}
	return row
}

func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

// Dataset is a fully parsed source document ready for the record store
type Dataset struct {
	Profile     Profile
	Columns     []string
	Records     []*Record
	ContentHash string
	Format      string
	SkippedRows int
	LoadedAt    time.Time
}
