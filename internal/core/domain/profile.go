package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Profile describes which fields of a dataset kind play which role on the
// dashboard. Profiles are configuration and never change once registered.
type Profile struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	SourceHandle  string `json:"source_handle"`
	CategoryField string `json:"category_field"`
	YearField     string `json:"year_field"`
	NumericField  string `json:"numeric_field"`
	// TrendField is the y axis of the trend chart; NumericField when empty
	TrendField string            `json:"trend_field,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
}

// TrendY returns the field plotted on the trend chart's y axis
func (p Profile) TrendY() string {
	if p.TrendField != "" {
		return p.TrendField
	}
	return p.NumericField
}

// Clone returns a copy of p that shares no maps with it
func (p Profile) Clone() Profile {
	if p.Labels != nil {
		labels := make(map[string]string, len(p.Labels))
		for k, v := range p.Labels {
			labels[k] = v
		}
		p.Labels = labels
	}
	return p
}

// Label returns the display label for field, falling back to a title-cased
// version of the field name ("release_year" -> "Release Year").
func (p Profile) Label(field string) string {
	if label, ok := p.Labels[field]; ok && label != "" {
		return label
	}
	return HumanizeField(field)
}

// ColumnLabels returns the label of every column, in column order
func (p Profile) ColumnLabels(columns []string) []string {
	labels := make([]string, len(columns))
	for i, col := range columns {
		labels[i] = p.Label(col)
	}
	return labels
}

// HumanizeField turns a raw column name into a readable label
func HumanizeField(field string) string {
	words := strings.FieldsFunc(field, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	caser := cases.Title(language.English)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}
