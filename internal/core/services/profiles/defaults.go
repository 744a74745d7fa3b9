// Package profiles describes the dataset kinds the dashboard can display.
package profiles

import (
	"github.com/HFocko/Dashboard/internal/core/domain"
)

// netflix is the catalogue of titles; statistics are on release year and
// the trend plots duration against release year.
func netflix() domain.Profile {
	return domain.Profile{
		ID:            "netflix",
		Title:         "Netflix Titles",
		SourceHandle:  "netflix_titles.csv",
		CategoryField: "type",
		YearField:     "release_year",
		NumericField:  "release_year",
		TrendField:    "duration",
		Labels: map[string]string{
			"show_id":      "ID",
			"type":         "Type",
			"title":        "Title",
			"director":     "Director",
			"cast":         "Cast",
			"country":      "Country",
			"date_added":   "Date Added",
			"release_year": "Release Year",
			"rating":       "Rating",
			"duration":     "Duration",
			"listed_in":    "Genres",
			"description":  "Description",
		},
	}
}

func addiction() domain.Profile {
	return domain.Profile{
		ID:            "addiction",
		Title:         "Addiction Population",
		SourceHandle:  "addiction_population_data.csv",
		CategoryField: "Year",
		YearField:     "Year",
		NumericField:  "Population",
		Labels: map[string]string{
			"Year":       "Year",
			"Population": "Population",
		},
	}
}

// Default returns a registry with the built-in datasets
func Default() *Registry {
	r := &Registry{
		profiles: make(map[string]domain.Profile),
		aliases:  make(map[string]string),
	}
	// built-in profiles are valid and distinct
	_ = r.Register(netflix(), "netflix_titles")
	_ = r.Register(addiction(), "addiction_population")
	return r
}
