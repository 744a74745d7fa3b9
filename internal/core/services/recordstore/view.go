package recordstore

import (
	"sort"
	"strings"

	"github.com/HFocko/Dashboard/internal/core/domain"
	"github.com/HFocko/Dashboard/internal/core/services/aggregation"
)

// matches reports whether any field of rec contains the folded term
func (s *Store) matches(rec *domain.Record) bool {
	if s.foldedFilter == "" {
		return true
	}
	for _, value := range rec.Values {
		if strings.Contains(s.fold.String(value), s.foldedFilter) {
			return true
		}
	}
	return false
}

// rebuildView recomputes the view from master, filter and sort
func (s *Store) rebuildView() {
	view := make([]*domain.Record, 0, len(s.master))
	for _, rec := range s.master {
		if s.matches(rec) {
			view = append(view, rec)
		}
	}
	s.view = view
	s.sortView()
}

func (s *Store) sortView() {
	if s.sortField == "" {
		return
	}
	field := s.sortField
	sort.SliceStable(s.view, func(i, j int) bool {
		return CompareValues(s.view[i].Get(field), s.view[j].Get(field)) < 0
	})
}

// CompareValues orders two raw field values. Two numeric values compare
// numerically, two non-numeric values byte-wise, and a numeric value sorts
// before a non-numeric one.
func CompareValues(a, b string) int {
	na, aNumeric := aggregation.ParseNumber(a)
	nb, bNumeric := aggregation.ParseNumber(b)

	switch {
	case aNumeric && bNumeric:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case aNumeric:
		return -1
	case bNumeric:
		return 1
	}
	return strings.Compare(a, b)
}

func totalPages(count, size int) int {
	if count == 0 {
		return 1
	}
	return (count + size - 1) / size
}

func indexOf(records []*domain.Record, rec *domain.Record) int {
	for i, r := range records {
		if r.ID == rec.ID {
			return i
		}
	}
	return -1
}

func remove(records []*domain.Record, i int) []*domain.Record {
	return append(records[:i], records[i+1:]...)
}
