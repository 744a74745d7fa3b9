// Package recordstore holds the loaded records of one dataset together with
// the filtered, sorted and paginated view shown on the dashboard.
//
// A Store is not safe for concurrent use; callers serialise access.
// Operations on an unloaded store return ErrNoDataset. The read-only
// accessors (Count, TotalPages, Columns and the like) never fail and
// report zero values until the first Load.
package recordstore

import (
	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/HFocko/Dashboard/internal/core/domain"
	"github.com/HFocko/Dashboard/internal/pkg/config"
	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

// Store owns the master record set and the current view. Both slices hold
// the same *domain.Record pointers, so an edit through one is visible
// through the other.
type Store struct {
	opts Options

	loaded  bool
	columns []string
	master  []*domain.Record
	view    []*domain.Record

	filter       string
	foldedFilter string
	fold         cases.Caser
	sortField    string
	page         int
}

// New creates an empty store
func New(opts Options) *Store {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.InsertPolicy == "" {
		opts.InsertPolicy = config.InsertPolicyAppend
	}
	return &Store{
		opts: opts,
		fold: cases.Fold(),
		page: 1,
	}
}

// Load replaces the dataset and resets filter, sort and page. An empty
// record sequence is rejected and the store keeps its previous state.
func (s *Store) Load(columns []string, records []*domain.Record) error {
	if len(records) == 0 {
		return apperrors.ErrEmptyDataset
	}

	master := make([]*domain.Record, len(records))
	for i, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		master[i] = rec
	}

	s.columns = append([]string(nil), columns...)
	s.master = master
	s.view = append([]*domain.Record(nil), master...)
	s.filter = ""
	s.foldedFilter = ""
	s.sortField = ""
	s.page = 1
	s.loaded = true
	return nil
}

// Insert adds a record with a fresh identifier to the master set
func (s *Store) Insert(values map[string]string) (*domain.Record, error) {
	if !s.loaded {
		return nil, apperrors.ErrNoDataset
	}

	rec := domain.NewRecord(values)
	s.master = append(s.master, rec)

	if s.reapply() {
		s.rebuildView()
		s.clampPage()
	} else {
		s.view = append(s.view, rec)
	}
	return rec, nil
}

// Update replaces the values of the record at viewIndex
func (s *Store) Update(viewIndex int, values map[string]string) (*domain.Record, error) {
	rec, err := s.at(viewIndex)
	if err != nil {
		return nil, err
	}
	s.replace(rec, values)
	return rec, nil
}

// UpdateByID replaces the values of the record with the given identifier
func (s *Store) UpdateByID(id uuid.UUID, values map[string]string) (*domain.Record, error) {
	rec, err := s.byID(id)
	if err != nil {
		return nil, err
	}
	s.replace(rec, values)
	return rec, nil
}

// Delete removes the record at viewIndex from the view and the master set
func (s *Store) Delete(viewIndex int) (*domain.Record, error) {
	rec, err := s.at(viewIndex)
	if err != nil {
		return nil, err
	}
	s.view = remove(s.view, viewIndex)
	if i := indexOf(s.master, rec); i >= 0 {
		s.master = remove(s.master, i)
	}
	s.clampPage()
	return rec, nil
}

// DeleteByID removes the record with the given identifier
func (s *Store) DeleteByID(id uuid.UUID) (*domain.Record, error) {
	rec, err := s.byID(id)
	if err != nil {
		return nil, err
	}
	if i := indexOf(s.view, rec); i >= 0 {
		s.view = remove(s.view, i)
	}
	if i := indexOf(s.master, rec); i >= 0 {
		s.master = remove(s.master, i)
	}
	s.clampPage()
	return rec, nil
}

// SetFilter keeps the master records where any field contains term,
// ignoring case. The active sort is re-applied and the page resets to 1.
// An empty term shows every master record: in master order when no sort
// is set, otherwise in the order of the active sort.
func (s *Store) SetFilter(term string) error {
	if !s.loaded {
		return apperrors.ErrNoDataset
	}
	s.filter = term
	s.foldedFilter = s.fold.String(term)
	s.rebuildView()
	s.page = 1
	return nil
}

// SetSort orders the view ascending by field. An empty field keeps the
// current order.
func (s *Store) SetSort(field string) error {
	if !s.loaded {
		return apperrors.ErrNoDataset
	}
	s.sortField = field
	s.sortView()
	return nil
}

// Page returns rows [(n-1)*size, n*size) of the view. Pages outside the
// view are empty.
func (s *Store) Page(n int) (Page, error) {
	if !s.loaded {
		return Page{}, apperrors.ErrNoDataset
	}

	size := s.opts.PageSize
	p := Page{
		Rows:       []*domain.Record{},
		Number:     n,
		TotalPages: totalPages(len(s.view), size),
		PageSize:   size,
		Total:      len(s.view),
	}
	if n < 1 {
		return p, nil
	}

	start := (n - 1) * size
	if start >= len(s.view) {
		return p, nil
	}
	end := min(start+size, len(s.view))
	p.Rows = append(p.Rows, s.view[start:end]...)
	return p, nil
}

// CurrentRows returns the page the view is positioned on
func (s *Store) CurrentRows() (Page, error) {
	return s.Page(s.page)
}

// SetPage moves to page n, clamped to [1, TotalPages]
func (s *Store) SetPage(n int) error {
	if !s.loaded {
		return apperrors.ErrNoDataset
	}
	s.page = n
	s.clampPage()
	return nil
}

// Count returns the number of records in the view
func (s *Store) Count() int { return len(s.view) }

// MasterCount returns the number of loaded records
func (s *Store) MasterCount() int { return len(s.master) }

// View returns a copy of the view sequence
func (s *Store) View() []*domain.Record {
	return append([]*domain.Record(nil), s.view...)
}

// Master returns a copy of the master sequence
func (s *Store) Master() []*domain.Record {
	return append([]*domain.Record(nil), s.master...)
}

// Columns returns the field names in header order
func (s *Store) Columns() []string { return append([]string(nil), s.columns...) }

// Filter returns the active search term
func (s *Store) Filter() string { return s.filter }

// SortField returns the active sort field, "" when unsorted
func (s *Store) SortField() string { return s.sortField }

// CurrentPage returns the page the view is positioned on
func (s *Store) CurrentPage() int { return s.page }

// Loaded reports whether a dataset has been loaded
func (s *Store) Loaded() bool { return s.loaded }

// PageSize returns the number of rows per page
func (s *Store) PageSize() int { return s.opts.PageSize }

// InsertPolicy returns where inserted records appear in the view
func (s *Store) InsertPolicy() string { return s.opts.InsertPolicy }

// TotalPages returns the page count of the view, at least 1
func (s *Store) TotalPages() int {
	return totalPages(len(s.view), s.opts.PageSize)
}

func (s *Store) reapply() bool {
	return s.opts.InsertPolicy == config.InsertPolicyReapply
}

func (s *Store) replace(rec *domain.Record, values map[string]string) {
	rec.Replace(values)
	if s.reapply() {
		s.rebuildView()
		s.clampPage()
	}
}

func (s *Store) at(viewIndex int) (*domain.Record, error) {
	if !s.loaded {
		return nil, apperrors.ErrNoDataset
	}
	if viewIndex < 0 || viewIndex >= len(s.view) {
		return nil, apperrors.IndexOutOfRange(viewIndex, len(s.view))
	}
	return s.view[viewIndex], nil
}

func (s *Store) byID(id uuid.UUID) (*domain.Record, error) {
	if !s.loaded {
		return nil, apperrors.ErrNoDataset
	}
	for _, rec := range s.master {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, apperrors.RecordNotFound(id.String())
}

func (s *Store) clampPage() {
	if last := s.TotalPages(); s.page > last {
		s.page = last
	}
	if s.page < 1 {
		s.page = 1
	}
}
