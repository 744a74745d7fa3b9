// Package dashboard keeps the record store, aggregates and rendered output
// of the dashboard consistent. Every operation runs under one mutex and
// ends with a fresh Snapshot.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HFocko/Dashboard/internal/core/domain"
	"github.com/HFocko/Dashboard/internal/core/services/aggregation"
	"github.com/HFocko/Dashboard/internal/core/services/recordstore"
	"github.com/HFocko/Dashboard/internal/pkg/config"
	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
	"github.com/HFocko/Dashboard/internal/pkg/metrics"
)

// Coordinator owns the store of the selected dataset and republishes a
// snapshot after each change.
type Coordinator struct {
	mu sync.Mutex

	store     *recordstore.Store
	profile   domain.Profile
	loader    DatasetLoader
	profiles  ProfileResolver
	renderers []Renderer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	opts      Options
	now       func() time.Time

	// generation is the number of the most recent SelectDataset call
	generation uint64
	loading    bool
	snapshot   *Snapshot

	debounceTimer *time.Timer
	debounceSeq   uint64
}

// NewCoordinator creates a coordinator with no dataset selected. m may be nil.
func NewCoordinator(loader DatasetLoader, profiles ProfileResolver, opts Options, m *metrics.Metrics, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TrendLimit <= 0 {
		opts.TrendLimit = aggregation.DefaultTrendLimit
	}

	return &Coordinator{
		store:    recordstore.New(opts.Store),
		loader:   loader,
		profiles: profiles,
		metrics:  m,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// AddRenderer registers r to receive every published snapshot
func (c *Coordinator) AddRenderer(r Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderers = append(c.renderers, r)
}

// SelectDataset loads the dataset id and publishes its first snapshot.
// The fetch runs without the lock. If another SelectDataset started in the
// meantime the result is discarded with ErrLoadSuperseded. On failure the
// previously selected dataset stays in place.
func (c *Coordinator) SelectDataset(ctx context.Context, id string) (*Snapshot, error) {
	profile, err := c.profiles.Get(id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.loading = true
	c.mu.Unlock()

	c.logger.Info("selecting dataset",
		slog.String("dataset", profile.ID),
		slog.Uint64("generation", gen))

	dataset, loadErr := c.loader.Load(ctx, profile)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Info("discarding superseded dataset load",
			slog.String("dataset", profile.ID),
			slog.Uint64("generation", gen),
			slog.Uint64("latest", c.generation))
		return nil, apperrors.LoadSuperseded(profile.ID, gen)
	}
	c.loading = false

	if loadErr != nil {
		return nil, loadErr
	}
	if err := c.store.Load(dataset.Columns, dataset.Records); err != nil {
		return nil, err
	}
	c.profile = profile

	return c.refreshLocked(ctx)
}

// Refresh recomputes and publishes the snapshot of the current view
func (c *Coordinator) Refresh(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Snapshot returns the last published snapshot, or nil before the first one
func (c *Coordinator) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Profile returns the selected dataset profile
func (c *Coordinator) Profile() (domain.Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile, c.store.Loaded()
}

// Loading reports whether a dataset load is pending
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Search filters the view by term and publishes the result
func (c *Coordinator) Search(ctx context.Context, term string) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelDebounceLocked()
	if err := c.store.SetFilter(term); err != nil {
		return nil, err
	}
	return c.refreshLocked(ctx)
}

// SearchDebounced applies term once no newer term arrived within the
// configured interval. With a zero interval the search runs immediately.
func (c *Coordinator) SearchDebounced(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delay := c.opts.SearchDebounce
	if delay <= 0 {
		if err := c.store.SetFilter(term); err != nil {
			c.logger.Debug("search ignored", slog.Any("error", err))
			return
		}
		c.publishLocked(context.Background())
		return
	}

	c.cancelDebounceLocked()
	seq := c.debounceSeq
	c.debounceTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.debounceSeq {
			return
		}
		c.debounceTimer = nil
		if err := c.store.SetFilter(term); err != nil {
			c.logger.Debug("debounced search ignored", slog.Any("error", err))
			return
		}
		c.publishLocked(context.Background())
	})
}

// Close stops a pending debounced search
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelDebounceLocked()
}

// Sort orders the view by field ("" keeps the current order)
func (c *Coordinator) Sort(ctx context.Context, field string) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.SetSort(field); err != nil {
		return nil, err
	}
	return c.refreshLocked(ctx)
}

// GoToPage moves the table to page n, clamped to the available pages
func (c *Coordinator) GoToPage(ctx context.Context, n int) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.SetPage(n); err != nil {
		return nil, err
	}
	return c.refreshLocked(ctx)
}

// Insert adds a record built from values
func (c *Coordinator) Insert(ctx context.Context, values map[string]string) (*Snapshot, error) {
	return c.mutate(ctx, "insert", func() error {
		_, err := c.store.Insert(values)
		return err
	})
}

// Update replaces the values of the record at viewIndex
func (c *Coordinator) Update(ctx context.Context, viewIndex int, values map[string]string) (*Snapshot, error) {
	return c.mutate(ctx, "update", func() error {
		_, err := c.store.Update(viewIndex, values)
		return err
	})
}

// UpdateByID replaces the values of the record with the given id
func (c *Coordinator) UpdateByID(ctx context.Context, id uuid.UUID, values map[string]string) (*Snapshot, error) {
	return c.mutate(ctx, "update", func() error {
		_, err := c.store.UpdateByID(id, values)
		return err
	})
}

// Delete removes the record at viewIndex
func (c *Coordinator) Delete(ctx context.Context, viewIndex int) (*Snapshot, error) {
	return c.mutate(ctx, "delete", func() error {
		_, err := c.store.Delete(viewIndex)
		return err
	})
}

// DeleteByID removes the record with the given id
func (c *Coordinator) DeleteByID(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return c.mutate(ctx, "delete", func() error {
		_, err := c.store.DeleteByID(id)
		return err
	})
}

func (c *Coordinator) mutate(ctx context.Context, op string, fn func() error) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		return nil, apperrors.ErrLoadInProgress
	}
	if err := fn(); err != nil {
		return nil, err
	}
	c.metrics.IncMutation(op)
	return c.refreshLocked(ctx)
}

func (c *Coordinator) cancelDebounceLocked() {
	c.debounceSeq++
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
}

func (c *Coordinator) publishLocked(ctx context.Context) {
	if _, err := c.refreshLocked(ctx); err != nil {
		c.logger.Warn("refresh failed", slog.Any("error", err))
	}
}

// refreshLocked derives the snapshot from the current view. c.mu must be held.
func (c *Coordinator) refreshLocked(ctx context.Context) (*Snapshot, error) {
	if !c.store.Loaded() {
		return nil, apperrors.ErrNoDataset
	}
	start := c.now()

	page, err := c.store.CurrentRows()
	if err != nil {
		return nil, err
	}
	view := c.store.View()
	p := c.profile

	snap := &Snapshot{
		DatasetID:    p.ID,
		DatasetTitle: p.Title,
		Filter:       c.store.Filter(),
		SortField:    c.store.SortField(),
		Total:        aggregation.Count(view),
		SummaryField: p.NumericField,
		Summary:      aggregation.NumericSummary(view, p.NumericField),
		Frequency:    aggregation.Frequency(view, p.CategoryField),
		YearBuckets:  aggregation.YearBuckets(view, p.YearField),
		Trend:        c.trend(view),
		Table:        c.table(page),
		RefreshedAt:  start.UTC(),
	}
	snap.Charts = buildCharts(p, snap)

	c.snapshot = snap
	c.metrics.ObserveRefresh(start, snap.Total)

	for _, r := range c.renderers {
		if err := r.Render(ctx, snap); err != nil {
			c.logger.Error("renderer failed",
				slog.String("dataset", p.ID),
				slog.Any("error", err))
		}
	}
	return snap, nil
}

func (c *Coordinator) trend(view []*domain.Record) []aggregation.TrendPoint {
	x, y := c.profile.YearField, c.profile.TrendY()
	if c.opts.TrendStrategy == config.TrendStrategyDownsample {
		return aggregation.DownsampleTrend(aggregation.TrendPoints(view, x, y), c.opts.TrendLimit)
	}
	return aggregation.TrendSeries(view, x, y, c.opts.TrendLimit)
}

func (c *Coordinator) table(page recordstore.Page) TableView {
	headers := c.store.Columns()
	tv := TableView{
		Headers:     headers,
		Labels:      c.profile.ColumnLabels(headers),
		Rows:        make([][]string, 0, len(page.Rows)),
		RecordIDs:   make([]uuid.UUID, 0, len(page.Rows)),
		CurrentPage: page.Number,
		TotalPages:  page.TotalPages,
		PageSize:    page.PageSize,
	}
	for _, rec := range page.Rows {
		tv.Rows = append(tv.Rows, rec.Row(headers))
		tv.RecordIDs = append(tv.RecordIDs, rec.ID)
	}
	return tv
}
