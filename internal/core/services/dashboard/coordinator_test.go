package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HFocko/Dashboard/internal/core/domain"
	"github.com/HFocko/Dashboard/internal/core/services/profiles"
	"github.com/HFocko/Dashboard/internal/pkg/config"
	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
	"github.com/HFocko/Dashboard/internal/pkg/logger"
	"github.com/HFocko/Dashboard/internal/pkg/metrics"
)

func builtinProfile(id string) domain.Profile {
	p, _ := profiles.Default().Get(id)
	return p
}

var titleColumns = []string{"show_id", "type", "title", "release_year", "duration"}

func titles(n int) *domain.Dataset {
	records := make([]*domain.Record, 0, n)
	for i := 1; i <= n; i++ {
		kind := "Movie"
		if i%3 == 0 {
			kind = "TV Show"
		}
		records = append(records, domain.NewRecord(map[string]string{
			"show_id":      fmt.Sprintf("s%d", i),
			"type":         kind,
			"title":        fmt.Sprintf("Title %02d", i),
			"release_year": fmt.Sprintf("%d", 2015+i%5),
			"duration":     fmt.Sprintf("%d min", 80+i),
		}))
	}
	return &domain.Dataset{Profile: builtinProfile("netflix"), Columns: titleColumns, Records: records}
}

type mockLoader struct {
	mu       sync.Mutex
	datasets map[string]*domain.Dataset
	err      error
	block    map[string]chan struct{}
	started  chan string
}

func (m *mockLoader) Load(ctx context.Context, profile domain.Profile) (*domain.Dataset, error) {
	m.mu.Lock()
	gate := m.block[profile.ID]
	started := m.started
	m.mu.Unlock()

	if started != nil {
		started <- profile.ID
	}
	if gate != nil {
		<-gate
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.datasets[profile.ID], nil
}

type recordingRenderer struct {
	snaps []*Snapshot
	err   error
}

func (r *recordingRenderer) Render(ctx context.Context, snap *Snapshot) error {
	r.snaps = append(r.snaps, snap)
	return r.err
}

func addictionDataset() *domain.Dataset {
	return &domain.Dataset{
		Profile: builtinProfile("addiction"),
		Columns: []string{"Year", "Population"},
		Records: []*domain.Record{
			domain.NewRecord(map[string]string{"Year": "2019", "Population": "1200"}),
			domain.NewRecord(map[string]string{"Year": "2020", "Population": "1500"}),
			domain.NewRecord(map[string]string{"Year": "2021", "Population": "n/a"}),
		},
	}
}

func newTestCoordinator(t *testing.T, opts Options) (*Coordinator, *mockLoader) {
	t.Helper()
	loader := &mockLoader{datasets: map[string]*domain.Dataset{
		"netflix":   titles(25),
		"addiction": addictionDataset(),
	}}
	c := NewCoordinator(loader, profiles.Default(), opts, nil, logger.Discard())
	t.Cleanup(c.Close)
	return c, loader
}

func TestCoordinator_SelectDataset(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultOptions())
	renderer := &recordingRenderer{}
	c.AddRenderer(renderer)

	snap, err := c.SelectDataset(context.Background(), "netflix")
	require.NoError(t, err)

	assert.Equal(t, "netflix", snap.DatasetID)
	assert.Equal(t, 25, snap.Total)
	assert.True(t, snap.Summary.Available)
	assert.Equal(t, "release_year", snap.SummaryField)
	assert.LessOrEqual(t, snap.Summary.Min, snap.Summary.Mean)
	assert.LessOrEqual(t, snap.Summary.Mean, snap.Summary.Max)

	total := 0
	for _, e := range snap.Frequency {
		total += e.Count
	}
	assert.Equal(t, 25, total)

	assert.Len(t, snap.Table.Rows, 10)
	assert.Equal(t, 1, snap.Table.CurrentPage)
	assert.Equal(t, 3, snap.Table.TotalPages)
	assert.Equal(t, titleColumns, snap.Table.Headers)
	assert.Equal(t, "Release Year", snap.Table.Labels[3])

	require.Len(t, renderer.snaps, 1)
	assert.Same(t, snap, renderer.snaps[0])
	assert.Same(t, snap, c.Snapshot())

	profile, ok := c.Profile()
	assert.True(t, ok)
	assert.Equal(t, "netflix", profile.ID)
}

func TestCoordinator_Charts(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultOptions())

	snap, err := c.SelectDataset(context.Background(), "netflix")
	require.NoError(t, err)
	require.Len(t, snap.Charts, 3)

	pie, ok := snap.Chart(ChartPie)
	require.True(t, ok)
	assert.Equal(t, "Distribution by Type", pie.Title)
	assert.Equal(t, []string{"Movie", "TV Show"}, pie.Labels)
	assert.Equal(t, []float64{17, 8}, pie.Values)

	line, ok := snap.Chart(ChartLine)
	require.True(t, ok)
	assert.Equal(t, "Duration over Release Year", line.Title)
	assert.Len(t, line.Values, 25)
	assert.Equal(t, 81.0, line.Values[0])
	assert.Equal(t, "2016", line.Labels[0])

	bar, ok := snap.Chart(ChartBar)
	require.True(t, ok)
	assert.Equal(t, "Records per Release Year", bar.Title)
	assert.Equal(t, []string{"2015", "2016", "2017", "2018", "2019"}, bar.Labels)
	assert.Equal(t, []float64{5, 5, 5, 5, 5}, bar.Values)
}

func TestCoordinator_AddictionDataset(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultOptions())

	snap, err := c.SelectDataset(context.Background(), "addiction")
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 2, snap.Summary.Count)
	assert.Equal(t, 1350.0, snap.Summary.Mean)
	assert.Len(t, snap.Trend, 2)

	line, _ := snap.Chart(ChartLine)
	assert.Equal(t, "Population over Year", line.Title)
}

func TestCoordinator_TrendLimitAndStrategy(t *testing.T) {
	opts := DefaultOptions()
	opts.TrendLimit = 5
	c, _ := newTestCoordinator(t, opts)

	snap, err := c.SelectDataset(context.Background(), "netflix")
	require.NoError(t, err)
	require.Len(t, snap.Trend, 5)
	assert.Equal(t, 85.0, snap.Trend[4].Y)

	opts.TrendStrategy = config.TrendStrategyDownsample
	c, _ = newTestCoordinator(t, opts)
	snap, err = c.SelectDataset(context.Background(), "netflix")
	require.NoError(t, err)
	require.Len(t, snap.Trend, 5)
	assert.Equal(t, 81.0, snap.Trend[0].Y)
	assert.Equal(t, 105.0, snap.Trend[4].Y)
}

func TestCoordinator_UnknownDataset(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultOptions())

	_, err := c.SelectDataset(context.Background(), "movies")
	assert.True(t, errors.Is(err, apperrors.ErrUnknownDataset))
	assert.Nil(t, c.Snapshot())
}

func TestCoordinator_OperationsBeforeLoad(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultOptions())
	ctx := context.Background()

	_, err := c.Refresh(ctx)
	assert.True(t, errors.Is(err, apperrors.ErrNoDataset))
	_, err = c.Search(ctx, "x")
	assert.True(t, errors.Is(err, apperrors.ErrNoDataset))
	_, err = c.Insert(ctx, map[string]string{"title": "x"})
	assert.True(t, errors.Is(err, apperrors.ErrNoDataset))
}

func TestCoordinator_FailedLoadKeepsPreviousDataset(t *testing.T) {
	c, loader := newTestCoordinator(t, DefaultOptions())
	ctx := context.Background()

	_, err := c.SelectDataset(ctx, "netflix")
	require.NoError(t, err)

	loader.err = apperrors.EmptyDataset("addiction_population_data.csv")
	_, err = c.SelectDataset(ctx, "addiction")
	assert.True(t, errors.Is(err, apperrors.ErrEmptyDataset))

	snap, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "netflix", snap.DatasetID)
	assert.Equal(t, 25, snap.Total)
	assert.False(t, c.Loading())
}

func TestCoordinator_SupersededLoadIsDiscarded(t *testing.T) {
	c, loader := newTestCoordinator(t, DefaultOptions())
	ctx := context.Background()

	gate := make(chan struct{})
	loader.block = map[string]chan struct{}{"netflix": gate}
	loader.started = make(chan string, 2)

	var slowErr error
	done := make(chan struct{})
	go func() {
		_, slowErr = c.SelectDataset(ctx, "netflix")
		close(done)
	}()
	require.Equal(t, "netflix", <-loader.started)

	_, err := c.Insert(ctx, map[string]string{"title": "x"})
	assert.True(t, errors.Is(err, apperrors.ErrLoadInProgress))

	snap, err := c.SelectDataset(ctx, "addiction")
	require.NoError(t, err)
	assert.Equal(t, "addiction", snap.DatasetID)

	close(gate)
	<-done
	assert.True(t, errors.Is(slowErr, apperrors.ErrLoadSuperseded))

	snap, err = c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "addiction", snap.DatasetID)
}

func TestCoordinator_SearchSortPage(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultOptions())
	ctx := context.Background()

	_, err := c.SelectDataset(ctx, "netflix")
	require.NoError(t, err)

	snap, err := c.Search(ctx, "tv show")
	require.NoError(t, err)
	assert.Equal(t, 8, snap.Total)
	assert.Equal(t, "tv show", snap.Filter)
	assert.Equal(t, []float64{8}, snap.Charts[0].Values)

	snap, err = c.Sort(ctx, "title")
	require.NoError(t, err)
	assert.Equal(t, "Title 03", snap.Table.Rows[0][2])

	snap, err = c.Search(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 25, snap.Total)

	snap, err = c.GoToPage(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, snap.Table.Rows, 5)
	assert.Equal(t, 3, snap.Table.CurrentPage)

	snap, err = c.GoToPage(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Table.CurrentPage)
}

func TestCoordinator_Mutations(t *testing.T) {
	reg := prometheus.NewRegistry()
	loader := &mockLoader{datasets: map[string]*domain.Dataset{"netflix": titles(25)}}
	c := NewCoordinator(loader, profiles.Default(), DefaultOptions(), metrics.New(reg), logger.Discard())
	ctx := context.Background()

	_, err := c.SelectDataset(ctx, "netflix")
	require.NoError(t, err)

	snap, err := c.Insert(ctx, map[string]string{"show_id": "s26", "type": "Movie", "title": "New", "release_year": "2024", "duration": "100 min"})
	require.NoError(t, err)
	assert.Equal(t, 26, snap.Total)
	bar, _ := snap.Chart(ChartBar)
	assert.Equal(t, "2024", bar.Labels[len(bar.Labels)-1])

	snap, err = c.Update(ctx, 0, map[string]string{"show_id": "s1", "type": "Documentary", "title": "Edited", "release_year": "2016", "duration": "81 min"})
	require.NoError(t, err)
	assert.Equal(t, "Edited", snap.Table.Rows[0][2])
	pie, _ := snap.Chart(ChartPie)
	assert.Contains(t, pie.Labels, "Documentary")

	id := snap.Table.RecordIDs[1]
	snap, err = c.UpdateByID(ctx, id, map[string]string{"title": "By ID"})
	require.NoError(t, err)
	assert.Equal(t, "By ID", snap.Table.Rows[1][2])

	snap, err = c.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 25, snap.Total)

	snap, err = c.Delete(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 24, snap.Total)

	_, err = c.Delete(ctx, 100)
	assert.True(t, errors.Is(err, apperrors.ErrIndexOutOfRange))
	_, err = c.DeleteByID(ctx, id)
	assert.True(t, errors.Is(err, apperrors.ErrRecordNotFound))

	series, err := testutil.GatherAndCount(reg, "dashboard_mutations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series)
}

func TestCoordinator_RendererErrorsAreLogged(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultOptions())
	c.AddRenderer(&recordingRenderer{err: errors.New("disk full")})
	ok := &recordingRenderer{}
	c.AddRenderer(ok)

	_, err := c.SelectDataset(context.Background(), "netflix")
	require.NoError(t, err)
	assert.Len(t, ok.snaps, 1)
}

func TestCoordinator_SearchDebounced(t *testing.T) {
	opts := DefaultOptions()
	opts.SearchDebounce = 20 * time.Millisecond
	c, _ := newTestCoordinator(t, opts)

	_, err := c.SelectDataset(context.Background(), "netflix")
	require.NoError(t, err)

	c.SearchDebounced("title 0")
	c.SearchDebounced("title 1")
	c.SearchDebounced("tv show")

	assert.Equal(t, "", c.Snapshot().Filter)
	require.Eventually(t, func() bool {
		return c.Snapshot().Filter == "tv show"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 8, c.Snapshot().Total)
}

func TestCoordinator_SearchDebouncedWithoutDelay(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultOptions())

	_, err := c.SelectDataset(context.Background(), "netflix")
	require.NoError(t, err)

	c.SearchDebounced("Movie")
	assert.Equal(t, 17, c.Snapshot().Total)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		PageSize:       25,
		TrendLimit:     10,
		TrendStrategy:  config.TrendStrategyDownsample,
		InsertPolicy:   config.InsertPolicyReapply,
		SearchDebounce: 300 * time.Millisecond,
	}

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 25, opts.Store.PageSize)
	assert.Equal(t, config.InsertPolicyReapply, opts.Store.InsertPolicy)
	assert.Equal(t, 10, opts.TrendLimit)
	assert.Equal(t, config.TrendStrategyDownsample, opts.TrendStrategy)
	assert.Equal(t, 300*time.Millisecond, opts.SearchDebounce)

	assert.Equal(t, DefaultOptions(), OptionsFromConfig(nil))
}
