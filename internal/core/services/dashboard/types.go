package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HFocko/Dashboard/internal/core/domain"
	"github.com/HFocko/Dashboard/internal/core/services/aggregation"
	"github.com/HFocko/Dashboard/internal/core/services/recordstore"
	"github.com/HFocko/Dashboard/internal/pkg/config"
)

// ChartKind names a chart type
type ChartKind string

const (
	ChartPie  ChartKind = "pie"
	ChartLine ChartKind = "line"
	ChartBar  ChartKind = "bar"
)

// ChartSpec is a chart ready to draw. XValues is only set for line charts,
// where Labels carries the x axis text.
type ChartSpec struct {
	Kind    ChartKind `json:"kind"`
	Title   string    `json:"title"`
	Labels  []string  `json:"labels"`
	Values  []float64 `json:"values"`
	XValues []float64 `json:"x_values,omitempty"`
}

// Empty reports whether the chart has nothing to draw
func (c ChartSpec) Empty() bool {
	return len(c.Values) == 0
}

// TableView is the current page of the table
type TableView struct {
	Headers     []string    `json:"headers"`
	Labels      []string    `json:"labels"`
	Rows        [][]string  `json:"rows"`
	RecordIDs   []uuid.UUID `json:"record_ids"`
	CurrentPage int         `json:"current_page"`
	TotalPages  int         `json:"total_pages"`
	PageSize    int         `json:"page_size"`
}

// Snapshot is everything the dashboard shows, derived in one pass from the
// same view state.
type Snapshot struct {
	DatasetID    string                       `json:"dataset_id"`
	DatasetTitle string                       `json:"dataset_title"`
	Filter       string                       `json:"filter"`
	SortField    string                       `json:"sort_field"`
	Total        int                          `json:"total"`
	SummaryField string                       `json:"summary_field"`
	Summary      aggregation.Summary          `json:"summary"`
	Frequency    []aggregation.FrequencyEntry `json:"frequency"`
	YearBuckets  []aggregation.YearBucket     `json:"year_buckets"`
	Trend        []aggregation.TrendPoint     `json:"trend"`
	Charts       []ChartSpec                  `json:"charts"`
	Table        TableView                    `json:"table"`
	RefreshedAt  time.Time                    `json:"refreshed_at"`
}

// Chart returns the chart of the given kind
func (s *Snapshot) Chart(kind ChartKind) (ChartSpec, bool) {
	for _, c := range s.Charts {
		if c.Kind == kind {
			return c, true
		}
	}
	return ChartSpec{}, false
}

// Renderer receives every published snapshot. Renderers run while the
// coordinator lock is held and must not call back into the coordinator.
type Renderer interface {
	Render(ctx context.Context, snap *Snapshot) error
}

// DatasetLoader produces a dataset for a profile
type DatasetLoader interface {
	Load(ctx context.Context, profile domain.Profile) (*domain.Dataset, error)
}

// ProfileResolver looks up dataset profiles
type ProfileResolver interface {
	Get(id string) (domain.Profile, error)
}

// Options configures a Coordinator
type Options struct {
	Store          recordstore.Options
	TrendLimit     int
	TrendStrategy  string
	SearchDebounce time.Duration
}

// DefaultOptions returns options matching the original dashboard
func DefaultOptions() Options {
	return Options{
		Store:         recordstore.DefaultOptions(),
		TrendLimit:    aggregation.DefaultTrendLimit,
		TrendStrategy: config.TrendStrategyTruncate,
	}
}

// OptionsFromConfig builds coordinator options from application config
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	opts.Store = recordstore.OptionsFromConfig(cfg)
	if cfg.TrendLimit > 0 {
		opts.TrendLimit = cfg.TrendLimit
	}
	if cfg.TrendStrategy != "" {
		opts.TrendStrategy = cfg.TrendStrategy
	}
	opts.SearchDebounce = cfg.SearchDebounce
	return opts
}
