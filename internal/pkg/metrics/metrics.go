package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dashboard collectors. A nil *Metrics is valid and
// records nothing, so services can take it as an optional dependency.
type Metrics struct {
	refreshTotal    prometheus.Counter
	refreshDuration prometheus.Histogram
	mutationsTotal  *prometheus.CounterVec
	loadsTotal      *prometheus.CounterVec
	viewRecords     prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
}

// New registers the dashboard collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		refreshTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_refresh_total",
			Help: "Number of view refreshes computed",
		}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_refresh_duration_seconds",
			Help:    "Time spent deriving aggregates for one refresh",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_mutations_total",
			Help: "Record store operations by kind",
		}, []string{"op"}),
		loadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_dataset_loads_total",
			Help: "Dataset load attempts by dataset and outcome",
		}, []string{"dataset", "status"}),
		viewRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_view_records",
			Help: "Records in the current view set",
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_source_cache_lookups_total",
			Help: "Source cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveRefresh records one refresh that started at start and produced a
// view of viewSize records.
func (m *Metrics) ObserveRefresh(start time.Time, viewSize int) {
	if m == nil {
		return
	}
	m.refreshTotal.Inc()
	m.refreshDuration.Observe(time.Since(start).Seconds())
	m.viewRecords.Set(float64(viewSize))
}

func (m *Metrics) IncMutation(op string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) IncLoad(dataset, status string) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(dataset, status).Inc()
}

func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
