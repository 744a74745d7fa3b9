package aggregation

import (
	"strings"

	"github.com/HFocko/Dashboard/internal/core/domain"
)

// DefaultTrendLimit caps the trend series when no limit is given
const DefaultTrendLimit = 50

// TrendPoint is one (x, y) pair of the trend chart
type TrendPoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	XLabel string  `json:"x_label"`
}

// TrendPoints returns every record where both fields coerce, in record order
func TrendPoints(records []*domain.Record, xField, yField string) []TrendPoint {
	points := make([]TrendPoint, 0)
	for _, rec := range records {
		raw := rec.Get(xField)
		x, ok := ParseNumber(raw)
		if !ok {
			continue
		}
		y, ok := ParseNumber(rec.Get(yField))
		if !ok {
			continue
		}
		points = append(points, TrendPoint{X: x, Y: y, XLabel: strings.TrimSpace(raw)})
	}
	return points
}

// TrendSeries returns the first limit matching points. Later rows are not
// represented; use DownsampleTrend for a series spanning the whole view.
func TrendSeries(records []*domain.Record, xField, yField string, limit int) []TrendPoint {
	if limit <= 0 {
		limit = DefaultTrendLimit
	}

	points := make([]TrendPoint, 0, min(limit, len(records)))
	for _, p := range TrendPoints(records, xField, yField) {
		if len(points) == limit {
			break
		}
		points = append(points, p)
	}
	return points
}

// DownsampleTrend picks at most limit points at an even stride, always
// keeping the first and last point.
func DownsampleTrend(points []TrendPoint, limit int) []TrendPoint {
	if limit <= 0 {
		limit = DefaultTrendLimit
	}
	n := len(points)
	if n <= limit {
		out := make([]TrendPoint, n)
		copy(out, points)
		return out
	}
	if limit == 1 {
		return []TrendPoint{points[0]}
	}

	out := make([]TrendPoint, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, points[i*(n-1)/(limit-1)])
	}
	return out
}
