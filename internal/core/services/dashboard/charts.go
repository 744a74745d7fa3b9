package dashboard

import (
	"github.com/HFocko/Dashboard/internal/core/domain"
)

// BlankLabel stands in for an empty category value on charts
const BlankLabel = "(blank)"

// buildCharts derives the distribution, trend and year comparison charts
func buildCharts(p domain.Profile, snap *Snapshot) []ChartSpec {
	distribution := ChartSpec{
		Kind:   ChartPie,
		Title:  "Distribution by " + p.Label(p.CategoryField),
		Labels: make([]string, 0, len(snap.Frequency)),
		Values: make([]float64, 0, len(snap.Frequency)),
	}
	for _, e := range snap.Frequency {
		label := e.Value
		if label == "" {
			label = BlankLabel
		}
		distribution.Labels = append(distribution.Labels, label)
		distribution.Values = append(distribution.Values, float64(e.Count))
	}

	trend := ChartSpec{
		Kind:    ChartLine,
		Title:   p.Label(p.TrendY()) + " over " + p.Label(p.YearField),
		Labels:  make([]string, 0, len(snap.Trend)),
		Values:  make([]float64, 0, len(snap.Trend)),
		XValues: make([]float64, 0, len(snap.Trend)),
	}
	for _, pt := range snap.Trend {
		trend.Labels = append(trend.Labels, pt.XLabel)
		trend.Values = append(trend.Values, pt.Y)
		trend.XValues = append(trend.XValues, pt.X)
	}

	comparison := ChartSpec{
		Kind:   ChartBar,
		Title:  "Records per " + p.Label(p.YearField),
		Labels: make([]string, 0, len(snap.YearBuckets)),
		Values: make([]float64, 0, len(snap.YearBuckets)),
	}
	for _, b := range snap.YearBuckets {
		comparison.Labels = append(comparison.Labels, b.Label)
		comparison.Values = append(comparison.Values, float64(b.Count))
	}

	return []ChartSpec{distribution, trend, comparison}
}
