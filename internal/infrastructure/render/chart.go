package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/HFocko/Dashboard/internal/core/services/dashboard"
	"github.com/HFocko/Dashboard/internal/infrastructure/storage"
)

// Palette is the distribution chart colour cycle
var Palette = []drawing.Color{
	drawing.ColorFromHex("2ecc71"),
	drawing.ColorFromHex("3498db"),
	drawing.ColorFromHex("9b59b6"),
	drawing.ColorFromHex("f1c40f"),
	drawing.ColorFromHex("e74c3c"),
}

// LineColor strokes the trend chart
var LineColor = drawing.ColorFromHex("3498db")

const maxLineTicks = 12

// ChartSink stores rendered chart files
type ChartSink interface {
	Save(ctx context.Context, name string, reader io.Reader) (*storage.FileMetadata, error)
}

// ChartRenderer draws every chart of a snapshot to PNG
type ChartRenderer struct {
	sink   ChartSink
	width  int
	height int
	logger *slog.Logger
}

// NewChartRenderer creates a renderer writing width x height PNGs to sink
func NewChartRenderer(sink ChartSink, width, height int, logger *slog.Logger) *ChartRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 480
	}
	return &ChartRenderer{sink: sink, width: width, height: height, logger: logger}
}

// Render implements dashboard.Renderer
func (r *ChartRenderer) Render(ctx context.Context, snap *dashboard.Snapshot) error {
	_, err := r.RenderFiles(ctx, snap)
	return err
}

// RenderFiles writes one PNG per non-empty chart and returns the stored files.
// A failing chart does not stop the others.
func (r *ChartRenderer) RenderFiles(ctx context.Context, snap *dashboard.Snapshot) ([]*storage.FileMetadata, error) {
	var (
		files []*storage.FileMetadata
		errs  []error
	)

	for _, spec := range snap.Charts {
		if spec.Empty() {
			r.logger.Debug("skipping empty chart",
				slog.String("dataset", snap.DatasetID),
				slog.String("kind", string(spec.Kind)))
			continue
		}

		var buf bytes.Buffer
		if err := r.RenderPNG(spec, &buf); err != nil {
			errs = append(errs, fmt.Errorf("%s chart: %w", spec.Kind, err))
			continue
		}

		meta, err := r.sink.Save(ctx, ChartFileName(snap.DatasetID, spec.Kind), &buf)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s chart: %w", spec.Kind, err))
			continue
		}
		files = append(files, meta)
	}

	return files, errors.Join(errs...)
}

// RenderPNG draws spec as a PNG image to w
func (r *ChartRenderer) RenderPNG(spec dashboard.ChartSpec, w io.Writer) error {
	if spec.Empty() {
		return fmt.Errorf("chart %q has no values", spec.Title)
	}

	switch spec.Kind {
	case dashboard.ChartPie:
		return r.pie(spec).Render(chart.PNG, w)
	case dashboard.ChartBar:
		return r.bar(spec).Render(chart.PNG, w)
	case dashboard.ChartLine:
		return r.line(spec).Render(chart.PNG, w)
	default:
		return fmt.Errorf("unknown chart kind %q", spec.Kind)
	}
}

// ChartFileName names the PNG of one chart kind of a dataset
func ChartFileName(datasetID string, kind dashboard.ChartKind) string {
	return fmt.Sprintf("%s_%s.png", datasetID, kind)
}

func (r *ChartRenderer) pie(spec dashboard.ChartSpec) chart.PieChart {
	values := make([]chart.Value, 0, len(spec.Values))
	for i, v := range spec.Values {
		values = append(values, chart.Value{
			Label: labelAt(spec.Labels, i),
			Value: v,
			Style: chart.Style{FillColor: Palette[i%len(Palette)]},
		})
	}

	return chart.PieChart{
		Title:  spec.Title,
		Width:  r.width,
		Height: r.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Values: values,
	}
}

func (r *ChartRenderer) bar(spec dashboard.ChartSpec) chart.BarChart {
	bars := make([]chart.Value, 0, len(spec.Values))
	maxValue := 0.0
	for i, v := range spec.Values {
		bars = append(bars, chart.Value{
			Label: labelAt(spec.Labels, i),
			Value: v,
			Style: chart.Style{FillColor: Palette[1], StrokeColor: Palette[1]},
		})
		maxValue = math.Max(maxValue, v)
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	barWidth := (r.width - 100) / (2 * len(bars))
	if barWidth < 2 {
		barWidth = 2
	}

	return chart.BarChart{
		Title:  spec.Title,
		Width:  r.width,
		Height: r.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth:   barWidth,
		BarSpacing: barWidth,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
		},
		Bars: bars,
	}
}

// line plots values against their position so x labels keep record order.
// A single point is padded to two; go-chart cannot draw a zero-width range.
func (r *ChartRenderer) line(spec dashboard.ChartSpec) chart.Chart {
	xs := make([]float64, len(spec.Values))
	for i := range xs {
		xs[i] = float64(i)
	}
	ys := append([]float64(nil), spec.Values...)
	if len(xs) == 1 {
		xs = append(xs, 1)
		ys = append(ys, ys[0])
	}

	yMin, yMax := ys[0], ys[0]
	for _, y := range ys {
		yMin = math.Min(yMin, y)
		yMax = math.Max(yMax, y)
	}
	if yMin == yMax {
		yMin, yMax = yMin-1, yMax+1
	}

	step := len(spec.Labels)/maxLineTicks + 1
	ticks := make([]chart.Tick, 0, maxLineTicks+1)
	for i := 0; i < len(spec.Labels); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: spec.Labels[i]})
	}

	return chart.Chart{
		Title:  spec.Title,
		Width:  r.width,
		Height: r.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: xs[len(xs)-1]},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    spec.Title,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: LineColor,
					StrokeWidth: 2,
				},
			},
		},
	}
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}
