// Package render draws expansion curves.
package render

import (
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/atlekbai/expansion_explorer/internal/filter"
	"github.com/atlekbai/expansion_explorer/internal/results"
)

var ErrNoSeries = errors.New("no series to plot")

const (
	width  = 1024
	height = 640
)

// XAxisLabel names the independent variable for dt.
func XAxisLabel(dt filter.DataType) string {
	if dt == filter.Lab {
		return "Test duration [weeks/days]"
	}
	return "Age [year]"
}

// YAxisLabel names the dependent variable.
func YAxisLabel() string {
	return "Expansion [%]"
}

// LineChart writes a PNG with one line per record, labelled by record id.
// Records without plottable points are left out.
func LineChart(w io.Writer, dt filter.DataType, set *results.SeriesSet) error {
	var (
		series     []chart.Series
		minX, maxX = math.Inf(1), math.Inf(-1)
		minY, maxY = math.Inf(1), math.Inf(-1)
	)
	for _, s := range set.All() {
		if len(s.Points) == 0 {
			continue
		}
		xs, ys := s.XY()
		for i := range xs {
			minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
			minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
		}
		// a one-point line has no extent to draw; repeat the point
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		color := chart.GetDefaultColor(len(series))
		series = append(series, chart.ContinuousSeries{
			Name:    s.ID,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 1.5,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	if len(series) == 0 {
		return ErrNoSeries
	}

	minX, maxX = widen(minX, maxX)
	minY, maxY = widen(minY, maxY)

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  XAxisLabel(dt),
			Range: &chart.ContinuousRange{Min: minX, Max: maxX},
		},
		YAxis: chart.YAxis{
			Name:  YAxisLabel(),
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return errors.Wrap(err, "render chart")
	}
	return nil
}

// widen pads a degenerate range so the axis has a non-zero span.
func widen(lo, hi float64) (float64, float64) {
	if hi > lo {
		return lo, hi
	}
	pad := math.Abs(lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
