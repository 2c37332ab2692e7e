package presenter

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"DemandBoard/internal/model"
)

const (
	actualLabel   = "Actual Sales"
	forecastLabel = "Forecasted Sales"
	maxTicks      = 20
)

var chartPNG = chart.PNG

var (
	actualStyle = chart.Style{
		StrokeColor: drawing.Color{R: 0, G: 0, B: 255, A: 255},
		FillColor:   drawing.Color{R: 0, G: 0, B: 255, A: 51},
		StrokeWidth: 2,
		DotColor:    drawing.Color{R: 0, G: 0, B: 255, A: 255},
		DotWidth:    2,
	}
	forecastStyle = chart.Style{
		StrokeColor:     drawing.Color{R: 255, G: 0, B: 0, A: 255},
		FillColor:       drawing.Color{R: 255, G: 0, B: 0, A: 51},
		StrokeWidth:     2,
		StrokeDashArray: []float64{8, 4},
		DotColor:        drawing.Color{R: 255, G: 0, B: 0, A: 255},
		DotWidth:        2,
	}
)

// segment is a run of consecutive present values.
type segment struct {
	xs []float64
	ys []float64
}

// segments splits a sequence at absent entries so gaps are not bridged.
func segments(vals []model.Optional) []segment {
	var out []segment
	var cur *segment
	for i, v := range vals {
		if !v.Present {
			cur = nil
			continue
		}
		if cur == nil {
			out = append(out, segment{})
			cur = &out[len(out)-1]
		}
		cur.xs = append(cur.xs, float64(i))
		cur.ys = append(cur.ys, v.Value)
	}
	return out
}

// axisTicks labels at most min(20, n/2) axis positions, evenly spaced. go-chart
// takes the x range from the tick span, so the ticks always reach from 0 to
// n-1; a single date gets unlabeled ticks half a step either side.
func axisTicks(axis []string) []chart.Tick {
	n := len(axis)
	switch n {
	case 0:
		return nil
	case 1:
		return []chart.Tick{{Value: -0.5}, {Value: 0, Label: axis[0]}, {Value: 0.5}}
	}
	limit := min(n/2, maxTicks)
	if limit < 2 {
		return []chart.Tick{{Value: 0, Label: axis[0]}, {Value: float64(n - 1)}}
	}
	ticks := make([]chart.Tick, 0, limit)
	prev := -1
	for i := 0; i < limit; i++ {
		idx := i * (n - 1) / (limit - 1)
		if idx == prev {
			continue
		}
		ticks = append(ticks, chart.Tick{Value: float64(idx), Label: axis[idx]})
		prev = idx
	}
	return ticks
}

func formatSales(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return humanize.Commaf(math.Round(f*100) / 100)
}

func buildChart(opts Options, frame model.AlignedFrame, yMax float64) *chart.Chart {
	var all, legend []chart.Series
	add := func(name string, style chart.Style, vals []model.Optional) {
		for i, seg := range segments(vals) {
			s := chart.ContinuousSeries{Name: name, Style: style, XValues: seg.xs, YValues: seg.ys}
			all = append(all, s)
			if i == 0 {
				legend = append(legend, s)
			}
		}
	}
	add(actualLabel, actualStyle, frame.Actual)
	add(forecastLabel, forecastStyle, frame.Forecast)

	xRange := &chart.ContinuousRange{Min: 0, Max: float64(frame.Len() - 1)}
	if frame.Len() == 1 {
		xRange = &chart.ContinuousRange{Min: -0.5, Max: 0.5}
	}

	ch := &chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:      "Date",
			Range:     xRange,
			Ticks:     axisTicks(frame.Axis),
			TickStyle: chart.Style{TextRotationDegrees: 45},
		},
		YAxis: chart.YAxis{
			Name:           "Sales",
			Range:          &chart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: formatSales,
		},
		Series: all,
	}
	// Legend reads series from its own chart so split segments appear once.
	legendChart := &chart.Chart{Series: legend}
	ch.Elements = []chart.Renderable{chart.Legend(legendChart)}
	return ch
}
