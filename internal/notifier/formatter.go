package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"DemandBoard/internal/calculator"
	"DemandBoard/internal/model"
)

// FormatLoadSummary describes a freshly loaded actual series.
func FormatLoadSummary(s model.Series, source string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Sales history loaded</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Source: %s\n", source))
	if s.Len() == 0 {
		b.WriteString("No sales records returned.\n")
		return b.String()
	}
	total := 0.0
	for _, p := range s {
		total += p.Value
	}
	b.WriteString(fmt.Sprintf("Days: %d (%s → %s)\n", s.Len(), s.First(), s.Last()))
	b.WriteString(fmt.Sprintf("Total sales: %s\n", humanize.Commaf(round2(total))))
	if high, low, ok := calculator.SeriesRange(s); ok {
		b.WriteString(fmt.Sprintf("Range: %s – %s\n", humanize.Commaf(round2(low)), humanize.Commaf(round2(high))))
	}
	b.WriteString(fmt.Sprintf("Latest day: %s\n", humanize.Commaf(round2(s[s.Len()-1].Value))))
	return b.String()
}

// FormatForecastSummary describes an aligned actual/forecast frame.
func FormatForecastSummary(req model.ForecastRequest, frame model.AlignedFrame, yMax float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔮 <b>Forecast</b> | model=%s, days=%d\n\n", req.Model, req.Days))
	if frame.Len() == 0 {
		b.WriteString("Nothing to plot: no actual or forecast data.\n")
		return b.String()
	}
	actualN, forecastN := frame.PresentCount()
	b.WriteString(fmt.Sprintf("Axis: %s → %s (%d days)\n", frame.Axis[0], frame.Axis[frame.Len()-1], frame.Len()))
	b.WriteString(fmt.Sprintf("Actual points: %d | Forecast points: %d\n", actualN, forecastN))

	var sum float64
	first, last := "", ""
	for i, v := range frame.Forecast {
		if !v.Present {
			continue
		}
		if first == "" {
			first = frame.Axis[i]
		}
		last = frame.Axis[i]
		sum += v.Value
	}
	if forecastN > 0 {
		b.WriteString(fmt.Sprintf("Forecast window: %s → %s\n", first, last))
		b.WriteString(fmt.Sprintf("Forecast total: %s (avg %s/day)\n",
			humanize.Commaf(round2(sum)), humanize.Commaf(round2(sum/float64(forecastN)))))
	}
	b.WriteString(fmt.Sprintf("Scale max: %s\n", humanize.Commaf(round2(yMax))))
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp(models []model.ModelName, defaultModel model.ModelName, defaultDays int) string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = string(m)
	}
	var b strings.Builder
	b.WriteString("Available commands:\n")
	b.WriteString("• /reload: reload sales history\n")
	b.WriteString(fmt.Sprintf("• /forecast [model] [days]: default %s %d\n", defaultModel, defaultDays))
	b.WriteString(fmt.Sprintf("• /models: %s\n", strings.Join(names, ", ")))
	b.WriteString("• /status: cached history and last chart")
	return b.String()
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
