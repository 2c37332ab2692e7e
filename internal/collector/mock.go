package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"DemandBoard/internal/calculator"
	"DemandBoard/internal/model"
	"DemandBoard/internal/series"
)

// modelWindows mirrors the look-back each backend model uses.
var modelWindows = map[model.ModelName]int{
	model.ModelLSTM:    30,
	model.ModelARIMA:   5,
	model.ModelProphet: 7,
}

// MockSource returns controllable synthetic data for development and testing.
type MockSource struct {
	Base       float64
	Days       int
	End        time.Time // last day of generated history
	ActualData []model.RawRecord
	Err        error
}

// NewMockSource creates a mock with days of history ending yesterday.
func NewMockSource(base float64, days int) *MockSource {
	end := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -1)
	return &MockSource{Base: base, Days: days, End: end}
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchActual(_ context.Context) ([]model.RawRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.ActualData != nil {
		return m.ActualData, nil
	}
	return generateMockSales(m.Base, m.Days, m.End), nil
}

// FetchForecast projects the history forward with a moving average, dating
// points from the day after the last actual day.
func (m *MockSource) FetchForecast(ctx context.Context, req model.ForecastRequest) (*model.ForecastResponse, error) {
	raw, err := m.FetchActual(ctx)
	if err != nil {
		return nil, err
	}
	history, err := series.Sanitize(raw)
	if err != nil {
		return nil, fmt.Errorf("mock history: %w", err)
	}
	window, ok := modelWindows[req.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownModel, req.Model)
	}
	values, err := calculator.ProjectSMA(history.Values(), window, req.Days)
	if err != nil {
		return nil, fmt.Errorf("mock forecast: %w", err)
	}
	last, err := time.Parse(series.DateLayout, latestDate(history))
	if err != nil {
		return nil, fmt.Errorf("mock forecast: %w", err)
	}
	resp := &model.ForecastResponse{
		Dates:    make([]string, len(values)),
		Forecast: make([]model.RawValue, len(values)),
	}
	for i, v := range values {
		resp.Dates[i] = last.AddDate(0, 0, i+1).Format(series.DateLayout)
		resp.Forecast[i] = model.NumberValue(math.Round(v*100) / 100)
	}
	return resp, nil
}

func latestDate(s model.Series) string {
	latest := ""
	for _, p := range s {
		if p.Date > latest {
			latest = p.Date
		}
	}
	return latest
}

// generateMockSales builds a weekly-seasonal series with a mild upward trend.
func generateMockSales(base float64, days int, end time.Time) []model.RawRecord {
	records := make([]model.RawRecord, days)
	for i := 0; i < days; i++ {
		day := end.AddDate(0, 0, -(days - 1 - i))
		v := base * (1 + float64(i)*0.002) * (1 + 0.15*math.Sin(2*math.Pi*float64(i)/7))
		records[i] = model.RawRecord{
			Date:  day.Format(series.DateLayout),
			Sales: model.NumberValue(math.Round(v*100) / 100),
		}
	}
	return records
}
