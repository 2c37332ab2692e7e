package collector

import (
	"context"
	"fmt"
	"log"

	"DemandBoard/internal/model"
	"DemandBoard/internal/series"
)

// Collector orchestrates fetching and sanitizing.
type Collector struct {
	Source Source
}

// NewCollector creates a new Collector.
func NewCollector(src Source) *Collector {
	return &Collector{Source: src}
}

// CollectActual fetches sales history and sanitizes it into a Series.
func (c *Collector) CollectActual(ctx context.Context) (model.Series, error) {
	raw, err := c.Source.FetchActual(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch actual sales: %w", err)
	}
	s, err := series.Sanitize(raw)
	if err != nil {
		return nil, fmt.Errorf("sanitize actual sales: %w", err)
	}
	log.Printf("[INFO] collected %d actual points from %s (%s..%s)", s.Len(), c.Source.Name(), s.First(), s.Last())
	return s, nil
}

// CollectForecast validates the request, fetches the forecast, and sanitizes it.
func (c *Collector) CollectForecast(ctx context.Context, req model.ForecastRequest) (model.Series, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := c.Source.FetchForecast(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	if len(resp.Dates) != len(resp.Forecast) {
		return nil, fmt.Errorf("%w: %d dates, %d values", ErrLengthMismatch, len(resp.Dates), len(resp.Forecast))
	}
	s, err := series.Sanitize(resp.Records())
	if err != nil {
		return nil, fmt.Errorf("sanitize forecast: %w", err)
	}
	log.Printf("[INFO] collected %d forecast points (model=%s, days=%d)", s.Len(), req.Model, req.Days)
	return s, nil
}
