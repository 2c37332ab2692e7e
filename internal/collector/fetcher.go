package collector

import (
	"context"

	"DemandBoard/internal/model"
)

// Source defines the interface for fetching sales history and forecasts.
type Source interface {
	FetchActual(ctx context.Context) ([]model.RawRecord, error)
	FetchForecast(ctx context.Context, req model.ForecastRequest) (*model.ForecastResponse, error)
	Name() string
}
