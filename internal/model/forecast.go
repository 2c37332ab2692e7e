package model

import (
	"errors"
	"fmt"
	"strings"
)

// ModelName identifies a forecasting model supported by the backend.
type ModelName string

const (
	ModelLSTM    ModelName = "lstm"
	ModelARIMA   ModelName = "arima"
	ModelProphet ModelName = "prophet"
)

// SupportedModels lists the fixed set of model names, in display order.
var SupportedModels = []ModelName{ModelLSTM, ModelARIMA, ModelProphet}

var (
	ErrUnknownModel = errors.New("unknown forecast model")
	ErrInvalidDays  = errors.New("forecast horizon must be a positive number of days")
)

// ParseModel resolves a user-supplied model name.
func ParseModel(s string) (ModelName, error) {
	name := ModelName(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range SupportedModels {
		if m == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// ForecastRequest is the body of the forecast endpoint.
type ForecastRequest struct {
	Model ModelName `json:"model"`
	Days  int       `json:"days"`
}

// Validate checks the model against the supported set and the horizon.
func (r ForecastRequest) Validate() error {
	if _, err := ParseModel(string(r.Model)); err != nil {
		return err
	}
	if r.Days <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDays, r.Days)
	}
	return nil
}

// ForecastResponse is the body returned by the forecast endpoint.
// Error is set by the backend instead of a non-200 status on failure.
type ForecastResponse struct {
	Dates    []string   `json:"dates"`
	Forecast []RawValue `json:"forecast"`
	Error    string     `json:"error,omitempty"`
}

// Records pairs dates and forecast values positionally.
func (r *ForecastResponse) Records() []RawRecord {
	out := make([]RawRecord, len(r.Dates))
	for i, d := range r.Dates {
		out[i] = RawRecord{Date: d, Sales: r.Forecast[i]}
	}
	return out
}
