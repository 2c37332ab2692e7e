package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"DemandBoard/internal/model"
)

// ErrLengthMismatch is returned when a forecast response pairs a different
// number of dates and values.
var ErrLengthMismatch = errors.New("forecast dates and values differ in length")

// BackendSource implements Source against the forecasting backend's REST API.
type BackendSource struct {
	BaseURL     string
	SalesPath   string
	PredictPath string
	Client      *http.Client
}

// NewBackendSource creates a new source with optional proxy support.
// A zero timeout leaves requests unbounded.
func NewBackendSource(baseURL, salesPath, predictPath, proxyURL string, timeout time.Duration) *BackendSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BackendSource{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		SalesPath:   salesPath,
		PredictPath: predictPath,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (b *BackendSource) Name() string { return "backend" }

func (b *BackendSource) FetchActual(ctx context.Context) ([]model.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+b.SalesPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch sales: status %d, body: %s", resp.StatusCode, string(body))
	}
	var records []model.RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode sales: %w", err)
	}
	return records, nil
}

func (b *BackendSource) FetchForecast(ctx context.Context, fr model.ForecastRequest) (*model.ForecastResponse, error) {
	payload, err := json.Marshal(fr)
	if err != nil {
		return nil, fmt.Errorf("marshal forecast request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+b.PredictPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read forecast body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch forecast: status %d, body: %s", resp.StatusCode, string(body))
	}
	var result model.ForecastResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	// The backend reports model failures in-band with a 200 status.
	if result.Error != "" {
		return nil, fmt.Errorf("backend forecast error: %s", result.Error)
	}
	if len(result.Dates) != len(result.Forecast) {
		return nil, fmt.Errorf("%w: %d dates, %d values", ErrLengthMismatch, len(result.Dates), len(result.Forecast))
	}
	return &result, nil
}
