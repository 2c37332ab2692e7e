package recorder

import "DemandBoard/internal/model"

// LoadEvent records a successful load of the actual series.
type LoadEvent struct {
	Source    string
	Points    int
	FirstDate string
	LastDate  string
}

// ForecastRun records one forecast request and the frame drawn for it.
type ForecastRun struct {
	ID     string // uuid
	Source string
	Model  model.ModelName
	Days   int
	Frame  model.AlignedFrame
	YMax   float64
}

// Recorder persists history for later analysis.
type Recorder interface {
	RecordLoad(evt *LoadEvent) error
	RecordForecast(run *ForecastRun) error
	Close() error
}
