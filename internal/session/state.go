package session

import (
	"encoding/json"
	"fmt"

	"DemandBoard/internal/model"
)

// Entry keys of the session cache.
const (
	KeyActualDates = "actualDates"
	KeyActualSales = "actualSales"
)

// EncodeActual serializes a series into the two cache entries.
func EncodeActual(s model.Series) (dates, sales string, err error) {
	d, err := json.Marshal(s.Dates())
	if err != nil {
		return "", "", fmt.Errorf("encode %s: %w", KeyActualDates, err)
	}
	v, err := json.Marshal(s.Values())
	if err != nil {
		return "", "", fmt.Errorf("encode %s: %w", KeyActualSales, err)
	}
	return string(d), string(v), nil
}

// DecodeActual rebuilds a series from the two cache entries. Missing entries
// decode to an empty series.
func DecodeActual(dates, sales string) (model.Series, error) {
	var ds []string
	var vs []float64
	if dates != "" {
		if err := json.Unmarshal([]byte(dates), &ds); err != nil {
			return nil, fmt.Errorf("decode %s: %w", KeyActualDates, err)
		}
	}
	if sales != "" {
		if err := json.Unmarshal([]byte(sales), &vs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", KeyActualSales, err)
		}
	}
	if len(ds) != len(vs) {
		return nil, fmt.Errorf("session entries differ in length: %d dates, %d sales", len(ds), len(vs))
	}
	s := make(model.Series, len(ds))
	for i := range ds {
		s[i] = model.DatedValue{Date: ds[i], Value: vs[i]}
	}
	return s, nil
}
