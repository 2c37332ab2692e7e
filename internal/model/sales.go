package model

import (
	"encoding/json"
	"strconv"
)

// RawValue holds an unparsed JSON token for a numeric-like field.
// The backend may send numbers, numeric strings, or null.
type RawValue []byte

// NumberValue builds a RawValue from a float.
func NumberValue(v float64) RawValue {
	return RawValue(strconv.FormatFloat(v, 'g', -1, 64))
}

// StringValue builds a RawValue holding a JSON string.
func StringValue(s string) RawValue {
	b, _ := json.Marshal(s)
	return RawValue(b)
}

func (r *RawValue) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func (r RawValue) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// RawRecord is a single historical sales row as returned by the backend.
type RawRecord struct {
	Date  string   `json:"date"`
	Sales RawValue `json:"sales"`
}

// DatedValue is a sanitized point keyed by canonical calendar day.
type DatedValue struct {
	Date  string  `json:"date"`  // YYYY-MM-DD
	Value float64 `json:"value"` // always >= 0
}

// Series is an ordered sequence of DatedValue with unique date keys.
type Series []DatedValue

// Len returns the number of points.
func (s Series) Len() int { return len(s) }

// Dates returns the date keys in series order.
func (s Series) Dates() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}

// Values returns the values in series order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Lookup maps date key to value.
func (s Series) Lookup() map[string]float64 {
	m := make(map[string]float64, len(s))
	for _, p := range s {
		m[p.Date] = p.Value
	}
	return m
}

// Records converts the series back into raw records.
func (s Series) Records() []RawRecord {
	out := make([]RawRecord, len(s))
	for i, p := range s {
		out[i] = RawRecord{Date: p.Date, Sales: NumberValue(p.Value)}
	}
	return out
}

// First and Last return the boundary date keys, or "" for an empty series.
func (s Series) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0].Date
}

func (s Series) Last() string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1].Date
}
