package model

import "encoding/json"

// Optional is a value that may be absent. Absent is not the same as zero.
type Optional struct {
	Value   float64
	Present bool
}

// Some returns a present Optional.
func Some(v float64) Optional { return Optional{Value: v, Present: true} }

func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// AlignedFrame holds three parallel sequences on a common date axis.
type AlignedFrame struct {
	Axis     []string   `json:"axis"`
	Actual   []Optional `json:"actual"`
	Forecast []Optional `json:"forecast"`
}

// Len returns the axis length.
func (f AlignedFrame) Len() int { return len(f.Axis) }

// PresentCount returns how many actual and forecast positions hold a value.
func (f AlignedFrame) PresentCount() (actual, forecast int) {
	for _, v := range f.Actual {
		if v.Present {
			actual++
		}
	}
	for _, v := range f.Forecast {
		if v.Present {
			forecast++
		}
	}
	return actual, forecast
}
