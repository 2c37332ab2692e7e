package series

import (
	"sort"
	"time"

	"DemandBoard/internal/model"
)

type axisKey struct {
	key    string
	t      time.Time
	parsed bool
}

func (a axisKey) before(b axisKey) bool {
	if a.parsed && b.parsed && !a.t.Equal(b.t) {
		return a.t.Before(b.t)
	}
	return a.key < b.key
}

// Align merges actual and forecast onto the union of their date keys,
// sorted chronologically. Positions with no entry in a source series are
// absent, not zero.
func Align(actual, forecast model.Series) model.AlignedFrame {
	seen := make(map[string]struct{}, len(actual)+len(forecast))
	keys := make([]axisKey, 0, len(actual)+len(forecast))
	for _, s := range []model.Series{actual, forecast} {
		for _, p := range s {
			if _, ok := seen[p.Date]; ok {
				continue
			}
			seen[p.Date] = struct{}{}
			t, err := time.Parse(DateLayout, p.Date)
			keys = append(keys, axisKey{key: p.Date, t: t, parsed: err == nil})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })

	actualMap := actual.Lookup()
	forecastMap := forecast.Lookup()
	frame := model.AlignedFrame{
		Axis:     make([]string, len(keys)),
		Actual:   make([]model.Optional, len(keys)),
		Forecast: make([]model.Optional, len(keys)),
	}
	for i, k := range keys {
		frame.Axis[i] = k.key
		if v, ok := actualMap[k.key]; ok {
			frame.Actual[i] = model.Some(v)
		}
		if v, ok := forecastMap[k.key]; ok {
			frame.Forecast[i] = model.Some(v)
		}
	}
	return frame
}
