package calculator

import "DemandBoard/internal/model"

// HeadroomFactor is applied to the largest plotted value to get the y-axis bound.
const HeadroomFactor = 1.2

// MaxPresent returns the largest present value across the given sequences.
// ok is false when every entry is absent.
func MaxPresent(seqs ...[]model.Optional) (peak float64, ok bool) {
	for _, seq := range seqs {
		for _, v := range seq {
			if !v.Present {
				continue
			}
			if !ok || v.Value > peak {
				peak = v.Value
				ok = true
			}
		}
	}
	return peak, ok
}

// ScaleUpperBound returns HeadroomFactor times the largest present value of
// the frame. It falls back to 1 when nothing positive is plotted so the axis
// never collapses to a zero range.
func ScaleUpperBound(frame model.AlignedFrame) float64 {
	peak, ok := MaxPresent(frame.Actual, frame.Forecast)
	if !ok || peak <= 0 {
		return 1
	}
	return peak * HeadroomFactor
}

// SeriesRange returns the high and low values of a series.
func SeriesRange(s model.Series) (high, low float64, ok bool) {
	for i, p := range s {
		if i == 0 || p.Value > high {
			high = p.Value
		}
		if i == 0 || p.Value < low {
			low = p.Value
		}
	}
	return high, low, len(s) > 0
}
