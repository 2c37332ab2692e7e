package calculator

import "errors"

// CalculateSMA computes the simple moving average of the given values over the specified period.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// ProjectSMA extends values by horizon steps, each step being the SMA of the
// previous period values (including earlier projected ones).
// A period longer than the history is shortened to the history length.
func ProjectSMA(values []float64, period, horizon int) ([]float64, error) {
	if horizon <= 0 {
		return nil, errors.New("horizon must be positive")
	}
	if len(values) == 0 {
		return nil, errors.New("no history to project from")
	}
	if period > len(values) {
		period = len(values)
	}
	window := append([]float64(nil), values...)
	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		next, err := CalculateSMA(window, period)
		if err != nil {
			return nil, err
		}
		out[i] = next
		window = append(window, next)
	}
	return out, nil
}
