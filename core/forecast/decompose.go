package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Decomposition splits a series into trend, seasonal and residual parts.
// Original equals Trend+Seasonal+Residual elementwise.
type Decomposition struct {
	Trend    []float64 `json:"trend"`
	Seasonal []float64 `json:"seasonal"`
	Residual []float64 `json:"residual"`
	Original []float64 `json:"original"`
}

// Decompose performs an additive decomposition with the given period. The
// trend is a centred moving average truncated at both ends of the series.
func Decompose(data []float64, period int) (Decomposition, error) {
	if period <= 0 {
		return Decomposition{}, fmt.Errorf("%w: period %d", ErrInvalidParameters, period)
	}
	if len(data) < 2*period {
		return Decomposition{}, fmt.Errorf("%w: need %d points for period %d, got %d",
			ErrInsufficientData, 2*period, period, len(data))
	}

	trend := centredMean(data, period/2)

	n := len(data)
	detrended := make([]float64, n)
	for i := range data {
		detrended[i] = data[i] - trend[i]
	}

	phaseSum := make([]float64, period)
	phaseCount := make([]float64, period)
	for i, v := range detrended {
		phaseSum[i%period] += v
		phaseCount[i%period]++
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := range detrended {
		k := i % period
		seasonal[i] = phaseSum[k] / phaseCount[k]
		residual[i] = detrended[i] - seasonal[i]
	}

	return Decomposition{
		Trend:    trend,
		Seasonal: seasonal,
		Residual: residual,
		Original: append([]float64(nil), data...),
	}, nil
}

// Method selects a smoothing algorithm.
type Method string

const (
	MovingAverage Method = "moving_average"
	Exponential   Method = "exponential"
)

// ExponentialAlpha is the smoothing factor used by Exponential.
const ExponentialAlpha = 0.3

// Smooth returns a smoothed copy of data. Unknown methods fall back to
// MovingAverage; a moving average with window <= 0 returns a copy.
func Smooth(data []float64, method Method, window int) []float64 {
	if len(data) == 0 {
		return []float64{}
	}
	if method == Exponential {
		out := make([]float64, len(data))
		out[0] = data[0]
		for i := 1; i < len(data); i++ {
			out[i] = ExponentialAlpha*data[i] + (1-ExponentialAlpha)*out[i-1]
		}
		return out
	}
	if window <= 0 {
		return append([]float64(nil), data...)
	}
	return centredMean(data, window/2)
}

// centredMean averages data[i-half : i+half+1], clipped to the series.
func centredMean(data []float64, half int) []float64 {
	out := make([]float64, len(data))
	for i := range data {
		lo := max(0, i-half)
		hi := min(len(data), i+half+1)
		out[i] = stat.Mean(data[lo:hi], nil)
	}
	return out
}
