package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seasonalSeries(n, period int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 20 + 0.3*float64(i) + 5*math.Sin(2*math.Pi*float64(i)/float64(period))
	}
	return out
}

func TestDecompose_ComponentsSumToOriginal(t *testing.T) {
	for _, period := range []int{1, 4, 7, 24} {
		data := seasonalSeries(3*period+1, period)
		d, err := Decompose(data, period)
		require.NoError(t, err)
		require.Len(t, d.Trend, len(data))
		for i := range data {
			sum := d.Trend[i] + d.Seasonal[i] + d.Residual[i]
			assert.InDelta(t, data[i], sum, 1e-9, "period %d index %d", period, i)
		}
		assert.Equal(t, data, d.Original)
	}
}

func TestDecompose_SeasonalRepeats(t *testing.T) {
	data := seasonalSeries(48, 12)
	d, err := Decompose(data, 12)
	require.NoError(t, err)
	for i := 12; i < len(data); i++ {
		assert.Equal(t, d.Seasonal[i-12], d.Seasonal[i])
	}
}

func TestDecompose_EdgeTruncatedTrend(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	d, err := Decompose(data, 4)
	require.NoError(t, err)
	// half window 2: first point averages data[0:3]
	assert.InDelta(t, 2, d.Trend[0], 1e-12)
	assert.InDelta(t, 3, d.Trend[2], 1e-12)
	assert.InDelta(t, 7, d.Trend[7], 1e-12)
}

func TestDecompose_Errors(t *testing.T) {
	_, err := Decompose([]float64{1, 2, 3}, 2)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = Decompose([]float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestSmooth(t *testing.T) {
	data := []float64{3, 9, 1, 7, 4}

	assert.Equal(t, data, Smooth(data, MovingAverage, 1))
	assert.Equal(t, data, Smooth(data, MovingAverage, 0))
	assert.InDeltaSlice(t, []float64{6, 13.0 / 3, 17.0 / 3, 4, 5.5}, Smooth(data, MovingAverage, 3), 1e-12)
	assert.Equal(t, Smooth(data, MovingAverage, 3), Smooth(data, Method("savgol"), 3))

	exp := Smooth(data, Exponential, 0)
	assert.Equal(t, 3.0, exp[0])
	assert.InDelta(t, 0.3*9+0.7*3, exp[1], 1e-12)

	assert.Empty(t, Smooth(nil, Exponential, 3))
}

func TestSmooth_DoesNotAliasInput(t *testing.T) {
	data := []float64{1, 2, 3}
	out := Smooth(data, MovingAverage, 1)
	out[0] = 99
	assert.Equal(t, 1.0, data[0])
}
