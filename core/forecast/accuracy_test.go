package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasure_PerfectPrediction(t *testing.T) {
	x := []float64{4, 8, 15, 16, 23, 42}
	acc, err := Measure(x, x)
	require.NoError(t, err)
	assert.Equal(t, Accuracy{R2: 1}, acc)
}

func TestMeasure_Values(t *testing.T) {
	acc, err := Measure([]float64{10, 20, 0, 40}, []float64{12, 18, 1, 40})
	require.NoError(t, err)
	assert.InDelta(t, 5.0/4, acc.MAE, 1e-12)
	assert.InDelta(t, 9.0/4, acc.MSE, 1e-12)
	assert.InDelta(t, 1.5, acc.RMSE, 1e-12)
	// zero actual excluded: (0.2 + 0.1 + 0) / 3
	assert.InDelta(t, 10, acc.MAPE, 1e-9)
	assert.InDelta(t, 1-9.0/875, acc.R2, 1e-12)
}

func TestMeasure_Degenerate(t *testing.T) {
	acc, err := Measure([]float64{0, 0}, []float64{1, 0})
	require.NoError(t, err)
	assert.True(t, math.IsInf(acc.MAPE, 1))
	assert.Equal(t, 0.0, acc.R2)

	acc, err = Measure([]float64{5, 5}, []float64{5, 5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc.R2)
}

func TestMeasure_Errors(t *testing.T) {
	_, err := Measure([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = Measure(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}
