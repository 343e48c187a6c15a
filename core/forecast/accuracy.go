package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Accuracy holds forecast error metrics. MAPE is a percentage.
type Accuracy struct {
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
	R2   float64 `json:"r2"`
}

// Measure compares predicted against actual.
//
// Zero actuals are left out of MAPE, which is +Inf when every actual is zero.
// R2 is 1 when both sums of squares vanish and 0 when only the total does.
func Measure(actual, predicted []float64) (Accuracy, error) {
	if len(actual) != len(predicted) {
		return Accuracy{}, ErrLengthMismatch
	}
	if len(actual) == 0 {
		return Accuracy{}, ErrEmptyInput
	}

	n := float64(len(actual))
	mean := stat.Mean(actual, nil)
	var absSum, sqSum, pctSum, ssTot float64
	nonZero := 0
	for i, a := range actual {
		e := a - predicted[i]
		absSum += math.Abs(e)
		sqSum += e * e
		ssTot += (a - mean) * (a - mean)
		if a != 0 {
			pctSum += math.Abs(e / a)
			nonZero++
		}
	}

	acc := Accuracy{
		MAE: absSum / n,
		MSE: sqSum / n,
	}
	acc.RMSE = math.Sqrt(acc.MSE)
	if nonZero > 0 {
		acc.MAPE = pctSum / float64(nonZero) * 100
	} else {
		acc.MAPE = math.Inf(1)
	}
	switch {
	case ssTot != 0:
		acc.R2 = 1 - sqSum/ssTot
	case sqSum == 0:
		acc.R2 = 1
	default:
		acc.R2 = 0
	}
	return acc, nil
}
