package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MinFitLength is the shortest series Fit accepts.
const MinFitLength = 10

// maxCondition bounds the condition number of the regression design.
const maxCondition = 1e12

// Order is the (p, d, q) order of the model. Q is recorded but no moving
// average terms are estimated.
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

func (o Order) String() string { return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q) }

// Model describes a fitted autoregressive model.
type Model struct {
	Order        Order     `json:"order"`
	Coefficients []float64 `json:"coefficients"`
	ResidualStd  float64   `json:"residual_std"`
	// Degraded is set when least squares could not be solved and uniform
	// coefficients were used instead.
	Degraded bool `json:"degraded"`
}

// Interval is a symmetric confidence band around one prediction.
type Interval struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Result is the output of Forecast.
type Result struct {
	Predictions []float64  `json:"predictions"`
	Intervals   []Interval `json:"confidence_intervals"`
	Labels      []string   `json:"labels"`
}

type fitted struct {
	Model
	lastObserved float64
	diff         []float64
	residuals    []float64
}

// Forecaster holds the state of the last successful Fit. The zero value is
// ready to use. A Forecaster is not safe for concurrent use.
type Forecaster struct {
	fit *fitted
}

// NewForecaster returns an unfitted Forecaster.
func NewForecaster() *Forecaster { return &Forecaster{} }

// Fitted reports whether Fit has succeeded at least once.
func (f *Forecaster) Fitted() bool { return f.fit != nil }

// Model returns the fitted model description.
func (f *Forecaster) Model() (Model, error) {
	if f.fit == nil {
		return Model{}, ErrNotFitted
	}
	m := f.fit.Model
	m.Coefficients = append([]float64(nil), m.Coefficients...)
	return m, nil
}

// Fit differences data D times and estimates P autoregressive coefficients
// by least squares on the differenced series. A failed Fit leaves any
// previously fitted model in place.
func (f *Forecaster) Fit(data []float64, order Order) (err error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOrder, order)
	}
	if len(data) < MinFitLength {
		return fmt.Errorf("%w: need %d points, got %d", ErrInsufficientData, MinFitLength, len(data))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFit, r)
		}
	}()

	diff := append([]float64(nil), data...)
	for i := 0; i < order.D; i++ {
		if len(diff) <= 1 {
			return fmt.Errorf("%w: differencing order %d exhausts the series", ErrInsufficientData, order.D)
		}
		diff = difference(diff)
	}
	if len(diff) <= order.P {
		return fmt.Errorf("%w: %d differenced points for AR order %d", ErrInsufficientData, len(diff), order.P)
	}

	coeffs, degraded := estimateAR(diff, order.P)
	residuals := make([]float64, 0, len(diff)-order.P)
	for i := order.P; i < len(diff); i++ {
		residuals = append(residuals, diff[i]-arStep(coeffs, diff[:i]))
	}
	_, std := stat.PopMeanStdDev(residuals, nil)
	if math.IsNaN(std) || math.IsInf(std, 0) {
		return fmt.Errorf("%w: non-finite residuals", ErrFit)
	}

	f.fit = &fitted{
		Model: Model{
			Order:        order,
			Coefficients: coeffs,
			ResidualStd:  std,
			Degraded:     degraded,
		},
		lastObserved: data[len(data)-1],
		diff:         diff,
		residuals:    residuals,
	}
	return nil
}

// Forecast extends the series steps points ahead. Predictions are fed back
// as inputs for the following steps and re-integrated when the model was
// differenced. Intervals use z=1.96 for level 0.95 and z=1.645 otherwise.
func (f *Forecaster) Forecast(steps int, level float64) (Result, error) {
	if f.fit == nil {
		return Result{}, ErrNotFitted
	}
	if steps <= 0 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidSteps, steps)
	}
	m := f.fit
	p := m.Order.P

	window := append([]float64(nil), m.diff[len(m.diff)-p:]...)
	preds := make([]float64, steps)
	for i := range preds {
		next := arStep(m.Coefficients, window)
		preds[i] = next
		if p > 0 {
			window = append(window[1:], next)
		}
	}

	if m.Order.D > 0 {
		acc := m.lastObserved
		for i, v := range preds {
			acc += v
			preds[i] = acc
		}
	}

	z := 1.645
	if level == 0.95 {
		z = 1.96
	}
	margin := z * m.ResidualStd

	res := Result{
		Predictions: preds,
		Intervals:   make([]Interval, steps),
		Labels:      make([]string, steps),
	}
	for i, v := range preds {
		res.Intervals[i] = Interval{Lo: v - margin, Hi: v + margin}
		res.Labels[i] = fmt.Sprintf("T+%d", i+1)
	}
	return res, nil
}

// estimateAR regresses each point on its p predecessors. When the design is
// singular, or the solution is not finite, uniform 1/p coefficients are
// returned with degraded set.
func estimateAR(series []float64, p int) ([]float64, bool) {
	if p == 0 {
		return []float64{}, false
	}
	rows := len(series) - p
	x := mat.NewDense(rows, p, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		i := r + p
		for j := 0; j < p; j++ {
			x.Set(r, j, series[i-j-1])
		}
		y.SetVec(r, series[i])
	}

	if c := mat.Cond(x, 2); !(c < maxCondition) {
		return uniform(p), true
	}
	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return uniform(p), true
	}
	coeffs := make([]float64, p)
	for j := range coeffs {
		c := beta.AtVec(j)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return uniform(p), true
		}
		coeffs[j] = c
	}
	return coeffs, false
}

// arStep predicts the value following history; coefficient j weighs the
// value j+1 steps back.
func arStep(coeffs, history []float64) float64 {
	var v float64
	n := len(history)
	for j, c := range coeffs {
		v += c * history[n-j-1]
	}
	return v
}

func uniform(p int) []float64 {
	c := make([]float64, p)
	for i := range c {
		c[i] = 1 / float64(p)
	}
	return c
}

func difference(x []float64) []float64 {
	out := make([]float64, len(x)-1)
	for i := range out {
		out[i] = x[i+1] - x[i]
	}
	return out
}
