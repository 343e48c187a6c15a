package prediction

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/queuecast/core/model"
	"github.com/kilianp07/queuecast/core/queueing"
)

const (
	waitHistoryCap      = 1000
	waitHistoryTrim     = 500
	waitColdStartLength = 3
	coldStartBuffer     = 1.2
	minutesPerCustomer  = 5
	fallbackServiceTime = 15.0
)

var defaultServiceTimes = map[model.Category]float64{
	model.CategoryFastFood:     8,
	model.CategoryCasualDining: 45,
	model.CategoryFineDining:   90,
}

// DefaultServiceTime returns the per-category service time in minutes used
// while the predictor is cold.
func DefaultServiceTime(c model.Category) float64 {
	if v, ok := defaultServiceTimes[c]; ok {
		return v
	}
	return fallbackServiceTime
}

// Outcome pairs a wait prediction with the wait actually observed.
type Outcome struct {
	Actual    float64   `json:"actual"`
	Predicted float64   `json:"predicted"`
	Error     float64   `json:"error"`
	Accuracy  float64   `json:"accuracy"`
	Synthetic bool      `json:"synthetic,omitempty"`
	At        time.Time `json:"at"`
}

// ModelInfo summarises predictor state.
type ModelInfo struct {
	Name         string             `json:"name"`
	Trained      bool               `json:"trained"`
	HistorySize  int                `json:"history_size"`
	Mode         model.ForecastMode `json:"mode"`
	MeanAccuracy float64            `json:"mean_accuracy"`
}

// WaitOption configures a WaitTimePredictor.
type WaitOption func(*WaitTimePredictor)

// WithCalculator replaces the queueing calculator.
func WithCalculator(c queueing.Calculator) WaitOption {
	return func(p *WaitTimePredictor) { p.calc = c }
}

// WithWaitColdStart sets the number of outcomes needed to leave cold start.
func WithWaitColdStart(n int) WaitOption {
	return func(p *WaitTimePredictor) {
		if n >= 0 {
			p.coldStart = n
		}
	}
}

// WithWaitClock sets the clock used when a context carries no time.
func WithWaitClock(now func() time.Time) WaitOption {
	return func(p *WaitTimePredictor) { p.now = now }
}

// WaitTimePredictor estimates the wait of a queue position.
type WaitTimePredictor struct {
	calc      queueing.Calculator
	history   *History[Outcome]
	coldStart int
	trained   bool
	now       func() time.Time
}

var _ Predictor = (*WaitTimePredictor)(nil)

func NewWaitTimePredictor(opts ...WaitOption) *WaitTimePredictor {
	p := &WaitTimePredictor{
		calc:      queueing.NewCalculator(),
		history:   NewHistory[Outcome](waitHistoryCap, waitHistoryTrim),
		coldStart: waitColdStartLength,
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *WaitTimePredictor) Name() string { return "wait_time" }

func (p *WaitTimePredictor) Mode() model.ForecastMode {
	if p.history.Len() < p.coldStart {
		return model.ModeColdStart
	}
	return model.ModeWarmed
}

func (p *WaitTimePredictor) BaseConfidence() float64 { return baseConfidence(p.trained) }

// Train seeds the outcome history from aggregate counts.
func (p *WaitTimePredictor) Train(h model.HistoricalData, _ model.ServiceConfig) error {
	if len(h.RecentCounts) == 0 && h.AverageCount <= 0 {
		return ErrInsufficientData
	}
	p.AddHistoricalData(h)
	p.trained = true
	return nil
}

// HistorySize returns the number of recorded outcomes.
func (p *WaitTimePredictor) HistorySize() int { return p.history.Len() }

// Predict estimates the wait of position in the queue described by snap.
// A non-positive position means the next entity to join.
func (p *WaitTimePredictor) Predict(snap model.QueueSnapshot, position int, cfg model.ServiceConfig, ctx model.PredictionContext) (model.WaitEstimate, error) {
	if err := snap.Validate(); err != nil {
		return model.WaitEstimate{}, invalid("%v", err)
	}
	if position <= 0 {
		position = snap.QueueLength + 1
	}
	now := ctx.Now
	if now.IsZero() {
		now = p.now()
	}

	estimate, basis := p.baseWait(snap, position)
	estimate *= timeOfDayFactor(now.Hour(), cfg) * weekendFactor(now)

	if p.Mode() == model.ModeColdStart {
		estimate = float64(snap.QueueLength) / float64(snap.ActiveServers) *
			DefaultServiceTime(cfg.Category) * coldStartBuffer
		basis = model.BasisColdStart
	}
	estimate = math.Max(0, estimate)

	conf := p.confidence(snap, now.Hour())
	margin := estimate * (1 - conf) * 0.5

	return model.WaitEstimate{
		Position:        position,
		ExpectedMinutes: estimate,
		Confidence:      conf,
		Range:           model.WaitRange{Lo: math.Max(0, estimate-margin), Hi: estimate + margin},
		Advisory:        advisory(estimate),
		Basis:           basis,
		Timestamp:       now,
	}, nil
}

// baseWait uses the queueing model and falls back to a direct estimate when
// the calculator rejects the input, for instance a position behind the queue.
func (p *WaitTimePredictor) baseWait(snap model.QueueSnapshot, position int) (float64, model.Basis) {
	rate := 60 / snap.AvgServiceTime
	w, err := p.calc.PositionWait(snap.QueueLength, position, rate, snap.ActiveServers)
	if err == nil {
		return w, model.BasisQueueing
	}
	ahead := math.Max(0, float64(position-1))
	return ahead / float64(snap.ActiveServers) * snap.AvgServiceTime, model.BasisDirect
}

func (p *WaitTimePredictor) confidence(snap model.QueueSnapshot, hour int) float64 {
	var data float64
	switch n := p.history.Len(); {
	case n > 50:
		data = 0.2
	case n > 20:
		data = 0.1
	case n > 5:
		data = 0.05
	default:
		data = -0.1
	}

	stability := (queueStability(snap) - 0.6) * 0.2

	timeAdj := -0.05
	if hour >= 9 && hour <= 21 {
		timeAdj = 0.1
	}
	return clamp(0.7+data+stability+timeAdj, 0.1, 0.95)
}

func queueStability(snap model.QueueSnapshot) float64 {
	perServer := float64(snap.QueueLength) / float64(snap.ActiveServers)
	switch {
	case perServer <= 2:
		return 0.9
	case perServer <= 5:
		return 0.7
	case perServer <= 10:
		return 0.5
	default:
		return 0.3
	}
}

func timeOfDayFactor(hour int, cfg model.ServiceConfig) float64 {
	switch {
	case (hour >= 11 && hour <= 13) || (hour >= 18 && hour <= 20) || cfg.IsPeakHour(hour):
		return 1.3
	case (hour >= 14 && hour <= 17) || (hour >= 21 && hour <= 23):
		return 0.8
	case hour <= 6:
		return 0.6
	default:
		return 1
	}
}

func weekendFactor(t time.Time) float64 {
	if d := t.Weekday(); d == time.Saturday || d == time.Sunday {
		return 1.2
	}
	return 1
}

func advisory(minutes float64) string {
	switch {
	case minutes < 5:
		return "You will be served shortly."
	case minutes < 15:
		return fmt.Sprintf("Expected wait is about %d minutes.", int(minutes))
	case minutes < 30:
		return fmt.Sprintf("The queue is busy: expect to wait around %d minutes.", int(minutes))
	default:
		return fmt.Sprintf("Long wait of %d minutes or more: consider coming back later.", int(minutes))
	}
}

// RecordOutcome stores an observed wait against the prediction made for it.
func (p *WaitTimePredictor) RecordOutcome(actual, predicted float64) (Outcome, error) {
	if !nonNegative(actual) || !nonNegative(predicted) {
		return Outcome{}, fmt.Errorf("%w: waits must be non-negative", ErrInvalidInput)
	}
	e := math.Abs(actual - predicted)
	o := Outcome{
		Actual:    actual,
		Predicted: predicted,
		Error:     e,
		Accuracy:  math.Max(0, 1-e/math.Max(actual, 1)),
		At:        p.now(),
	}
	p.history.Append(o)
	return o, nil
}

// AddHistoricalData seeds the history with synthetic outcomes: one per recent
// count, or five derived from the average when no count is available and the
// history is still empty.
func (p *WaitTimePredictor) AddHistoricalData(h model.HistoricalData) {
	at := p.now()
	for _, c := range h.RecentCounts {
		w := float64(c * minutesPerCustomer)
		p.history.Append(Outcome{Actual: w, Predicted: w, Accuracy: 1, Synthetic: true, At: at})
	}
	if p.history.Len() > 0 || h.AverageCount <= 0 {
		return
	}
	w := h.AverageCount * minutesPerCustomer
	for i := 0; i < 5; i++ {
		p.history.Append(Outcome{
			Actual:    w,
			Predicted: w,
			Error:     h.CountVariance,
			Accuracy:  math.Max(0.5, 1-h.CountVariance/100),
			Synthetic: true,
			At:        at,
		})
	}
}

// ModelInfo reports the predictor state.
func (p *WaitTimePredictor) ModelInfo() ModelInfo {
	info := ModelInfo{
		Name:        p.Name(),
		Trained:     p.trained,
		HistorySize: p.history.Len(),
		Mode:        p.Mode(),
	}
	items := p.history.Items()
	if len(items) > 0 {
		var sum float64
		for _, o := range items {
			sum += o.Accuracy
		}
		info.MeanAccuracy = sum / float64(len(items))
	}
	return info
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// nonNegative reports whether v is a finite value of at least zero.
func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
