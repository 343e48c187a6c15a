package metrics

import (
	"time"

	"github.com/kilianp07/queuecast/core/model"
)

// WaitEstimateEvent describes one served wait estimate.
type WaitEstimateEvent struct {
	Location        string
	Category        model.Category
	Basis           model.Basis
	Position        int
	QueueLength     int
	ExpectedMinutes float64
	Confidence      float64
	Latency         time.Duration
	Time            time.Time
}

// MetricsSink records prediction results for observability purposes.
type MetricsSink interface {
	RecordWaitEstimate(ev WaitEstimateEvent) error
}

// TrafficForecastEvent summarises one served traffic forecast.
type TrafficForecastEvent struct {
	Location    string
	Category    model.Category
	Mode        model.ForecastMode
	Slots       int
	TotalVolume int
	MaxVolume   int
	PeakWindows int
	Latency     time.Duration
	Time        time.Time
}

// TrafficForecastRecorder records traffic forecasts.
type TrafficForecastRecorder interface {
	RecordTrafficForecast(ev TrafficForecastEvent) error
}

// FallbackEvent records a degraded code path, e.g. a wait estimate computed
// with the direct formula because the queueing calculator rejected the input.
type FallbackEvent struct {
	Location  string
	Predictor string
	Reason    string
	Time      time.Time
}

// FallbackRecorder records fallback applications.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// PredictionErrorEvent records a rejected or failed request.
type PredictionErrorEvent struct {
	Location  string
	Predictor string
	Class     string
	Error     string
	Time      time.Time
}

// PredictionErrorRecorder records prediction errors.
type PredictionErrorRecorder interface {
	RecordPredictionError(ev PredictionErrorEvent) error
}

// OutcomeEvent compares an observed wait with its prediction.
type OutcomeEvent struct {
	Location  string
	Actual    float64
	Predicted float64
	AbsError  float64
	Accuracy  float64
	Time      time.Time
}

// OutcomeRecorder records prediction outcomes.
type OutcomeRecorder interface {
	RecordOutcome(ev OutcomeEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordWaitEstimate(WaitEstimateEvent) error       { return nil }
func (NopSink) RecordTrafficForecast(TrafficForecastEvent) error { return nil }
func (NopSink) RecordFallback(FallbackEvent) error               { return nil }
func (NopSink) RecordPredictionError(PredictionErrorEvent) error { return nil }
func (NopSink) RecordOutcome(OutcomeEvent) error                 { return nil }
