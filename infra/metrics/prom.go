package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/queuecast/core/metrics"
)

// PromSink records prediction events in Prometheus metrics.
type PromSink struct {
	waits     *prometheus.CounterVec
	waitMins  *prometheus.HistogramVec
	latency   *prometheus.HistogramVec
	forecasts *prometheus.CounterVec
	peaks     *prometheus.GaugeVec
	fallbacks *prometheus.CounterVec
	failures  *prometheus.CounterVec
	accuracy  *prometheus.GaugeVec
}

// NewPromSink registers prediction metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// that are already registered are reused, so building several sinks on one
// registry is safe.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queuecast_wait_estimates_total",
			Help: "Total number of wait estimates served",
		}, []string{"location", "category", "basis"}),
		waitMins: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "queuecast_wait_expected_minutes",
			Help:    "Distribution of expected wait minutes",
			Buckets: []float64{1, 2, 5, 10, 15, 20, 30, 45, 60, 90},
		}, []string{"category"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "queuecast_prediction_latency_seconds",
			Help:    "Time spent computing a prediction",
			Buckets: prometheus.DefBuckets,
		}, []string{"predictor"}),
		forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queuecast_traffic_forecasts_total",
			Help: "Total number of traffic forecasts served",
		}, []string{"location", "mode"}),
		peaks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queuecast_traffic_peak_windows",
			Help: "Peak windows detected in the latest forecast",
		}, []string{"location"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queuecast_fallbacks_total",
			Help: "Predictions served through a degraded code path",
		}, []string{"predictor", "reason"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queuecast_prediction_errors_total",
			Help: "Rejected or failed prediction requests",
		}, []string{"predictor", "class"}),
		accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queuecast_wait_accuracy",
			Help: "Accuracy of the latest recorded wait outcome",
		}, []string{"location"}),
	}
	var err error
	if s.waits, err = register(reg, s.waits); err != nil {
		return nil, err
	}
	if s.waitMins, err = register(reg, s.waitMins); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.forecasts, err = register(reg, s.forecasts); err != nil {
		return nil, err
	}
	if s.peaks, err = register(reg, s.peaks); err != nil {
		return nil, err
	}
	if s.fallbacks, err = register(reg, s.fallbacks); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, s.failures); err != nil {
		return nil, err
	}
	if s.accuracy, err = register(reg, s.accuracy); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordWaitEstimate counts the estimate and observes its minutes and latency.
func (s *PromSink) RecordWaitEstimate(ev coremetrics.WaitEstimateEvent) error {
	s.waits.WithLabelValues(ev.Location, string(ev.Category), string(ev.Basis)).Inc()
	s.waitMins.WithLabelValues(string(ev.Category)).Observe(ev.ExpectedMinutes)
	s.latency.WithLabelValues("wait_time").Observe(ev.Latency.Seconds())
	return nil
}

// RecordTrafficForecast counts the forecast and sets the peak gauge.
func (s *PromSink) RecordTrafficForecast(ev coremetrics.TrafficForecastEvent) error {
	s.forecasts.WithLabelValues(ev.Location, string(ev.Mode)).Inc()
	s.peaks.WithLabelValues(ev.Location).Set(float64(ev.PeakWindows))
	s.latency.WithLabelValues("traffic").Observe(ev.Latency.Seconds())
	return nil
}

func (s *PromSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	s.fallbacks.WithLabelValues(ev.Predictor, ev.Reason).Inc()
	return nil
}

func (s *PromSink) RecordPredictionError(ev coremetrics.PredictionErrorEvent) error {
	s.failures.WithLabelValues(ev.Predictor, ev.Class).Inc()
	return nil
}

func (s *PromSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	s.accuracy.WithLabelValues(ev.Location).Set(ev.Accuracy)
	return nil
}
