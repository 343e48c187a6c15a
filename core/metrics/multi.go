package metrics

import "errors"

// MultiSink fans out events to multiple sinks. Every sink is tried; the
// returned error joins the individual failures.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordWaitEstimate(ev WaitEstimateEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordWaitEstimate(ev))
	}
	return errors.Join(errs...)
}

// RecordTrafficForecast forwards forecasts to sinks supporting them.
func (m *MultiSink) RecordTrafficForecast(ev TrafficForecastEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TrafficForecastRecorder); ok {
			errs = append(errs, rec.RecordTrafficForecast(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordFallback forwards fallback events.
func (m *MultiSink) RecordFallback(ev FallbackEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(FallbackRecorder); ok {
			errs = append(errs, rec.RecordFallback(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordPredictionError forwards error events.
func (m *MultiSink) RecordPredictionError(ev PredictionErrorEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(PredictionErrorRecorder); ok {
			errs = append(errs, rec.RecordPredictionError(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordOutcome forwards outcome events.
func (m *MultiSink) RecordOutcome(ev OutcomeEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(OutcomeRecorder); ok {
			errs = append(errs, rec.RecordOutcome(ev))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink holding a connection.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
