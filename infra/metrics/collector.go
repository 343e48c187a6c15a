package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/queuecast/core/events"
	coremetrics "github.com/kilianp07/queuecast/core/metrics"
	"github.com/kilianp07/queuecast/core/model"
	"github.com/kilianp07/queuecast/infra/logger"
	"github.com/kilianp07/queuecast/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// prediction events. It stops when the context is canceled or the bus closes.
// The returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %s metrics: %v", ev.Kind(), err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.WaitPredicted:
		if e.Estimate.Basis == model.BasisDirect {
			if r, ok := sink.(coremetrics.FallbackRecorder); ok {
				_ = r.RecordFallback(coremetrics.FallbackEvent{
					Location:  e.Location,
					Predictor: "wait_time",
					Reason:    "calculator_rejected",
					Time:      e.Estimate.Timestamp,
				})
			}
		}
		return sink.RecordWaitEstimate(coremetrics.WaitEstimateEvent{
			Location:        e.Location,
			Category:        e.Category,
			Basis:           e.Estimate.Basis,
			Position:        e.Estimate.Position,
			QueueLength:     e.Snapshot.QueueLength,
			ExpectedMinutes: e.Estimate.ExpectedMinutes,
			Confidence:      e.Estimate.Confidence,
			Latency:         e.Latency,
			Time:            e.Estimate.Timestamp,
		})
	case events.TrafficForecasted:
		r, ok := sink.(coremetrics.TrafficForecastRecorder)
		if !ok {
			return nil
		}
		total, peak := 0, 0
		for _, v := range e.Forecast.Volumes {
			total += v
			peak = max(peak, v)
		}
		return r.RecordTrafficForecast(coremetrics.TrafficForecastEvent{
			Location:    e.Location,
			Category:    e.Category,
			Mode:        e.Forecast.Mode,
			Slots:       len(e.Forecast.Volumes),
			TotalVolume: total,
			MaxVolume:   peak,
			PeakWindows: len(e.Forecast.PeakWindows),
			Latency:     e.Latency,
			Time:        e.Time,
		})
	case events.OutcomeRecorded:
		if r, ok := sink.(coremetrics.OutcomeRecorder); ok {
			return r.RecordOutcome(coremetrics.OutcomeEvent{
				Location:  e.Location,
				Actual:    e.Actual,
				Predicted: e.Predicted,
				AbsError:  e.Error,
				Accuracy:  e.Accuracy,
				Time:      e.Time,
			})
		}
	case events.PredictionFailed:
		if r, ok := sink.(coremetrics.PredictionErrorRecorder); ok {
			return r.RecordPredictionError(coremetrics.PredictionErrorEvent{
				Location:  e.Location,
				Predictor: e.Predictor,
				Class:     e.Class,
				Error:     e.Err,
				Time:      timeOr(e.Time),
			})
		}
	}
	return nil
}

func timeOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
