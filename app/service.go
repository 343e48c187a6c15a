package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/queuecast/api/predict"
	"github.com/kilianp07/queuecast/config"
	"github.com/kilianp07/queuecast/core/events"
	coremetrics "github.com/kilianp07/queuecast/core/metrics"
	"github.com/kilianp07/queuecast/core/model"
	coremon "github.com/kilianp07/queuecast/core/monitoring"
	"github.com/kilianp07/queuecast/core/prediction"
	"github.com/kilianp07/queuecast/core/predictionlog"
	"github.com/kilianp07/queuecast/core/queueing"
	"github.com/kilianp07/queuecast/infra/logger"
	inframetrics "github.com/kilianp07/queuecast/infra/metrics"
	inframon "github.com/kilianp07/queuecast/infra/monitoring"
	"github.com/kilianp07/queuecast/infra/mqtt"
	"github.com/kilianp07/queuecast/internal/eventbus"
)

// Service owns one predictor of each kind and serves them over HTTP. Every
// served prediction is appended to the prediction log and published on the
// event bus, from which metrics and MQTT consume.
type Service struct {
	cfg  *config.Config
	calc queueing.Calculator

	mu      sync.Mutex
	wait    *prediction.WaitTimePredictor
	traffic *prediction.TrafficPredictor

	store predictionlog.LogStore
	sink  coremetrics.MetricsSink
	bus   *eventbus.TypedBus[events.Event]
	pub   mqtt.Publisher
	mon   coremon.Reporter
	log   logger.Logger
	now   func() time.Time

	started   time.Time
	server    *http.Server
	closeOnce sync.Once
}

// Option customizes a Service, mostly to replace infrastructure in tests.
type Option func(*Service)

// WithStore replaces the configured prediction log.
func WithStore(s predictionlog.LogStore) Option { return func(svc *Service) { svc.store = s } }

// WithSink replaces the configured metrics sinks.
func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// WithPublisher replaces the MQTT publisher.
func WithPublisher(p mqtt.Publisher) Option { return func(svc *Service) { svc.pub = p } }

// WithReporter replaces the configured error reporter.
func WithReporter(r coremon.Reporter) Option { return func(svc *Service) { svc.mon = r } }

// WithLogger replaces the service logger.
func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// WithClock sets the clock used by the service and its predictors.
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{
		cfg:  cfg,
		calc: queueing.NewCalculatorWithThreshold(cfg.Prediction.StabilityThreshold),
		bus:  eventbus.NewTyped[events.Event](),
		now:  time.Now,
	}
	for _, o := range opts {
		o(svc)
	}
	if svc.log == nil {
		svc.log = logger.New("service")
	}
	svc.started = svc.now()

	pc := cfg.Prediction
	svc.wait = prediction.NewWaitTimePredictor(
		prediction.WithCalculator(svc.calc),
		prediction.WithWaitColdStart(pc.WaitColdStart),
		prediction.WithWaitClock(svc.now),
	)
	topts := []prediction.TrafficOption{
		prediction.WithJitter(!pc.DisableJitter),
		prediction.WithAutoregression(pc.Autoregression),
		prediction.WithTrafficColdStart(pc.TrafficColdStart),
		prediction.WithTrafficClock(svc.now),
	}
	if pc.Seed != 0 {
		topts = append(topts, prediction.WithRandSource(rand.NewPCG(pc.Seed, pc.Seed>>1|1)))
	}
	svc.traffic = prediction.NewTrafficPredictor(topts...)

	if svc.mon == nil {
		mon, err := inframon.NewSentryReporter(cfg.Sentry)
		if err != nil {
			return nil, err
		}
		svc.mon = mon
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.store == nil {
		store, err := predictionlog.Open(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("prediction log: %w", err)
		}
		svc.store = store
	}
	if svc.pub == nil && cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT, svc.observe)
		if err != nil {
			_ = svc.store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
	}
	return svc, nil
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config { return s.cfg }

// Replay feeds the prediction log of the last ReplayHours into both
// predictors. It is a no-op when replay is disabled.
func (s *Service) Replay(ctx context.Context) (predictionlog.ReplayStats, error) {
	hours := s.cfg.Logging.ReplayHours
	if hours <= 0 {
		return predictionlog.ReplayStats{}, nil
	}
	since := s.now().Add(-time.Duration(hours) * time.Hour)
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := predictionlog.Replay(ctx, s.store, since, s.wait, s.traffic)
	if err != nil {
		return st, err
	}
	s.log.Infow("prediction log replayed", map[string]any{
		"records":  st.Records,
		"waits":    st.Waits,
		"traffic":  st.Traffic,
		"outcomes": st.Outcomes,
	})
	return st, nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	return coremon.Recover(s.mon, predict.NewRouter(s, predict.RouterConfig{
		Token:      s.cfg.Server.AuthToken,
		Service:    s.cfg.Prediction.Service,
		Calculator: s.calc,
		Metrics:    promhttp.Handler(),
		Logger:     logger.New("api"),
		Now:        s.now,
	}))
}

// Start launches the background consumers of the event bus. The returned
// channel is closed once they have all exited.
func (s *Service) Start(ctx context.Context) <-chan struct{} {
	var wg sync.WaitGroup
	collected := inframetrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-collected
	}()
	if s.pub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mqtt.Forward(ctx, s.bus, s.pub, logger.New("mqtt"))
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// Run replays history, starts the consumers and serves HTTP until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	if _, err := s.Replay(ctx); err != nil {
		s.log.Warnf("replay: %v", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	consumers := s.Start(ctx)

	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Address,
		Handler:      s.Handler(),
		ReadTimeout:  sc.ReadTimeout(),
		WriteTimeout: sc.WriteTimeout(),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", sc.Address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if serr := s.server.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	cancel()
	<-consumers
	return err
}

// Close releases the publisher, the prediction log and the metrics sinks,
// then flushes pending error reports.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.bus.Close()
		if s.pub != nil {
			s.pub.Disconnect()
		}
		if c, ok := s.sink.(interface{ Close() }); ok {
			c.Close()
		}
		err = s.store.Close()
		s.mon.Flush(2 * time.Second)
	})
	return err
}

func (s *Service) location(l string) string {
	if l != "" {
		return l
	}
	return s.cfg.Prediction.Location
}

// PredictWait serves a wait-time request.
func (s *Service) PredictWait(ctx context.Context, q predict.WaitQuery) (model.WaitEstimate, error) {
	loc := s.location(q.Location)
	start := time.Now()
	s.mu.Lock()
	if !q.History.Empty() {
		s.wait.AddHistoricalData(q.History)
	}
	est, err := s.wait.Predict(q.Snapshot, q.Position, q.Service, q.Context)
	s.mu.Unlock()
	if err != nil {
		s.fail(loc, s.wait.Name(), err)
		return est, err
	}
	ev := events.WaitPredicted{
		ID:       uuid.NewString(),
		Location: loc,
		Category: q.Service.Category,
		Snapshot: q.Snapshot,
		Estimate: est,
		Latency:  time.Since(start),
	}
	s.append(ctx, predictionlog.LogRecord{
		ID:        ev.ID,
		Timestamp: est.Timestamp,
		Kind:      predictionlog.KindWait,
		Location:  loc,
		Category:  q.Service.Category,
		Wait:      &predictionlog.WaitEntry{Snapshot: q.Snapshot, Estimate: est},
	})
	s.bus.Publish(ev)
	return est, nil
}

// PredictTraffic serves a traffic request.
func (s *Service) PredictTraffic(ctx context.Context, q predict.TrafficQuery) (model.TrafficForecast, error) {
	loc := s.location(q.Location)
	start := time.Now()
	s.mu.Lock()
	if !q.History.Empty() {
		s.traffic.AddHistoricalData(q.History)
	}
	fc, err := s.traffic.Predict(q.CurrentVolume, q.Intervals, q.IntervalMinutes, q.Service, q.Context)
	s.mu.Unlock()
	if err != nil {
		s.fail(loc, s.traffic.Name(), err)
		return fc, err
	}
	at := q.Context.Now
	if at.IsZero() {
		at = s.now()
	}
	ev := events.TrafficForecasted{
		ID:            uuid.NewString(),
		Location:      loc,
		Category:      q.Service.Category,
		CurrentVolume: q.CurrentVolume,
		Forecast:      fc,
		Latency:       time.Since(start),
		Time:          at,
	}
	s.append(ctx, predictionlog.LogRecord{
		ID:        ev.ID,
		Timestamp: at,
		Kind:      predictionlog.KindTraffic,
		Location:  loc,
		Category:  q.Service.Category,
		Traffic:   &predictionlog.TrafficEntry{CurrentVolume: q.CurrentVolume, Forecast: fc},
	})
	s.bus.Publish(ev)
	return fc, nil
}

// RecordOutcome scores a served wait against the observed one.
func (s *Service) RecordOutcome(ctx context.Context, location string, actual, predicted float64) (prediction.Outcome, error) {
	loc := s.location(location)
	s.mu.Lock()
	out, err := s.wait.RecordOutcome(actual, predicted)
	s.mu.Unlock()
	if err != nil {
		return out, err
	}
	s.append(ctx, predictionlog.LogRecord{
		ID:        uuid.NewString(),
		Timestamp: out.At,
		Kind:      predictionlog.KindOutcome,
		Location:  loc,
		Outcome: &predictionlog.OutcomeEntry{
			Actual:    out.Actual,
			Predicted: out.Predicted,
			Error:     out.Error,
			Accuracy:  out.Accuracy,
		},
	})
	s.bus.Publish(events.OutcomeRecorded{
		Location:  loc,
		Actual:    out.Actual,
		Predicted: out.Predicted,
		Error:     out.Error,
		Accuracy:  out.Accuracy,
		Time:      out.At,
	})
	return out, nil
}

// observe handles observed waits received over MQTT.
func (s *Service) observe(o mqtt.Observation) {
	if _, err := s.RecordOutcome(context.Background(), o.Location, o.Actual, o.Predicted); err != nil {
		s.log.Warnf("observation for %s rejected: %v", o.Location, err)
	}
}

// Status reports the predictor state.
func (s *Service) Status() predict.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return predict.Status{
		Location: s.cfg.Prediction.Location,
		Started:  s.started,
		Wait:     s.wait.ModelInfo(),
		Traffic: predict.TrafficStatus{
			Mode:        s.traffic.Mode(),
			HistorySize: s.traffic.HistorySize(),
		},
		LogStore: s.cfg.Logging.Backend,
	}
}

func (s *Service) append(ctx context.Context, rec predictionlog.LogRecord) {
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Errorf("append %s record: %v", rec.Kind, err)
		s.mon.CaptureError(err, map[string]string{"location": rec.Location, "kind": string(rec.Kind)})
	}
}

func (s *Service) fail(loc, predictor string, err error) {
	class := errorClass(err)
	if class == "internal" {
		s.mon.CaptureError(err, map[string]string{"location": loc, "predictor": predictor})
	}
	s.bus.Publish(events.PredictionFailed{
		Location:  loc,
		Predictor: predictor,
		Class:     class,
		Err:       err.Error(),
		Time:      s.now(),
	})
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, queueing.ErrUnstableSystem):
		return "unstable"
	case errors.Is(err, prediction.ErrInvalidInput),
		errors.Is(err, prediction.ErrInsufficientData),
		errors.Is(err, queueing.ErrInvalidParameters),
		errors.Is(err, queueing.ErrInvalidPosition):
		return "invalid"
	default:
		return "internal"
	}
}
