package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/queuecast/core/metrics"
	"github.com/kilianp07/queuecast/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket predictions are written to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes prediction events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordWaitEstimate writes a wait_estimate point.
func (s *InfluxSink) RecordWaitEstimate(ev coremetrics.WaitEstimateEvent) error {
	p := write.NewPointWithMeasurement("wait_estimate").
		AddTag("location", ev.Location).
		AddTag("category", string(ev.Category)).
		AddTag("basis", string(ev.Basis)).
		AddField("position", ev.Position).
		AddField("queue_length", ev.QueueLength).
		AddField("expected_minutes", round3(ev.ExpectedMinutes)).
		AddField("confidence", round3(ev.Confidence)).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordTrafficForecast writes a traffic_forecast point.
func (s *InfluxSink) RecordTrafficForecast(ev coremetrics.TrafficForecastEvent) error {
	p := write.NewPointWithMeasurement("traffic_forecast").
		AddTag("location", ev.Location).
		AddTag("category", string(ev.Category)).
		AddTag("mode", string(ev.Mode)).
		AddField("slots", ev.Slots).
		AddField("total_volume", ev.TotalVolume).
		AddField("max_volume", ev.MaxVolume).
		AddField("peak_windows", ev.PeakWindows).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordFallback writes a fallback_applied point.
func (s *InfluxSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	p := write.NewPointWithMeasurement("fallback_applied").
		AddTag("predictor", ev.Predictor).
		AddTag("reason", ev.Reason)
	if ev.Location != "" {
		p = p.AddTag("location", ev.Location)
	}
	p = p.AddField("count", 1).SetTime(ev.Time)
	return s.write(p)
}

// RecordPredictionError writes a prediction_error point.
func (s *InfluxSink) RecordPredictionError(ev coremetrics.PredictionErrorEvent) error {
	p := write.NewPointWithMeasurement("prediction_error").
		AddTag("predictor", ev.Predictor).
		AddTag("class", ev.Class).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordOutcome writes a wait_outcome point.
func (s *InfluxSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	p := write.NewPointWithMeasurement("wait_outcome").
		AddTag("location", ev.Location).
		AddTag("accurate", strconv.FormatBool(ev.Accuracy >= 0.8)).
		AddField("actual", round3(ev.Actual)).
		AddField("predicted", round3(ev.Predicted)).
		AddField("abs_error", round3(ev.AbsError)).
		AddField("accuracy", round3(ev.Accuracy)).
		SetTime(ev.Time)
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
