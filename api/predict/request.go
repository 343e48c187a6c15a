package predict

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/kilianp07/queuecast/core/model"
	"github.com/kilianp07/queuecast/core/prediction"
)

// Defaults applied to service fields missing from a request body.
var defaultService = model.ServiceConfig{
	Category:       model.CategoryFastFood,
	MaxCapacity:    50,
	TableCount:     10,
	OperatingHours: model.OperatingHours{Open: 8, Close: 22},
	PeakHours:      []int{12, 18},
}

const (
	defaultServiceTime = 10.0
	defaultWeather     = "sunny"
	defaultIntervals   = 6
	defaultIntervalMin = 5
	maxForecastSteps   = prediction.MaxIntervals
)

// ServiceFields are the location fields shared by wait and traffic requests.
type ServiceFields struct {
	Category       string   `mapstructure:"category"`
	RestaurantType string   `mapstructure:"restaurantType"`
	MaxCapacity    *int     `mapstructure:"maxCapacity"`
	TableCount     *int     `mapstructure:"tableCount"`
	OperatingHours []int    `mapstructure:"operatingHours"`
	PeakHours      []int    `mapstructure:"peakHours"`
	CurrentTime    string   `mapstructure:"currentTime"`
	Weather        *string  `mapstructure:"weather"`
	IsHoliday      bool     `mapstructure:"isHoliday"`
	LocalEvents    []string `mapstructure:"localEvents"`
	Location       string   `mapstructure:"location"`
}

// HistoryPayload carries aggregate observations supplied with a request.
type HistoryPayload struct {
	RecentPersonCounts  []int     `mapstructure:"recentPersonCounts"`
	AveragePersonCount  float64   `mapstructure:"averagePersonCount"`
	PersonCountVariance float64   `mapstructure:"personCountVariance"`
	RecentTrafficCounts []int     `mapstructure:"recentTrafficCounts"`
	AverageTraffic      float64   `mapstructure:"averageTraffic"`
	HourlyVolumes       []float64 `mapstructure:"hourlyVolumes"`
}

// Wait converts the payload to the wait predictor's ingestion shape.
func (h *HistoryPayload) Wait() model.HistoricalData {
	if h == nil {
		return model.HistoricalData{}
	}
	return model.HistoricalData{
		RecentCounts:  h.RecentPersonCounts,
		AverageCount:  h.AveragePersonCount,
		CountVariance: h.PersonCountVariance,
	}
}

func (h *HistoryPayload) validate() error {
	if h == nil {
		return nil
	}
	if err := finite("averagePersonCount", h.AveragePersonCount); err != nil {
		return err
	}
	if err := finite("personCountVariance", h.PersonCountVariance); err != nil {
		return err
	}
	if err := finite("averageTraffic", h.AverageTraffic); err != nil {
		return err
	}
	return finite("hourlyVolumes", h.HourlyVolumes...)
}

// Traffic converts the payload to the traffic predictor's ingestion shape.
func (h *HistoryPayload) Traffic() model.HistoricalData {
	if h == nil {
		return model.HistoricalData{}
	}
	return model.HistoricalData{
		RecentCounts:  h.RecentTrafficCounts,
		AverageCount:  h.AverageTraffic,
		HourlyVolumes: h.HourlyVolumes,
	}
}

type waitRequest struct {
	ServiceFields      `mapstructure:",squash"`
	QueueLength        int             `mapstructure:"queueLength"`
	AverageServiceTime *float64        `mapstructure:"averageServiceTime"`
	ActiveServers      *int            `mapstructure:"activeServers"`
	CustomerPosition   *int            `mapstructure:"customerPosition"`
	HistoricalData     *HistoryPayload `mapstructure:"historicalData"`
}

type trafficRequest struct {
	ServiceFields       `mapstructure:",squash"`
	CurrentTraffic      int             `mapstructure:"currentTraffic"`
	PredictionIntervals *int            `mapstructure:"predictionIntervals"`
	IntervalMinutes     *int            `mapstructure:"intervalMinutes"`
	HistoricalData      *HistoryPayload `mapstructure:"historicalData"`
}

type outcomeRequest struct {
	Location  string   `mapstructure:"location"`
	Actual    *float64 `mapstructure:"actualWaitTime"`
	Predicted *float64 `mapstructure:"predictedWaitTime"`
}

type analyzeRequest struct {
	Model       string   `mapstructure:"model"`
	ArrivalRate *float64 `mapstructure:"arrivalRate"`
	ServiceRate *float64 `mapstructure:"serviceRate"`
	Servers     *int     `mapstructure:"servers"`
	TargetWait  float64  `mapstructure:"targetWait"`
	QueueLength int      `mapstructure:"queueLength"`
	Position    int      `mapstructure:"position"`
}

type seriesRequest struct {
	Data   []float64 `mapstructure:"data"`
	Period int       `mapstructure:"period"`
	Order  *struct {
		P int `mapstructure:"p"`
		D int `mapstructure:"d"`
		Q int `mapstructure:"q"`
	} `mapstructure:"order"`
	Steps  int     `mapstructure:"steps"`
	Level  float64 `mapstructure:"level"`
	Method string  `mapstructure:"method"`
	Window int     `mapstructure:"window"`
}

// WaitQuery is a decoded wait-time request.
type WaitQuery struct {
	Location string
	Snapshot model.QueueSnapshot
	Position int
	Service  model.ServiceConfig
	Context  model.PredictionContext
	History  model.HistoricalData
}

// TrafficQuery is a decoded traffic request.
type TrafficQuery struct {
	Location        string
	CurrentVolume   int
	Intervals       int
	IntervalMinutes int
	Service         model.ServiceConfig
	Context         model.PredictionContext
	History         model.HistoricalData
	// Observed holds the recent counts drawn in front of the forecast on charts.
	Observed []int
}

// decodeBody reads a JSON object and decodes it with numeric coercion, so
// "3", 3 and 3.0 all land in an int field.
func decodeBody(r io.Reader, out any) error {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: body must be a JSON object", errBadRequest)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (f ServiceFields) service(base model.ServiceConfig) model.ServiceConfig {
	cfg := base
	cfg.PeakHours = append([]int(nil), base.PeakHours...)
	switch {
	case f.Category != "":
		cfg.Category = model.Category(strings.ToLower(f.Category))
	case f.RestaurantType != "":
		cfg.Category = model.Category(strings.ToLower(f.RestaurantType))
	}
	if f.MaxCapacity != nil {
		cfg.MaxCapacity = *f.MaxCapacity
	}
	if f.TableCount != nil {
		cfg.TableCount = *f.TableCount
	}
	if len(f.OperatingHours) == 2 {
		cfg.OperatingHours = model.OperatingHours{Open: f.OperatingHours[0], Close: f.OperatingHours[1]}
	}
	if f.PeakHours != nil {
		cfg.PeakHours = f.PeakHours
	}
	return cfg
}

func (f ServiceFields) context(now func() time.Time) model.PredictionContext {
	weather := defaultWeather
	if f.Weather != nil {
		weather = *f.Weather
	}
	return model.PredictionContext{
		Now:         ParseTimestamp(f.CurrentTime, now),
		Weather:     &model.Weather{Condition: weather},
		IsHoliday:   f.IsHoliday,
		LocalEvents: f.LocalEvents,
	}
}

// serviceConfig merges the request fields over base and checks the result.
func (f ServiceFields) serviceConfig(base model.ServiceConfig) (model.ServiceConfig, error) {
	if f.OperatingHours != nil && len(f.OperatingHours) != 2 {
		return model.ServiceConfig{}, fmt.Errorf("%w: operatingHours needs [open, close]", errBadRequest)
	}
	cfg := f.service(base)
	if err := cfg.Validate(); err != nil {
		return model.ServiceConfig{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return cfg, nil
}

// finite rejects NaN and infinite values, which weak typing lets through from
// strings such as "NaN" or "Inf".
func finite(field string, vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a finite number", errBadRequest, field)
		}
	}
	return nil
}

func (q seriesRequest) validate() error {
	if err := finite("data", q.Data...); err != nil {
		return err
	}
	if err := finite("level", q.Level); err != nil {
		return err
	}
	if q.Steps < 0 || q.Steps > maxForecastSteps {
		return fmt.Errorf("%w: steps must be in [1, %d]", errBadRequest, maxForecastSteps)
	}
	return nil
}

func (q waitRequest) toQuery(base model.ServiceConfig, now func() time.Time) (WaitQuery, error) {
	svc, err := q.serviceConfig(base)
	if err != nil {
		return WaitQuery{}, err
	}
	if err := q.HistoricalData.validate(); err != nil {
		return WaitQuery{}, err
	}
	ctx := q.context(now)
	snap := model.QueueSnapshot{
		QueueLength:    q.QueueLength,
		AvgServiceTime: defaultServiceTime,
		ActiveServers:  1,
		Timestamp:      ctx.Now,
	}
	if q.AverageServiceTime != nil {
		if err := finite("averageServiceTime", *q.AverageServiceTime); err != nil {
			return WaitQuery{}, err
		}
		snap.AvgServiceTime = *q.AverageServiceTime
	}
	if q.ActiveServers != nil {
		snap.ActiveServers = *q.ActiveServers
	}
	pos := q.QueueLength + 1
	if q.CustomerPosition != nil {
		pos = *q.CustomerPosition
	}
	return WaitQuery{
		Location: q.Location,
		Snapshot: snap,
		Position: pos,
		Service:  svc,
		Context:  ctx,
		History:  q.HistoricalData.Wait(),
	}, nil
}

func (q trafficRequest) toQuery(base model.ServiceConfig, now func() time.Time) (TrafficQuery, error) {
	svc, err := q.serviceConfig(base)
	if err != nil {
		return TrafficQuery{}, err
	}
	if err := q.HistoricalData.validate(); err != nil {
		return TrafficQuery{}, err
	}
	out := TrafficQuery{
		Location:        q.Location,
		CurrentVolume:   q.CurrentTraffic,
		Intervals:       defaultIntervals,
		IntervalMinutes: defaultIntervalMin,
		Service:         svc,
		Context:         q.context(now),
		History:         q.HistoricalData.Traffic(),
	}
	if q.PredictionIntervals != nil {
		out.Intervals = *q.PredictionIntervals
	}
	if q.IntervalMinutes != nil {
		out.IntervalMinutes = *q.IntervalMinutes
	}
	if out.Intervals < 1 || out.Intervals > prediction.MaxIntervals {
		return TrafficQuery{}, fmt.Errorf("%w: predictionIntervals must be in [1, %d]", errBadRequest, prediction.MaxIntervals)
	}
	if out.IntervalMinutes < 1 || out.IntervalMinutes > prediction.MaxIntervalMinutes {
		return TrafficQuery{}, fmt.Errorf("%w: intervalMinutes must be in [1, %d]", errBadRequest, prediction.MaxIntervalMinutes)
	}
	if q.HistoricalData != nil {
		out.Observed = q.HistoricalData.RecentTrafficCounts
	}
	return out, nil
}

var fractionRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2})\.(\d+)(.*)$`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an ISO-8601 timestamp. Fractional seconds longer
// than nanosecond precision are truncated. Empty or unparsable input yields
// now().
func ParseTimestamp(s string, now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return now()
	}
	if m := fractionRe.FindStringSubmatch(s); m != nil {
		frac := m[2]
		if len(frac) > 9 {
			frac = frac[:9]
		}
		s = m[1] + "." + frac + m[3]
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return now()
}
