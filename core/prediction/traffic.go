package prediction

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/queuecast/core/forecast"
	"github.com/kilianp07/queuecast/core/model"
)

const (
	trafficHistoryCap      = 100
	trafficHistoryTrim     = 50
	trafficColdStartLength = 5
	hourlyVolumeCap        = 24 * 28
	minAutoregressivePts   = forecast.MinFitLength
	bandFraction           = 0.2
)

// Upper bounds of a traffic request: a day of five-minute slots, each at most
// a day long.
const (
	MaxIntervals       = 24 * 12
	MaxIntervalMinutes = 24 * 60
)

var autoregressiveOrder = forecast.Order{P: 2, D: 1}

// ForecastRecord is kept for every forecast produced or ingested.
type ForecastRecord struct {
	At        time.Time
	Volumes   []int
	Holiday   bool
	Synthetic bool
}

// TrafficOption configures a TrafficPredictor.
type TrafficOption func(*TrafficPredictor)

// WithJitter toggles every random step. Disabled output is deterministic.
func WithJitter(enabled bool) TrafficOption {
	return func(p *TrafficPredictor) { p.jitter = enabled }
}

// WithRandSource sets the source used for jitter.
func WithRandSource(src rand.Source) TrafficOption {
	return func(p *TrafficPredictor) { p.src = src }
}

// WithAutoregression blends warmed forecasts with an autoregressive model fit
// on ingested hourly volumes.
func WithAutoregression(enabled bool) TrafficOption {
	return func(p *TrafficPredictor) { p.autoregressive = enabled }
}

// WithTrafficColdStart sets the number of records needed to leave cold start.
func WithTrafficColdStart(n int) TrafficOption {
	return func(p *TrafficPredictor) {
		if n >= 0 {
			p.coldStart = n
		}
	}
}

// WithTrafficClock sets the clock used when a context carries no time.
func WithTrafficClock(now func() time.Time) TrafficOption {
	return func(p *TrafficPredictor) { p.now = now }
}

// TrafficPredictor forecasts arrival volume over fixed-size intervals.
type TrafficPredictor struct {
	history        *History[ForecastRecord]
	hourly         []float64
	coldStart      int
	jitter         bool
	autoregressive bool
	src            rand.Source
	trained        bool
	now            func() time.Time
}

var _ Predictor = (*TrafficPredictor)(nil)

func NewTrafficPredictor(opts ...TrafficOption) *TrafficPredictor {
	p := &TrafficPredictor{
		history:   NewHistory[ForecastRecord](trafficHistoryCap, trafficHistoryTrim),
		coldStart: trafficColdStartLength,
		jitter:    true,
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.src == nil {
		seed := uint64(p.now().UnixNano())
		p.src = rand.NewPCG(seed, seed>>1|1)
	}
	return p
}

func (p *TrafficPredictor) Name() string { return "traffic" }

func (p *TrafficPredictor) Mode() model.ForecastMode {
	if p.history.Len() < p.coldStart {
		return model.ModeColdStart
	}
	return model.ModeWarmed
}

func (p *TrafficPredictor) BaseConfidence() float64 { return baseConfidence(p.trained) }

// HistorySize returns the number of recorded forecasts.
func (p *TrafficPredictor) HistorySize() int { return p.history.Len() }

// Train ingests aggregate history.
func (p *TrafficPredictor) Train(h model.HistoricalData, _ model.ServiceConfig) error {
	if h.Empty() {
		return ErrInsufficientData
	}
	p.AddHistoricalData(h)
	p.trained = true
	return nil
}

// AddHistoricalData records one synthetic forecast per recent count, or five
// from the average when no count is given. Hourly volumes are retained for
// the autoregressive blend.
func (p *TrafficPredictor) AddHistoricalData(h model.HistoricalData) {
	at := p.now()
	for _, c := range h.RecentCounts {
		p.history.Append(ForecastRecord{At: at, Volumes: []int{c}, Synthetic: true})
	}
	if len(h.RecentCounts) == 0 && h.AverageCount > 0 {
		v := int(h.AverageCount)
		for i := 0; i < 5; i++ {
			p.history.Append(ForecastRecord{At: at, Volumes: []int{v}, Synthetic: true})
		}
	}
	if len(h.HourlyVolumes) > 0 {
		p.hourly = append(p.hourly, h.HourlyVolumes...)
		if n := len(p.hourly); n > hourlyVolumeCap {
			p.hourly = append([]float64(nil), p.hourly[n-hourlyVolumeCap:]...)
		}
	}
}

// Predict forecasts volume for intervals slots of intervalMinutes each,
// starting at the next five-minute mark after the context time.
func (p *TrafficPredictor) Predict(currentVolume, intervals, intervalMinutes int, cfg model.ServiceConfig, ctx model.PredictionContext) (model.TrafficForecast, error) {
	switch {
	case currentVolume < 0:
		return model.TrafficForecast{}, invalid("current volume %d is negative", currentVolume)
	case intervals <= 0 || intervals > MaxIntervals:
		return model.TrafficForecast{}, invalid("interval count must be in [1, %d], got %d", MaxIntervals, intervals)
	case intervalMinutes <= 0 || intervalMinutes > MaxIntervalMinutes:
		return model.TrafficForecast{}, invalid("interval length must be in [1, %d] minutes, got %d", MaxIntervalMinutes, intervalMinutes)
	}
	now := ctx.Now
	if now.IsZero() {
		now = p.now()
		ctx.Now = now
	}

	labels := TimeLabels(now, intervals, intervalMinutes)
	hours := max(1, intervals*intervalMinutes/60)
	mode := p.Mode()

	curve := p.hourlyCurve(cfg.Category, now, currentVolume, hours)
	var volumes []int
	if mode == model.ModeColdStart {
		volumes = p.expand(curve, intervals, p.jitter)
	} else {
		if p.autoregressive {
			curve = p.blendAutoregressive(curve)
		}
		volumes = p.expand(curve, intervals, false)
	}

	volumes = ApplyContextFactors(volumes, ctx)
	fc := model.TrafficForecast{
		TimeLabels:   labels,
		Volumes:      volumes,
		Intervals:    VolumeIntervals(volumes),
		PeakWindows:  DetectPeaks(volumes, labels),
		HorizonHours: float64(intervals*intervalMinutes) / 60,
		Mode:         mode,
	}

	p.history.Append(ForecastRecord{
		At:      now,
		Volumes: append([]int(nil), volumes...),
		Holiday: ctx.IsHoliday,
	})
	return fc, nil
}

// hourlyCurve builds the per-hour base curve from the category pattern
// starting at the hour of now.
func (p *TrafficPredictor) hourlyCurve(c model.Category, now time.Time, current, hours int) []int {
	pattern := PatternFor(c)
	out := make([]int, hours)
	for i := range out {
		at := now.Add(time.Duration(i) * time.Hour)
		h := at.Hour()
		v := pattern.Hourly[h]
		if d := at.Weekday(); d == time.Saturday || d == time.Sunday {
			v = int(float64(v) * pattern.WeekendMultiplier)
		}
		if i == 0 {
			if expected := pattern.Hourly[now.Hour()]; current > 0 && expected > 0 {
				ratio := float64(current) / float64(expected)
				v = int(float64(v)*ratio*0.7 + float64(v)*0.3)
			}
		}
		if h >= 22 || h <= 6 {
			v = int(float64(v) * p.nightDecay())
		}
		out[i] = max(0, int(float64(v)+p.normal(math.Max(1, float64(v)*0.15))))
	}
	return out
}

// expand interpolates the hourly curve to n slots. A curve at least n long
// is truncated.
func (p *TrafficPredictor) expand(curve []int, n int, minuteJitter bool) []int {
	if len(curve) >= n {
		return append([]int(nil), curve[:n]...)
	}
	out := make([]int, n)
	last := len(curve) - 1
	for i := range out {
		pos := float64(i*len(curve)) / float64(n)
		idx := int(pos)
		var v float64
		if idx >= last {
			v = float64(curve[last])
		} else {
			frac := pos - float64(idx)
			v = float64(curve[idx])*(1-frac) + float64(curve[idx+1])*frac
		}
		if minuteJitter {
			v += p.normal(math.Max(0.5, v*0.1))
		}
		out[i] = max(0, int(v))
	}
	return out
}

// blendAutoregressive averages the curve with an AR forecast of the ingested
// hourly volumes. Any fit failure keeps the curve untouched.
func (p *TrafficPredictor) blendAutoregressive(curve []int) []int {
	if len(p.hourly) < minAutoregressivePts {
		return curve
	}
	f := forecast.NewForecaster()
	if err := f.Fit(p.hourly, autoregressiveOrder); err != nil {
		return curve
	}
	res, err := f.Forecast(len(curve), 0.95)
	if err != nil {
		return curve
	}
	out := make([]int, len(curve))
	for i, v := range curve {
		ar := math.Max(0, res.Predictions[i])
		if math.IsNaN(ar) || math.IsInf(ar, 0) {
			out[i] = v
			continue
		}
		out[i] = int(0.5*float64(v) + 0.5*ar)
	}
	return out
}

func (p *TrafficPredictor) normal(sigma float64) float64 {
	if !p.jitter {
		return 0
	}
	return distuv.Normal{Mu: 0, Sigma: sigma, Src: p.src}.Rand()
}

// nightDecay is drawn from [0.8, 1.0); without jitter the midpoint is used.
func (p *TrafficPredictor) nightDecay() float64 {
	if !p.jitter {
		return 0.9
	}
	return distuv.Uniform{Min: 0.8, Max: 1, Src: p.src}.Rand()
}

// TimeLabels returns n "HH:MM" labels stepping by stepMinutes from the first
// five-minute mark strictly after now.
func TimeLabels(now time.Time, n, stepMinutes int) []string {
	next := (now.Minute()/5 + 1) * 5
	start := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location()).
		Add(time.Duration(next) * time.Minute)
	out := make([]string, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i*stepMinutes) * time.Minute).Format("15:04")
	}
	return out
}

// ApplyContextFactors scales volumes for a holiday, the weather and local
// events, in that order. Each step truncates to whole arrivals.
func ApplyContextFactors(volumes []int, ctx model.PredictionContext) []int {
	out := append([]int(nil), volumes...)
	if ctx.IsHoliday {
		scale(out, 1.2)
	}
	switch ctx.WeatherCondition() {
	case "rain", "rainy", "storm", "stormy":
		scale(out, 0.8)
	case "sunny":
		scale(out, 1.1)
	}
	if len(ctx.LocalEvents) > 0 {
		scale(out, 1.3)
	}
	return out
}

func scale(v []int, m float64) {
	for i, x := range v {
		// epsilon keeps 10*1.2 from truncating to 11
		v[i] = max(0, int(math.Floor(float64(x)*m+1e-9)))
	}
}

// VolumeIntervals returns a fixed ±20% band around each volume.
func VolumeIntervals(volumes []int) []model.VolumeInterval {
	out := make([]model.VolumeInterval, len(volumes))
	for i, v := range volumes {
		f := float64(v)
		out[i] = model.VolumeInterval{
			Lo: max(0, int(f-bandFraction*f)),
			Hi: int(f + bandFraction*f),
		}
	}
	return out
}
