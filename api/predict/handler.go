package predict

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/queuecast/core/forecast"
	"github.com/kilianp07/queuecast/core/logger"
	"github.com/kilianp07/queuecast/core/model"
	"github.com/kilianp07/queuecast/core/prediction"
	"github.com/kilianp07/queuecast/core/queueing"
	"github.com/kilianp07/queuecast/pkg/export"
)

// Backend runs predictions for the HTTP layer. Implementations own the
// stateful predictors and must be safe for concurrent use.
type Backend interface {
	PredictWait(ctx context.Context, q WaitQuery) (model.WaitEstimate, error)
	PredictTraffic(ctx context.Context, q TrafficQuery) (model.TrafficForecast, error)
	RecordOutcome(ctx context.Context, location string, actual, predicted float64) (prediction.Outcome, error)
	Status() Status
}

// Status describes the running service.
type Status struct {
	Location string               `json:"location"`
	Started  time.Time            `json:"started"`
	Wait     prediction.ModelInfo `json:"waitModel"`
	Traffic  TrafficStatus        `json:"trafficModel"`
	LogStore string               `json:"logStore"`
}

// TrafficStatus reports the traffic predictor state.
type TrafficStatus struct {
	Mode        model.ForecastMode `json:"mode"`
	HistorySize int                `json:"historySize"`
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// Token enables bearer authentication on /api routes when non-empty.
	Token string
	// Service holds the location defaults merged under each request.
	Service model.ServiceConfig
	// Calculator serves the stateless analysis endpoint.
	Calculator queueing.Calculator
	// Metrics is mounted on GET /metrics when set.
	Metrics http.Handler
	Logger  logger.Logger
	Now     func() time.Time
}

type handler struct {
	backend Backend
	cfg     RouterConfig
	log     logger.Logger
}

// NewRouter builds the HTTP API around b.
func NewRouter(b Backend, cfg RouterConfig) *mux.Router {
	if cfg.Service.MaxCapacity == 0 {
		cfg.Service = defaultService
	}
	if cfg.Calculator.Threshold() == 0 {
		cfg.Calculator = queueing.NewCalculator()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	h := &handler{backend: b, cfg: cfg, log: logger.OrNop(cfg.Logger)}

	r := mux.NewRouter()
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.auth)
	api.HandleFunc("/status", h.status).Methods(http.MethodGet)
	api.HandleFunc("/predict/wait-time", h.waitTime).Methods(http.MethodPost)
	api.HandleFunc("/predict/traffic", h.traffic).Methods(http.MethodPost)
	api.HandleFunc("/predict/traffic/chart", h.trafficChart).Methods(http.MethodPost)
	api.HandleFunc("/predict/outcome", h.outcome).Methods(http.MethodPost)
	api.HandleFunc("/queue/analyze", h.analyze).Methods(http.MethodPost)
	api.HandleFunc("/series/decompose", h.decompose).Methods(http.MethodPost)
	api.HandleFunc("/series/forecast", h.forecast).Methods(http.MethodPost)
	api.HandleFunc("/series/smooth", h.smooth).Methods(http.MethodPost)
	return r
}

// auth requires "Authorization: Bearer <token>" when a token is configured.
func (h *handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.Token != "" && r.Header.Get("Authorization") != "Bearer "+h.cfg.Token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.Status())
}

type waitResponse struct {
	EstimatedWaitTime float64         `json:"estimatedWaitTime"`
	Confidence        float64         `json:"confidence"`
	Message           string          `json:"message"`
	PredictionRange   model.WaitRange `json:"predictionRange"`
	CustomerPosition  int             `json:"customerPosition"`
	Basis             model.Basis     `json:"basis"`
	Timestamp         time.Time       `json:"timestamp"`
}

func (h *handler) waitTime(w http.ResponseWriter, r *http.Request) {
	var req waitRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}
	q, err := req.toQuery(h.cfg.Service, h.cfg.Now)
	if err != nil {
		writeError(w, err)
		return
	}
	est, err := h.backend.PredictWait(r.Context(), q)
	if err != nil {
		h.log.Warnf("wait-time prediction failed: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, waitResponse{
		EstimatedWaitTime: est.ExpectedMinutes,
		Confidence:        est.Confidence,
		Message:           est.Advisory,
		PredictionRange:   est.Range,
		CustomerPosition:  est.Position,
		Basis:             est.Basis,
		Timestamp:         est.Timestamp,
	})
}

type trafficResponse struct {
	TimeSlots        []string               `json:"timeSlots"`
	PredictedTraffic []int                  `json:"predictedTraffic"`
	Intervals        []model.VolumeInterval `json:"confidenceIntervals"`
	PeakPeriods      []model.PeakWindow     `json:"peakPeriods"`
	HorizonHours     float64                `json:"horizonHours"`
	Mode             model.ForecastMode     `json:"mode"`
	ChartData        prediction.ChartData   `json:"chartData"`
	Insights         prediction.Insights    `json:"insights"`
}

func (h *handler) predictTraffic(r *http.Request) (TrafficQuery, model.TrafficForecast, error) {
	var req trafficRequest
	if err := decodeBody(r.Body, &req); err != nil {
		return TrafficQuery{}, model.TrafficForecast{}, err
	}
	q, err := req.toQuery(h.cfg.Service, h.cfg.Now)
	if err != nil {
		return TrafficQuery{}, model.TrafficForecast{}, err
	}
	fc, err := h.backend.PredictTraffic(r.Context(), q)
	if err != nil {
		h.log.Warnf("traffic prediction failed: %v", err)
	}
	return q, fc, err
}

func (h *handler) traffic(w http.ResponseWriter, r *http.Request) {
	_, fc, err := h.predictTraffic(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trafficResponse{
		TimeSlots:        fc.TimeLabels,
		PredictedTraffic: fc.Volumes,
		Intervals:        fc.Intervals,
		PeakPeriods:      fc.PeakWindows,
		HorizonHours:     fc.HorizonHours,
		Mode:             fc.Mode,
		ChartData:        prediction.NewChartData(fc),
		Insights:         prediction.BusinessInsights(fc),
	})
}

func (h *handler) trafficChart(w http.ResponseWriter, r *http.Request) {
	q, fc, err := h.predictTraffic(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := export.RenderChart(w, prediction.NewChartData(fc), q.Observed); err != nil {
		h.log.Errorf("render chart: %v", err)
	}
}

func (h *handler) outcome(w http.ResponseWriter, r *http.Request) {
	var req outcomeRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Actual == nil || req.Predicted == nil {
		writeError(w, fmt.Errorf("%w: actualWaitTime and predictedWaitTime are required", errBadRequest))
		return
	}
	out, err := h.backend.RecordOutcome(r.Context(), req.Location, *req.Actual, *req.Predicted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// analyze evaluates a queue configuration. The default "analysis" model
// reports instability in the body; "mm1", "mmc" and "position" return the raw
// calculator result and fail on unstable input.
func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}
	servers := 1
	if req.Servers != nil {
		servers = *req.Servers
	}
	calc := h.cfg.Calculator
	if req.Model == "position" {
		if req.ServiceRate == nil {
			writeError(w, fmt.Errorf("%w: serviceRate is required", errBadRequest))
			return
		}
		wait, err := calc.PositionWait(req.QueueLength, req.Position, *req.ServiceRate, servers)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{"estimatedWaitTime": wait})
		return
	}
	if req.ArrivalRate == nil || req.ServiceRate == nil {
		writeError(w, fmt.Errorf("%w: arrivalRate and serviceRate are required", errBadRequest))
		return
	}
	lambda, mu := *req.ArrivalRate, *req.ServiceRate
	var (
		m   queueing.Metrics
		err error
	)
	switch req.Model {
	case "", "analysis":
		res := calc.Analyze(lambda, mu, servers)
		if req.TargetWait > 0 && res.Stability == queueing.Stable {
			if n, err := calc.OptimalServers(lambda, mu, req.TargetWait); err == nil {
				res.Recommendations = append(res.Recommendations,
					fmt.Sprintf("%d servers meet a target wait of %g", n, req.TargetWait))
			}
		}
		writeJSON(w, http.StatusOK, res)
		return
	case "mm1":
		m, err = calc.MM1(lambda, mu)
	case "mmc":
		m, err = calc.MMC(lambda, mu, servers)
	default:
		err = fmt.Errorf("%w: unknown model %q", errBadRequest, req.Model)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) decompose(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}
	period := req.Period
	if period == 0 {
		period = defaultPeriod
	}
	d, err := forecast.Decompose(req.Data, period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type forecastResponse struct {
	Model  forecast.Model  `json:"model"`
	Result forecast.Result `json:"forecast"`
}

func (h *handler) forecast(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}
	order := defaultOrder
	if req.Order != nil {
		order = forecast.Order{P: req.Order.P, D: req.Order.D, Q: req.Order.Q}
	}
	steps, level := req.Steps, req.Level
	if steps == 0 {
		steps = defaultSteps
	}
	if level == 0 {
		level = 0.95
	}
	f := forecast.NewForecaster()
	if err := f.Fit(req.Data, order); err != nil {
		writeError(w, err)
		return
	}
	res, err := f.Forecast(steps, level)
	if err != nil {
		writeError(w, err)
		return
	}
	m, _ := f.Model()
	writeJSON(w, http.StatusOK, forecastResponse{Model: m, Result: res})
}

func (h *handler) smooth(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Data) == 0 {
		writeError(w, fmt.Errorf("%w: data is required", forecast.ErrEmptyInput))
		return
	}
	method := forecast.Method(req.Method)
	if method == "" {
		method = forecast.MovingAverage
	}
	window := req.Window
	if window == 0 {
		window = 3
	}
	writeJSON(w, http.StatusOK, map[string][]float64{"smoothed": forecast.Smooth(req.Data, method, window)})
}

const (
	defaultPeriod = 24
	defaultSteps  = 6
)

var defaultOrder = forecast.Order{P: 1, D: 1, Q: 1}
