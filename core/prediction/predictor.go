package prediction

import "github.com/kilianp07/queuecast/core/model"

const (
	trainedConfidence   = 0.7
	untrainedConfidence = 0.3
)

// Predictor is the lifecycle shared by every predictor.
type Predictor interface {
	Name() string
	// Train seeds the predictor with aggregate history.
	Train(h model.HistoricalData, cfg model.ServiceConfig) error
	// Mode is derived from the current history size on every call.
	Mode() model.ForecastMode
	// BaseConfidence is 0.7 once trained and 0.3 before.
	BaseConfidence() float64
}

func baseConfidence(trained bool) float64 {
	if trained {
		return trainedConfidence
	}
	return untrainedConfidence
}
