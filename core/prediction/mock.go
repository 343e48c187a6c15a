package prediction

import "github.com/kilianp07/queuecast/core/model"

// MockPredictor is a Predictor with scripted behaviour for adapter tests.
type MockPredictor struct {
	ID       string
	Warm     bool
	TrainErr error

	// Calls records every Train argument.
	Calls []model.HistoricalData

	trained bool
}

func (m *MockPredictor) Name() string {
	if m.ID == "" {
		return "mock"
	}
	return m.ID
}

// Train records h and returns TrainErr.
func (m *MockPredictor) Train(h model.HistoricalData, _ model.ServiceConfig) error {
	m.Calls = append(m.Calls, h)
	if m.TrainErr != nil {
		return m.TrainErr
	}
	m.trained = true
	return nil
}

func (m *MockPredictor) Mode() model.ForecastMode {
	if m.Warm {
		return model.ModeWarmed
	}
	return model.ModeColdStart
}

func (m *MockPredictor) BaseConfidence() float64 { return baseConfidence(m.trained) }
