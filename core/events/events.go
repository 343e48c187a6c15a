package events

import (
	"time"

	"github.com/kilianp07/queuecast/core/model"
)

// Kind names an event family. It is also the last MQTT topic level.
type Kind string

const (
	KindWait    Kind = "wait"
	KindTraffic Kind = "traffic"
	KindOutcome Kind = "outcome"
	KindFailure Kind = "failure"
)

// Event is implemented by every value published on the prediction bus.
type Event interface {
	Kind() Kind
	// Where returns the location the event belongs to.
	Where() string
}

// WaitPredicted is published for every served wait estimate.
type WaitPredicted struct {
	ID       string              `json:"id"`
	Location string              `json:"location"`
	Category model.Category      `json:"category"`
	Snapshot model.QueueSnapshot `json:"snapshot"`
	Estimate model.WaitEstimate  `json:"estimate"`
	Latency  time.Duration       `json:"latency_ns"`
}

func (WaitPredicted) Kind() Kind      { return KindWait }
func (e WaitPredicted) Where() string { return e.Location }

// TrafficForecasted is published for every served traffic forecast.
type TrafficForecasted struct {
	ID            string                `json:"id"`
	Location      string                `json:"location"`
	Category      model.Category        `json:"category"`
	CurrentVolume int                   `json:"current_volume"`
	Forecast      model.TrafficForecast `json:"forecast"`
	Latency       time.Duration         `json:"latency_ns"`
	Time          time.Time             `json:"time"`
}

func (TrafficForecasted) Kind() Kind      { return KindTraffic }
func (e TrafficForecasted) Where() string { return e.Location }

// OutcomeRecorded carries the comparison of an observed and a predicted wait.
type OutcomeRecorded struct {
	Location  string    `json:"location"`
	Actual    float64   `json:"actual"`
	Predicted float64   `json:"predicted"`
	Error     float64   `json:"error"`
	Accuracy  float64   `json:"accuracy"`
	Time      time.Time `json:"time"`
}

func (OutcomeRecorded) Kind() Kind      { return KindOutcome }
func (e OutcomeRecorded) Where() string { return e.Location }

// PredictionFailed is published when a request could not be answered.
// Class is one of "invalid", "unstable" or "internal".
type PredictionFailed struct {
	Location  string    `json:"location"`
	Predictor string    `json:"predictor"`
	Class     string    `json:"class"`
	Err       string    `json:"error"`
	Time      time.Time `json:"time"`
}

func (PredictionFailed) Kind() Kind      { return KindFailure }
func (e PredictionFailed) Where() string { return e.Location }
