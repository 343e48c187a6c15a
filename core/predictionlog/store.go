// Package predictionlog persists served predictions and observed outcomes so
// that predictor history survives restarts.
package predictionlog

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/queuecast/core/model"
)

// Kind tells which payload a LogRecord carries.
type Kind string

const (
	KindWait    Kind = "wait"
	KindTraffic Kind = "traffic"
	KindOutcome Kind = "outcome"
)

// LogRecord captures one served prediction or observed outcome.
type LogRecord struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Kind      Kind           `json:"kind"`
	Location  string         `json:"location"`
	Category  model.Category `json:"category,omitempty"`
	Wait      *WaitEntry     `json:"wait,omitempty"`
	Traffic   *TrafficEntry  `json:"traffic,omitempty"`
	Outcome   *OutcomeEntry  `json:"outcome,omitempty"`
}

// WaitEntry is the input and answer of a wait prediction.
type WaitEntry struct {
	Snapshot model.QueueSnapshot `json:"snapshot"`
	Estimate model.WaitEstimate  `json:"estimate"`
}

// TrafficEntry is the input and answer of a traffic forecast.
type TrafficEntry struct {
	CurrentVolume int                   `json:"current_volume"`
	Forecast      model.TrafficForecast `json:"forecast"`
}

// OutcomeEntry compares an observed wait with its prediction.
type OutcomeEntry struct {
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
	Error     float64 `json:"error"`
	Accuracy  float64 `json:"accuracy"`
}

// LogQuery defines filters for retrieving records. Zero values match all.
// Limit keeps only the newest Limit matches.
type LogQuery struct {
	Start    time.Time
	End      time.Time
	Kind     Kind
	Location string
	Limit    int
}

// Matches reports whether r passes every filter except Limit.
func (q LogQuery) Matches(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.Location != "" && r.Location != q.Location {
		return false
	}
	return true
}

// finish orders records chronologically and applies the limit.
func (q LogQuery) finish(recs []LogRecord) []LogRecord {
	slices.SortStableFunc(recs, func(a, b LogRecord) int { return a.Timestamp.Compare(b.Timestamp) })
	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[len(recs)-q.Limit:]
	}
	return recs
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}
