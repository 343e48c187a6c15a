package predictionlog

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/queuecast/core/model"
	"github.com/kilianp07/queuecast/core/prediction"
)

// maxRecentCounts bounds how many observed counts one replay hands over.
const maxRecentCounts = 50

// Ingester accepts aggregate history. Both predictors implement it.
type Ingester interface {
	AddHistoricalData(h model.HistoricalData)
}

// OutcomeIngester additionally accepts observed outcomes.
type OutcomeIngester interface {
	RecordOutcome(actual, predicted float64) (prediction.Outcome, error)
}

// ReplayStats reports what a replay handed to the predictors.
type ReplayStats struct {
	Records  int
	Waits    int
	Traffic  int
	Outcomes int
}

// Replay reads the records newer than since and feeds them to the
// predictors: queue lengths and observed outcomes to wait, arrival volumes
// to traffic. Either ingester may be nil.
func Replay(ctx context.Context, store LogStore, since time.Time, wait, traffic Ingester) (ReplayStats, error) {
	recs, err := store.Query(ctx, LogQuery{Start: since})
	if err != nil {
		return ReplayStats{}, fmt.Errorf("replay query: %w", err)
	}
	st := ReplayStats{Records: len(recs)}
	for _, r := range recs {
		switch r.Kind {
		case KindWait:
			st.Waits++
		case KindTraffic:
			st.Traffic++
		}
	}
	if wait != nil {
		if h := WaitHistory(recs); !h.Empty() {
			wait.AddHistoricalData(h)
		}
		if oi, ok := wait.(OutcomeIngester); ok {
			for _, r := range recs {
				if r.Kind != KindOutcome || r.Outcome == nil {
					continue
				}
				if _, err := oi.RecordOutcome(r.Outcome.Actual, r.Outcome.Predicted); err == nil {
					st.Outcomes++
				}
			}
		}
	}
	if traffic != nil {
		if h := TrafficHistory(recs); !h.Empty() {
			traffic.AddHistoricalData(h)
		}
	}
	return st, nil
}

// WaitHistory aggregates the queue lengths of wait records.
func WaitHistory(recs []LogRecord) model.HistoricalData {
	var counts []int
	for _, r := range recs {
		if r.Kind == KindWait && r.Wait != nil {
			counts = append(counts, r.Wait.Snapshot.QueueLength)
		}
	}
	return summarize(counts, nil)
}

// TrafficHistory aggregates observed arrival volumes. Hourly volumes are the
// per-hour means of the observed current volumes, oldest hour first.
func TrafficHistory(recs []LogRecord) model.HistoricalData {
	var counts []int
	var hourly []float64
	var hour time.Time
	var sum float64
	var n int
	flush := func() {
		if n > 0 {
			hourly = append(hourly, sum/float64(n))
		}
		sum, n = 0, 0
	}
	for _, r := range recs {
		if r.Kind != KindTraffic || r.Traffic == nil {
			continue
		}
		counts = append(counts, r.Traffic.CurrentVolume)
		h := r.Timestamp.Truncate(time.Hour)
		if !h.Equal(hour) {
			flush()
			hour = h
		}
		sum += float64(r.Traffic.CurrentVolume)
		n++
	}
	flush()
	return summarize(counts, hourly)
}

func summarize(counts []int, hourly []float64) model.HistoricalData {
	if len(counts) > maxRecentCounts {
		counts = counts[len(counts)-maxRecentCounts:]
	}
	h := model.HistoricalData{RecentCounts: counts, HourlyVolumes: hourly}
	if len(counts) > 0 {
		xs := make([]float64, len(counts))
		for i, c := range counts {
			xs[i] = float64(c)
		}
		mean, std := stat.PopMeanStdDev(xs, nil)
		h.AverageCount = mean
		h.CountVariance = std * std
	}
	return h
}
