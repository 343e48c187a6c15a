package predictionlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/queuecast/core/model"
	"github.com/kilianp07/queuecast/core/prediction"
)

type captureIngester struct{ got []model.HistoricalData }

func (c *captureIngester) AddHistoricalData(h model.HistoricalData) { c.got = append(c.got, h) }

func TestWaitHistory(t *testing.T) {
	recs := []LogRecord{
		waitRecord("a", base, "x", 2),
		trafficRecord("t", base, "x", 40),
		waitRecord("b", base, "x", 4),
		waitRecord("c", base, "x", 6),
	}
	h := WaitHistory(recs)
	assert.Equal(t, []int{2, 4, 6}, h.RecentCounts)
	assert.InDelta(t, 4, h.AverageCount, 1e-12)
	assert.InDelta(t, 8.0/3, h.CountVariance, 1e-12)
	assert.Empty(t, h.HourlyVolumes)
}

func TestTrafficHistory_HourlyMeans(t *testing.T) {
	recs := []LogRecord{
		trafficRecord("1", base.Add(5*time.Minute), "x", 10),
		trafficRecord("2", base.Add(35*time.Minute), "x", 20),
		trafficRecord("3", base.Add(65*time.Minute), "x", 40),
		waitRecord("w", base.Add(70*time.Minute), "x", 3),
		trafficRecord("4", base.Add(3*time.Hour), "x", 7),
	}
	h := TrafficHistory(recs)
	assert.Equal(t, []int{10, 20, 40, 7}, h.RecentCounts)
	assert.Equal(t, []float64{15, 40, 7}, h.HourlyVolumes)
}

func TestSummarize_KeepsNewestCounts(t *testing.T) {
	counts := make([]int, maxRecentCounts+10)
	for i := range counts {
		counts[i] = i
	}
	h := summarize(counts, nil)
	require.Len(t, h.RecentCounts, maxRecentCounts)
	assert.Equal(t, 10, h.RecentCounts[0])
}

func TestReplay(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	old := waitRecord("old", base.Add(-48*time.Hour), "x", 99)
	for _, r := range []LogRecord{
		old,
		waitRecord("w1", base, "x", 3),
		waitRecord("w2", base.Add(time.Minute), "x", 5),
		trafficRecord("t1", base.Add(2*time.Minute), "x", 30),
		outcomeRecord("o1", base.Add(3*time.Minute), 10, 12),
		outcomeRecord("bad", base.Add(4*time.Minute), -1, 12),
	} {
		require.NoError(t, store.Append(ctx, r))
	}

	wait := prediction.NewWaitTimePredictor()
	traffic := &captureIngester{}
	st, err := Replay(ctx, store, base.Add(-time.Hour), wait, traffic)
	require.NoError(t, err)
	assert.Equal(t, ReplayStats{Records: 5, Waits: 2, Traffic: 1, Outcomes: 1}, st)

	// two synthetic outcomes from the queue lengths plus one observed
	assert.Equal(t, 3, wait.HistorySize())
	require.Len(t, traffic.got, 1)
	assert.Equal(t, []int{30}, traffic.got[0].RecentCounts)
	assert.Equal(t, []float64{30}, traffic.got[0].HourlyVolumes)
}

func TestReplay_NothingToIngest(t *testing.T) {
	traffic := &captureIngester{}
	st, err := Replay(context.Background(), NewMemoryStore(), time.Time{}, nil, traffic)
	require.NoError(t, err)
	assert.Zero(t, st.Records)
	assert.Empty(t, traffic.got)
}

type failingStore struct{ MemoryStore }

func (*failingStore) Query(context.Context, LogQuery) ([]LogRecord, error) {
	return nil, errors.New("disk gone")
}

func TestReplay_QueryError(t *testing.T) {
	_, err := Replay(context.Background(), &failingStore{}, time.Time{}, nil, nil)
	assert.ErrorContains(t, err, "disk gone")
}
