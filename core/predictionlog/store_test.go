package predictionlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/queuecast/core/model"
)

var base = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func waitRecord(id string, at time.Time, location string, queue int) LogRecord {
	return LogRecord{
		ID:        id,
		Timestamp: at,
		Kind:      KindWait,
		Location:  location,
		Category:  model.CategoryFastFood,
		Wait: &WaitEntry{
			Snapshot: model.QueueSnapshot{QueueLength: queue, AvgServiceTime: 8, ActiveServers: 2, Timestamp: at},
			Estimate: model.WaitEstimate{Position: queue + 1, ExpectedMinutes: float64(queue) * 4, Basis: model.BasisQueueing, Timestamp: at},
		},
	}
}

func trafficRecord(id string, at time.Time, location string, current int) LogRecord {
	return LogRecord{
		ID:        id,
		Timestamp: at,
		Kind:      KindTraffic,
		Location:  location,
		Traffic:   &TrafficEntry{CurrentVolume: current, Forecast: model.TrafficForecast{Volumes: []int{current}}},
	}
}

func outcomeRecord(id string, at time.Time, actual, predicted float64) LogRecord {
	return LogRecord{
		ID:        id,
		Timestamp: at,
		Kind:      KindOutcome,
		Location:  "downtown",
		Outcome:   &OutcomeEntry{Actual: actual, Predicted: predicted},
	}
}

func stores(t *testing.T) map[string]LogStore {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "nested", "p.jsonl"))
	require.NoError(t, err)
	rotating, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "p.log"), 1, 2, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "p.db"))
	require.NoError(t, err)
	all := map[string]LogStore{
		"jsonl":    jsonl,
		"rotating": rotating,
		"sqlite":   sqlite,
		"memory":   NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range all {
			_ = s.Close()
		}
	})
	return all
}

func TestStores_AppendQuery(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			// appended out of order on purpose
			recs := []LogRecord{
				waitRecord("w2", base.Add(2*time.Minute), "downtown", 4),
				waitRecord("w1", base, "downtown", 2),
				trafficRecord("t1", base.Add(time.Minute), "mall", 30),
				outcomeRecord("o1", base.Add(3*time.Minute), 10, 12),
			}
			for _, r := range recs {
				require.NoError(t, store.Append(ctx, r))
			}

			all, err := store.Query(ctx, LogQuery{})
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, []string{"w1", "t1", "w2", "o1"}, ids(all))
			assert.True(t, all[0].Timestamp.Equal(base))
			require.NotNil(t, all[0].Wait)
			assert.Equal(t, 2, all[0].Wait.Snapshot.QueueLength)

			waits, err := store.Query(ctx, LogQuery{Kind: KindWait})
			require.NoError(t, err)
			assert.Equal(t, []string{"w1", "w2"}, ids(waits))

			mall, err := store.Query(ctx, LogQuery{Location: "mall"})
			require.NoError(t, err)
			assert.Equal(t, []string{"t1"}, ids(mall))

			window, err := store.Query(ctx, LogQuery{Start: base.Add(time.Minute), End: base.Add(2 * time.Minute)})
			require.NoError(t, err)
			assert.Equal(t, []string{"t1", "w2"}, ids(window))

			newest, err := store.Query(ctx, LogQuery{Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, []string{"w2", "o1"}, ids(newest))
		})
	}
}

func TestStores_AppendHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, store := range stores(t) {
		if name == "sqlite" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, store.Append(ctx, waitRecord("x", base, "a", 1)), context.Canceled)
		})
	}
}

func TestRotatingJSONLStore_QueriesBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.log")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	volumes := make([]int, 5000)
	for i := range volumes {
		volumes[i] = 100
	}
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		rec := trafficRecord("t", base.Add(time.Duration(i)*time.Minute), "mall", i)
		rec.Traffic.Forecast.Volumes = volumes
		require.NoError(t, store.Append(ctx, rec))
	}
	backups, err := filepath.Glob(filepath.Join(filepath.Dir(path), "p-*.log"))
	require.NoError(t, err)
	assert.NotEmpty(t, backups, "expected rotated files")

	out, err := store.Query(ctx, LogQuery{})
	require.NoError(t, err)
	require.Len(t, out, 60)
	assert.Equal(t, 0, out[0].Traffic.CurrentVolume)
	assert.Equal(t, 59, out[59].Traffic.CurrentVolume)
}

func TestJSONLStore_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, waitRecord("w1", base, "a", 1)))
	require.NoError(t, appendRaw(path, "{not json\n"))
	require.NoError(t, store.Append(ctx, waitRecord("w2", base.Add(time.Second), "a", 1)))

	out, err := store.Query(ctx, LogQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w2"}, ids(out))
}

func ids(recs []LogRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
