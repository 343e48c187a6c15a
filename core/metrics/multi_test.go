package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	waits    int
	traffic  int
	outcomes int
	err      error
}

func (r *recordSink) RecordWaitEstimate(WaitEstimateEvent) error {
	r.waits++
	return r.err
}

func (r *recordSink) RecordTrafficForecast(TrafficForecastEvent) error {
	r.traffic++
	return r.err
}

// waitOnly implements only the base interface.
type waitOnly struct{ n int }

func (w *waitOnly) RecordWaitEstimate(WaitEstimateEvent) error {
	w.n++
	return nil
}

func TestMultiSink_ForwardsToSupportingSinks(t *testing.T) {
	s1 := &recordSink{}
	s2 := &waitOnly{}
	m := NewMultiSink(s1, s2)

	require.NoError(t, m.RecordWaitEstimate(WaitEstimateEvent{}))
	require.NoError(t, m.RecordTrafficForecast(TrafficForecastEvent{}))
	require.NoError(t, m.RecordOutcome(OutcomeEvent{}))
	require.NoError(t, m.RecordFallback(FallbackEvent{}))
	require.NoError(t, m.RecordPredictionError(PredictionErrorEvent{}))

	assert.Equal(t, 1, s1.waits)
	assert.Equal(t, 1, s1.traffic)
	assert.Equal(t, 1, s2.n)
}

func TestMultiSink_TriesEverySinkAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)

	err := m.RecordWaitEstimate(WaitEstimateEvent{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s2.waits)
}

type closingSink struct {
	waitOnly
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestMultiSink_Close(t *testing.T) {
	c := &closingSink{}
	m := NewMultiSink(&waitOnly{}, c)
	m.Close()
	assert.True(t, c.closed)
}
