package predict

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/queuecast/core/model"
)

func TestParseTimestamp(t *testing.T) {
	now := func() time.Time { return fixedNow }
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-01-02T03:04:05Z", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2026-01-02T03:04:05.5+00:00", time.Date(2026, 1, 2, 3, 4, 5, 500000000, time.UTC)},
		{"2026-01-02T03:04:05.123456789999Z", time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)},
		{"2026-01-02T03:04:05.1234567", time.Date(2026, 1, 2, 3, 4, 5, 123456700, time.Local)},
		{"2026-01-02 03:04:05", time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)},
		{"2026-01-02T03:04", time.Date(2026, 1, 2, 3, 4, 0, 0, time.Local)},
		{"", fixedNow},
		{"yesterday", fixedNow},
		{"2026-13-40T99:00:00", fixedNow},
	}
	for _, c := range cases {
		got := ParseTimestamp(c.in, now)
		assert.True(t, c.want.Equal(got), "%q: want %v got %v", c.in, c.want, got)
	}
}

func TestHistoryPayload(t *testing.T) {
	var nilPayload *HistoryPayload
	assert.True(t, nilPayload.Wait().Empty())
	assert.True(t, nilPayload.Traffic().Empty())

	p := &HistoryPayload{
		RecentPersonCounts:  []int{2},
		PersonCountVariance: 1.5,
		RecentTrafficCounts: []int{7, 8},
		HourlyVolumes:       []float64{20, 30},
	}
	assert.Equal(t, []int{2}, p.Wait().RecentCounts)
	assert.Equal(t, 1.5, p.Wait().CountVariance)
	assert.Equal(t, []int{7, 8}, p.Traffic().RecentCounts)
	assert.Equal(t, []float64{20, 30}, p.Traffic().HourlyVolumes)
}

func TestServiceFieldsOverrideBase(t *testing.T) {
	base := defaultService
	capacity := 80
	f := ServiceFields{Category: "FINE_DINING", MaxCapacity: &capacity, OperatingHours: []int{10, 23}}
	got := f.service(base)
	assert.Equal(t, 80, got.MaxCapacity)
	assert.Equal(t, model.CategoryFineDining, got.Category)
	assert.Equal(t, model.OperatingHours{Open: 10, Close: 23}, got.OperatingHours)
	assert.Equal(t, []int{12, 18}, got.PeakHours)

	got.PeakHours[0] = 1
	assert.Equal(t, 12, defaultService.PeakHours[0])
}

func TestWaitRequestToQuery_ValidatesServiceConfig(t *testing.T) {
	now := func() time.Time { return fixedNow }
	capacity := -5
	req := waitRequest{ServiceFields: ServiceFields{
		MaxCapacity:    &capacity,
		OperatingHours: []int{30, 2},
		PeakHours:      []int{99},
	}}
	_, err := req.toQuery(defaultService, now)
	require.ErrorIs(t, err, errBadRequest)
	assert.Contains(t, err.Error(), "max capacity must be positive")

	treq := trafficRequest{ServiceFields: ServiceFields{PeakHours: []int{24}}}
	_, err = treq.toQuery(defaultService, now)
	assert.ErrorIs(t, err, errBadRequest)

	ok := waitRequest{ServiceFields: ServiceFields{OperatingHours: []int{10, 23}, PeakHours: []int{13}}}
	q, err := ok.toQuery(defaultService, now)
	require.NoError(t, err)
	assert.Equal(t, model.OperatingHours{Open: 10, Close: 23}, q.Service.OperatingHours)
}

func TestWaitRequestToQuery_RejectsNonFinite(t *testing.T) {
	now := func() time.Time { return fixedNow }
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		st := v
		_, err := waitRequest{AverageServiceTime: &st}.toQuery(defaultService, now)
		assert.ErrorIs(t, err, errBadRequest, "service time %v", v)

		_, err = waitRequest{HistoricalData: &HistoryPayload{PersonCountVariance: v}}.toQuery(defaultService, now)
		assert.ErrorIs(t, err, errBadRequest, "variance %v", v)
	}
}

func TestDecodeBody_NaNStringReachesValidation(t *testing.T) {
	var req waitRequest
	require.NoError(t, decodeBody(strings.NewReader(`{"averageServiceTime": "NaN"}`), &req))
	require.NotNil(t, req.AverageServiceTime)
	assert.True(t, math.IsNaN(*req.AverageServiceTime))

	_, err := req.toQuery(defaultService, func() time.Time { return fixedNow })
	assert.ErrorIs(t, err, errBadRequest)
}
