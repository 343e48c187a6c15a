package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueSnapshotValidate(t *testing.T) {
	ok := QueueSnapshot{QueueLength: 0, AvgServiceTime: 4, ActiveServers: 1}
	assert.NoError(t, ok.Validate())

	cases := map[string]QueueSnapshot{
		"negative queue": {QueueLength: -1, AvgServiceTime: 4, ActiveServers: 1},
		"zero service":   {QueueLength: 3, AvgServiceTime: 0, ActiveServers: 1},
		"no servers":     {QueueLength: 3, AvgServiceTime: 4, ActiveServers: 0},
		"NaN service":    {QueueLength: 3, AvgServiceTime: math.NaN(), ActiveServers: 1},
		"+Inf service":   {QueueLength: 3, AvgServiceTime: math.Inf(1), ActiveServers: 1},
		"-Inf service":   {QueueLength: 3, AvgServiceTime: math.Inf(-1), ActiveServers: 1},
	}
	for name, q := range cases {
		assert.Error(t, q.Validate(), name)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	base := ServiceConfig{
		Category:       CategoryCasualDining,
		MaxCapacity:    40,
		TableCount:     8,
		OperatingHours: OperatingHours{Open: 11, Close: 23},
		PeakHours:      []int{12, 19},
	}
	assert.NoError(t, base.Validate())

	mutate := func(f func(*ServiceConfig)) ServiceConfig {
		c := base
		f(&c)
		return c
	}
	bad := []ServiceConfig{
		mutate(func(c *ServiceConfig) { c.MaxCapacity = 0 }),
		mutate(func(c *ServiceConfig) { c.TableCount = -2 }),
		mutate(func(c *ServiceConfig) { c.OperatingHours = OperatingHours{Open: 22, Close: 10} }),
		mutate(func(c *ServiceConfig) { c.OperatingHours = OperatingHours{Open: 8, Close: 25} }),
		mutate(func(c *ServiceConfig) { c.PeakHours = []int{24} }),
	}
	for i, c := range bad {
		assert.Error(t, c.Validate(), "case %d", i)
	}
}

func TestServiceConfigIsPeakHour(t *testing.T) {
	c := ServiceConfig{PeakHours: []int{12, 18}}
	assert.True(t, c.IsPeakHour(12))
	assert.True(t, c.IsPeakHour(18))
	assert.False(t, c.IsPeakHour(13))
	assert.False(t, ServiceConfig{}.IsPeakHour(12))
}

func TestPredictionContext(t *testing.T) {
	sat := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	mon := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	assert.True(t, PredictionContext{Now: sat}.IsWeekend())
	assert.False(t, PredictionContext{Now: mon}.IsWeekend())

	assert.Equal(t, "", PredictionContext{}.WeatherCondition())
	ctx := PredictionContext{Weather: &Weather{Condition: "  Rainy "}}
	assert.Equal(t, "rainy", ctx.WeatherCondition())
}

func TestHistoricalDataEmpty(t *testing.T) {
	assert.True(t, HistoricalData{}.Empty())
	assert.True(t, HistoricalData{CountVariance: 2}.Empty())
	assert.False(t, HistoricalData{RecentCounts: []int{3}}.Empty())
	assert.False(t, HistoricalData{AverageCount: 1.5}.Empty())
	assert.False(t, HistoricalData{HourlyVolumes: []float64{10}}.Empty())
}
