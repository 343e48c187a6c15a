package queueing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_Unstable(t *testing.T) {
	a := NewCalculator().Analyze(100, 10, 2)
	assert.Equal(t, Unstable, a.Stability)
	assert.Len(t, a.Recommendations, 1)
	assert.Zero(t, a.Metrics)
}

func TestAnalyze_InvalidIsUnstable(t *testing.T) {
	a := NewCalculator().Analyze(10, 0, 2)
	assert.Equal(t, Unstable, a.Stability)
}

func TestAnalyze_SingleServerUsesMM1(t *testing.T) {
	c := NewCalculator()
	a := c.Analyze(20, 25, 1)
	assert.Equal(t, Stable, a.Stability)
	m, _ := c.MM1(20, 25)
	assert.Equal(t, m, a.Metrics)
	assert.False(t, containsText(a.Recommendations, "utilization is high"))
	assert.True(t, containsText(a.Recommendations, "servers to keep"))
}

func TestAnalyze_HighUtilizationLongWait(t *testing.T) {
	a := NewCalculator().Analyze(9, 10, 1)
	assert.Equal(t, Stable, a.Stability)
	assert.True(t, containsText(a.Recommendations, "utilization is high"))
	assert.True(t, containsText(a.Recommendations, "wait is long"))
}

func TestAnalyze_LowUtilizationShortWait(t *testing.T) {
	a := NewCalculator().Analyze(2, 10, 3)
	assert.Equal(t, Stable, a.Stability)
	assert.Greater(t, a.Metrics.WaitProbability, 0.0)
	assert.True(t, containsText(a.Recommendations, "utilization is low"))
	assert.True(t, containsText(a.Recommendations, "wait is short"))
}

func containsText(recs []string, sub string) bool {
	for _, r := range recs {
		if strings.Contains(r, sub) {
			return true
		}
	}
	return false
}
