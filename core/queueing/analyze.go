package queueing

import "fmt"

// Stability classifies a queue configuration.
type Stability string

const (
	Stable   Stability = "stable"
	Unstable Stability = "unstable"
)

// targetWaitMinutes is the wait used for the sizing recommendation.
const targetWaitMinutes = 5.0

// Analysis is the outcome of Analyze.
type Analysis struct {
	Metrics         Metrics   `json:"metrics"`
	Recommendations []string  `json:"recommendations"`
	Stability       Stability `json:"stability"`
}

// Analyze evaluates a configuration and produces operational recommendations.
// An unstable configuration is reported through Stability rather than as an
// error.
func (c Calculator) Analyze(arrivalRate, serviceRate float64, servers int) Analysis {
	res := Analysis{Recommendations: []string{}}
	if err := c.checkStability(arrivalRate, serviceRate, servers); err != nil {
		res.Stability = Unstable
		res.Recommendations = append(res.Recommendations,
			"system is unstable: add servers or improve service efficiency")
		return res
	}
	res.Stability = Stable

	var (
		m   Metrics
		err error
	)
	if servers == 1 {
		m, err = c.MM1(arrivalRate, serviceRate)
	} else {
		m, err = c.MMC(arrivalRate, serviceRate, servers)
	}
	if err != nil {
		res.Recommendations = append(res.Recommendations, fmt.Sprintf("analysis failed: %v", err))
		return res
	}
	res.Metrics = m

	switch {
	case m.Utilization > 0.8:
		res.Recommendations = append(res.Recommendations,
			"utilization is high: add servers or improve service efficiency")
	case m.Utilization < 0.3:
		res.Recommendations = append(res.Recommendations,
			"utilization is low: consider reducing the number of servers")
	}
	switch {
	case m.ExpectedWait > 10:
		res.Recommendations = append(res.Recommendations,
			"expected wait is long: streamline the service process")
	case m.ExpectedWait < 2:
		res.Recommendations = append(res.Recommendations,
			"expected wait is short: service efficiency is good")
	}

	if opt, err := c.OptimalServers(arrivalRate, serviceRate, targetWaitMinutes); err == nil && opt != servers {
		res.Recommendations = append(res.Recommendations,
			fmt.Sprintf("use %d servers to keep the expected wait under %.0f minutes", opt, targetWaitMinutes))
	}
	return res
}
