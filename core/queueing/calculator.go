package queueing

import (
	"fmt"
	"math"
)

// DefaultStabilityThreshold is the utilization ceiling above which a queue is
// treated as unstable.
const DefaultStabilityThreshold = 0.95

// searchWindow bounds OptimalServers.
const searchWindow = 20

// Metrics holds steady-state results of a queue model. Times are minutes.
type Metrics struct {
	ExpectedWait        float64 `json:"expected_wait"`
	ExpectedSystemTime  float64 `json:"expected_system_time"`
	Utilization         float64 `json:"utilization"`
	ExpectedQueueLength float64 `json:"expected_queue_length"`
	// WaitProbability is the Erlang C probability; only set by MMC.
	WaitProbability float64 `json:"wait_probability,omitempty"`
}

// Calculator evaluates queue models against a fixed stability threshold.
type Calculator struct {
	threshold float64
}

// NewCalculator returns a Calculator using DefaultStabilityThreshold.
func NewCalculator() Calculator {
	return Calculator{threshold: DefaultStabilityThreshold}
}

// NewCalculatorWithThreshold returns a Calculator with a custom utilization
// ceiling. Values outside (0,1] fall back to the default.
func NewCalculatorWithThreshold(threshold float64) Calculator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultStabilityThreshold
	}
	return Calculator{threshold: threshold}
}

// Threshold returns the utilization ceiling.
func (c Calculator) Threshold() float64 { return c.threshold }

// MM1 computes the single-server model.
func (c Calculator) MM1(arrivalRate, serviceRate float64) (Metrics, error) {
	if !positive(arrivalRate) || !positive(serviceRate) {
		return Metrics{}, fmt.Errorf("%w: arrival and service rates must be positive", ErrInvalidParameters)
	}
	rho := arrivalRate / serviceRate
	if rho >= c.threshold {
		return Metrics{}, fmt.Errorf("%w: utilization %.3f >= %.2f", ErrUnstableSystem, rho, c.threshold)
	}
	wait := rho / (serviceRate * (1 - rho)) * 60
	return Metrics{
		ExpectedWait:        wait,
		ExpectedSystemTime:  wait + 60/serviceRate,
		Utilization:         rho,
		ExpectedQueueLength: rho * rho / (1 - rho),
	}, nil
}

// MMC computes the multi-server model with the Erlang C wait probability.
// serviceRate is the rate of a single server.
func (c Calculator) MMC(arrivalRate, serviceRate float64, servers int) (Metrics, error) {
	if !positive(arrivalRate) || !positive(serviceRate) || servers <= 0 {
		return Metrics{}, fmt.Errorf("%w: arrival rate, service rate and servers must be positive", ErrInvalidParameters)
	}
	if err := c.checkStability(arrivalRate, serviceRate, servers); err != nil {
		return Metrics{}, err
	}
	rho := arrivalRate / serviceRate
	pWait := erlangC(rho, servers)

	var wait float64
	if pWait > 0 {
		wait = pWait / (float64(servers)*serviceRate - arrivalRate) * 60
	}
	return Metrics{
		ExpectedWait:        wait,
		ExpectedSystemTime:  wait + 60/serviceRate,
		Utilization:         rho / float64(servers),
		ExpectedQueueLength: arrivalRate * wait / 60,
		WaitProbability:     pWait,
	}, nil
}

// PositionWait returns the wait in minutes of the entity at position (1 is the
// head of the queue) given servers parallel servers.
func (c Calculator) PositionWait(queueLength, position int, serviceRate float64, servers int) (float64, error) {
	if position <= 0 || !positive(serviceRate) || servers <= 0 {
		return 0, fmt.Errorf("%w: position, service rate and servers must be positive", ErrInvalidParameters)
	}
	if position > queueLength {
		return 0, fmt.Errorf("%w: position %d, queue length %d", ErrInvalidPosition, position, queueLength)
	}
	if servers >= position {
		return 0, nil
	}
	waiting := position - 1 - servers
	if waiting < 0 {
		waiting = 0
	}
	return float64(waiting) / float64(servers) * (60 / serviceRate), nil
}

// EstimateServiceRate converts service time samples in minutes into a rate per
// hour. Non-positive samples are ignored.
func (c Calculator) EstimateServiceRate(samples []float64) (float64, error) {
	var sum float64
	n := 0
	for _, s := range samples {
		if positive(s) {
			sum += s
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no positive service time sample", ErrInsufficientData)
	}
	return 60 / (sum / float64(n)), nil
}

// EstimateArrivalRate converts an arrival count observed over windowHours into
// a rate per hour.
func (c Calculator) EstimateArrivalRate(arrivals int, windowHours float64) (float64, error) {
	if !positive(windowHours) {
		return 0, fmt.Errorf("%w: window must be positive", ErrInvalidParameters)
	}
	if arrivals <= 0 {
		return 0, fmt.Errorf("%w: no arrival observed", ErrInsufficientData)
	}
	return float64(arrivals) / windowHours, nil
}

// OptimalServers returns the smallest server count whose M/M/c wait is at most
// targetWait minutes. The search starts just above the saturation point and
// is bounded; when nothing qualifies a generous fallback count is returned.
func (c Calculator) OptimalServers(arrivalRate, serviceRate, targetWait float64) (int, error) {
	if !positive(arrivalRate) || !positive(serviceRate) || math.IsNaN(targetWait) || targetWait < 0 {
		return 0, fmt.Errorf("%w: rates must be positive and target non-negative", ErrInvalidParameters)
	}
	minServers := int(math.Ceil(arrivalRate/serviceRate)) + 1
	for s := minServers; s < minServers+searchWindow; s++ {
		m, err := c.MMC(arrivalRate, serviceRate, s)
		if err != nil {
			continue
		}
		if m.ExpectedWait <= targetWait {
			return s, nil
		}
	}
	return minServers + 10, nil
}

func (c Calculator) checkStability(arrivalRate, serviceRate float64, servers int) error {
	if !positive(arrivalRate) || !positive(serviceRate) || servers <= 0 {
		return fmt.Errorf("%w: arrival rate, service rate and servers must be positive", ErrInvalidParameters)
	}
	u := arrivalRate / (serviceRate * float64(servers))
	if u >= c.threshold {
		return fmt.Errorf("%w: utilization %.3f >= %.2f", ErrUnstableSystem, u, c.threshold)
	}
	return nil
}

// positive reports whether x is a finite value above zero. NaN and infinities
// are rejected.
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0)
}

// erlangC returns the probability that an arrival has to wait. It is derived
// from the Erlang B recursion, which stays within [0,1] at every step and so
// never overflows for large loads or server counts.
func erlangC(rho float64, servers int) float64 {
	b := 1.0
	for k := 1; k <= servers; k++ {
		b = rho * b / (float64(k) + rho*b)
	}
	c := float64(servers)
	p := c * b / (c - rho*(1-b))
	return math.Max(0, math.Min(p, 1))
}
