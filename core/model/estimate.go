package model

import "time"

// Basis tells which code path produced a wait estimate.
type Basis string

const (
	// BasisQueueing means the queueing-theory position formula was used.
	BasisQueueing Basis = "queueing"
	// BasisDirect means the calculator rejected the input and the naive
	// (position-1)/servers*service_time estimate was used instead.
	BasisDirect Basis = "direct"
	// BasisColdStart means the category default service time was used.
	BasisColdStart Basis = "cold_start"
)

// WaitRange bounds an estimate in minutes.
type WaitRange struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// WaitEstimate is the answer to "how long will position k wait".
type WaitEstimate struct {
	Position        int       `json:"position"`
	ExpectedMinutes float64   `json:"expected_minutes"`
	Confidence      float64   `json:"confidence"`
	Range           WaitRange `json:"range"`
	Advisory        string    `json:"advisory"`
	Basis           Basis     `json:"basis"`
	Timestamp       time.Time `json:"timestamp"`
}
