package queueing

import "errors"

var (
	// ErrInvalidParameters is returned for non-positive or out-of-range inputs.
	ErrInvalidParameters = errors.New("invalid queueing parameters")
	// ErrUnstableSystem is returned when utilization reaches the stability threshold.
	ErrUnstableSystem = errors.New("unstable queueing system")
	// ErrInvalidPosition is returned when a position lies beyond the queue.
	ErrInvalidPosition = errors.New("position exceeds queue length")
	// ErrInsufficientData is returned when no valid sample is available.
	ErrInsufficientData = errors.New("insufficient data")
)
