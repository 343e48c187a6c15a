package prediction

import (
	"errors"
	"fmt"
)

var (
	// ErrPredictionFailed wraps every failure returned by Predict.
	ErrPredictionFailed = errors.New("prediction failed")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("insufficient historical data")
)

func failed(err error) error {
	return fmt.Errorf("%w: %w", ErrPredictionFailed, err)
}

func invalid(format string, args ...any) error {
	return failed(fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...)))
}
