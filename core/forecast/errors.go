package forecast

import "errors"

var (
	ErrInsufficientData  = errors.New("insufficient data")
	ErrNotFitted         = errors.New("model not fitted")
	ErrInvalidSteps      = errors.New("steps must be positive")
	ErrInvalidOrder      = errors.New("invalid model order")
	ErrFit               = errors.New("model fit failed")
	ErrLengthMismatch    = errors.New("actual and predicted lengths differ")
	ErrEmptyInput        = errors.New("empty input")
	ErrInvalidParameters = errors.New("invalid parameters")
)
