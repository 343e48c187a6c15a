package model

import (
	"strings"
	"time"
)

// Weather carries the current weather condition, e.g. "sunny" or "rainy".
type Weather struct {
	Condition string `json:"condition"`
}

// PredictionContext holds the circumstances a prediction is made in. It drives
// the multiplicative adjustments and is never mutated by the predictors.
type PredictionContext struct {
	Now         time.Time `json:"now"`
	Weather     *Weather  `json:"weather,omitempty"`
	IsHoliday   bool      `json:"is_holiday"`
	LocalEvents []string  `json:"local_events,omitempty"`
	ExtraFlags  []string  `json:"extra_flags,omitempty"`
}

// WeatherCondition returns the lower-cased condition or "" when unknown.
func (c PredictionContext) WeatherCondition() string {
	if c.Weather == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.Weather.Condition))
}

// IsWeekend reports whether Now falls on a Saturday or Sunday.
func (c PredictionContext) IsWeekend() bool {
	d := c.Now.Weekday()
	return d == time.Saturday || d == time.Sunday
}
