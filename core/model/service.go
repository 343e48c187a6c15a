package model

import (
	"fmt"
	"math"
	"time"
)

// Category identifies the kind of service location. It selects default
// service times and default arrival patterns when no history is available.
type Category string

const (
	CategoryFastFood     Category = "fast_food"
	CategoryCasualDining Category = "casual_dining"
	CategoryFineDining   Category = "fine_dining"
)

// QueueSnapshot is an instantaneous observation of a queue.
type QueueSnapshot struct {
	QueueLength    int       `json:"queue_length"`
	AvgServiceTime float64   `json:"avg_service_time"` // minutes
	ActiveServers  int       `json:"active_servers"`
	Timestamp      time.Time `json:"timestamp"`
}

// Validate checks the snapshot field constraints.
func (q QueueSnapshot) Validate() error {
	if q.QueueLength < 0 {
		return fmt.Errorf("queue length must be >= 0, got %d", q.QueueLength)
	}
	if !(q.AvgServiceTime > 0) || math.IsInf(q.AvgServiceTime, 0) {
		return fmt.Errorf("average service time must be positive and finite, got %g", q.AvgServiceTime)
	}
	if q.ActiveServers < 1 {
		return fmt.Errorf("active servers must be >= 1, got %d", q.ActiveServers)
	}
	return nil
}

// OperatingHours is the daily [Open, Close) window in whole hours.
type OperatingHours struct {
	Open  int `json:"open"`
	Close int `json:"close"`
}

// ServiceConfig describes the location a prediction is made for.
type ServiceConfig struct {
	Category       Category       `json:"category"`
	MaxCapacity    int            `json:"max_capacity"`
	TableCount     int            `json:"table_count"`
	OperatingHours OperatingHours `json:"operating_hours"`
	PeakHours      []int          `json:"peak_hours"`
}

// Validate checks capacity, operating hours and peak hours.
func (c ServiceConfig) Validate() error {
	if c.MaxCapacity <= 0 {
		return fmt.Errorf("max capacity must be positive")
	}
	if c.TableCount <= 0 {
		return fmt.Errorf("table count must be positive")
	}
	oh := c.OperatingHours
	if oh.Open < 0 || oh.Open >= oh.Close || oh.Close > 24 {
		return fmt.Errorf("invalid operating hours %d-%d", oh.Open, oh.Close)
	}
	for _, h := range c.PeakHours {
		if h < 0 || h >= 24 {
			return fmt.Errorf("peak hour %d out of range", h)
		}
	}
	return nil
}

// IsPeakHour reports whether hour is one of the configured peak hours.
func (c ServiceConfig) IsPeakHour(hour int) bool {
	for _, h := range c.PeakHours {
		if h == hour {
			return true
		}
	}
	return false
}
