package config

import (
	"fmt"

	"github.com/kilianp07/queuecast/core/model"
	"github.com/kilianp07/queuecast/core/queueing"
)

// PredictionConfig tunes the predictors and describes the default location.
type PredictionConfig struct {
	// Location names this deployment in metrics, logs and MQTT topics.
	Location string `json:"location"`
	// StabilityThreshold is the utilization above which a queue is unstable.
	StabilityThreshold float64 `json:"stability_threshold"`
	DisableJitter      bool    `json:"disable_jitter"`
	// Seed makes traffic jitter reproducible. Zero seeds from the clock.
	Seed             uint64              `json:"seed"`
	Autoregression   bool                `json:"autoregression"`
	WaitColdStart    int                 `json:"wait_cold_start"`
	TrafficColdStart int                 `json:"traffic_cold_start"`
	Service          model.ServiceConfig `json:"service"`
}

func (c *PredictionConfig) SetDefaults() {
	if c.Location == "" {
		c.Location = "default"
	}
	if c.StabilityThreshold <= 0 {
		c.StabilityThreshold = queueing.DefaultStabilityThreshold
	}
	if c.WaitColdStart <= 0 {
		c.WaitColdStart = 3
	}
	if c.TrafficColdStart <= 0 {
		c.TrafficColdStart = 5
	}
	s := &c.Service
	if s.Category == "" {
		s.Category = model.CategoryFastFood
	}
	if s.MaxCapacity <= 0 {
		s.MaxCapacity = 50
	}
	if s.TableCount <= 0 {
		s.TableCount = 10
	}
	if s.OperatingHours == (model.OperatingHours{}) {
		s.OperatingHours = model.OperatingHours{Open: 8, Close: 22}
	}
	if s.PeakHours == nil {
		s.PeakHours = []int{12, 18}
	}
}

func (c PredictionConfig) Validate() error {
	if c.StabilityThreshold > 1 {
		return fmt.Errorf("stability_threshold must be in (0, 1], got %g", c.StabilityThreshold)
	}
	if err := c.Service.Validate(); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return nil
}
