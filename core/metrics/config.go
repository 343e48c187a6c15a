package metrics

import "github.com/kilianp07/queuecast/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// Location tags every recorded event when the request does not name one.
	Location string `json:"location"`
}
