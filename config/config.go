// Package config loads the service configuration from a YAML or JSON file
// with QC_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/queuecast/core/metrics"
	"github.com/kilianp07/queuecast/core/predictionlog"
	"github.com/kilianp07/queuecast/infra/monitoring"
	"github.com/kilianp07/queuecast/infra/mqtt"
)

// EnvPrefix prefixes every environment override. QC_SERVER__ADDRESS sets
// server.address.
const EnvPrefix = "QC_"

type Config struct {
	Server     ServerConfig            `json:"server"`
	Prediction PredictionConfig        `json:"prediction"`
	Metrics    metrics.Config          `json:"metrics"`
	Logging    predictionlog.Config    `json:"logging"`
	MQTT       mqtt.Config             `json:"mqtt"`
	Sentry     monitoring.SentryConfig `json:"sentry"`
}

// Load reads path, applies environment overrides, defaults and validation.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps QC_PREDICTION__SERVICE__MAX_CAPACITY to prediction.service.max_capacity.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Prediction.SetDefaults()
	c.Logging.SetDefaults()
	if c.Metrics.Location == "" {
		c.Metrics.Location = c.Prediction.Location
	}
	if c.MQTT.Enabled && c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "queuecast-" + c.Prediction.Location
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Prediction.Validate(); err != nil {
		return fmt.Errorf("prediction: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required when enabled")
	}
	return nil
}
