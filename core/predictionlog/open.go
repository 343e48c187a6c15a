package predictionlog

import "fmt"

// Config selects and sizes the prediction log backend.
type Config struct {
	// Backend is one of "jsonl", "rotating", "sqlite" or "memory".
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	// ReplayHours bounds how far back records are replayed on startup.
	// Zero disables replay.
	ReplayHours int `json:"replay_hours"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "predictions.db"
		default:
			c.Path = "predictions.log"
		}
	}
	if c.Backend == "rotating" && c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 50
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "rotating", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown prediction log backend %q", c.Backend)
	}
	if c.Backend != "memory" && c.Path == "" {
		return fmt.Errorf("prediction log path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 || c.ReplayHours < 0 {
		return fmt.Errorf("prediction log sizes must not be negative")
	}
	return nil
}

// Open builds the configured store.
func Open(c Config) (LogStore, error) {
	switch c.Backend {
	case "jsonl":
		return NewJSONLStore(c.Path)
	case "rotating":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown prediction log backend %q", c.Backend)
	}
}
