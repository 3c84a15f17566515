package config

import (
	"fmt"
	"slices"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// LogConfig sets the minimum level of the service's JSON log. An empty level means info;
// debug also adds source locations to every record.
type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) String() string {
	return fmt.Sprintf("\n--- Log ---\n  level: %s\n", c.Level)
}

func (c *LogConfig) Validate() error {
	if c.Level == "" || slices.Contains(logLevels, c.Level) {
		return nil
	}
	return fmt.Errorf("unknown log level %q, expected one of %v", c.Level, logLevels)
}
