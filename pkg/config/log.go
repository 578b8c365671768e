package config

import (
	"fmt"
	"strings"
)

var validLevels = []string{"", "debug", "info", "warn", "error"}

type LogConfig struct {
	Level string `koanf:"level"`
}

// String returns a string representation of the log configuration.
func (c *LogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Log ---\n")
	b.WriteString(fmt.Sprintf("  level: %s\n", c.Level))
	return b.String()
}

func (c *LogConfig) Validate() error {
	for _, l := range validLevels {
		if strings.EqualFold(c.Level, l) {
			return nil
		}
	}
	return fmt.Errorf("unknown log level: %q", c.Level)
}
