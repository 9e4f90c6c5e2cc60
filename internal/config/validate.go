package config

import (
	"fmt"
	"strings"
)

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks configuration values that cannot be repaired by normalization.
func (c *Config) Validate() error {
	var problems []string

	if c.Output.Width%2 != 0 || c.Output.Height%2 != 0 {
		problems = append(problems, fmt.Sprintf("output dimensions must be even, got %dx%d", c.Output.Width, c.Output.Height))
	}
	if c.Output.MinClipSeconds > 10 {
		problems = append(problems, fmt.Sprintf("output.min_clip_seconds %.2f is unreasonably large", c.Output.MinClipSeconds))
	}
	if c.Render.ProgressFloor >= c.Render.ProgressCeiling {
		problems = append(problems, fmt.Sprintf("render.progress_floor %.0f must be below render.progress_ceiling %.0f",
			c.Render.ProgressFloor, c.Render.ProgressCeiling))
	}
	if c.Render.ProgressCeiling > 100 {
		problems = append(problems, fmt.Sprintf("render.progress_ceiling %.0f exceeds 100", c.Render.ProgressCeiling))
	}
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
