package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	validLogLevels     = []string{"trace", "debug", "info", "warn", "error"}
	validOutputFormats = []string{"table", "json", "yaml"}
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if !contains(validLogLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q must be one of: %s",
			c.Log.Level, strings.Join(validLogLevels, ", ")))
	}
	if !contains(validOutputFormats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format %q must be one of: %s",
			c.Output.Format, strings.Join(validOutputFormats, ", ")))
	}
	if c.Output.Suffix == "" {
		errs = append(errs, errors.New("output.suffix must not be empty"))
	}
	if c.Load.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("load.max_size must be positive, got %d", c.Load.MaxSize))
	}
	if c.Save.Retries < 1 {
		errs = append(errs, fmt.Errorf("save.retries must be at least 1, got %d", c.Save.Retries))
	}
	if c.Save.Backoff < 0 {
		errs = append(errs, fmt.Errorf("save.backoff must not be negative, got %s", c.Save.Backoff))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
