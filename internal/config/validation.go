package config

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid config")

// Validate checks config values for correctness.
func (c *Config) Validate() error {
	var errs []string

	if c.HistoryLimit < 0 {
		errs = append(errs, "history_limit must be >= 0")
	}
	if c.DoublePressWindow <= 0 {
		errs = append(errs, "double_press_window must be > 0")
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, "refresh_interval must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}

	return nil
}
