package config

import "time"

// Config holds the interactive session settings.
// Defaults are set in DefaultConfig() and can be overridden via the config
// file, then via GOSHELL_* environment variables.
type Config struct {
	Prompt       string `mapstructure:"prompt"`
	HistoryFile  string `mapstructure:"history_file"`  // Default: ~/.goshell_history, "" disables persistence
	HistoryLimit int    `mapstructure:"history_limit"` // Default: 1000

	// Completion
	DoublePressWindow time.Duration `mapstructure:"double_press_window"` // Default: 500ms
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`    // Default: 30s, 0 disables on-demand refresh

	Debug bool `mapstructure:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Prompt:            "$ ",
		HistoryFile:       "~/.goshell_history",
		HistoryLimit:      1000,
		DoublePressWindow: 500 * time.Millisecond,
		RefreshInterval:   30 * time.Second,
	}
}
