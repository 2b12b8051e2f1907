package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "goshell"
	// ConfigFile is the config file name
	ConfigFile = "config.json"
	// EnvPrefix prefixes every environment override, e.g. GOSHELL_PROMPT.
	EnvPrefix = "GOSHELL_"
)

// keys lists the settings that can be overridden from the environment.
var keys = []string{
	"prompt",
	"history_file",
	"history_limit",
	"double_press_window",
	"refresh_interval",
	"debug",
}

// FileSystem abstracts the process environment for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
	LookupEnv(key string) (string, bool)
}

// OSFileSystem implements FileSystem using the real OS
type OSFileSystem struct{}

func (OSFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFileSystem) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs FileSystem
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader() *Loader {
	return &Loader{fs: OSFileSystem{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing)
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// DefaultPath returns ~/.config/goshell/config.json.
func (l *Loader) DefaultPath() (string, error) {
	homeDir, err := l.fs.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", ConfigDir, ConfigFile), nil
}

// Load builds the configuration from defaults, the config file and the
// environment, in increasing order of precedence.
//
// An empty path means the default location, which may be missing. An
// explicit path must exist.
//
// Durations are written as Go duration strings ("750ms", "1m"); a bare
// number is a count of milliseconds.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	values, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		if v, ok := l.fs.LookupEnv(EnvPrefix + strings.ToUpper(key)); ok {
			values[key] = v
		}
	}

	if err := decode(values, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) readFile(path string) (map[string]any, error) {
	values := make(map[string]any)

	explicit := path != ""
	if !explicit {
		p, err := l.DefaultPath()
		if err != nil {
			return values, nil // no home directory, nothing to read
		}
		path = p
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return values, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return values, nil
}

// decode writes values over cfg. Keys that are absent keep their current
// value; unknown keys are rejected.
func decode(values map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			millisecondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// millisecondsHook converts bare numbers, and strings holding only a
// number, to durations in milliseconds.
func millisecondsHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}

	var ms float64
	switch v := data.(type) {
	case float64:
		ms = v
	case int:
		ms = float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return data, nil // unit suffix, left to time.ParseDuration
		}
		ms = f
	default:
		return data, nil
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// Load is a convenience function using the default loader
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}
