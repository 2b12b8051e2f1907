package shell

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrHomeNotSet is returned when a ~ path needs $HOME and it is unset.
var ErrHomeNotSet = errors.New("HOME not set")

// ExpandHome resolves "~" and "~/..." using getenv("HOME"). Other paths,
// including "~user", are returned unchanged.
func ExpandHome(path string, getenv func(string) string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home := getenv("HOME")
	if home == "" {
		return "", fmt.Errorf("expanding %s: %w", path, ErrHomeNotSet)
	}

	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
