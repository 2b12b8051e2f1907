package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

var ErrNotFound = errors.New("not found")

type IOBindings struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Dir    string // working directory for the command
}

type DefaultExecutor struct {
	LookupFunc func(name string) (string, bool)
}

func (e *DefaultExecutor) Execute(ctx context.Context, name string, args []string, io IOBindings) (int, error) {

	path, ok := e.LookupFunc(name)

	if !ok {
		return -1, ErrNotFound
	}

	externalCmd := exec.CommandContext(ctx, path, args...)
	externalCmd.Args = append([]string{name}, args...)
	externalCmd.Dir = io.Dir
	externalCmd.Stdin = io.Stdin
	externalCmd.Stdout = io.Stdout
	externalCmd.Stderr = io.Stderr

	if err := externalCmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}

		return -1, fmt.Errorf("running %s: %w", name, err)
	}

	return 0, nil

}
