package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrMissingRedirectDestination = errors.New("missing redirect destination")

type FileOpener interface {
	OpenWrite(name string, flag int, perm os.FileMode) (io.WriteCloser, error)
}

// Default file opener uses real file system in device
type DefaultFileOpener struct{}

func (fp *DefaultFileOpener) OpenWrite(name string, flag int, perm os.FileMode) (io.WriteCloser, error) {
	return os.OpenFile(name, flag, perm)
}

type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
)

func (s Stream) String() string {
	if s == StreamStderr {
		return "stderr"
	}
	return "stdout"
}

type RedirectionSpec struct {
	Stream Stream
	Target string // target path
	Append bool
}

// handles each type of redirection
type RedirectionHandler interface {
	CanHandle(redirection RedirectionSpec) bool                                                               // check for stream
	Validate(redirection RedirectionSpec) error                                                               // check if this redirection is possible
	Apply(redirection RedirectionSpec, ioBindings *IOBindings, opener FileOpener) (cleanup func(), err error) // apply redirection to bindings
}

// FileRedirectionHandler sends one stream to a file, truncating or appending.
type FileRedirectionHandler struct {
	Stream Stream
}

func DefaultRedirectionHandlers() []RedirectionHandler {
	return []RedirectionHandler{
		&FileRedirectionHandler{Stream: StreamStdout},
		&FileRedirectionHandler{Stream: StreamStderr},
	}
}

func (handler *FileRedirectionHandler) CanHandle(redirection RedirectionSpec) bool {
	return redirection.Stream == handler.Stream
}

func (handler *FileRedirectionHandler) Validate(redirection RedirectionSpec) error {
	if redirection.Target == "" {
		return ErrMissingRedirectDestination
	}

	return nil
}

func (handler *FileRedirectionHandler) Apply(redirection RedirectionSpec, ioBindings *IOBindings, opener FileOpener) (cleanup func(), err error) {

	flag := os.O_CREATE | os.O_WRONLY

	if redirection.Append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	target := redirection.Target
	if !filepath.IsAbs(target) && ioBindings.Dir != "" {
		target = filepath.Join(ioBindings.Dir, target)
	}

	file, err := opener.OpenWrite(target, flag, 0644)

	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", redirection.Target, err)
	}

	switch handler.Stream {
	case StreamStdout:
		ioBindings.Stdout = file
	case StreamStderr:
		ioBindings.Stderr = file
	}

	return func() { file.Close() }, nil

}

// applyRedirections binds every redirection through the first handler that accepts
// it. On failure the files opened so far are closed again.
func applyRedirections(specs []RedirectionSpec, handlers []RedirectionHandler, ioBindings *IOBindings, opener FileOpener) (cleanup func(), err error) {
	var cleanups []func()
	cleanup = func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	for _, spec := range specs {
		var handler RedirectionHandler
		for _, h := range handlers {
			if h.CanHandle(spec) {
				handler = h
				break
			}
		}
		if handler == nil {
			cleanup()
			return nil, fmt.Errorf("no handler for %s redirection", spec.Stream)
		}

		if err := handler.Validate(spec); err != nil {
			cleanup()
			return nil, err
		}

		done, err := handler.Apply(spec, ioBindings, opener)
		if err != nil {
			cleanup()
			return nil, err
		}
		cleanups = append(cleanups, done)
	}

	return cleanup, nil
}
