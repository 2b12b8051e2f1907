package shell

import (
	"context"
)

type Executor interface {
	Execute(ctx context.Context, name string, args []string, io IOBindings) (int, error)
}

// LineReader is the line-editing service: read a line, remember it.
// ReadLine returns io.EOF when the session input ends.
type LineReader interface {
	ReadLine() (string, error)
	AddHistory(line string) error
	Close() error
}

// PathResolver finds executables on the command search path.
type PathResolver interface {
	Lookup(name string) (string, bool)
}
