package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Neev4n/goshell/pkg/pathsearch"
)

// ExitStatus ends a session with the given status code.
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// type Shell
type Shell struct {
	reader   LineReader
	In       io.Reader
	Out      io.Writer
	Err      io.Writer
	dir      string
	getenv   func(string) string
	resolver PathResolver
	executor Executor
	parser   Parser
	opener   FileOpener
	handlers []RedirectionHandler
	logger   *slog.Logger

	history    []string
	lastStatus int
}

type Option func(*Shell)

func WithStdin(in io.Reader) Option {
	return func(s *Shell) { s.In = in }
}

func WithDir(dir string) Option {
	return func(s *Shell) { s.dir = dir }
}

func WithGetenv(getenv func(string) string) Option {
	return func(s *Shell) { s.getenv = getenv }
}

func WithPathResolver(resolver PathResolver) Option {
	return func(s *Shell) { s.resolver = resolver }
}

func WithExecutor(executor Executor) Option {
	return func(s *Shell) { s.executor = executor }
}

func WithParser(parser Parser) Option {
	return func(s *Shell) { s.parser = parser }
}

func WithFileOpener(opener FileOpener) Option {
	return func(s *Shell) { s.opener = opener }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// func New
func New(reader LineReader, out, errw io.Writer, opts ...Option) *Shell {
	s := &Shell{
		reader:   reader,
		Out:      out,
		Err:      errw,
		getenv:   os.Getenv,
		parser:   NewDefaultParser(),
		opener:   &DefaultFileOpener{},
		handlers: DefaultRedirectionHandlers(),
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.dir == "" {
		if dir, err := os.Getwd(); err == nil {
			s.dir = dir
		}
	}
	if s.resolver == nil {
		s.resolver = pathsearch.New(s.getenv("PATH"))
	}
	if s.executor == nil {
		s.executor = &DefaultExecutor{LookupFunc: s.Lookup}
	}

	return s
}

// func Run

// Run reads and executes lines until the input ends or exit is called.
// A non-zero exit code is returned as an ExitStatus.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := s.reader.ReadLine()

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.remember(line)

		if err := s.RunLine(ctx, line); err != nil {
			var status ExitStatus
			if errors.As(err, &status) {
				if status == 0 {
					return nil
				}
				return status
			}

			fmt.Fprintln(s.Err, "goshell:", err)
		}
	}
}

func (s *Shell) RunLine(ctx context.Context, line string) error {
	return s.Execute(ctx, s.parser.Parse(line))
}

// Execute dispatches cmd to a builtin or an external program with its
// redirections applied. Only exit and unexpected failures are returned;
// user-facing problems are reported on the command's stderr.
func (s *Shell) Execute(ctx context.Context, cmd ParsedCommand) error {
	if cmd.IsEmpty() {
		return nil
	}

	ioBinding := IOBindings{
		Stdin:  s.In,
		Stdout: s.Out,
		Stderr: s.Err,
		Dir:    s.dir,
	}

	cleanup, err := applyRedirections(cmd.Redirections(), s.handlers, &ioBinding, s.opener)
	if err != nil {
		s.logger.Debug("redirection failed", "command", cmd.Command, "err", err)
		fmt.Fprintln(s.Err, "goshell:", err)
		s.lastStatus = 1
		return nil
	}
	defer cleanup()

	// check built ins
	if kind, ok := LookupBuiltin(cmd.Command); ok {
		return s.runBuiltin(kind, cmd.Args, ioBinding)
	}

	exitCode, err := s.executor.Execute(ctx, cmd.Command, cmd.Args, ioBinding)

	if errors.Is(err, ErrNotFound) {
		fmt.Fprintln(ioBinding.Stderr, cmd.Command+": command not found")
		s.lastStatus = 127
		return nil
	}

	if err != nil {
		fmt.Fprintln(ioBinding.Stderr, "error running command:", err)
		s.lastStatus = 1
		return nil
	}

	s.lastStatus = exitCode
	return nil
}

// func Lookup

// Lookup resolves name to an executable path. A relative name with a path
// separator, such as ./run.sh, is taken relative to the session directory.
func (s *Shell) Lookup(name string) (string, bool) {
	if strings.ContainsRune(name, filepath.Separator) && !filepath.IsAbs(name) {
		name = filepath.Join(s.dir, name)
	}
	return s.resolver.Lookup(name)
}

func (s *Shell) Dir() string {
	return s.dir
}

func (s *Shell) History() []string {
	return append([]string(nil), s.history...)
}

func (s *Shell) LastStatus() int {
	return s.lastStatus
}

func (s *Shell) remember(line string) {
	s.history = append(s.history, line)
	if err := s.reader.AddHistory(line); err != nil {
		s.logger.Debug("saving history failed", "err", err)
	}
}

// PromptReader is the plain LineReader used when input is not a terminal:
// it prints the prompt and reads up to the next newline.
type PromptReader struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

func NewPromptReader(reader io.Reader, out io.Writer, prompt string) *PromptReader {
	return &PromptReader{
		in:     bufio.NewReader(reader),
		out:    out,
		prompt: prompt,
	}
}

func (p *PromptReader) ReadLine() (string, error) {
	fmt.Fprint(p.out, p.prompt)

	line, err := p.in.ReadString('\n')
	if err != nil {
		// a last line without a newline still counts
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (p *PromptReader) AddHistory(string) error {
	return nil
}

func (p *PromptReader) Close() error {
	return nil
}
