package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/Neev4n/goshell/internal/config"
	"github.com/Neev4n/goshell/internal/lineedit"
	"github.com/Neev4n/goshell/pkg/completion"
	"github.com/Neev4n/goshell/pkg/pathsearch"
	"github.com/Neev4n/goshell/pkg/shell"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	command     string
	configPath  string
	historyFile string
	debug       bool
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: goshell [options]\n\n")
		fmt.Fprintf(os.Stderr, "goshell is a small interactive shell with command completion.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  goshell                       # interactive session\n")
		fmt.Fprintf(os.Stderr, "  goshell -c 'echo hi > out'    # run one line and exit\n")
		fmt.Fprintf(os.Stderr, "  goshell < script.txt          # read lines from stdin\n")
	}

	var opts options
	pflag.StringVarP(&opts.command, "command", "c", "", "Run a single command line and exit")
	pflag.StringVar(&opts.configPath, "config", "", "Config file (default ~/.config/goshell/config.json)")
	pflag.StringVar(&opts.historyFile, "history-file", "", "History file, overrides the config")
	pflag.BoolVar(&opts.debug, "debug", false, "Log debug messages to stderr")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("goshell version %s\n", version)
		return
	}

	if err := run(opts); err != nil {
		var status shell.ExitStatus
		if errors.As(err, &status) {
			os.Exit(int(status))
		}
		fmt.Fprintln(os.Stderr, "goshell:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if pflag.Lookup("history-file").Changed {
		cfg.HistoryFile = opts.historyFile
	}

	level := slog.LevelWarn
	if opts.debug || cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Ctrl-C stops the foreground program, not the session.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			logger.Debug("interrupt")
		}
	}()

	ctx := context.Background()

	searchPath := pathsearch.FromEnv(pathsearch.WithLogger(logger))

	if pflag.Lookup("command").Changed {
		sh := shell.New(nil, os.Stdout, os.Stderr,
			shell.WithStdin(os.Stdin),
			shell.WithPathResolver(searchPath),
			shell.WithLogger(logger),
		)
		if err := sh.RunLine(ctx, opts.command); err != nil {
			return err
		}
		if status := sh.LastStatus(); status != 0 {
			return shell.ExitStatus(status)
		}
		return nil
	}

	reader, err := newLineReader(ctx, cfg, searchPath, logger)
	if err != nil {
		return err
	}
	defer reader.Close()

	sh := shell.New(reader, os.Stdout, os.Stderr,
		shell.WithStdin(os.Stdin),
		shell.WithPathResolver(searchPath),
		shell.WithLogger(logger),
	)
	return sh.Run(ctx)
}

// newLineReader returns the terminal editor with completion when stdin is
// a terminal, and a plain prompt reader otherwise.
func newLineReader(ctx context.Context, cfg *config.Config, searchPath *pathsearch.SearchPath, logger *slog.Logger) (shell.LineReader, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return shell.NewPromptReader(os.Stdin, os.Stdout, cfg.Prompt), nil
	}

	index := completion.NewIndex(shell.BuiltinNames(), searchPath,
		completion.WithDoublePressWindow(cfg.DoublePressWindow),
		completion.WithLogger(logger),
	)
	if err := index.Refresh(ctx); err != nil {
		logger.Warn("building command index", "error", err)
	}

	historyFile := cfg.HistoryFile
	if historyFile != "" {
		expanded, err := shell.ExpandHome(historyFile, os.Getenv)
		if err != nil {
			logger.Warn("history disabled", "error", err)
			expanded = ""
		}
		historyFile = expanded
	}

	return lineedit.New(lineedit.Config{
		Prompt:       cfg.Prompt,
		HistoryFile:  historyFile,
		HistoryLimit: cfg.HistoryLimit,
		AutoComplete: lineedit.NewCompleter(index,
			lineedit.WithRefreshInterval(cfg.RefreshInterval),
			lineedit.WithLogger(logger),
		),
		Logger: logger,
	})
}
