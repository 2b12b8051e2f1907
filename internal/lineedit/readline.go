// Package lineedit connects the interactive terminal editor to the shell
// session and the completion index.
package lineedit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/chzyer/readline"
)

// Config describes the editor session.
type Config struct {
	Prompt       string
	HistoryFile  string // "" keeps history in memory only
	HistoryLimit int    // 0 disables history
	AutoComplete readline.AutoCompleter
	Logger       *slog.Logger
}

// instance is the subset of *readline.Instance the adapter drives.
type instance interface {
	Readline() (string, error)
	SaveHistory(content string) error
	Close() error
}

// Readline implements shell.LineReader on top of github.com/chzyer/readline.
type Readline struct {
	rl     instance
	logger *slog.Logger
}

// New opens the terminal editor.
func New(cfg Config) (*Readline, error) {
	limit := cfg.HistoryLimit
	if limit == 0 {
		limit = -1
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 cfg.Prompt,
		HistoryFile:            cfg.HistoryFile,
		HistoryLimit:           limit,
		DisableAutoSaveHistory: true,
		AutoComplete:           cfg.AutoComplete,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("initializing line editor: %w", err)
	}

	return newReadline(rl, cfg.Logger), nil
}

func newReadline(rl instance, logger *slog.Logger) *Readline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Readline{rl: rl, logger: logger}
}

// ReadLine returns the next line. Ctrl-C abandons the current line and
// prompts again; Ctrl-D on an empty line returns io.EOF.
func (r *Readline) ReadLine() (string, error) {
	for {
		line, err := r.rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			r.logger.Debug("line discarded", "line", line)
			continue
		case errors.Is(err, io.EOF):
			return "", io.EOF
		case err != nil:
			return "", err
		}
		return line, nil
	}
}

// AddHistory appends line to the in-memory history and the history file.
func (r *Readline) AddHistory(line string) error {
	return r.rl.SaveHistory(line)
}

func (r *Readline) Close() error {
	return r.rl.Close()
}
