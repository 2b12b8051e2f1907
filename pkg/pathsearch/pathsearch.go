// Package pathsearch finds commands on a search path such as $PATH.
package pathsearch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SearchPath is an ordered list of directories searched for commands.
type SearchPath struct {
	dirs   []string
	logger *slog.Logger
}

type Option func(*SearchPath)

func WithLogger(logger *slog.Logger) Option {
	return func(p *SearchPath) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New splits pathList on the OS list separator. Empty entries are dropped.
func New(pathList string, opts ...Option) *SearchPath {
	p := &SearchPath{logger: slog.New(slog.DiscardHandler)}
	for _, dir := range filepath.SplitList(pathList) {
		if dir != "" {
			p.dirs = append(p.dirs, dir)
		}
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromEnv builds a SearchPath from $PATH.
func FromEnv(opts ...Option) *SearchPath {
	return New(os.Getenv("PATH"), opts...)
}

func (p *SearchPath) Dirs() []string {
	return append([]string(nil), p.dirs...)
}

// Lookup returns the first regular executable file called name. A name with
// a path separator is checked as given instead of being searched.
func (p *SearchPath) Lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	if strings.ContainsRune(name, filepath.Separator) {
		if isExecutable(name) {
			return name, true
		}
		return "", false
	}

	for _, dir := range p.dirs {
		pathToCheck := filepath.Join(dir, name)
		if isExecutable(pathToCheck) {
			return pathToCheck, true
		}
	}

	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}

// ListAll returns the name of every entry in every search directory.
// Directories that cannot be read contribute nothing; only context
// cancellation is reported as an error.
func (p *SearchPath) ListAll(ctx context.Context) (map[string]struct{}, error) {
	var (
		mu    sync.Mutex
		names = make(map[string]struct{})
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, dir := range p.dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				p.logger.Debug("skipping search directory", "dir", dir, "err", err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, entry := range entries {
				names[entry.Name()] = struct{}{}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return names, nil
}
