// Package completion answers tab-completion requests over the set of known
// command names.
//
// An Index keeps every name in a prefix tree. Requests only read the tree and
// may run concurrently; Refresh rebuilds it from scratch and swaps it in under
// an exclusive lock. Ambiguous requests are tracked per Index so that a second
// request within the double-press window lists every candidate.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const DefaultDoublePressWindow = 500 * time.Millisecond

// NameSource lists the executable names visible on the search path.
type NameSource interface {
	ListAll(ctx context.Context) (map[string]struct{}, error)
}

type Index struct {
	mu       sync.RWMutex
	root     *node
	builtins []string
	source   NameSource
	window   time.Duration
	logger   *slog.Logger

	pressMu     sync.Mutex
	lastPress   time.Time
	pressedOnce bool
}

type Option func(*Index)

// WithDoublePressWindow sets how close two ambiguous requests must be for
// the second to list all candidates.
func WithDoublePressWindow(d time.Duration) Option {
	return func(ix *Index) {
		if d > 0 {
			ix.window = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// NewIndex returns an Index holding the builtin names. Executables from
// source are added by Refresh; source may be nil.
func NewIndex(builtins []string, source NameSource, opts ...Option) *Index {
	ix := &Index{
		builtins: append([]string(nil), builtins...),
		source:   source,
		window:   DefaultDoublePressWindow,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(ix)
	}

	ix.root = newNode()
	for _, name := range ix.builtins {
		ix.root.insert(name)
	}
	return ix
}

// Insert adds one name. It is kept until the next Refresh.
func (ix *Index) Insert(name string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.root.insert(name)
}

// Refresh discards the tree and rebuilds it from the builtins and the names
// currently listed by the source. On error the previous tree is kept.
func (ix *Index) Refresh(ctx context.Context) error {
	root := newNode()
	for _, name := range ix.builtins {
		root.insert(name)
	}

	if ix.source != nil {
		names, err := ix.source.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("listing commands: %w", err)
		}
		for name := range names {
			root.insert(name)
		}
	}

	ix.mu.Lock()
	ix.root = root
	ix.mu.Unlock()

	ix.logger.Debug("completion index refreshed", "names", ix.Len())
	return nil
}

// Names returns every retrievable name, sorted.
func (ix *Index) Names() []string {
	ix.mu.RLock()
	names := ix.root.collect(nil)
	ix.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.root.collect(nil))
}

// Complete answers what partial should expand to at time now.
//
// One match completes it with a trailing space. Several matches extend it
// to their longest common prefix when that is longer than partial. When
// there is nothing to add the result is Ambiguous, unless the previous
// ambiguous request was less than the double-press window ago, in which
// case every match is returned as ShowAll.
func (ix *Index) Complete(partial string, now time.Time) Outcome {
	ix.mu.RLock()
	matches := ix.root.withPrefix(partial)
	ix.mu.RUnlock()

	switch len(matches) {
	case 0:
		return Outcome{Kind: NoMatch}
	case 1:
		return Outcome{Kind: Complete, Text: matches[0] + " "}
	}

	sort.Strings(matches)
	common := commonPrefix(matches)
	if len(common) > len(partial) {
		return Outcome{Kind: ExtendPrefix, Text: common}
	}

	if ix.pressedAgain(now) {
		return Outcome{Kind: ShowAll, Matches: matches}
	}
	return Outcome{Kind: Ambiguous}
}

// pressedAgain records now as the latest ambiguous request and reports
// whether the one before it falls inside the window.
func (ix *Index) pressedAgain(now time.Time) bool {
	ix.pressMu.Lock()
	defer ix.pressMu.Unlock()

	last, seen := ix.lastPress, ix.pressedOnce
	ix.lastPress, ix.pressedOnce = now, true

	if !seen {
		return false
	}
	elapsed := now.Sub(last)
	return elapsed >= 0 && elapsed < ix.window
}

// commonPrefix shrinks the first of the sorted names one rune at a time
// until every name starts with it.
func commonPrefix(sorted []string) string {
	common := sorted[0]
	for _, name := range sorted[1:] {
		for !strings.HasPrefix(name, common) {
			_, size := utf8.DecodeLastRuneInString(common)
			common = common[:len(common)-size]
		}
	}
	return common
}
