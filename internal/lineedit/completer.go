package lineedit

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Neev4n/goshell/pkg/completion"
)

// refreshTimeout bounds an on-demand index refresh triggered from a Tab press.
const refreshTimeout = 2 * time.Second

// Completer implements readline.AutoCompleter for command names.
type Completer struct {
	index           *completion.Index
	now             func() time.Time
	refreshInterval time.Duration
	logger          *slog.Logger

	mu          sync.Mutex
	lastRefresh time.Time
}

type CompleterOption func(*Completer)

// WithClock replaces time.Now, the source of Tab press timestamps.
func WithClock(now func() time.Time) CompleterOption {
	return func(c *Completer) {
		c.now = now
	}
}

// WithRefreshInterval sets how old the index must be before a failed lookup
// rescans PATH. Zero disables on-demand refresh.
func WithRefreshInterval(d time.Duration) CompleterOption {
	return func(c *Completer) {
		c.refreshInterval = d
	}
}

func WithLogger(logger *slog.Logger) CompleterOption {
	return func(c *Completer) {
		c.logger = logger
	}
}

// NewCompleter returns a completer over index. The index is assumed to be
// fresh at construction time.
func NewCompleter(index *completion.Index, opts ...CompleterOption) *Completer {
	c := &Completer{
		index: index,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	c.lastRefresh = c.now()
	return c
}

// Do completes the word that ends at the cursor. It returns the text to
// insert after the word, one entry per candidate, and the word length.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	word, partial := currentWord(line[:pos])

	outcome := c.index.Complete(partial, c.now())
	if outcome.Kind == completion.NoMatch && c.refreshIfStale() {
		outcome = c.index.Complete(partial, c.now())
	}
	c.logger.Debug("completion", "partial", partial, "outcome", outcome.Kind)

	candidates := suffixes(outcome, partial)
	if escaped(word, len(word)) {
		// a trailing backslash already escapes the first inserted rune
		for i, candidate := range candidates {
			if len(candidate) > 1 && candidate[0] == '\\' {
				candidates[i] = candidate[1:]
			}
		}
	}
	return candidates, len(word)
}

// currentWord returns the runes after the last unescaped whitespace, and
// the same word with its backslash escapes removed.
func currentWord(line []rune) ([]rune, string) {
	start := 0
	for i := len(line) - 1; i >= 0; i-- {
		if unicode.IsSpace(line[i]) && !escaped(line, i) {
			start = i + 1
			break
		}
	}
	raw := line[start:]

	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' {
			i++
			if i == len(raw) {
				break
			}
		}
		b.WriteRune(raw[i])
	}
	return raw, b.String()
}

// escaped reports whether the rune at i follows an odd run of backslashes.
// i may be len(line).
func escaped(line []rune, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// escapeWord backslash-escapes the runes the tokenizer would otherwise
// treat as separators, quotes or operators.
func escapeWord(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '\\', '\'', '"', '>', '|', '&':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func suffixes(outcome completion.Outcome, partial string) [][]rune {
	switch outcome.Kind {
	case completion.Complete:
		name := strings.TrimSuffix(outcome.Text, " ")
		return [][]rune{[]rune(escapeWord(strings.TrimPrefix(name, partial)) + " ")}
	case completion.ExtendPrefix:
		return [][]rune{[]rune(escapeWord(strings.TrimPrefix(outcome.Text, partial)))}
	case completion.ShowAll:
		out := make([][]rune, 0, len(outcome.Matches))
		for _, match := range outcome.Matches {
			out = append(out, []rune(escapeWord(strings.TrimPrefix(match, partial))))
		}
		return out
	default:
		return nil
	}
}

func (c *Completer) refreshIfStale() bool {
	if c.refreshInterval <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastRefresh) < c.refreshInterval {
		return false
	}
	c.lastRefresh = now

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if err := c.index.Refresh(ctx); err != nil {
		c.logger.Debug("refreshing command index", "error", err)
		return false
	}
	return true
}
