package completion

import "fmt"

type OutcomeKind int

const (
	// NoMatch: no known name starts with the partial word.
	NoMatch OutcomeKind = iota
	// Complete: exactly one match; Text is the name plus a trailing space.
	Complete
	// ExtendPrefix: several matches share a prefix longer than the input.
	ExtendPrefix
	// Ambiguous: several matches and nothing to add; show nothing yet.
	Ambiguous
	// ShowAll: a repeated ambiguous request; Matches lists every candidate.
	ShowAll
)

func (k OutcomeKind) String() string {
	switch k {
	case NoMatch:
		return "NoMatch"
	case Complete:
		return "Complete"
	case ExtendPrefix:
		return "ExtendPrefix"
	case Ambiguous:
		return "Ambiguous"
	case ShowAll:
		return "ShowAll"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the answer to one completion request. Text is set for Complete
// and ExtendPrefix, Matches (sorted) for ShowAll.
type Outcome struct {
	Kind    OutcomeKind
	Text    string
	Matches []string
}
