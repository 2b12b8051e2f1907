package shell

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

type Parser interface {
	Parse(line string) ParsedCommand
}

// Redirect is a file target for one output stream.
type Redirect struct {
	Path   string
	Append bool
}

// ParsedCommand is the structured form of one input line. Command is empty
// only when the line had no words; callers treat that as a no-op.
type ParsedCommand struct {
	Command        string
	Args           []string
	OutputRedirect *Redirect
	ErrorRedirect  *Redirect
}

func (c ParsedCommand) IsEmpty() bool {
	return c.Command == ""
}

// Redirections lists the redirects in the order the dispatcher applies them.
func (c ParsedCommand) Redirections() []RedirectionSpec {
	var specs []RedirectionSpec
	if c.OutputRedirect != nil {
		specs = append(specs, RedirectionSpec{Stream: StreamStdout, Target: c.OutputRedirect.Path, Append: c.OutputRedirect.Append})
	}
	if c.ErrorRedirect != nil {
		specs = append(specs, RedirectionSpec{Stream: StreamStderr, Target: c.ErrorRedirect.Path, Append: c.ErrorRedirect.Append})
	}
	return specs
}

// String renders c as a canonical line that parses back to c.
func (c ParsedCommand) String() string {
	if c.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(c.Args)+5)
	parts = append(parts, quoteWord(c.Command))
	for _, arg := range c.Args {
		parts = append(parts, quoteWord(arg))
	}
	if r := c.OutputRedirect; r != nil {
		parts = append(parts, OutputRedirectToken(r.Append).String(), quoteWord(r.Path))
	}
	if r := c.ErrorRedirect; r != nil {
		parts = append(parts, ErrorRedirectToken(r.Append).String(), quoteWord(r.Path))
	}
	return strings.Join(parts, " ")
}

// quoteWord quotes s so that the tokenizer reads it back as one word. The
// double-quoted form chosen by syntax.Quote for words holding a single quote
// escapes $ and `, which this tokenizer keeps literally, so those words (and
// ones POSIX quoting rejects) use the '\'' form instead.
func quoteWord(s string) string {
	if !strings.ContainsRune(s, '\'') {
		if quoted, err := syntax.Quote(s, syntax.LangPOSIX); err == nil {
			return quoted
		}
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Assemble builds a ParsedCommand from tokens. A redirect operator takes the
// word right after it as its target; without one it is dropped. Later
// redirects of the same stream replace earlier ones. Pipe and background
// tokens are ignored.
func Assemble(tokens []Token) ParsedCommand {
	cmd := ParsedCommand{Args: []string{}}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		switch token.Kind {
		case TokenWord:
			if cmd.Command == "" {
				cmd.Command = token.Text
			} else {
				cmd.Args = append(cmd.Args, token.Text)
			}

		case TokenOutputRedirect, TokenErrorRedirect:
			if i+1 >= len(tokens) || tokens[i+1].Kind != TokenWord {
				continue
			}
			i++
			redirect := &Redirect{Path: tokens[i].Text, Append: token.Append}
			if token.Kind == TokenOutputRedirect {
				cmd.OutputRedirect = redirect
			} else {
				cmd.ErrorRedirect = redirect
			}

		case TokenPipe, TokenBackground:
		}
	}

	return cmd
}

type DefaultParser struct {
	tokenizer Tokenizer
}

func NewDefaultParser() *DefaultParser {
	return &DefaultParser{tokenizer: NewDefaultTokenizer()}
}

func NewParserWithTokenizer(tokenizer Tokenizer) *DefaultParser {
	return &DefaultParser{tokenizer: tokenizer}
}

func (p *DefaultParser) Parse(line string) ParsedCommand {
	return Assemble(p.tokenizer.Tokenize(line))
}

// Parse tokenizes and assembles line with the default tokenizer.
func Parse(line string) ParsedCommand {
	return NewDefaultParser().Parse(line)
}
