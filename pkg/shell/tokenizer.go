package shell

import (
	"io"
	"strings"
)

type TokenKind int

const (
	TokenWord TokenKind = iota
	TokenOutputRedirect
	TokenErrorRedirect
	TokenPipe
	TokenBackground
)

// Token is one lexical unit of a command line. Text is only set for words,
// Append only for the two redirect kinds.
type Token struct {
	Kind   TokenKind
	Text   string
	Append bool
}

func WordToken(text string) Token {
	return Token{Kind: TokenWord, Text: text}
}

func OutputRedirectToken(appendMode bool) Token {
	return Token{Kind: TokenOutputRedirect, Append: appendMode}
}

func ErrorRedirectToken(appendMode bool) Token {
	return Token{Kind: TokenErrorRedirect, Append: appendMode}
}

func (t Token) String() string {
	switch t.Kind {
	case TokenWord:
		return t.Text
	case TokenOutputRedirect:
		if t.Append {
			return ">>"
		}
		return ">"
	case TokenErrorRedirect:
		if t.Append {
			return "2>>"
		}
		return "2>"
	case TokenPipe:
		return "|"
	case TokenBackground:
		return "&"
	}
	return "?"
}

type Tokenizer interface {
	Tokenize(line string) []Token
}

type DefaultTokenizer struct {
	newScanner func(string) io.RuneScanner
	newBuilder func() *strings.Builder
}

func NewDefaultTokenizer() *DefaultTokenizer {
	return &DefaultTokenizer{
		newScanner: func(s string) io.RuneScanner {
			return strings.NewReader(s)
		},
		newBuilder: func() *strings.Builder {
			return &strings.Builder{}
		},
	}
}

type parseState int

const (
	stateOutside parseState = iota
	stateSingleQuote
	stateDoubleQuote
)

type tokenBuffer struct {
	builder *strings.Builder
	// started is set once a word has begun, even if only an empty quote pair
	// has been read so far.
	started bool
}

func newTokenBuffer(builder *strings.Builder) *tokenBuffer {
	return &tokenBuffer{builder: builder}
}

func (tokenBuffer *tokenBuffer) isEmpty() bool {
	return tokenBuffer.builder.Len() == 0
}

func (tokenBuffer *tokenBuffer) appendRune(r rune) {
	tokenBuffer.started = true
	tokenBuffer.builder.WriteRune(r)
}

func (tokenBuffer *tokenBuffer) flushIfNotEmpty(tokens []Token) []Token {
	if !tokenBuffer.isEmpty() {
		tokens = append(tokens, WordToken(tokenBuffer.builder.String()))
		tokenBuffer.builder.Reset()
	}
	tokenBuffer.started = false

	return tokens
}

type lexer struct {
	src        io.RuneScanner
	buf        *tokenBuffer
	state      parseState
	isEscaping bool
	tokens     []Token
}

// peekIs consumes the next rune only if it equals want.
func (l *lexer) peekIs(want rune) bool {
	ch, _, err := l.src.ReadRune()
	if err != nil {
		return false
	}
	if ch == want {
		return true
	}
	_ = l.src.UnreadRune()
	return false
}

func (l *lexer) emitRedirect(kind TokenKind) {
	l.tokens = l.buf.flushIfNotEmpty(l.tokens)
	l.tokens = append(l.tokens, Token{Kind: kind, Append: l.peekIs('>')})
}

func (l *lexer) emit(kind TokenKind) {
	l.tokens = l.buf.flushIfNotEmpty(l.tokens)
	l.tokens = append(l.tokens, Token{Kind: kind})
}

func handleStateOutside(l *lexer, ch rune) {
	if l.isEscaping {
		l.buf.appendRune(ch)
		l.isEscaping = false
		return
	}

	switch ch {
	case ' ', '\t':
		l.tokens = l.buf.flushIfNotEmpty(l.tokens)
	case '\'':
		l.buf.started = true
		l.state = stateSingleQuote
	case '"':
		l.buf.started = true
		l.state = stateDoubleQuote
	case '\\':
		l.buf.started = true
		l.isEscaping = true
	case '>':
		l.emitRedirect(TokenOutputRedirect)
	case '|':
		l.emit(TokenPipe)
	case '&':
		l.emit(TokenBackground)
	case '1', '2':
		// fd prefixes only count where a new word would begin
		if !l.buf.started && l.peekIs('>') {
			if ch == '1' {
				l.emitRedirect(TokenOutputRedirect)
			} else {
				l.emitRedirect(TokenErrorRedirect)
			}
			return
		}
		l.buf.appendRune(ch)
	default:
		l.buf.appendRune(ch)
	}
}

func handleStateSingleQuote(l *lexer, ch rune) {
	if ch == '\'' {
		l.state = stateOutside
		return
	}
	l.buf.appendRune(ch)
}

func handleStateDoubleQuote(l *lexer, ch rune) {
	if l.isEscaping {
		if ch != '\\' && ch != '"' {
			l.buf.appendRune('\\')
		}
		l.buf.appendRune(ch)
		l.isEscaping = false
		return
	}

	switch ch {
	case '"':
		l.state = stateOutside
	case '\\':
		l.isEscaping = true
	default:
		l.buf.appendRune(ch)
	}
}

// Tokenize splits line into words and operators. It never fails: an
// unterminated quote keeps the text read so far as a word, and a trailing
// backslash is dropped outside quotes and kept inside double quotes.
func (t *DefaultTokenizer) Tokenize(line string) []Token {
	l := &lexer{
		src:    t.newScanner(line),
		buf:    newTokenBuffer(t.newBuilder()),
		state:  stateOutside,
		tokens: []Token{},
	}

	for {
		ch, _, err := l.src.ReadRune()
		if err != nil {
			break
		}

		switch l.state {
		case stateOutside:
			handleStateOutside(l, ch)
		case stateSingleQuote:
			handleStateSingleQuote(l, ch)
		case stateDoubleQuote:
			handleStateDoubleQuote(l, ch)
		}
	}

	if l.isEscaping && l.state == stateDoubleQuote {
		l.buf.appendRune('\\')
	}

	return l.buf.flushIfNotEmpty(l.tokens)
}

// Tokenize runs the default tokenizer over line.
func Tokenize(line string) []Token {
	return NewDefaultTokenizer().Tokenize(line)
}
