// Package lexer turns query text into a token stream.
//
// The lexer is lazy: Next produces one token at a time and always ends
// with EOF. After a function name (the word following '@') it switches to
// argument mode, in which every ',' is followed by one raw Literal token
// holding the argument text verbatim. Argument text is interpreted by the
// literal package, not here.
package lexer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrLex is wrapped by every error the lexer returns
var ErrLex = errors.New("lex error")

// Error is a lexical error at a position in the query text
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Msg)
}

func (e *Error) Unwrap() error { return ErrLex }

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?(\d+\.\d*|\.\d+)$`)
)

// argDelims end a bare or quoted function argument
const argDelims = " \t\r\n,)@|&^>"

// Lexer scans a query string
type Lexer struct {
	src  string
	pos  int
	line int
	col  int

	prev    Kind
	fnArgs  bool // directly after a function name or one of its arguments
	wantArg bool // the next token is a raw argument
}

// New creates a lexer over text
func New(text string) *Lexer {
	return &Lexer{src: text, line: 1, col: 1, prev: EOF}
}

// Tokenize scans the whole text. The returned slice always ends with EOF.
func Tokenize(text string) ([]Token, error) {
	l := New(text)
	tokens := make([]Token, 0, len(text)/3+1)
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// Next returns the next token
func (l *Lexer) Next() (Token, error) {
	if l.wantArg {
		l.wantArg = false
		return l.scanArg()
	}

	space := l.skipSpace()
	start := l.mark()
	if l.pos >= len(l.src) {
		return l.emit(Token{Kind: EOF, Pos: start, SpaceBefore: space})
	}

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	if r != ',' {
		l.fnArgs = false
	}

	switch {
	case r == '"':
		text, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		return l.emit(Token{Kind: String, Text: text, Pos: start, SpaceBefore: space})

	case isWordRune(r):
		end := l.pos
		for end < len(l.src) {
			wr, n := utf8.DecodeRuneInString(l.src[end:])
			if !isWordRune(wr) {
				break
			}
			end += n
		}
		word := l.src[l.pos:end]
		l.advance(end)
		return l.emit(Token{Kind: classify(word), Text: word, Pos: start, SpaceBefore: space})
	}

	if kind, ok := punct[r]; ok {
		l.advance(l.pos + size)
		return l.emit(Token{Kind: kind, Text: string(r), Pos: start, SpaceBefore: space})
	}

	if r == utf8.RuneError && size == 1 {
		return Token{}, &Error{Pos: start, Msg: "invalid UTF-8 encoding"}
	}
	return Token{}, &Error{Pos: start, Msg: fmt.Sprintf("invalid character %q", r)}
}

func (l *Lexer) emit(tok Token) (Token, error) {
	switch {
	case (tok.Kind == Word || tok.Kind == Keyword) && l.prev == At:
		l.fnArgs = true
	case tok.Kind == Comma && l.fnArgs:
		l.wantArg = true
	}
	l.prev = tok.Kind
	return tok, nil
}

func classify(word string) Kind {
	switch {
	case keywords[word]:
		return Keyword
	case word == "true" || word == "false":
		return Bool
	case intPattern.MatchString(word):
		return Int
	case floatPattern.MatchString(word):
		return Float
	default:
		return Word
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '-'
}

func (l *Lexer) mark() Pos {
	return Pos{Offset: l.pos, Line: l.line, Column: l.col}
}

// advance moves to byte offset end, keeping line and column current
func (l *Lexer) advance(end int) {
	for l.pos < end {
		r, n := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += n
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
}

func (l *Lexer) skipSpace() bool {
	skipped := false
	for l.pos < len(l.src) {
		r, n := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.advance(l.pos + n)
		skipped = true
	}
	return skipped
}

// scanString reads a double-quoted string starting at the current position
// and returns its decoded value
func (l *Lexer) scanString() (string, error) {
	start := l.mark()
	l.advance(l.pos + 1)

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.advance(l.pos + 1)
			return sb.String(), nil
		case '\\':
			escPos := l.mark()
			if l.pos+1 >= len(l.src) {
				return "", &Error{Pos: start, Msg: "unterminated string"}
			}
			switch esc := l.src[l.pos+1]; esc {
			case '"', '\\':
				sb.WriteByte(esc)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'u':
				if l.pos+6 > len(l.src) {
					return "", &Error{Pos: escPos, Msg: "incomplete unicode escape"}
				}
				code, err := strconv.ParseUint(l.src[l.pos+2:l.pos+6], 16, 32)
				if err != nil {
					return "", &Error{Pos: escPos, Msg: fmt.Sprintf("invalid unicode escape \\u%s", l.src[l.pos+2:l.pos+6])}
				}
				sb.WriteRune(rune(code))
				l.advance(l.pos + 6)
				continue
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			l.advance(l.pos + 2)
		default:
			sb.WriteByte(c)
			l.pos++
			if c == '\n' {
				l.line++
				l.col = 1
			} else if c < utf8.RuneSelf || utf8.RuneStart(c) {
				l.col++
			}
		}
	}
	return "", &Error{Pos: start, Msg: "unterminated string"}
}

// scanArg reads one raw function argument: a bracketed list, a quoted
// chunk closed by a quote that is followed by a delimiter, or a bare chunk.
func (l *Lexer) scanArg() (Token, error) {
	space := l.skipSpace()
	start := l.mark()
	if l.pos >= len(l.src) {
		return Token{}, &Error{Pos: start, Msg: "missing function argument"}
	}

	end := -1
	switch l.src[l.pos] {
	case '[':
		inQuote := false
		for i := l.pos + 1; i < len(l.src); i++ {
			switch l.src[i] {
			case '\\':
				i++
			case '"':
				inQuote = !inQuote
			case ']':
				if !inQuote {
					end = i + 1
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			return Token{}, &Error{Pos: start, Msg: "unterminated list argument"}
		}
	case '"':
		for i := l.pos + 1; i < len(l.src); i++ {
			if l.src[i] == '\\' {
				i++
				continue
			}
			if l.src[i] == '"' && l.isArgEnd(i+1) {
				end = i + 1
				break
			}
		}
		if end < 0 {
			return Token{}, &Error{Pos: start, Msg: "unterminated string argument"}
		}
	default:
		end = l.pos
		for !l.isArgEnd(end) {
			end++
		}
	}

	text := l.src[l.pos:end]
	if text == "" {
		return Token{}, &Error{Pos: start, Msg: "missing function argument"}
	}
	l.advance(end)
	return l.emit(Token{Kind: Literal, Text: text, Pos: start, SpaceBefore: space})
}

func (l *Lexer) isArgEnd(i int) bool {
	return i >= len(l.src) || strings.IndexByte(argDelims, l.src[i]) >= 0
}
