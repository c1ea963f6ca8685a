package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the lexical class of a token
type Kind int

const (
	EOF Kind = iota
	Word
	String
	Int
	Float
	Bool
	Keyword
	Literal // raw function argument, parsed later by the literal package
	Gt
	Pipe
	Amp
	Caret
	Tilde
	At
	Hash
	Colon
	Comma
	LBracket
	RBracket
	LParen
	RParen
)

var kindNames = map[Kind]string{
	EOF:      "EOF",
	Word:     "word",
	String:   "string",
	Int:      "integer",
	Float:    "float",
	Bool:     "boolean",
	Keyword:  "keyword",
	Literal:  "argument",
	Gt:       "'>'",
	Pipe:     "'|'",
	Amp:      "'&'",
	Caret:    "'^'",
	Tilde:    "'~'",
	At:       "'@'",
	Hash:     "'#'",
	Colon:    "':'",
	Comma:    "','",
	LBracket: "'['",
	RBracket: "']'",
	LParen:   "'('",
	RParen:   "')'",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Keywords of the query language
const (
	KwClass = "class"
	KwID    = "id"
	KwTag   = "tag"
	KwAttr  = "attr"
	KwText  = "text"
	KwHref  = "href"
	KwSrc   = "src"
)

var keywords = map[string]bool{
	KwClass: true,
	KwID:    true,
	KwTag:   true,
	KwAttr:  true,
	KwText:  true,
	KwHref:  true,
	KwSrc:   true,
}

// IsKeyword reports whether word is reserved
func IsKeyword(word string) bool {
	return keywords[word]
}

var punct = map[rune]Kind{
	'>': Gt,
	'|': Pipe,
	'&': Amp,
	'^': Caret,
	'~': Tilde,
	'@': At,
	'#': Hash,
	':': Colon,
	',': Comma,
	'[': LBracket,
	']': RBracket,
	'(': LParen,
	')': RParen,
}

// Pos is a location in the query text. Offset is a 0-based byte offset,
// Line and Column are 1-based.
type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token is a single lexical unit. Text holds the decoded value for strings
// and the source spelling for everything else.
type Token struct {
	Kind        Kind
	Text        string
	Pos         Pos
	SpaceBefore bool
}

// Is reports whether the token is the given keyword
func (t Token) Is(keyword string) bool {
	return t.Kind == Keyword && t.Text == keyword
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "EOF"
	case String:
		return strconv.Quote(t.Text)
	case Word, Int, Float, Bool, Keyword, Literal:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

// Quote renders s as a string token that scans back to s
func Quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}
