package parser

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/hquery/internal/lexer"
)

// ErrParse is wrapped by every error the parser returns
var ErrParse = errors.New("parse error")

// ErrorKind classifies a parse error
type ErrorKind int

const (
	KindUnexpectedToken ErrorKind = iota
	KindMissingOperand
	KindUnknownFunction
	KindBadArity
	KindBadIndex
	KindLiteral
	KindTextNotLast
	KindMixedResults
	KindNestingTooDeep
)

var kindNames = [...]string{
	KindUnexpectedToken: "unexpected token",
	KindMissingOperand:  "missing operand",
	KindUnknownFunction: "unknown function",
	KindBadArity:        "bad arity",
	KindBadIndex:        "bad index",
	KindLiteral:         "bad literal",
	KindTextNotLast:     "text not last",
	KindMixedResults:    "mixed results",
	KindNestingTooDeep:  "nesting too deep",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Error is a parse failure at a token position
type Error struct {
	Kind ErrorKind
	Pos  lexer.Pos
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Msg)
}

// Unwrap exposes ErrParse plus the literal error behind KindLiteral
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}

func errorf(kind ErrorKind, pos lexer.Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
