package hquery

import (
	"errors"

	"github.com/GriffinCanCode/hquery/internal/eval"
	"github.com/GriffinCanCode/hquery/internal/lexer"
	"github.com/GriffinCanCode/hquery/internal/parser"
)

// Sentinels matched with errors.Is. Every error returned while compiling
// or running a query wraps exactly one of them.
var (
	ErrLex   = lexer.ErrLex
	ErrParse = parser.ErrParse
	ErrEval  = eval.ErrEval
)

// Status classifies err for metrics and API responses: "ok", "lex_error",
// "parse_error", "eval_error", or "load_error" for anything else.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrLex):
		return "lex_error"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrEval):
		return "eval_error"
	default:
		return "load_error"
	}
}
