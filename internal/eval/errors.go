package eval

import (
	"errors"
	"fmt"
)

// ErrEval is wrapped by every error the evaluator returns
var ErrEval = errors.New("evaluation error")

// ErrorKind classifies an evaluation error
type ErrorKind int

const (
	KindRegex ErrorKind = iota
	KindArgumentType
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindRegex:
		return "regex"
	case KindArgumentType:
		return "argument type"
	default:
		return "internal"
	}
}

// Error is an evaluation failure
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluation error (%s): %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("evaluation error (%s): %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrEval, e.Err}
	}
	return []error{ErrEval}
}
