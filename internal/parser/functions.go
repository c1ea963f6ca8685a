package parser

import "strconv"

// Arity bounds the argument count of a function. Max < 0 means unbounded.
type Arity struct {
	Min int
	Max int
}

func (a Arity) accepts(n int) bool {
	return n >= a.Min && (a.Max < 0 || n <= a.Max)
}

func (a Arity) String() string {
	switch {
	case a.Max < 0:
		return "at least " + strconv.Itoa(a.Min)
	case a.Min == a.Max:
		return "exactly " + strconv.Itoa(a.Min)
	default:
		return strconv.Itoa(a.Min) + " to " + strconv.Itoa(a.Max)
	}
}

// Function names understood by the evaluator
const (
	FnTrim       = "trim"
	FnLowercase  = "lowercase"
	FnUppercase  = "uppercase"
	FnReplace    = "replace"
	FnFormat     = "format"
	FnJoin       = "join"
	FnContains   = "contains"
	FnStartsWith = "starts_with"
	FnEndsWith   = "ends_with"
	FnIn         = "in"
)

// Functions maps each known function to its arity
var Functions = map[string]Arity{
	FnTrim:       {0, 0},
	FnLowercase:  {0, 0},
	FnUppercase:  {0, 0},
	FnReplace:    {2, 2},
	FnFormat:     {1, 1},
	FnJoin:       {0, 1},
	FnContains:   {1, 1},
	FnStartsWith: {1, 1},
	FnEndsWith:   {1, 1},
	FnIn:         {1, -1},
}
