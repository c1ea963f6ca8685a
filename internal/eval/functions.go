package eval

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hquery/internal/parser"
)

// applyChain runs the function chain left to right. join collapses the
// sequence and ends the chain.
func (e *evaluator) applyChain(chain []parser.FunctionCall, texts []string) ([]string, error) {
	for i, fn := range chain {
		if fn.Name == parser.FnJoin {
			sep := ""
			if len(fn.Args) == 1 {
				s, err := strArg(fn, 0)
				if err != nil {
					return nil, err
				}
				sep = s
			}
			if skipped := len(chain) - i - 1; skipped > 0 {
				e.log.Debug("join ends the function chain", zap.Int("skipped", skipped))
			}
			return []string{strings.Join(texts, sep)}, nil
		}

		var err error
		if texts, err = apply(fn, texts); err != nil {
			return nil, err
		}
	}
	return texts, nil
}

func apply(fn parser.FunctionCall, texts []string) ([]string, error) {
	switch fn.Name {
	case parser.FnTrim:
		return mapTexts(texts, strings.TrimSpace), nil
	case parser.FnLowercase:
		return mapTexts(texts, strings.ToLower), nil
	case parser.FnUppercase:
		return mapTexts(texts, strings.ToUpper), nil

	case parser.FnReplace:
		search, err := stringsArg(fn, 0)
		if err != nil {
			return nil, err
		}
		repl, err := strArg(fn, 1)
		if err != nil {
			return nil, err
		}
		pairs := make([]string, 0, 2*len(search))
		for _, s := range search {
			if s != "" {
				pairs = append(pairs, s, repl)
			}
		}
		if len(pairs) == 0 {
			return texts, nil
		}
		r := strings.NewReplacer(pairs...)
		return mapTexts(texts, r.Replace), nil

	case parser.FnFormat:
		pattern, err := strArg(fn, 0)
		if err != nil {
			return nil, err
		}
		return mapTexts(texts, func(s string) string { return format(pattern, s) }), nil

	case parser.FnContains:
		return filterAny(fn, texts, strings.Contains)
	case parser.FnStartsWith:
		return filterAny(fn, texts, strings.HasPrefix)
	case parser.FnEndsWith:
		return filterAny(fn, texts, strings.HasSuffix)

	case parser.FnIn:
		allowed := make(map[string]struct{})
		for i := range fn.Args {
			items, err := stringsArg(fn, i)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				allowed[item] = struct{}{}
			}
		}
		out := make([]string, 0, len(texts))
		for _, s := range texts {
			if _, ok := allowed[s]; ok {
				out = append(out, s)
			}
		}
		return out, nil

	default:
		return nil, &Error{Kind: KindInternal, Msg: fmt.Sprintf("no implementation for @%s", fn.Name)}
	}
}

// format renders s through pattern. "{}" is replaced once; the printf
// verbs %s, %d, %i, %f, %x and %X reformat numeric text and leave
// non-numeric text alone; any other pattern is a prefix.
func format(pattern, s string) string {
	if strings.Contains(pattern, "{}") {
		return strings.Replace(pattern, "{}", s, 1)
	}

	switch pattern {
	case "%s":
		return s
	case "%d", "%i":
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
		return s
	case "%f":
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return s
	case "%x", "%X":
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return s
		}
		if pattern == "%X" {
			return strings.ToUpper(strconv.FormatInt(n, 16))
		}
		return strconv.FormatInt(n, 16)
	default:
		return pattern + s
	}
}

func filterAny(fn parser.FunctionCall, texts []string, pred func(s, sub string) bool) ([]string, error) {
	needles, err := stringsArg(fn, 0)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(texts))
	for _, s := range texts {
		for _, needle := range needles {
			if pred(s, needle) {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func mapTexts(texts []string, f func(string) string) []string {
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = f(s)
	}
	return out
}

func strArg(fn parser.FunctionCall, i int) (string, error) {
	s, ok := fn.Args[i].Str()
	if !ok {
		return "", argTypeError(fn, i, "a string")
	}
	return s, nil
}

func stringsArg(fn parser.FunctionCall, i int) ([]string, error) {
	items, ok := fn.Args[i].Strings()
	if !ok {
		return nil, argTypeError(fn, i, "a string or a list")
	}
	return items, nil
}

func argTypeError(fn parser.FunctionCall, i int, want string) *Error {
	return &Error{
		Kind: KindArgumentType,
		Msg: fmt.Sprintf("@%s argument %d at %s must be %s, got %s %s",
			fn.Name, i+1, fn.At, want, fn.Args[i].Kind(), fn.Args[i]),
	}
}
