package eval

import (
	"slices"

	"github.com/GriffinCanCode/hquery/internal/parser"
)

// applyIndex narrows items by ix. Out-of-range positions are dropped
// rather than reported.
func applyIndex[T any](items []T, ix *parser.IndexSpec) []T {
	if ix == nil {
		return items
	}
	n := len(items)

	switch ix.Kind {
	case parser.Single:
		if ix.Lo < n {
			return []T{items[ix.Lo]}
		}
		return nil
	case parser.Range:
		if ix.Lo > ix.Hi || ix.Lo >= n {
			return nil
		}
		return slices.Clone(items[ix.Lo : min(ix.Hi, n-1)+1])
	case parser.RangeStep:
		var out []T
		hi := min(ix.Hi, n-1)
		for i := ix.Lo; i <= hi; i += ix.Step {
			out = append(out, items[i])
			// stop before i+Step can overflow
			if ix.Step > hi-i {
				break
			}
		}
		return out
	default:
		out := make([]T, 0, len(ix.List))
		for _, i := range ix.List {
			if i < n {
				out = append(out, items[i])
			}
		}
		return out
	}
}
