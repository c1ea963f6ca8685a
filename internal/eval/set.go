package eval

import "github.com/GriffinCanCode/hquery/internal/parser"

// combine applies a set operator. Nodes compare by identity and strings by
// value. Union keeps the first occurrence of each item, the other
// operators keep the left operand's order.
func combine[T comparable](op parser.SetOp, left, right []T) []T {
	switch op {
	case parser.Union:
		seen := make(map[T]struct{}, len(left)+len(right))
		out := make([]T, 0, len(left)+len(right))
		for _, side := range [][]T{left, right} {
			for _, item := range side {
				if _, dup := seen[item]; dup {
					continue
				}
				seen[item] = struct{}{}
				out = append(out, item)
			}
		}
		return out
	case parser.Intersect:
		in := toSet(right)
		var out []T
		for _, item := range left {
			if _, ok := in[item]; ok {
				out = append(out, item)
			}
		}
		return out
	default:
		in := toSet(right)
		var out []T
		for _, item := range left {
			if _, ok := in[item]; !ok {
				out = append(out, item)
			}
		}
		return out
	}
}

func toSet[T comparable](items []T) map[T]struct{} {
	set := make(map[T]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
