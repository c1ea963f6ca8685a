package literal

import (
	"strconv"
	"strings"
)

// Kind is the variant held by a Value
type Kind int

const (
	Int Kind = iota
	Float
	Bool
	Str
	List
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Str:
		return "string"
	case List:
		return "list"
	default:
		return "unknown"
	}
}

// Value is an immutable function argument
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	list []string
}

func IntValue(v int64) Value     { return Value{kind: Int, i: v} }
func FloatValue(v float64) Value { return Value{kind: Float, f: v} }
func BoolValue(v bool) Value     { return Value{kind: Bool, b: v} }
func StrValue(v string) Value    { return Value{kind: Str, s: v} }

// ListValue copies items so the caller keeps ownership of its slice
func ListValue(items ...string) Value {
	return Value{kind: List, list: append([]string(nil), items...)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Int() (int64, bool)     { return v.i, v.kind == Int }
func (v Value) Float() (float64, bool) { return v.f, v.kind == Float }
func (v Value) Bool() (bool, bool)     { return v.b, v.kind == Bool }
func (v Value) Str() (string, bool)    { return v.s, v.kind == Str }

// List returns a copy of the items of a List value
func (v Value) List() ([]string, bool) {
	if v.kind != List {
		return nil, false
	}
	return append([]string(nil), v.list...), true
}

// Strings returns the value as string candidates: one for Str, all items
// for List, and false for every other kind.
func (v Value) Strings() ([]string, bool) {
	switch v.kind {
	case Str:
		return []string{v.s}, true
	case List:
		return v.List()
	default:
		return nil, false
	}
}

// Equal reports whether two values hold the same variant and contents
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f
	case Bool:
		return v.b == o.b
	case Str:
		return v.s == o.s
	default:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	}
}

// String renders the value in argument syntax, so Parse(v.String())
// yields v again for ordinary values.
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		s := strconv.FormatFloat(v.f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case Bool:
		return strconv.FormatBool(v.b)
	case Str:
		return quote(v.s)
	case List:
		items := make([]string, len(v.list))
		for i, item := range v.list {
			items[i] = quote(item)
		}
		return "[" + strings.Join(items, ", ") + " ]"
	default:
		return "<invalid>"
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}
