package literal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Value
	}{
		{"list", `[a, b ]`, ListValue("a", "b")},
		{"list quoted items", `["a b", "c,d", e ]`, ListValue("a b", "c,d", "e")},
		{"list single item", `[x ]`, ListValue("x")},
		{"list looks numeric", `[1, 2 ]`, ListValue("1", "2")},
		{"true", "true", BoolValue(true)},
		{"false", "false", BoolValue(false)},
		{"int", "42", IntValue(42)},
		{"negative int", "-7", IntValue(-7)},
		{"float", "2.5", FloatValue(2.5)},
		{"float leading dot", ".5", FloatValue(0.5)},
		{"float trailing dot", "-3.", FloatValue(-3)},
		{"quoted string", `"hello"`, StrValue("hello")},
		{"quoted space", `" "`, StrValue(" ")},
		{"empty string", `""`, StrValue("")},
		{"triple quote is empty", `"""`, StrValue("")},
		{"quoted number stays string", `"42"`, StrValue("42")},
		{"quoted bool stays string", `"true"`, StrValue("true")},
		{"bare string", "abc", StrValue("abc")},
		{"bare dash", "-", StrValue("-")},
		{"escapes", `"a\nb\t\"c\"\\"`, StrValue("a\nb\t\"c\"\\")},
		{"escaped quote only", `"\""`, StrValue(`"`)},
		{"Truthy is string", "True", StrValue("True")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, tt.want.Kind(), got.Kind())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		msg  string
	}{
		{"list without space", `[a, b]`, `must end with " ]"`},
		{"list unclosed", `[a, b`, `must end with " ]"`},
		{"empty list", `[ ]`, "empty list"},
		{"empty list element", `[a,, b ]`, "empty list element"},
		{"unterminated list quote", `["a, b ]`, "unterminated quoting"},
		{"single quote", `"`, "unterminated quoting"},
		{"unterminated", `"abc`, "unterminated quoting"},
		{"escaped close", `"abc\"`, "unterminated quoting"},
		{"int overflow", "99999999999999999999", "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLiteral))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestValueAccessors(t *testing.T) {
	v := StrValue("x")
	s, ok := v.Str()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = v.Int()
	assert.False(t, ok)

	items, ok := ListValue("a", "b").Strings()
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, items)

	items, ok = StrValue("a").Strings()
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, items)

	_, ok = BoolValue(true).Strings()
	assert.False(t, ok)
}

func TestListValueIsImmutable(t *testing.T) {
	src := []string{"a", "b"}
	v := ListValue(src...)
	src[0] = "z"

	items, _ := v.List()
	assert.Equal(t, []string{"a", "b"}, items)

	items[1] = "z"
	again, _ := v.List()
	assert.Equal(t, []string{"a", "b"}, again)
}

func TestValueStringRoundTrip(t *testing.T) {
	values := []Value{
		IntValue(-3),
		FloatValue(2.5),
		FloatValue(3),
		BoolValue(false),
		StrValue(""),
		StrValue(" "),
		StrValue(`say "hi"`),
		StrValue("tab\there"),
		StrValue("42"),
		ListValue("a", "b c"),
	}

	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			got, err := Parse(v.String())
			require.NoError(t, err)
			assert.True(t, v.Equal(got), "want %s, got %s", v, got)
		})
	}
}
