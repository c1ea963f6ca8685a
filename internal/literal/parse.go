// Package literal parses function arguments into typed values.
package literal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrLiteral is wrapped by every error Parse returns
var ErrLiteral = errors.New("literal error")

// Error describes a malformed argument
type Error struct {
	Raw string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("literal error in %q: %s", e.Raw, e.Msg)
}

func (e *Error) Unwrap() error { return ErrLiteral }

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?(\d+\.\d*|\.\d+)$`)
)

var unescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\t`, "\t", `\r`, "\r")

// Parse converts raw argument text to a Value. Lists come first, then
// booleans, integers and floats; anything else is a string.
func Parse(raw string) (Value, error) {
	switch {
	case strings.HasPrefix(raw, "["):
		return parseList(raw)
	case raw == "true":
		return BoolValue(true), nil
	case raw == "false":
		return BoolValue(false), nil
	case intPattern.MatchString(raw):
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, &Error{Raw: raw, Msg: "integer out of range"}
		}
		return IntValue(n), nil
	case floatPattern.MatchString(raw):
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, &Error{Raw: raw, Msg: "invalid float"}
		}
		return FloatValue(f), nil
	}

	s, err := parseString(raw)
	if err != nil {
		return Value{}, err
	}
	return StrValue(s), nil
}

// parseList handles "[a, b ]". The space before the closing bracket is
// part of the syntax.
func parseList(raw string) (Value, error) {
	if !strings.HasSuffix(raw, " ]") || len(raw) < 3 {
		return Value{}, &Error{Raw: raw, Msg: `list must end with " ]"`}
	}

	body := strings.TrimSpace(raw[1 : len(raw)-2])
	if body == "" {
		return Value{}, &Error{Raw: raw, Msg: "empty list"}
	}

	parts, err := splitList(raw, body)
	if err != nil {
		return Value{}, err
	}

	items := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Value{}, &Error{Raw: raw, Msg: "empty list element"}
		}
		item, err := parseString(part)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
	return ListValue(items...), nil
}

// splitList splits on commas outside quotes
func splitList(raw, body string) ([]string, error) {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	if inQuote {
		return nil, &Error{Raw: raw, Msg: "unterminated quoting in list"}
	}
	return append(parts, body[start:]), nil
}

// parseString strips surrounding quotes and decodes escapes. Runs of
// quotes at either end are stripped entirely, so `"""` is empty.
func parseString(raw string) (string, error) {
	if !strings.HasPrefix(raw, `"`) {
		return unescaper.Replace(raw), nil
	}
	if len(raw) < 2 || !strings.HasSuffix(raw, `"`) || escapedClose(raw) {
		return "", &Error{Raw: raw, Msg: "unterminated quoting"}
	}

	s := raw[1 : len(raw)-1]
	s = strings.TrimLeft(s, `"`)
	for strings.HasSuffix(s, `"`) && !strings.HasSuffix(s, `\"`) {
		s = s[:len(s)-1]
	}
	return unescaper.Replace(s), nil
}

// escapedClose reports whether the final quote of raw is escaped
func escapedClose(raw string) bool {
	n := 0
	for i := len(raw) - 2; i > 0 && raw[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
