package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/hquery"
)

// ErrQueryFile is returned for query files that cannot be used
var ErrQueryFile = errors.New("invalid query file")

// NamedQuery pairs a query with the name its results are reported under
type NamedQuery struct {
	Name string
	Text string
}

// Queries is an ordered set of named queries
type Queries []NamedQuery

// Single wraps one unnamed query
func Single(text string) Queries {
	return Queries{{Text: text}}
}

// FromMap orders m by name
func FromMap(m map[string]string) Queries {
	out := make(Queries, 0, len(m))
	for name, text := range m {
		out = append(out, NamedQuery{Name: name, Text: text})
	}
	slices.SortFunc(out, func(a, b NamedQuery) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// LoadQueries reads a TOML or YAML file of name = query pairs. The format
// follows the file extension.
func LoadQueries(path string) (Queries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	return ParseQueries(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseQueries decodes a query file in the given format ("toml", "yaml"
// or "yml") and checks that every query compiles.
func ParseQueries(data []byte, format string) (Queries, error) {
	m := make(map[string]string)
	switch strings.ToLower(format) {
	case "toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFile, err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFile, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrQueryFile, format)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: no queries", ErrQueryFile)
	}

	qs := FromMap(m)
	for _, q := range qs {
		if _, err := hquery.Compile(q.Text); err != nil {
			return nil, fmt.Errorf("query %q: %w", q.Name, err)
		}
	}
	return qs, nil
}
