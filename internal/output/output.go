// Package output renders query results for the command line tools.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Format names an encoding
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ErrFormat is returned for an unknown format name
var ErrFormat = errors.New("unknown output format")

// ParseFormat resolves a format name, case-insensitively
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case Text, JSON, YAML, TOML:
		return f, nil
	case "yml":
		return YAML, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, name)
	}
}

// Record holds the results of running one or more queries on one source
type Record struct {
	Source  string  `json:"source" yaml:"source" toml:"source"`
	Error   string  `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	Queries []Entry `json:"queries" yaml:"queries" toml:"queries"`
}

// Entry is the outcome of one named query. Name is empty when a single
// ad hoc query was run.
type Entry struct {
	Name  string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Kind  string   `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Items []string `json:"items" yaml:"items" toml:"items"`
	Error string   `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

// Write encodes records to w
func Write(w io.Writer, f Format, records []Record) error {
	records = normalize(records)
	switch f {
	case Text:
		return writeText(w, records)
	case JSON:
		data, err := sonic.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case YAML:
		data, err := yaml.Marshal(records)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case TOML:
		// TOML needs a table at the top level
		doc := struct {
			Documents []Record `toml:"document"`
		}{records}
		data, err := toml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrFormat, string(f))
	}
}

// normalize gives every entry a non-nil item list so empty results encode
// as [] rather than null
func normalize(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.Queries = append([]Entry(nil), r.Queries...)
		for j := range r.Queries {
			if r.Queries[j].Items == nil {
				r.Queries[j].Items = []string{}
			}
		}
		out[i] = r
	}
	return out
}

// writeText prints one item per line. Headers are added only when there
// is more than one source or query to tell apart.
func writeText(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	multiSource := len(records) > 1
	for _, r := range records {
		if multiSource {
			fmt.Fprintf(bw, "==> %s <==\n", r.Source)
		}
		if r.Error != "" {
			fmt.Fprintf(bw, "error: %s\n", r.Error)
			continue
		}
		for _, e := range r.Queries {
			if e.Name != "" {
				fmt.Fprintf(bw, "# %s\n", e.Name)
			}
			if e.Error != "" {
				fmt.Fprintf(bw, "error: %s\n", e.Error)
				continue
			}
			for _, item := range e.Items {
				fmt.Fprintln(bw, item)
			}
		}
	}
	return bw.Flush()
}
