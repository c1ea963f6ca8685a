// Package batch runs named queries over many documents: files found under
// a directory, or any set of paths given on the command line.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultGlob matches every file below the root
const DefaultGlob = "**/*"

// documentTypes are the MIME types Discover accepts. Compressed files are
// accepted because the loader decompresses them.
var documentTypes = []string{
	"text/html",
	"application/xhtml+xml",
	"application/gzip",
	"application/zstd",
}

// Discover walks root and returns, sorted, every regular file whose path
// relative to root matches pattern and whose content sniffs as HTML or a
// compressed stream.
func Discover(ctx context.Context, root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultGlob
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, doublestar.ErrBadPattern)
	}

	var (
		mu      sync.Mutex
		matches []string
	)
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); !ok {
			return nil
		}
		if !isDocument(p) {
			return nil
		}

		mu.Lock()
		matches = append(matches, p)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	slices.Sort(matches)
	return matches, nil
}

func isDocument(path string) bool {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	for _, t := range documentTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}
