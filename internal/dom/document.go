// Package dom loads HTML into a read-only tree with a precomputed document
// order.
//
// Input may be gzip or zstd compressed and in any charset chardet can
// identify; everything is decoded to UTF-8 before parsing. A Document is
// never mutated after Load returns, so it can be shared by concurrent
// queries without locking.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// DefaultMaxSize limits HTML input to 10MB
const DefaultMaxSize = 10 * 1024 * 1024

// ErrTooLarge is returned when input exceeds the size limit
var ErrTooLarge = errors.New("html exceeds maximum size")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type options struct {
	maxSize  int64
	sanitize bool
}

// Option configures Load
type Option func(*options)

// WithMaxSize limits the decoded input size. Values below 1 keep the default.
func WithMaxSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

// WithSanitize strips scripts and unsafe markup before parsing. Class and
// id attributes survive so selectors keep working.
func WithSanitize(enabled bool) Option {
	return func(o *options) { o.sanitize = enabled }
}

// Document is a parsed HTML tree
type Document struct {
	gq    *goquery.Document
	root  *html.Node
	order map[*html.Node]int
	size  int64
}

// Parse loads a document from an HTML string
func Parse(src string, opts ...Option) (*Document, error) {
	return Load(strings.NewReader(src), opts...)
}

// Load reads, decompresses, decodes and parses HTML from r
func Load(r io.Reader, opts ...Option) (*Document, error) {
	o := options{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := readLimited(r, o.maxSize)
	if err != nil {
		return nil, err
	}
	if data, err = decompress(data, o.maxSize); err != nil {
		return nil, err
	}
	if data, err = toUTF8(data); err != nil {
		return nil, err
	}
	if o.sanitize {
		data = sanitizer().SanitizeBytes(data)
	}

	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d := newDocument(gq)
	d.size = int64(len(data))
	return d, nil
}

func newDocument(gq *goquery.Document) *Document {
	d := &Document{gq: gq, root: gq.Nodes[0], order: make(map[*html.Node]int)}
	var number func(*html.Node)
	number = func(n *html.Node) {
		d.order[n] = len(d.order)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			number(c)
		}
	}
	number(d.root)
	return d
}

// Size is the number of bytes parsed, after decompression and decoding
func (d *Document) Size() int64 { return d.size }

// Root returns the document node
func (d *Document) Root() *html.Node { return d.root }

// position returns the pre-order position of n, or false when n is not
// part of this document
func (d *Document) position(n *html.Node) (int, bool) {
	i, ok := d.order[n]
	return i, ok
}

// SortNodes orders nodes by document position in place
func (d *Document) SortNodes(nodes []*html.Node) {
	slices.SortStableFunc(nodes, func(a, b *html.Node) int {
		return d.order[a] - d.order[b]
	})
}

// Selection wraps nodes in a goquery selection bound to this document
func (d *Document) Selection(nodes []*html.Node) *goquery.Selection {
	return d.gq.Selection.Slice(0, 0).AddNodes(nodes...)
}

// Descendants calls fn for every element strictly below n, in document order
func Descendants(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		Descendants(c, fn)
	}
}

// Text returns the concatenated text below n, excluding comments
func Text(n *html.Node) string {
	return htmlquery.InnerText(n)
}

// Attr returns the value of the named attribute
func Attr(n *html.Node, name string) (string, bool) {
	if !htmlquery.ExistsAttr(n, name) {
		return "", false
	}
	return htmlquery.SelectAttr(n, name), true
}

// OuterHTML renders n including its own tag
func OuterHTML(n *html.Node) string {
	return htmlquery.OutputHTML(n, true)
}

// DetectCharset returns the lowercase charset name chardet guesses for data
func DetectCharset(data []byte) string {
	detector := chardet.NewHtmlDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

func decompress(data []byte, limit int64) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		return readLimited(zr, limit)
	case bytes.HasPrefix(data, zstdMagic):
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open zstd: %w", err)
		}
		defer zr.Close()
		return readLimited(zr, limit)
	default:
		return data, nil
	}
}

func toUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	r, err := charset.NewReaderLabel(DetectCharset(data), bytes.NewReader(data))
	if err != nil {
		// unknown label, parse the bytes as they are
		return data, nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	return out, nil
}

func sanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class", "id").Globally()
	p.AllowDataAttributes()
	return p
}
