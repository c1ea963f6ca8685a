// Package hquery runs queries written in a small selector language against
// HTML documents.
//
// A query chains selectors with '>', combines results with the set
// operators '|', '&' and '^', and may end in an extraction with a
// function chain:
//
//	q, err := hquery.New(page)
//	res, err := q.Query(`class nav > tag a > #"href" @starts_with,"https"`)
//	for _, link := range res.Texts() { ... }
//
// A Query is safe for concurrent use.
package hquery

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/hquery/internal/dom"
	"github.com/GriffinCanCode/hquery/internal/eval"
	"github.com/GriffinCanCode/hquery/internal/parser"
)

// Query is a parsed document ready to be queried
type Query struct {
	doc   *dom.Document
	opts  options
	cache sync.Map // query text -> *Expr
}

// New parses html
func New(html string, opts ...Option) (*Query, error) {
	return load(strings.NewReader(html), "string", opts)
}

// NewFromReader parses HTML read from r. Gzip and zstd streams are
// decompressed and non-UTF-8 input is decoded first.
func NewFromReader(r io.Reader, opts ...Option) (*Query, error) {
	return load(r, "reader", opts)
}

func load(r io.Reader, source string, opts []Option) (*Query, error) {
	o := buildOptions(opts)
	doc, err := dom.Load(r, dom.WithMaxSize(o.maxSize), dom.WithSanitize(o.sanitize))
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	o.recorder.RecordDocument(source, doc.Size())
	o.log.Debug("document loaded", zap.String("source", source), zap.Int64("bytes", doc.Size()))
	return &Query{doc: doc, opts: o}, nil
}

// Expr is a compiled query. It is immutable and can be evaluated against
// any number of documents.
type Expr struct {
	ast *parser.AST
}

// Compile parses text into an Expr. Only WithMaxDepth affects compilation.
func Compile(text string, opts ...Option) (*Expr, error) {
	o := buildOptions(opts)
	return compile(text, o.maxDepth)
}

// MustCompile is like Compile but panics on error
func MustCompile(text string, opts ...Option) *Expr {
	e, err := Compile(text, opts...)
	if err != nil {
		panic(fmt.Sprintf("hquery: Compile(%q): %v", text, err))
	}
	return e
}

func compile(text string, maxDepth int) (*Expr, error) {
	ast, err := parser.ParseString(text, parser.WithMaxDepth(maxDepth))
	if err != nil {
		return nil, err
	}
	return &Expr{ast: ast}, nil
}

// String returns the canonical form of the query
func (e *Expr) String() string { return e.ast.Root.String() }

// Source returns the text the expression was compiled from
func (e *Expr) Source() string { return e.ast.Source }

// YieldsText reports whether the expression produces strings rather than
// nodes
func (e *Expr) YieldsText() bool { return e.ast.Root.Yield() == parser.Texts }

// Query compiles text, using the per-document cache, and evaluates it
func (q *Query) Query(text string) (*Result, error) {
	start := time.Now()
	e, err := q.compileCached(text)
	if err != nil {
		q.record(start, err, nil)
		return nil, err
	}
	return q.eval(e, []*html.Node{q.doc.Root()}, start)
}

// Eval runs a compiled expression against the document
func (q *Query) Eval(e *Expr) (*Result, error) {
	return q.eval(e, []*html.Node{q.doc.Root()}, time.Now())
}

func (q *Query) compileCached(text string) (*Expr, error) {
	if e, ok := q.cache.Load(text); ok {
		return e.(*Expr), nil
	}
	e, err := compile(text, q.opts.maxDepth)
	if err != nil {
		return nil, err
	}
	actual, _ := q.cache.LoadOrStore(text, e)
	q.opts.log.Debug("query compiled", zap.String("query", text), zap.Stringer("canonical", e))
	return actual.(*Expr), nil
}

func (q *Query) eval(e *Expr, input []*html.Node, start time.Time) (*Result, error) {
	res, err := eval.EvaluateFrom(e.ast, q.doc, input, eval.WithLogger(q.opts.log))
	if err != nil {
		q.record(start, err, nil)
		return nil, err
	}
	out := &Result{q: q, res: res}
	q.record(start, nil, out)
	return out, nil
}

func (q *Query) record(start time.Time, err error, res *Result) {
	d := time.Since(start)
	if err != nil {
		q.opts.recorder.RecordQuery(Status(err), "", d, 0)
		q.opts.log.Debug("query failed", zap.Duration("elapsed", d), zap.Error(err))
		return
	}
	q.opts.recorder.RecordQuery(Status(nil), res.Kind(), d, res.Len())
	q.opts.log.Debug("query evaluated",
		zap.Duration("elapsed", d),
		zap.String("kind", res.Kind()),
		zap.Int("count", res.Len()),
	)
}
