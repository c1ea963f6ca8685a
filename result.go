package hquery

import (
	"fmt"
	"slices"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/hquery/internal/dom"
	"github.com/GriffinCanCode/hquery/internal/eval"
	"github.com/GriffinCanCode/hquery/internal/parser"
)

// Result is the outcome of a query: either element nodes or strings, in
// document order
type Result struct {
	q   *Query
	res *eval.Result
}

// IsText reports whether the result holds strings
func (r *Result) IsText() bool { return r.res.Kind == parser.Texts }

// Kind returns "texts" or "nodes"
func (r *Result) Kind() string { return r.res.Kind.String() }

// Len returns the number of items
func (r *Result) Len() int { return r.res.Len() }

// Texts returns the strings of a text result, or nil for a node result
func (r *Result) Texts() []string {
	if !r.IsText() {
		return nil
	}
	return slices.Clone(r.res.Texts)
}

// Nodes returns the elements of a node result, or nil for a text result
func (r *Result) Nodes() []*html.Node {
	if r.IsText() {
		return nil
	}
	return slices.Clone(r.res.Nodes)
}

// HTML renders each node as outer HTML. A text result is returned as is.
func (r *Result) HTML() []string {
	if r.IsText() {
		return r.Texts()
	}
	out := make([]string, len(r.res.Nodes))
	for i, n := range r.res.Nodes {
		out[i] = dom.OuterHTML(n)
	}
	return out
}

// Strings renders the result as strings: the texts themselves, or the
// outer HTML of each node
func (r *Result) Strings() []string { return r.HTML() }

// First returns the first item as a string and false when the result is
// empty
func (r *Result) First() (string, bool) {
	if r.Len() == 0 {
		return "", false
	}
	if r.IsText() {
		return r.res.Texts[0], true
	}
	return dom.OuterHTML(r.res.Nodes[0]), true
}

// Selection wraps the nodes in a goquery selection. A text result gives
// an empty selection.
func (r *Result) Selection() *goquery.Selection {
	return r.q.doc.Selection(r.Nodes())
}

// Then evaluates text with the nodes of this result as the starting set
func (r *Result) Then(text string) (*Result, error) {
	if r.IsText() {
		return nil, fmt.Errorf("%w: cannot query below a text result", ErrEval)
	}
	start := time.Now()
	e, err := r.q.compileCached(text)
	if err != nil {
		r.q.record(start, err, nil)
		return nil, err
	}
	return r.q.eval(e, r.res.Nodes, start)
}
