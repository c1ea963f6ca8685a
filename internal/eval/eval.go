// Package eval runs a parsed query against a document.
package eval

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/hquery/internal/dom"
	"github.com/GriffinCanCode/hquery/internal/parser"
)

// Result holds nodes or strings depending on Kind
type Result struct {
	Kind  parser.Yield
	Nodes []*html.Node
	Texts []string
}

// Len returns the number of items in the result
func (r *Result) Len() int {
	if r.Kind == parser.Texts {
		return len(r.Texts)
	}
	return len(r.Nodes)
}

type options struct {
	log *zap.Logger
}

// Option configures an evaluation
type Option func(*options)

// WithLogger sets the debug logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

type evaluator struct {
	doc     *dom.Document
	log     *zap.Logger
	regexes map[string]*regexp.Regexp
}

// Evaluate runs ast starting from the document root
func Evaluate(ast *parser.AST, doc *dom.Document, opts ...Option) (*Result, error) {
	return EvaluateFrom(ast, doc, []*html.Node{doc.Root()}, opts...)
}

// EvaluateFrom runs ast starting from the given nodes of doc
func EvaluateFrom(ast *parser.AST, doc *dom.Document, input []*html.Node, opts ...Option) (*Result, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if ast == nil || ast.Root == nil {
		return nil, &Error{Kind: KindInternal, Msg: "empty query"}
	}

	e := &evaluator{doc: doc, log: o.log, regexes: make(map[string]*regexp.Regexp)}
	if err := e.compileRegexes(ast.Root); err != nil {
		return nil, err
	}
	return e.eval(ast.Root, input)
}

// compileRegexes compiles every pattern up front so a bad pattern fails
// even when nothing would reach it
func (e *evaluator) compileRegexes(root parser.Expr) error {
	var err error
	add := func(op parser.Operand) {
		if err != nil || !op.Regex {
			return
		}
		if _, ok := e.regexes[op.Text]; ok {
			return
		}
		re, cerr := regexp.Compile(op.Text)
		if cerr != nil {
			err = &Error{Kind: KindRegex, Msg: fmt.Sprintf("invalid pattern %q", op.Text), Err: cerr}
			return
		}
		e.regexes[op.Text] = re
	}

	parser.Walk(root, func(n any) {
		switch n := n.(type) {
		case *parser.Selector:
			add(n.Operand)
			if n.Value != nil {
				add(*n.Value)
			}
		case *parser.Extraction:
			if n.Kind == parser.ExtractAttr {
				add(n.Attr)
			}
		}
	})
	return err
}

func (e *evaluator) eval(expr parser.Expr, input []*html.Node) (*Result, error) {
	switch x := expr.(type) {
	case *parser.Pipeline:
		return e.evalPipeline(x, input)
	case *parser.SetExpr:
		return e.evalSet(x, input)
	default:
		return nil, &Error{Kind: KindInternal, Msg: fmt.Sprintf("unexpected expression %T", expr)}
	}
}

func (e *evaluator) evalPipeline(p *parser.Pipeline, input []*html.Node) (*Result, error) {
	current := input
	for _, st := range p.Stages {
		switch st := st.(type) {
		case *parser.Selector:
			if len(current) == 0 {
				continue
			}
			current = applyIndex(e.match(st, current), st.Index)
			e.log.Debug("stage matched", zap.Stringer("selector", st), zap.Int("nodes", len(current)))
		case *parser.SetExpr:
			r, err := e.evalSet(st, current)
			if err != nil {
				return nil, err
			}
			if r.Kind == parser.Texts {
				return r, nil
			}
			current = r.Nodes
		}
	}

	if p.Extract == nil {
		return &Result{Kind: parser.Nodes, Nodes: current}, nil
	}

	texts := applyIndex(e.extract(p.Extract, current), p.Extract.Index)
	texts, err := e.applyChain(p.Extract.Chain, texts)
	if err != nil {
		return nil, err
	}
	return &Result{Kind: parser.Texts, Texts: texts}, nil
}

func (e *evaluator) evalSet(s *parser.SetExpr, input []*html.Node) (*Result, error) {
	left, err := e.eval(s.Left, input)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(s.Right, input)
	if err != nil {
		return nil, err
	}
	if left.Kind != right.Kind {
		return nil, &Error{Kind: KindInternal, Msg: fmt.Sprintf("operands of %q yield %s and %s", s.Op.String(), left.Kind, right.Kind)}
	}

	if left.Kind == parser.Texts {
		return &Result{Kind: parser.Texts, Texts: combine(s.Op, left.Texts, right.Texts)}, nil
	}
	return &Result{Kind: parser.Nodes, Nodes: combine(s.Op, left.Nodes, right.Nodes)}, nil
}

// match collects the elements below the input nodes that satisfy sel, once
// each and in document order
func (e *evaluator) match(sel *parser.Selector, input []*html.Node) []*html.Node {
	seen := make(map[*html.Node]struct{})
	var out []*html.Node
	for _, n := range input {
		dom.Descendants(n, func(c *html.Node) {
			if _, dup := seen[c]; dup {
				return
			}
			seen[c] = struct{}{}
			if e.matches(sel, c) {
				out = append(out, c)
			}
		})
	}
	if len(input) > 1 {
		e.doc.SortNodes(out)
	}
	return out
}

func (e *evaluator) matches(sel *parser.Selector, n *html.Node) bool {
	switch sel.Kind {
	case parser.Class:
		class, ok := dom.Attr(n, "class")
		if !ok {
			return false
		}
		for _, c := range strings.Fields(class) {
			if e.test(sel.Operand, c) {
				return true
			}
		}
		return false
	case parser.ID:
		id, ok := dom.Attr(n, "id")
		return ok && e.test(sel.Operand, id)
	case parser.Tag:
		if sel.Operand.Regex {
			return e.regexes[sel.Operand.Text].MatchString(n.Data)
		}
		return strings.EqualFold(n.Data, sel.Operand.Text)
	default:
		for _, a := range n.Attr {
			if e.test(sel.Operand, a.Key) && (sel.Value == nil || e.test(*sel.Value, a.Val)) {
				return true
			}
		}
		return false
	}
}

func (e *evaluator) test(op parser.Operand, s string) bool {
	if op.Regex {
		return e.regexes[op.Text].MatchString(s)
	}
	return s == op.Text
}

// extract reads one string per node
func (e *evaluator) extract(ex *parser.Extraction, nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		switch ex.Kind {
		case parser.ExtractText:
			out[i] = dom.Text(n)
		case parser.ExtractHref:
			out[i], _ = dom.Attr(n, "href")
		case parser.ExtractSrc:
			out[i], _ = dom.Attr(n, "src")
		default:
			if !ex.Attr.Regex {
				out[i], _ = dom.Attr(n, ex.Attr.Text)
				continue
			}
			re := e.regexes[ex.Attr.Text]
			for _, a := range n.Attr {
				if re.MatchString(a.Key) {
					out[i] = a.Val
					break
				}
			}
		}
	}
	return out
}
