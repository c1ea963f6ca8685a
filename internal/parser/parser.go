// Package parser builds an AST from query tokens.
//
// The grammar is parsed by precedence climbing. From loosest to tightest:
//
//	expr  := term (('|' | '&' | '^') term)*
//	term  := atom ('>' atom)*
//	atom  := '(' expr ')' | selector | extraction
//
// The set operators share one precedence level and associate to the left.
// A parenthesized pipeline is spliced into the enclosing pipeline while a
// parenthesized set expression becomes a single stage, so no grouping node
// survives parsing.
//
// Every expression yields either nodes or texts, and the parser rejects
// combinations that cannot be evaluated: a text-yielding stage followed by
// '>' or set operands of different kinds.
package parser

import (
	"strconv"

	"github.com/GriffinCanCode/hquery/internal/lexer"
	"github.com/GriffinCanCode/hquery/internal/literal"
)

// DefaultMaxDepth bounds group nesting
const DefaultMaxDepth = 100

type options struct {
	maxDepth int
}

// Option configures Parse
type Option func(*options)

// WithMaxDepth sets the group nesting limit. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

type parser struct {
	tokens   []lexer.Token
	pos      int
	depth    int
	maxDepth int
}

// ParseString lexes and parses text
func ParseString(text string, opts ...Option) (*AST, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	ast, err := Parse(tokens, opts...)
	if err != nil {
		return nil, err
	}
	ast.Source = text
	return ast, nil
}

// Parse builds an AST from a token slice ending in EOF. On error no AST is
// returned.
func Parse(tokens []lexer.Token, opts ...Option) (*AST, error) {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		tokens = append(append([]lexer.Token(nil), tokens...), lexer.Token{Kind: lexer.EOF})
	}

	p := &parser{tokens: tokens, maxDepth: o.maxDepth}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != lexer.EOF {
		return nil, p.unexpected(tok, "end of query")
	}
	return &AST{Root: root}, nil
}

func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) unexpected(tok lexer.Token, want string) *Error {
	return errorf(KindUnexpectedToken, tok.Pos, "unexpected %s, expected %s", tok, want)
}

var setOps = map[lexer.Kind]SetOp{
	lexer.Pipe:  Union,
	lexer.Amp:   Intersect,
	lexer.Caret: Difference,
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		opTok := p.peek()
		op, ok := setOps[opTok.Kind]
		if !ok {
			return left, nil
		}
		p.next()

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if left.Yield() != right.Yield() {
			return nil, errorf(KindMixedResults, opTok.Pos,
				"operands of %q yield %s and %s", op.String(), left.Yield(), right.Yield())
		}
		left = &SetExpr{Op: op, Left: left, Right: right, At: opTok.Pos}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != lexer.Gt {
		return first, nil
	}

	pipe := &Pipeline{}
	current := first
	for {
		pipe.splice(current)
		gt := p.peek()
		if gt.Kind != lexer.Gt {
			return pipe, nil
		}
		if current.Yield() == Texts {
			return nil, errorf(KindTextNotLast, gt.Pos, "text-yielding expression must end the pipeline")
		}
		p.next()

		if current, err = p.parseAtom(); err != nil {
			return nil, err
		}
	}
}

// splice appends an atom to a pipeline being built
func (pipe *Pipeline) splice(e Expr) {
	switch e := e.(type) {
	case *Pipeline:
		pipe.Stages = append(pipe.Stages, e.Stages...)
		pipe.Extract = e.Extract
	case *SetExpr:
		pipe.Stages = append(pipe.Stages, e)
	}
}

func (p *parser) parseAtom() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.Kind == lexer.LParen:
		return p.parseGroup()
	case tok.Kind == lexer.Hash, tok.Is(lexer.KwText), tok.Is(lexer.KwHref), tok.Is(lexer.KwSrc):
		ex, err := p.parseExtraction()
		if err != nil {
			return nil, err
		}
		return &Pipeline{Extract: ex}, nil
	case tok.Kind == lexer.Keyword:
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		return &Pipeline{Stages: []Stage{sel}}, nil
	case tok.Kind == lexer.Word:
		return nil, errorf(KindUnexpectedToken, tok.Pos, "unknown selector keyword %q", tok.Text)
	case tok.Kind == lexer.EOF:
		return nil, errorf(KindMissingOperand, tok.Pos, "unexpected end of query, expected a selector")
	default:
		return nil, p.unexpected(tok, "a selector, an extraction or '('")
	}
}

func (p *parser) parseGroup() (Expr, error) {
	open := p.next()
	p.depth++
	if p.depth > p.maxDepth {
		return nil, errorf(KindNestingTooDeep, open.Pos, "groups nested deeper than %d", p.maxDepth)
	}

	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != lexer.RParen {
		return nil, p.unexpected(tok, "')'")
	}
	p.next()
	p.depth--
	return inner, nil
}

func (p *parser) parseSelector() (*Selector, error) {
	kw := p.next()
	kind, ok := selectorKeywords[kw.Text]
	if !ok {
		return nil, errorf(KindUnexpectedToken, kw.Pos, "%q cannot start a selector", kw.Text)
	}

	operand, err := p.parseOperand(kw)
	if err != nil {
		return nil, err
	}
	sel := &Selector{Kind: kind, Operand: operand, At: kw.Pos}

	if kind == Attr {
		if tok := p.peek(); tok.Kind == lexer.Tilde || tok.Kind == lexer.String {
			value, err := p.parseOperand(tok)
			if err != nil {
				return nil, err
			}
			sel.Value = &value
		}
	}

	if sel.Index, err = p.parseIndex(); err != nil {
		return nil, err
	}
	return sel, nil
}

// parseOperand reads ['~'] text. Keywords, numbers and booleans are
// accepted as plain text so that "attr href" and "tag h1" work.
func (p *parser) parseOperand(owner lexer.Token) (Operand, error) {
	var op Operand
	if p.peek().Kind == lexer.Tilde {
		p.next()
		op.Regex = true
	}

	tok := p.peek()
	switch tok.Kind {
	case lexer.Word, lexer.String, lexer.Int, lexer.Float, lexer.Bool, lexer.Keyword:
		p.next()
	default:
		return Operand{}, errorf(KindMissingOperand, tok.Pos, "missing operand after %s, found %s", owner, tok)
	}
	if tok.Text == "" {
		return Operand{}, errorf(KindMissingOperand, tok.Pos, "empty operand after %s", owner)
	}
	op.Text = tok.Text
	return op, nil
}

// parseIndex reads an optional ':' index spec
func (p *parser) parseIndex() (*IndexSpec, error) {
	if p.peek().Kind != lexer.Colon {
		return nil, nil
	}
	p.next()

	first, err := p.indexValue()
	if err != nil {
		return nil, err
	}
	ix := &IndexSpec{Kind: Single, Lo: first}

	switch p.peek().Kind {
	case lexer.Colon:
		p.next()
		if ix.Hi, err = p.indexValue(); err != nil {
			return nil, err
		}
		ix.Kind = Range
		if p.peek().Kind == lexer.Colon {
			p.next()
			stepTok := p.peek()
			if ix.Step, err = p.indexValue(); err != nil {
				return nil, err
			}
			if ix.Step == 0 {
				return nil, errorf(KindBadIndex, stepTok.Pos, "index step must be positive")
			}
			ix.Kind = RangeStep
		}
	case lexer.Comma:
		ix.Kind = Multiple
		ix.List = []int{first}
		for p.peek().Kind == lexer.Comma {
			p.next()
			n, err := p.indexValue()
			if err != nil {
				return nil, err
			}
			ix.List = append(ix.List, n)
		}
	}
	return ix, nil
}

func (p *parser) indexValue() (int, error) {
	tok := p.peek()
	if tok.Kind != lexer.Int {
		if tok.Kind == lexer.Float {
			return 0, errorf(KindBadIndex, tok.Pos, "index %s must be an integer", tok.Text)
		}
		return 0, errorf(KindBadIndex, tok.Pos, "expected an index, found %s", tok)
	}
	n, err := strconv.Atoi(tok.Text)
	if err != nil {
		return 0, errorf(KindBadIndex, tok.Pos, "index %s out of range", tok.Text)
	}
	if n < 0 {
		return 0, errorf(KindBadIndex, tok.Pos, "index %d must not be negative", n)
	}
	p.next()
	return n, nil
}

func (p *parser) parseExtraction() (*Extraction, error) {
	tok := p.next()
	ex := &Extraction{At: tok.Pos}

	switch {
	case tok.Is(lexer.KwText):
		ex.Kind = ExtractText
	case tok.Is(lexer.KwHref):
		ex.Kind = ExtractHref
	case tok.Is(lexer.KwSrc):
		ex.Kind = ExtractSrc
	default:
		attr, err := p.parseOperand(tok)
		if err != nil {
			return nil, err
		}
		ex.Kind = ExtractAttr
		ex.Attr = attr
	}

	var err error
	if ex.Index, err = p.parseIndex(); err != nil {
		return nil, err
	}

	for p.peek().Kind == lexer.At {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		ex.Chain = append(ex.Chain, fn)
	}
	return ex, nil
}

func (p *parser) parseFunction() (FunctionCall, error) {
	at := p.next()
	name := p.peek()
	if name.Kind != lexer.Word && name.Kind != lexer.Keyword {
		return FunctionCall{}, p.unexpected(name, "a function name")
	}
	p.next()

	arity, ok := Functions[name.Text]
	if !ok {
		return FunctionCall{}, errorf(KindUnknownFunction, name.Pos, "unknown function %q", name.Text)
	}

	fn := FunctionCall{Name: name.Text, At: at.Pos}
	for p.peek().Kind == lexer.Comma {
		p.next()
		raw := p.peek()
		if raw.Kind != lexer.Literal {
			return FunctionCall{}, p.unexpected(raw, "a function argument")
		}
		p.next()

		v, err := literal.Parse(raw.Text)
		if err != nil {
			return FunctionCall{}, &Error{Kind: KindLiteral, Pos: raw.Pos, Msg: err.Error(), Err: err}
		}
		fn.Args = append(fn.Args, v)
	}

	if !arity.accepts(len(fn.Args)) {
		return FunctionCall{}, errorf(KindBadArity, at.Pos,
			"@%s takes %s argument(s), got %d", fn.Name, arity, len(fn.Args))
	}
	return fn, nil
}
