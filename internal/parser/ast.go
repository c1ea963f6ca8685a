package parser

import (
	"strconv"
	"strings"

	"github.com/GriffinCanCode/hquery/internal/lexer"
	"github.com/GriffinCanCode/hquery/internal/literal"
)

// Yield is the static result kind of an expression
type Yield int

const (
	Nodes Yield = iota
	Texts
)

func (y Yield) String() string {
	if y == Texts {
		return "texts"
	}
	return "nodes"
}

// Expr is a *Pipeline or a *SetExpr
type Expr interface {
	Yield() Yield
	Pos() lexer.Pos
	String() string
	expr()
}

// Stage is one step of a pipeline: a *Selector or a *SetExpr
type Stage interface {
	Pos() lexer.Pos
	String() string
	stage()
}

// AST is a parsed query
type AST struct {
	Root   Expr
	Source string
}

func (a *AST) Yield() Yield   { return a.Root.Yield() }
func (a *AST) String() string { return a.Root.String() }

// Operand is exact text or a regex pattern
type Operand struct {
	Text  string
	Regex bool
}

func (o Operand) String() string {
	if o.Regex {
		return "~" + quoteOperand(o.Text)
	}
	return quoteOperand(o.Text)
}

// SelectorKind fixes what a selector matches against
type SelectorKind int

const (
	Class SelectorKind = iota
	ID
	Tag
	Attr
)

var selectorKeywords = map[string]SelectorKind{
	lexer.KwClass: Class,
	lexer.KwID:    ID,
	lexer.KwTag:   Tag,
	lexer.KwAttr:  Attr,
}

func (k SelectorKind) String() string {
	switch k {
	case Class:
		return lexer.KwClass
	case ID:
		return lexer.KwID
	case Tag:
		return lexer.KwTag
	default:
		return lexer.KwAttr
	}
}

// Selector narrows a node set to matching descendants. Value is only set
// for attr selectors that also filter on the attribute value.
type Selector struct {
	Kind    SelectorKind
	Operand Operand
	Value   *Operand
	Index   *IndexSpec
	At      lexer.Pos
}

func (s *Selector) Pos() lexer.Pos { return s.At }
func (*Selector) stage()           {}

func (s *Selector) String() string {
	var sb strings.Builder
	sb.WriteString(s.Kind.String())
	sb.WriteByte(' ')
	sb.WriteString(s.Operand.String())
	if s.Value != nil {
		sb.WriteByte(' ')
		if s.Value.Regex {
			sb.WriteString("~")
		}
		sb.WriteString(lexer.Quote(s.Value.Text))
	}
	if s.Index != nil {
		sb.WriteByte(':')
		sb.WriteString(s.Index.String())
	}
	return sb.String()
}

// IndexKind is the form of an index spec
type IndexKind int

const (
	Single IndexKind = iota
	Range
	RangeStep
	Multiple
)

// IndexSpec selects positions from an ordered sequence. Single uses Lo,
// Range uses Lo and Hi, RangeStep adds Step, Multiple uses List.
type IndexSpec struct {
	Kind IndexKind
	Lo   int
	Hi   int
	Step int
	List []int
}

func (ix *IndexSpec) String() string {
	switch ix.Kind {
	case Single:
		return strconv.Itoa(ix.Lo)
	case Range:
		return strconv.Itoa(ix.Lo) + ":" + strconv.Itoa(ix.Hi)
	case RangeStep:
		return strconv.Itoa(ix.Lo) + ":" + strconv.Itoa(ix.Hi) + ":" + strconv.Itoa(ix.Step)
	default:
		parts := make([]string, len(ix.List))
		for i, n := range ix.List {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ",")
	}
}

// ExtractKind is what an extraction reads from each node
type ExtractKind int

const (
	ExtractText ExtractKind = iota
	ExtractHref
	ExtractSrc
	ExtractAttr
)

// Extraction turns nodes into strings and runs the function chain over
// them. Attr is only used by ExtractAttr.
type Extraction struct {
	Kind  ExtractKind
	Attr  Operand
	Index *IndexSpec
	Chain []FunctionCall
	At    lexer.Pos
}

func (e *Extraction) Pos() lexer.Pos { return e.At }

func (e *Extraction) String() string {
	var sb strings.Builder
	switch e.Kind {
	case ExtractText:
		sb.WriteString(lexer.KwText)
	case ExtractHref:
		sb.WriteString(lexer.KwHref)
	case ExtractSrc:
		sb.WriteString(lexer.KwSrc)
	default:
		sb.WriteByte('#')
		if e.Attr.Regex {
			sb.WriteByte('~')
		}
		sb.WriteString(lexer.Quote(e.Attr.Text))
	}
	if e.Index != nil {
		sb.WriteByte(':')
		sb.WriteString(e.Index.String())
	}
	for _, fn := range e.Chain {
		sb.WriteByte(' ')
		sb.WriteString(fn.String())
	}
	return sb.String()
}

// FunctionCall is one link of an extraction's function chain
type FunctionCall struct {
	Name string
	Args []literal.Value
	At   lexer.Pos
}

func (f FunctionCall) String() string {
	var sb strings.Builder
	sb.WriteByte('@')
	sb.WriteString(f.Name)
	for _, arg := range f.Args {
		sb.WriteByte(',')
		sb.WriteString(arg.String())
	}
	return sb.String()
}

// Pipeline runs its stages left to right, each one on the previous
// stage's output, and finishes with the optional extraction.
type Pipeline struct {
	Stages  []Stage
	Extract *Extraction
}

func (p *Pipeline) expr() {}

func (p *Pipeline) Pos() lexer.Pos {
	if len(p.Stages) > 0 {
		return p.Stages[0].Pos()
	}
	if p.Extract != nil {
		return p.Extract.At
	}
	return lexer.Pos{}
}

func (p *Pipeline) Yield() Yield {
	if p.Extract != nil {
		return Texts
	}
	if n := len(p.Stages); n > 0 {
		if set, ok := p.Stages[n-1].(*SetExpr); ok {
			return set.Yield()
		}
	}
	return Nodes
}

func (p *Pipeline) String() string {
	parts := make([]string, 0, len(p.Stages)+1)
	for _, st := range p.Stages {
		if _, ok := st.(*SetExpr); ok {
			parts = append(parts, "("+st.String()+")")
			continue
		}
		parts = append(parts, st.String())
	}
	if p.Extract != nil {
		parts = append(parts, p.Extract.String())
	}
	return strings.Join(parts, " > ")
}

// SetOp combines two results
type SetOp int

const (
	Union SetOp = iota
	Intersect
	Difference
)

func (op SetOp) String() string {
	switch op {
	case Union:
		return "|"
	case Intersect:
		return "&"
	default:
		return "^"
	}
}

// SetExpr evaluates both operands on the same input and combines them
type SetExpr struct {
	Op    SetOp
	Left  Expr
	Right Expr
	At    lexer.Pos
}

func (s *SetExpr) expr()          {}
func (s *SetExpr) stage()         {}
func (s *SetExpr) Pos() lexer.Pos { return s.At }
func (s *SetExpr) Yield() Yield   { return s.Left.Yield() }

func (s *SetExpr) String() string {
	right := s.Right.String()
	if _, ok := s.Right.(*SetExpr); ok {
		right = "(" + right + ")"
	}
	return s.Left.String() + " " + s.Op.String() + " " + right
}

// Walk calls fn for every selector and extraction reachable from e in
// evaluation order
func Walk(e Expr, fn func(any)) {
	switch n := e.(type) {
	case *Pipeline:
		for _, st := range n.Stages {
			switch st := st.(type) {
			case *Selector:
				fn(st)
			case *SetExpr:
				Walk(st, fn)
			}
		}
		if n.Extract != nil {
			fn(n.Extract)
		}
	case *SetExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	}
}

func quoteOperand(s string) string {
	if isBare(s) {
		return s
	}
	return lexer.Quote(s)
}

// isBare reports whether s lexes back as a single plain word
func isBare(s string) bool {
	if s == "" || lexer.IsKeyword(s) || s == "true" || s == "false" {
		return false
	}
	tokens, err := lexer.Tokenize(s)
	return err == nil && len(tokens) == 2 && tokens[0].Kind == lexer.Word
}
