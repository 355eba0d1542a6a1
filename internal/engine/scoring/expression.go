package scoring

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
)

// node is a compiled custom-expression term.
type node interface {
	eval(a *aggregates) float64
}

type numberNode float64

func (n numberNode) eval(_ *aggregates) float64 { return float64(n) }

type variableNode string

const (
	varSpan  = "span"
	varTasks = "tasks"
	varLate  = "late"
)

func (n variableNode) eval(a *aggregates) float64 {
	switch string(n) {
	case varSpan:
		return float64(a.span)
	case varTasks:
		return float64(a.tasks)
	default:
		return float64(a.lateness)
	}
}

type categoryFunc int

const (
	fnTotal categoryFunc = iota
	fnCount
	fnLate
)

var categoryFuncs = map[string]categoryFunc{
	"total": fnTotal,
	"count": fnCount,
	"late":  fnLate,
}

type categoryNode struct {
	fn       categoryFunc
	category domain.Category
}

func (n categoryNode) eval(a *aggregates) float64 {
	switch n.fn {
	case fnTotal:
		return float64(a.totals[n.category])
	case fnCount:
		return float64(a.counts[n.category])
	default:
		return float64(a.late[n.category])
	}
}

type negateNode struct {
	x node
}

func (n negateNode) eval(a *aggregates) float64 { return -n.x.eval(a) }

type binaryNode struct {
	op          rune
	left, right node
}

func (n binaryNode) eval(a *aggregates) float64 {
	l, r := n.left.eval(a), n.right.eval(a)
	switch n.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	default:
		if r == 0 {
			return 0
		}
		return l / r
	}
}

type extremumNode struct {
	max  bool
	args []node
}

func (n extremumNode) eval(a *aggregates) float64 {
	best := n.args[0].eval(a)
	for _, arg := range n.args[1:] {
		v := arg.eval(a)
		if (n.max && v > best) || (!n.max && v < best) {
			best = v
		}
	}
	return best
}

// parser is a recursive-descent parser over text/scanner tokens:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = "-" unary | primary
//	primary = number | ident | ident "(" args ")" | "(" expr ")"
type parser struct {
	s    scanner.Scanner
	tok  rune
	errs []string
}

// compileExpression parses src into an evaluable tree.
func compileExpression(src string) (node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, zerr.Wrap(domain.ErrInvalidObjective, "expression is empty")
	}

	p := &parser{}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	p.s.Error = func(_ *scanner.Scanner, msg string) {
		p.errs = append(p.errs, msg)
	}
	p.next()

	n, err := p.parseExpr()
	if err == nil && p.tok != scanner.EOF {
		err = p.errorf("unexpected %q", p.s.TokenText())
	}
	if err == nil && len(p.errs) > 0 {
		err = p.errorf("%s", p.errs[0])
	}
	if err != nil {
		return nil, zerr.With(err, "expression", src)
	}
	return n, nil
}

func (p *parser) next() {
	p.tok = p.s.Scan()
}

func (p *parser) errorf(format string, args ...any) error {
	err := zerr.Wrap(domain.ErrInvalidObjective, "malformed expression: "+fmt.Sprintf(format, args...))
	return zerr.With(err, "offset", p.s.Position.Offset)
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok == '+' || p.tok == '-' {
		op := p.tok
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok == '*' || p.tok == '/' {
		op := p.tok
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.tok == '-' {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negateNode{x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	switch p.tok {
	case scanner.Int, scanner.Float:
		v, err := strconv.ParseFloat(p.s.TokenText(), 64)
		if err != nil {
			return nil, p.errorf("bad number %q", p.s.TokenText())
		}
		p.next()
		return numberNode(v), nil
	case '(':
		p.next()
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok != ')' {
			return nil, p.errorf("expected )")
		}
		p.next()
		return n, nil
	case scanner.Ident:
		name := strings.ToLower(p.s.TokenText())
		p.next()
		if p.tok == '(' {
			return p.parseCall(name)
		}
		switch name {
		case varSpan, varTasks, varLate:
			return variableNode(name), nil
		}
		return nil, p.errorf("unknown variable %q", name)
	case scanner.EOF:
		return nil, p.errorf("unexpected end of expression")
	default:
		return nil, p.errorf("unexpected %q", p.s.TokenText())
	}
}

func (p *parser) parseCall(name string) (node, error) {
	p.next() // (

	if fn, ok := categoryFuncs[name]; ok {
		var category domain.Category
		switch p.tok {
		case scanner.Ident:
			category = domain.NormalizeCategory(p.s.TokenText())
		case scanner.String:
			unquoted, err := strconv.Unquote(p.s.TokenText())
			if err != nil {
				return nil, p.errorf("bad category literal %s", p.s.TokenText())
			}
			category = domain.NormalizeCategory(unquoted)
		default:
			return nil, p.errorf("%s() expects a category", name)
		}
		if category == "" {
			return nil, p.errorf("%s() expects a category", name)
		}
		p.next()
		if p.tok != ')' {
			return nil, p.errorf("%s() takes exactly one category", name)
		}
		p.next()
		return categoryNode{fn: fn, category: category}, nil
	}

	if name != "min" && name != "max" {
		return nil, p.errorf("unknown function %q", name)
	}

	var args []node
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok == ')' {
			break
		}
		if p.tok != ',' {
			return nil, p.errorf("expected , or ) in %s()", name)
		}
		p.next()
	}
	p.next()
	if len(args) < 2 {
		return nil, p.errorf("%s() takes at least two arguments", name)
	}
	return extremumNode{max: name == "max", args: args}, nil
}
