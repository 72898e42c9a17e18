package expr

import (
	"go/ast"
	"go/token"
)

// Go's grammar places ^ at additive precedence, left-associative. The
// expression language needs exponentiation above * and /, associating to
// the right, so 2*x^2 means 2*(x^2) and 2^3^2 means 2^(3^2). rebind
// restructures the parsed tree to that precedence without reparsing the
// source.
func rebind(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.ParenExpr:
		return &ast.ParenExpr{X: rebind(n.X)}
	case *ast.CallExpr:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = rebind(a)
		}
		return &ast.CallExpr{Fun: n.Fun, Args: args}
	case *ast.UnaryExpr:
		if n.Op == token.ADD || n.Op == token.SUB {
			return rebuild(flatten(e, nil))
		}
		return &ast.UnaryExpr{Op: n.Op, X: rebind(n.X)}
	case *ast.BinaryExpr:
		switch n.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO, token.XOR:
			return rebuild(flatten(e, nil))
		}
		return &ast.BinaryExpr{X: rebind(n.X), Op: n.Op, Y: rebind(n.Y)}
	default:
		return e
	}
}

// infixItem is one element of the flattened operator stream: either an
// operand subtree or an operator token.
type infixItem struct {
	expr   ast.Expr    // operand when non-nil
	op     token.Token // operator otherwise
	prefix bool        // unary sign rather than binary operator
}

// flatten recovers the original token order of a maximal arithmetic
// subtree. An in-order walk of the parse reproduces the source sequence
// of operands and operators regardless of how the parser grouped them;
// parenthesised and call subtrees stay atomic.
func flatten(e ast.Expr, items []infixItem) []infixItem {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		switch n.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO, token.XOR:
			items = flatten(n.X, items)
			items = append(items, infixItem{op: n.Op})
			return flatten(n.Y, items)
		}
	case *ast.UnaryExpr:
		if n.Op == token.ADD || n.Op == token.SUB {
			items = append(items, infixItem{op: n.Op, prefix: true})
			return flatten(n.X, items)
		}
	}
	return append(items, infixItem{expr: rebind(e)})
}

// rebuild parses the flattened stream under the corrected precedences:
// sums below products, signs below powers, powers right-associative with
// a signed exponent allowed (x^-2).
func rebuild(items []infixItem) ast.Expr {
	p := &infixParser{items: items}
	return p.parseSum()
}

type infixParser struct {
	items []infixItem
	pos   int
}

func (p *infixParser) peekOp(prefix bool, ops ...token.Token) (token.Token, bool) {
	if p.pos >= len(p.items) {
		return token.ILLEGAL, false
	}
	it := p.items[p.pos]
	if it.expr != nil || it.prefix != prefix {
		return token.ILLEGAL, false
	}
	for _, op := range ops {
		if it.op == op {
			p.pos++
			return op, true
		}
	}
	return token.ILLEGAL, false
}

func (p *infixParser) parseSum() ast.Expr {
	x := p.parseTerm()
	for {
		op, ok := p.peekOp(false, token.ADD, token.SUB)
		if !ok {
			return x
		}
		x = &ast.BinaryExpr{X: x, Op: op, Y: p.parseTerm()}
	}
}

func (p *infixParser) parseTerm() ast.Expr {
	x := p.parseSigned()
	for {
		op, ok := p.peekOp(false, token.MUL, token.QUO)
		if !ok {
			return x
		}
		x = &ast.BinaryExpr{X: x, Op: op, Y: p.parseSigned()}
	}
}

func (p *infixParser) parseSigned() ast.Expr {
	if op, ok := p.peekOp(true, token.ADD, token.SUB); ok {
		return &ast.UnaryExpr{Op: op, X: p.parseSigned()}
	}
	return p.parsePower()
}

func (p *infixParser) parsePower() ast.Expr {
	x := p.parseOperand()
	if _, ok := p.peekOp(false, token.XOR); ok {
		return &ast.BinaryExpr{X: x, Op: token.XOR, Y: p.parseSigned()}
	}
	return x
}

// parseOperand consumes the next operand. The stream always alternates
// operands and operators because it came from a well-formed parse.
func (p *infixParser) parseOperand() ast.Expr {
	it := p.items[p.pos]
	p.pos++
	return it.expr
}
