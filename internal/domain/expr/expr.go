// Package expr compiles scalar expressions into differentiable programs.
//
// Expressions use Go syntax: identifiers x0..xN (or x as an alias for x0)
// name variables, pi and e name constants, and ^ denotes exponentiation.
// Calls to the elementary-function set (sin, cos, tan, csc, sec, cot,
// arcsin, arccos, arctan, sinh, cosh, tanh, sqrt, exp, ln, log, pow, abs)
// are supported. A compiled Program evaluates under forward or reverse
// mode without reparsing.
package expr

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// function arities for the supported call set. Aliases share an entry.
var funcArity = map[string]int{
	"abs":    1,
	"sqrt":   1,
	"exp":    1,
	"ln":     1,
	"log":    2, // log(x, base)
	"pow":    2, // pow(x, y)
	"sin":    1,
	"cos":    1,
	"tan":    1,
	"csc":    1,
	"sec":    1,
	"cot":    1,
	"arcsin": 1,
	"asin":   1,
	"arccos": 1,
	"acos":   1,
	"arctan": 1,
	"atan":   1,
	"sinh":   1,
	"cosh":   1,
	"tanh":   1,
}

// Program is a compiled, reusable expression.
type Program struct {
	src   string
	root  ast.Expr
	arity int
}

// Compile parses and validates src. The returned Program may be evaluated
// concurrently; it holds no mutable state.
func Compile(src string) (*Program, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("%w: empty source", ErrParse)
	}
	root, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	root = rebind(root)
	p := &Program{src: src, root: root}
	if err := p.validate(root); err != nil {
		return nil, err
	}
	return p, nil
}

// Source returns the original expression text.
func (p *Program) Source() string { return p.src }

// Arity returns the number of variables the expression uses, i.e. the
// highest variable index plus one.
func (p *Program) Arity() int { return p.arity }

// validate walks the tree once, rejecting constructs outside the language
// and recording the variable arity.
func (p *Program) validate(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return fmt.Errorf("%w: literal %s", ErrUnsupported, n.Value)
		}
		return nil
	case *ast.Ident:
		if n.Name == "pi" || n.Name == "e" {
			return nil
		}
		idx, ok := varIndex(n.Name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownIdent, n.Name)
		}
		if idx+1 > p.arity {
			p.arity = idx + 1
		}
		return nil
	case *ast.ParenExpr:
		return p.validate(n.X)
	case *ast.UnaryExpr:
		if n.Op != token.SUB && n.Op != token.ADD {
			return fmt.Errorf("%w: unary %s", ErrUnsupported, n.Op)
		}
		return p.validate(n.X)
	case *ast.BinaryExpr:
		switch n.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO, token.XOR:
		default:
			return fmt.Errorf("%w: operator %s", ErrUnsupported, n.Op)
		}
		if err := p.validate(n.X); err != nil {
			return err
		}
		return p.validate(n.Y)
	case *ast.CallExpr:
		fn, ok := n.Fun.(*ast.Ident)
		if !ok {
			return fmt.Errorf("%w: computed call target", ErrUnsupported)
		}
		want, known := funcArity[fn.Name]
		if !known {
			return fmt.Errorf("%w: function %s", ErrUnknownIdent, fn.Name)
		}
		if len(n.Args) != want {
			return fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrArgCount, fn.Name, want, len(n.Args))
		}
		for _, a := range n.Args {
			if err := p.validate(a); err != nil {
				return err
			}
		}
		// log's base must be constant-foldable.
		if fn.Name == "log" {
			if _, err := evalConst(n.Args[1]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, e)
	}
}

// varIndex maps x -> 0 and xN -> N.
func varIndex(name string) (int, bool) {
	if name == "x" {
		return 0, true
	}
	if !strings.HasPrefix(name, "x") {
		return 0, false
	}
	idx, err := strconv.Atoi(name[1:])
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// litValue parses a numeric literal.
func litValue(l *ast.BasicLit) (float64, error) {
	v, err := strconv.ParseFloat(l.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return v, nil
}
