package expr

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/tangentlab/nabla/internal/domain/dual"
)

// Dual evaluates the program in forward mode against the given inputs.
// The slice must cover every variable the expression uses; seed exactly
// the variable being differentiated.
func (p *Program) Dual(x []dual.Number) (dual.Number, error) {
	if len(x) < p.arity {
		return dual.Number{}, fmt.Errorf("%w: need %d, got %d", ErrPoint, p.arity, len(x))
	}
	return evalDual(p.root, x)
}

func evalDual(e ast.Expr, x []dual.Number) (dual.Number, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		v, err := litValue(n)
		if err != nil {
			return dual.Number{}, err
		}
		return dual.Const(v), nil
	case *ast.Ident:
		switch n.Name {
		case "pi":
			return dual.Const(dual.Pi), nil
		case "e":
			return dual.Const(dual.E), nil
		}
		idx, _ := varIndex(n.Name)
		return x[idx], nil
	case *ast.ParenExpr:
		return evalDual(n.X, x)
	case *ast.UnaryExpr:
		v, err := evalDual(n.X, x)
		if err != nil {
			return dual.Number{}, err
		}
		if n.Op == token.SUB {
			return v.Neg(), nil
		}
		return v, nil
	case *ast.BinaryExpr:
		return evalDualBinary(n, x)
	case *ast.CallExpr:
		return evalDualCall(n, x)
	default:
		return dual.Number{}, fmt.Errorf("%w: %T", ErrUnsupported, e)
	}
}

func evalDualBinary(n *ast.BinaryExpr, x []dual.Number) (dual.Number, error) {
	a, err := evalDual(n.X, x)
	if err != nil {
		return dual.Number{}, err
	}
	switch n.Op {
	case token.XOR:
		// Constant exponents take the power rule; dual exponents go
		// through exp(b ln a).
		if exp, cerr := evalConst(n.Y); cerr == nil {
			return a.PowFloat(exp), nil
		}
		b, err := evalDual(n.Y, x)
		if err != nil {
			return dual.Number{}, err
		}
		return a.Pow(b)
	default:
	}
	b, err := evalDual(n.Y, x)
	if err != nil {
		return dual.Number{}, err
	}
	switch n.Op {
	case token.ADD:
		return a.Add(b), nil
	case token.SUB:
		return a.Sub(b), nil
	case token.MUL:
		return a.Mul(b), nil
	case token.QUO:
		return a.Div(b)
	default:
		return dual.Number{}, fmt.Errorf("%w: operator %s", ErrUnsupported, n.Op)
	}
}

func evalDualCall(n *ast.CallExpr, x []dual.Number) (dual.Number, error) {
	name := n.Fun.(*ast.Ident).Name
	arg, err := evalDual(n.Args[0], x)
	if err != nil {
		return dual.Number{}, err
	}
	switch name {
	case "abs":
		return dual.Abs(arg), nil
	case "sqrt":
		return dual.Sqrt(arg)
	case "exp":
		return dual.Exp(arg), nil
	case "ln":
		return dual.Ln(arg)
	case "log":
		base, err := evalConst(n.Args[1])
		if err != nil {
			return dual.Number{}, err
		}
		return dual.LogBase(arg, base)
	case "pow":
		if exp, cerr := evalConst(n.Args[1]); cerr == nil {
			return arg.PowFloat(exp), nil
		}
		b, err := evalDual(n.Args[1], x)
		if err != nil {
			return dual.Number{}, err
		}
		return arg.Pow(b)
	case "sin":
		return dual.Sin(arg), nil
	case "cos":
		return dual.Cos(arg), nil
	case "tan":
		return dual.Tan(arg)
	case "csc":
		return dual.Csc(arg)
	case "sec":
		return dual.Sec(arg)
	case "cot":
		return dual.Cot(arg)
	case "arcsin", "asin":
		return dual.Arcsin(arg)
	case "arccos", "acos":
		return dual.Arccos(arg)
	case "arctan", "atan":
		return dual.Arctan(arg), nil
	case "sinh":
		return dual.Sinh(arg), nil
	case "cosh":
		return dual.Cosh(arg), nil
	case "tanh":
		return dual.Tanh(arg), nil
	default:
		return dual.Number{}, fmt.Errorf("%w: function %s", ErrUnknownIdent, name)
	}
}
