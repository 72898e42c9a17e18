package expr

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/tangentlab/nabla/internal/domain/dual"
	"github.com/tangentlab/nabla/internal/domain/reverse"
)

// Reverse evaluates the program against tape variables, building the
// reverse-mode tape as a side effect. Seed the returned node and query
// Grad on the inputs afterwards.
func (p *Program) Reverse(x []*reverse.Var) (*reverse.Var, error) {
	if len(x) < p.arity {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrPoint, p.arity, len(x))
	}
	return evalReverse(p.root, x)
}

func evalReverse(e ast.Expr, x []*reverse.Var) (*reverse.Var, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		v, err := litValue(n)
		if err != nil {
			return nil, err
		}
		return reverse.NewVar(v), nil
	case *ast.Ident:
		switch n.Name {
		case "pi":
			return reverse.NewVar(dual.Pi), nil
		case "e":
			return reverse.NewVar(dual.E), nil
		}
		idx, _ := varIndex(n.Name)
		return x[idx], nil
	case *ast.ParenExpr:
		return evalReverse(n.X, x)
	case *ast.UnaryExpr:
		v, err := evalReverse(n.X, x)
		if err != nil {
			return nil, err
		}
		if n.Op == token.SUB {
			return v.Neg(), nil
		}
		return v, nil
	case *ast.BinaryExpr:
		return evalReverseBinary(n, x)
	case *ast.CallExpr:
		return evalReverseCall(n, x)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, e)
	}
}

func evalReverseBinary(n *ast.BinaryExpr, x []*reverse.Var) (*reverse.Var, error) {
	a, err := evalReverse(n.X, x)
	if err != nil {
		return nil, err
	}
	if n.Op == token.XOR {
		if exp, cerr := evalConst(n.Y); cerr == nil {
			return a.PowFloat(exp), nil
		}
		b, err := evalReverse(n.Y, x)
		if err != nil {
			return nil, err
		}
		return a.Pow(b)
	}
	b, err := evalReverse(n.Y, x)
	if err != nil {
		return nil, err
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
		return nil, fmt.Errorf("%w: operator %s", ErrUnsupported, n.Op)
	}
}

func evalReverseCall(n *ast.CallExpr, x []*reverse.Var) (*reverse.Var, error) {
	name := n.Fun.(*ast.Ident).Name
	arg, err := evalReverse(n.Args[0], x)
	if err != nil {
		return nil, err
	}
	switch name {
	case "abs":
		return reverse.Abs(arg), nil
	case "sqrt":
		return reverse.Sqrt(arg)
	case "exp":
		return reverse.Exp(arg), nil
	case "ln":
		return reverse.Ln(arg)
	case "log":
		base, err := evalConst(n.Args[1])
		if err != nil {
			return nil, err
		}
		return reverse.LogBase(arg, base)
	case "pow":
		if exp, cerr := evalConst(n.Args[1]); cerr == nil {
			return arg.PowFloat(exp), nil
		}
		b, err := evalReverse(n.Args[1], x)
		if err != nil {
			return nil, err
		}
		return arg.Pow(b)
	case "sin":
		return reverse.Sin(arg), nil
	case "cos":
		return reverse.Cos(arg), nil
	case "tan":
		return reverse.Tan(arg)
	case "csc":
		return reverse.Csc(arg)
	case "sec":
		return reverse.Sec(arg)
	case "cot":
		return reverse.Cot(arg)
	case "arcsin", "asin":
		return reverse.Arcsin(arg)
	case "arccos", "acos":
		return reverse.Arccos(arg)
	case "arctan", "atan":
		return reverse.Arctan(arg), nil
	case "sinh":
		return reverse.Sinh(arg), nil
	case "cosh":
		return reverse.Cosh(arg), nil
	case "tanh":
		return reverse.Tanh(arg), nil
	default:
		return nil, fmt.Errorf("%w: function %s", ErrUnknownIdent, name)
	}
}
