package expr

import (
	"fmt"
	"go/ast"
	"go/token"
	"math"

	"github.com/tangentlab/nabla/internal/domain/dual"
)

// evalConst folds a variable-free subtree to a float. It fails with
// ErrConstantArg if the subtree references a variable.
func evalConst(e ast.Expr) (float64, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		return litValue(n)
	case *ast.Ident:
		switch n.Name {
		case "pi":
			return dual.Pi, nil
		case "e":
			return dual.E, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrConstantArg, n.Name)
	case *ast.ParenExpr:
		return evalConst(n.X)
	case *ast.UnaryExpr:
		v, err := evalConst(n.X)
		if err != nil {
			return 0, err
		}
		if n.Op == token.SUB {
			return -v, nil
		}
		return v, nil
	case *ast.BinaryExpr:
		a, err := evalConst(n.X)
		if err != nil {
			return 0, err
		}
		b, err := evalConst(n.Y)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return a + b, nil
		case token.SUB:
			return a - b, nil
		case token.MUL:
			return a * b, nil
		case token.QUO:
			return a / b, nil
		case token.XOR:
			return math.Pow(a, b), nil
		}
		return 0, fmt.Errorf("%w: operator %s", ErrUnsupported, n.Op)
	default:
		return 0, fmt.Errorf("%w: %T", ErrConstantArg, e)
	}
}
