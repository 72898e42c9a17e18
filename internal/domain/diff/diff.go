// Package diff drives whole-function differentiation over the dual and
// reverse packages: given functions and an evaluation point it produces
// the primal vector and the Jacobian matrix.
//
// Forward mode makes one pass per variable per function, seeding that
// variable's tangent with 1. Reverse mode makes a single pass per
// function and reads every partial off the tape.
package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/tangentlab/nabla/internal/domain/dual"
	"github.com/tangentlab/nabla/internal/domain/expr"
	"github.com/tangentlab/nabla/internal/domain/reverse"
)

// Mode selects the differentiation strategy.
type Mode string

// Supported modes.
const (
	ModeForward Mode = "forward"
	ModeReverse Mode = "reverse"
)

// ParseMode normalizes a mode string.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "fad", "":
		return ModeForward, nil
	case "reverse", "rad":
		return ModeReverse, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Func is a scalar function evaluated in forward mode.
type Func func(x []dual.Number) (dual.Number, error)

// RFunc is a scalar function evaluated on the reverse-mode tape.
type RFunc func(x []*reverse.Var) (*reverse.Var, error)

// Result bundles the primal trace and the Jacobian. Primal has one entry
// per function; Jacobian has one row per function and one column per
// variable of the evaluation point.
type Result struct {
	Primal   []float64
	Jacobian [][]float64
}

// Forward differentiates fs at point in forward mode.
func Forward(ctx context.Context, fs []Func, point []float64) (Result, error) {
	if err := checkShapes(len(fs), len(point)); err != nil {
		return Result{}, err
	}
	res := Result{
		Primal:   make([]float64, len(fs)),
		Jacobian: make([][]float64, len(fs)),
	}
	inputs := make([]dual.Number, len(point))
	for i, f := range fs {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("differentiation cancelled: %w", err)
		}
		row := make([]float64, len(point))
		for j := range point {
			for k, v := range point {
				if k == j {
					inputs[k] = dual.Seed(v)
				} else {
					inputs[k] = dual.Const(v)
				}
			}
			out, err := f(inputs)
			if err != nil {
				return Result{}, fmt.Errorf("function %d: %w", i, err)
			}
			row[j] = out.Deriv()
			res.Primal[i] = out.Real()
		}
		res.Jacobian[i] = row
	}
	return res, nil
}

// Reverse differentiates fs at point in reverse mode. A single tape pass
// per function yields the whole Jacobian row.
func Reverse(ctx context.Context, fs []RFunc, point []float64) (Result, error) {
	if err := checkShapes(len(fs), len(point)); err != nil {
		return Result{}, err
	}
	res := Result{
		Primal:   make([]float64, len(fs)),
		Jacobian: make([][]float64, len(fs)),
	}
	for i, f := range fs {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("differentiation cancelled: %w", err)
		}
		vars := make([]*reverse.Var, len(point))
		for k, v := range point {
			vars[k] = reverse.NewVar(v)
		}
		out, err := f(vars)
		if err != nil {
			return Result{}, fmt.Errorf("function %d: %w", i, err)
		}
		out.Seed(1)
		row := make([]float64, len(point))
		for j, v := range vars {
			row[j] = v.Grad()
		}
		res.Primal[i] = out.Value()
		res.Jacobian[i] = row
	}
	return res, nil
}

// Evaluate compiles expression sources and differentiates them at point
// in the requested mode.
func Evaluate(ctx context.Context, mode Mode, sources []string, point []float64) (Result, error) {
	if len(sources) == 0 {
		return Result{}, ErrNoFuncs
	}
	programs := make([]*expr.Program, len(sources))
	for i, src := range sources {
		p, err := expr.Compile(src)
		if err != nil {
			return Result{}, fmt.Errorf("expression %d: %w", i, err)
		}
		if p.Arity() > len(point) {
			return Result{}, fmt.Errorf("expression %d: %w", i, expr.ErrPoint)
		}
		programs[i] = p
	}
	switch mode {
	case ModeForward:
		fs := make([]Func, len(programs))
		for i, p := range programs {
			fs[i] = p.Dual
		}
		return Forward(ctx, fs, point)
	case ModeReverse:
		fs := make([]RFunc, len(programs))
		for i, p := range programs {
			fs[i] = p.Reverse
		}
		return Reverse(ctx, fs, point)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func checkShapes(funcs, vars int) error {
	if funcs == 0 {
		return ErrNoFuncs
	}
	if vars == 0 {
		return ErrEmptyPoint
	}
	return nil
}
