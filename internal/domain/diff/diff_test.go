package diff_test

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tangentlab/nabla/internal/domain/diff"
	"github.com/tangentlab/nabla/internal/domain/dual"
	"github.com/tangentlab/nabla/internal/domain/expr"
	"github.com/tangentlab/nabla/internal/domain/reverse"
)

const tolerance = 1e-9

func TestForward(t *testing.T) {
	Convey("Given forward-mode functions", t, func() {
		ctx := context.Background()

		Convey("When differentiating a scalar function", func() {
			f := func(x []dual.Number) (dual.Number, error) {
				return x[0].MulFloat(4).AddFloat(3), nil
			}
			res, err := diff.Forward(ctx, []diff.Func{f}, []float64{2})

			Convey("Then primal is 11 and the Jacobian is [[4]]", func() {
				So(err, ShouldBeNil)
				So(res.Primal, ShouldResemble, []float64{11})
				So(res.Jacobian, ShouldHaveLength, 1)
				So(res.Jacobian[0][0], ShouldAlmostEqual, 4, tolerance)
			})
		})

		Convey("When differentiating a function of two variables", func() {
			f := func(x []dual.Number) (dual.Number, error) {
				return x[0].Mul(x[0]).Add(x[1].MulFloat(3)).AddFloat(5), nil
			}
			res, err := diff.Forward(ctx, []diff.Func{f}, []float64{1, 2})

			Convey("Then primal is 12 and the row holds both partials", func() {
				So(err, ShouldBeNil)
				So(res.Primal[0], ShouldAlmostEqual, 12, tolerance)
				So(res.Jacobian[0][0], ShouldAlmostEqual, 2, tolerance)
				So(res.Jacobian[0][1], ShouldAlmostEqual, 3, tolerance)
			})
		})

		Convey("When differentiating a vector of functions", func() {
			f1 := func(x []dual.Number) (dual.Number, error) {
				return x[0].Mul(x[0]).Add(x[1].MulFloat(3)).AddFloat(5), nil
			}
			f2 := func(x []dual.Number) (dual.Number, error) {
				return dual.Sin(x[0]).Add(dual.Cos(x[1])), nil
			}
			res, err := diff.Forward(ctx, []diff.Func{f1, f2}, []float64{1, 2})

			Convey("Then the Jacobian has one row per function", func() {
				So(err, ShouldBeNil)
				So(res.Jacobian, ShouldHaveLength, 2)
				So(res.Jacobian[0][0], ShouldAlmostEqual, 2, tolerance)
				So(res.Jacobian[0][1], ShouldAlmostEqual, 3, tolerance)
				So(res.Jacobian[1][0], ShouldAlmostEqual, math.Cos(1), tolerance)
				So(res.Jacobian[1][1], ShouldAlmostEqual, -math.Sin(2), tolerance)
			})
		})

		Convey("When shapes are degenerate", func() {
			_, errNoFuncs := diff.Forward(ctx, nil, []float64{1})
			_, errNoPoint := diff.Forward(ctx, []diff.Func{func(x []dual.Number) (dual.Number, error) {
				return x[0], nil
			}}, nil)

			So(errNoFuncs, ShouldEqual, diff.ErrNoFuncs)
			So(errNoPoint, ShouldEqual, diff.ErrEmptyPoint)
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := diff.Forward(cancelled, []diff.Func{func(x []dual.Number) (dual.Number, error) {
				return x[0], nil
			}}, []float64{1})

			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestReverse(t *testing.T) {
	Convey("Given reverse-mode functions", t, func() {
		ctx := context.Background()

		Convey("When differentiating (5x + 50)/(2x^2) at 5", func() {
			f := func(x []*reverse.Var) (*reverse.Var, error) {
				return x[0].MulFloat(5).AddFloat(50).Div(x[0].PowFloat(2).MulFloat(2))
			}
			res, err := diff.Reverse(ctx, []diff.RFunc{f}, []float64{5})

			Convey("Then the gradient is -0.5 and the primal is tracked", func() {
				So(err, ShouldBeNil)
				So(res.Jacobian[0][0], ShouldAlmostEqual, -0.5, tolerance)
				So(res.Primal[0], ShouldAlmostEqual, 1.5, tolerance)
			})
		})

		Convey("When differentiating a vector of functions at (1, 2)", func() {
			f1 := func(x []*reverse.Var) (*reverse.Var, error) {
				return x[0].MulFloat(5).AddFloat(50).Div(x[1].PowFloat(2).MulFloat(2))
			}
			f2 := func(x []*reverse.Var) (*reverse.Var, error) {
				return x[1].MulFloat(2).AddFloat(10), nil
			}
			res, err := diff.Reverse(ctx, []diff.RFunc{f1, f2}, []float64{1, 2})

			Convey("Then rows match the classic fixture", func() {
				So(err, ShouldBeNil)
				So(res.Jacobian[0][0], ShouldAlmostEqual, 0.625, tolerance)
				So(res.Jacobian[0][1], ShouldAlmostEqual, -6.875, tolerance)
				So(res.Jacobian[1][0], ShouldAlmostEqual, 0, tolerance)
				So(res.Jacobian[1][1], ShouldAlmostEqual, 2, tolerance)
			})
		})

		Convey("When a function reports a domain error", func() {
			f := func(x []*reverse.Var) (*reverse.Var, error) {
				return reverse.Ln(x[0])
			}
			_, err := diff.Reverse(ctx, []diff.RFunc{f}, []float64{-1})

			So(errors.Is(err, reverse.ErrDomain), ShouldBeTrue)
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given expression sources", t, func() {
		ctx := context.Background()

		Convey("When evaluating in forward mode", func() {
			res, err := diff.Evaluate(ctx, diff.ModeForward,
				[]string{"x0^2 + 3*x1 + 5", "sin(x0) + cos(x1)"},
				[]float64{1, 2})

			Convey("Then both rows of the Jacobian are correct", func() {
				So(err, ShouldBeNil)
				So(res.Primal[0], ShouldAlmostEqual, 12, tolerance)
				So(res.Jacobian[0][0], ShouldAlmostEqual, 2, tolerance)
				So(res.Jacobian[0][1], ShouldAlmostEqual, 3, tolerance)
				So(res.Jacobian[1][0], ShouldAlmostEqual, math.Cos(1), tolerance)
				So(res.Jacobian[1][1], ShouldAlmostEqual, -math.Sin(2), tolerance)
			})
		})

		Convey("When evaluating in reverse mode", func() {
			res, err := diff.Evaluate(ctx, diff.ModeReverse,
				[]string{"(5*x0 + 50)/(2*x1^2)", "10 + 2*x1"},
				[]float64{1, 2})

			Convey("Then the Jacobian matches forward mode", func() {
				So(err, ShouldBeNil)
				So(res.Jacobian[0][0], ShouldAlmostEqual, 0.625, tolerance)
				So(res.Jacobian[0][1], ShouldAlmostEqual, -6.875, tolerance)
				So(res.Jacobian[1][0], ShouldAlmostEqual, 0, tolerance)
				So(res.Jacobian[1][1], ShouldAlmostEqual, 2, tolerance)
			})
		})

		Convey("When an expression uses more variables than the point has", func() {
			_, err := diff.Evaluate(ctx, diff.ModeForward, []string{"x0 + x5"}, []float64{1, 2})

			So(errors.Is(err, expr.ErrPoint), ShouldBeTrue)
		})

		Convey("When an expression fails to compile", func() {
			_, err := diff.Evaluate(ctx, diff.ModeForward, []string{"4*("}, []float64{1})

			So(errors.Is(err, expr.ErrParse), ShouldBeTrue)
		})

		Convey("When the mode is unknown", func() {
			_, err := diff.Evaluate(ctx, diff.Mode("sideways"), []string{"x"}, []float64{1})

			So(errors.Is(err, diff.ErrUnknownMode), ShouldBeTrue)
		})
	})
}

func TestParseMode(t *testing.T) {
	Convey("Given mode strings", t, func() {
		Convey("Then aliases normalize", func() {
			m, err := diff.ParseMode("FAD")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, diff.ModeForward)

			m, err = diff.ParseMode("rad")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, diff.ModeReverse)

			m, err = diff.ParseMode("")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, diff.ModeForward)
		})

		Convey("Then garbage is rejected", func() {
			_, err := diff.ParseMode("central")
			So(errors.Is(err, diff.ErrUnknownMode), ShouldBeTrue)
		})
	})
}
