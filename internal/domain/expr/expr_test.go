package expr_test

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tangentlab/nabla/internal/domain/dual"
	"github.com/tangentlab/nabla/internal/domain/expr"
	"github.com/tangentlab/nabla/internal/domain/reverse"
)

const tolerance = 1e-9

func TestCompile(t *testing.T) {
	Convey("Given expression sources", t, func() {
		Convey("When compiling valid expressions", func() {
			cases := map[string]int{
				"4*x + 3":                 1,
				"x0^2 + 3*x1 + 5":         2,
				"sin(x0) + cos(x1)":       2,
				"log(x, 2) + exp(x) - e":  1,
				"pow(x2, 3) - pi":         3,
				"-(x0 / (1 + x0))":        1,
				"tanh(x0)*3":              1,
				"5*exp(x0)+2*exp(x1)+3*exp(x2)": 3,
			}

			Convey("Then arity reflects the highest variable index", func() {
				for src, arity := range cases {
					p, err := expr.Compile(src)
					So(err, ShouldBeNil)
					So(p.Arity(), ShouldEqual, arity)
				}
			})
		})

		Convey("When compiling invalid expressions", func() {
			Convey("Then empty source fails to parse", func() {
				_, err := expr.Compile("   ")
				So(errors.Is(err, expr.ErrParse), ShouldBeTrue)
			})
			Convey("Then unknown identifiers are rejected", func() {
				_, err := expr.Compile("sin(y) + 1")
				So(errors.Is(err, expr.ErrUnknownIdent), ShouldBeTrue)
			})
			Convey("Then unknown functions are rejected", func() {
				_, err := expr.Compile("gamma(x)")
				So(errors.Is(err, expr.ErrUnknownIdent), ShouldBeTrue)
			})
			Convey("Then wrong argument counts are rejected", func() {
				_, err := expr.Compile("sin(x0, x1)")
				So(errors.Is(err, expr.ErrArgCount), ShouldBeTrue)
			})
			Convey("Then a variable log base is rejected", func() {
				_, err := expr.Compile("log(x0, x1)")
				So(errors.Is(err, expr.ErrConstantArg), ShouldBeTrue)
			})
			Convey("Then non-arithmetic constructs are rejected", func() {
				_, err := expr.Compile(`len("abc")`)
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestDualEvaluation(t *testing.T) {
	Convey("Given a compiled expression", t, func() {
		Convey("When evaluating 4*x + 3 seeded at x=2", func() {
			p, err := expr.Compile("4*x + 3")
			So(err, ShouldBeNil)

			out, err := p.Dual([]dual.Number{dual.Seed(2)})

			Convey("Then primal and tangent are 11 and 4", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, 11, tolerance)
				So(out.Deriv(), ShouldAlmostEqual, 4, tolerance)
			})
		})

		Convey("When evaluating x0^2 + 3*x1 + 5 at (1, 2)", func() {
			p, err := expr.Compile("x0^2 + 3*x1 + 5")
			So(err, ShouldBeNil)

			// Seed x0 only: partial with respect to x0.
			out, err := p.Dual([]dual.Number{dual.Seed(1), dual.Const(2)})

			Convey("Then the partial toward x0 is 2", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, 12, tolerance)
				So(out.Deriv(), ShouldAlmostEqual, 2, tolerance)
			})
		})

		Convey("When the expression hits a domain error", func() {
			p, err := expr.Compile("ln(x)")
			So(err, ShouldBeNil)

			_, err = p.Dual([]dual.Number{dual.Seed(-3)})

			Convey("Then the dual-package sentinel surfaces", func() {
				So(err, ShouldEqual, dual.ErrDomain)
			})
		})

		Convey("When the point is too short", func() {
			p, err := expr.Compile("x0 + x1")
			So(err, ShouldBeNil)

			_, err = p.Dual([]dual.Number{dual.Seed(1)})

			So(errors.Is(err, expr.ErrPoint), ShouldBeTrue)
		})

		Convey("When the absolute value wraps a negative input", func() {
			p, err := expr.Compile("abs(x)")
			So(err, ShouldBeNil)

			out, err := p.Dual([]dual.Number{dual.Seed(-4)})

			Convey("Then the tangent follows the sign", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, 4, tolerance)
				So(out.Deriv(), ShouldAlmostEqual, -1, tolerance)
			})
		})

		Convey("When constants appear", func() {
			p, err := expr.Compile("log(x, 2) + exp(x) - e")
			So(err, ShouldBeNil)

			out, err := p.Dual([]dual.Number{dual.Seed(2)})

			Convey("Then the classic value 5.6707742704 comes out", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, 5.6707742704, 1e-9)
			})
		})
	})
}

func TestOperatorPrecedence(t *testing.T) {
	Convey("Given expressions mixing ^ with other operators", t, func() {
		Convey("When a coefficient multiplies a power", func() {
			p, err := expr.Compile("2*x^2")
			So(err, ShouldBeNil)

			out, err := p.Dual([]dual.Number{dual.Seed(3)})

			Convey("Then the power binds tighter than the product", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, 18, tolerance)
				So(out.Deriv(), ShouldAlmostEqual, 12, tolerance)
			})
		})

		Convey("When a power sits in a denominator", func() {
			p, err := expr.Compile("(5*x + 50)/(2*x^2)")
			So(err, ShouldBeNil)

			out, err := p.Dual([]dual.Number{dual.Seed(5)})

			Convey("Then value and derivative follow the usual convention", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, 1.5, tolerance)
				So(out.Deriv(), ShouldAlmostEqual, -0.5, tolerance)
			})
		})

		Convey("When powers are stacked", func() {
			p, err := expr.Compile("2^3^2")
			So(err, ShouldBeNil)

			out, err := p.Dual(nil)

			Convey("Then they associate to the right", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, 512, tolerance)
			})
		})

		Convey("When a sign precedes a power", func() {
			p, err := expr.Compile("-x^2")
			So(err, ShouldBeNil)

			out, err := p.Dual([]dual.Number{dual.Seed(3)})

			Convey("Then the power is negated, not the base", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, -9, tolerance)
				So(out.Deriv(), ShouldAlmostEqual, -6, tolerance)
			})
		})

		Convey("When the exponent carries a sign", func() {
			p, err := expr.Compile("x^-2")
			So(err, ShouldBeNil)

			out, err := p.Dual([]dual.Number{dual.Seed(2)})

			Convey("Then the negative exponent applies", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, 0.25, tolerance)
				So(out.Deriv(), ShouldAlmostEqual, -0.25, tolerance)
			})
		})

		Convey("When parentheses force the loose grouping", func() {
			p, err := expr.Compile("(2*x)^2")
			So(err, ShouldBeNil)

			out, err := p.Dual([]dual.Number{dual.Seed(3)})

			Convey("Then they still win over the power", func() {
				So(err, ShouldBeNil)
				So(out.Real(), ShouldAlmostEqual, 36, tolerance)
				So(out.Deriv(), ShouldAlmostEqual, 24, tolerance)
			})
		})

		Convey("When evaluating the same shape on a tape", func() {
			p, err := expr.Compile("2*x0^2 + x1")
			So(err, ShouldBeNil)

			x := []*reverse.Var{reverse.NewVar(3), reverse.NewVar(1)}
			out, err := p.Reverse(x)

			Convey("Then both backends agree on the grouping", func() {
				So(err, ShouldBeNil)
				out.Seed(1)
				So(out.Value(), ShouldAlmostEqual, 19, tolerance)
				So(x[0].Grad(), ShouldAlmostEqual, 12, tolerance)
				So(x[1].Grad(), ShouldAlmostEqual, 1, tolerance)
			})
		})
	})
}

func TestReverseEvaluation(t *testing.T) {
	Convey("Given a compiled expression evaluated on a tape", t, func() {
		Convey("When evaluating (5*x0 + 50)/(2*x1^2) at (1, 2)", func() {
			p, err := expr.Compile("(5*x0 + 50)/(2*x1^2)")
			So(err, ShouldBeNil)

			x := []*reverse.Var{reverse.NewVar(1), reverse.NewVar(2)}
			out, err := p.Reverse(x)

			Convey("Then both partials come from one backward pass", func() {
				So(err, ShouldBeNil)
				out.Seed(1)
				So(x[0].Grad(), ShouldAlmostEqual, 0.625, tolerance)
				So(x[1].Grad(), ShouldAlmostEqual, -6.875, tolerance)
			})
		})

		Convey("When evaluating sin(x) at 2.5", func() {
			p, err := expr.Compile("sin(x)")
			So(err, ShouldBeNil)

			x := []*reverse.Var{reverse.NewVar(2.5)}
			out, err := p.Reverse(x)

			Convey("Then the gradient is cos(2.5)", func() {
				So(err, ShouldBeNil)
				out.Seed(1)
				So(x[0].Grad(), ShouldAlmostEqual, math.Cos(2.5), tolerance)
			})
		})

		Convey("When dividing by zero", func() {
			p, err := expr.Compile("1/x")
			So(err, ShouldBeNil)

			_, err = p.Reverse([]*reverse.Var{reverse.NewVar(0)})

			So(err, ShouldEqual, reverse.ErrDivisionByZero)
		})
	})
}
