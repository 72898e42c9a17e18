package dual_test

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tangentlab/nabla/internal/domain/dual"
)

const tolerance = 1e-9

func TestArithmetic(t *testing.T) {
	Convey("Given a seeded dual number", t, func() {
		x := dual.Seed(2)

		Convey("When evaluating 4*x + 3", func() {
			y := x.MulFloat(4).AddFloat(3)

			Convey("Then primal and tangent follow the linear rule", func() {
				So(y.Real(), ShouldAlmostEqual, 11, tolerance)
				So(y.Deriv(), ShouldAlmostEqual, 4, tolerance)
			})
		})

		Convey("When multiplying two duals", func() {
			y := x.Mul(x) // x^2

			Convey("Then the product rule applies", func() {
				So(y.Real(), ShouldAlmostEqual, 4, tolerance)
				So(y.Deriv(), ShouldAlmostEqual, 4, tolerance) // 2x at x=2
			})
		})

		Convey("When dividing by a dual with nonzero primal", func() {
			// (5x + 50) / (2x^2) at x=5 has derivative -0.5
			x5 := dual.Seed(5)
			num := x5.MulFloat(5).AddFloat(50)
			den := x5.Mul(x5).MulFloat(2)
			y, err := num.Div(den)

			Convey("Then the quotient rule applies", func() {
				So(err, ShouldBeNil)
				So(y.Real(), ShouldAlmostEqual, 1.5, tolerance)
				So(y.Deriv(), ShouldAlmostEqual, -0.5, tolerance)
			})
		})

		Convey("When dividing by a dual with zero primal", func() {
			_, err := x.Div(dual.Const(0))

			Convey("Then it should report division by zero", func() {
				So(err, ShouldEqual, dual.ErrDivisionByZero)
			})
		})

		Convey("When raising to a constant power", func() {
			y := x.PowFloat(3)

			Convey("Then the power rule applies", func() {
				So(y.Real(), ShouldAlmostEqual, 8, tolerance)
				So(y.Deriv(), ShouldAlmostEqual, 12, tolerance) // 3x^2 at x=2
			})
		})

		Convey("When raising to a dual power", func() {
			// x^x at x=2: derivative is x^x (ln x + 1)
			y, err := x.Pow(x)

			Convey("Then it should match exp(x ln x)", func() {
				So(err, ShouldBeNil)
				So(y.Real(), ShouldAlmostEqual, 4, tolerance)
				So(y.Deriv(), ShouldAlmostEqual, 4*(math.Log(2)+1), tolerance)
			})
		})

		Convey("When negating", func() {
			y := x.Neg()

			So(y.Real(), ShouldAlmostEqual, -2, tolerance)
			So(y.Deriv(), ShouldAlmostEqual, -1, tolerance)
		})
	})
}

func TestElementaryFunctions(t *testing.T) {
	Convey("Given a seeded dual number at 2.5", t, func() {
		x := dual.Seed(2.5)

		Convey("When applying trigonometric functions", func() {
			sin := dual.Sin(x)
			cos := dual.Cos(x)
			tan, errTan := dual.Tan(x)

			Convey("Then derivatives match the analytic forms", func() {
				So(sin.Deriv(), ShouldAlmostEqual, math.Cos(2.5), tolerance)
				So(cos.Deriv(), ShouldAlmostEqual, -math.Sin(2.5), tolerance)
				So(errTan, ShouldBeNil)
				So(tan.Deriv(), ShouldAlmostEqual, 1/(math.Cos(2.5)*math.Cos(2.5)), tolerance)
			})
		})

		Convey("When applying reciprocal trigonometric functions", func() {
			csc, errCsc := dual.Csc(x)
			sec, errSec := dual.Sec(x)
			cot, errCot := dual.Cot(x)

			Convey("Then derivatives match the analytic forms", func() {
				So(errCsc, ShouldBeNil)
				So(csc.Deriv(), ShouldAlmostEqual, (-1/math.Sin(2.5))*(1/math.Tan(2.5)), tolerance)
				So(errSec, ShouldBeNil)
				So(sec.Deriv(), ShouldAlmostEqual, (1/math.Cos(2.5))*math.Tan(2.5), tolerance)
				So(errCot, ShouldBeNil)
				So(cot.Deriv(), ShouldAlmostEqual, -1/(math.Sin(2.5)*math.Sin(2.5)), tolerance)
			})
		})

		Convey("When applying hyperbolic functions", func() {
			sinh := dual.Sinh(dual.Seed(0.7))
			cosh := dual.Cosh(dual.Seed(0.25))
			tanh := dual.Tanh(dual.Seed(1.25))

			Convey("Then derivatives match the analytic forms", func() {
				So(sinh.Deriv(), ShouldAlmostEqual, math.Cosh(0.7), tolerance)
				So(cosh.Deriv(), ShouldAlmostEqual, math.Sinh(0.25), tolerance)
				So(tanh.Deriv(), ShouldAlmostEqual, 1/(math.Cosh(1.25)*math.Cosh(1.25)), tolerance)
			})
		})

		Convey("When applying exp and logarithms", func() {
			// logBase(x, 2) + exp(x) - e at x=2 (from the classic vector case)
			x2 := dual.Seed(2)
			lg, errLog := dual.LogBase(x2, 2)
			y := lg.Add(dual.Exp(x2)).SubFloat(math.E)

			Convey("Then the primal matches the closed form", func() {
				So(errLog, ShouldBeNil)
				So(y.Real(), ShouldAlmostEqual, 5.6707742704, 1e-9)
			})

			ln, errLn := dual.Ln(dual.Seed(27))
			Convey("Then ln derivative is 1/x", func() {
				So(errLn, ShouldBeNil)
				So(ln.Deriv(), ShouldAlmostEqual, 1.0/27, tolerance)
			})
		})

		Convey("When applying inverse trigonometric functions", func() {
			half := dual.Seed(0.5)
			asin, errAsin := dual.Arcsin(half)
			acos, errAcos := dual.Arccos(half)
			atan := dual.Arctan(half)

			Convey("Then derivatives match the analytic forms", func() {
				So(errAsin, ShouldBeNil)
				So(asin.Deriv(), ShouldAlmostEqual, 1/math.Sqrt(0.75), tolerance)
				So(errAcos, ShouldBeNil)
				So(acos.Deriv(), ShouldAlmostEqual, -1/math.Sqrt(0.75), tolerance)
				So(atan.Deriv(), ShouldAlmostEqual, 1/1.25, tolerance)
			})
		})

		Convey("When applying sqrt", func() {
			root, err := dual.Sqrt(dual.Seed(9))

			So(err, ShouldBeNil)
			So(root.Real(), ShouldAlmostEqual, 3, tolerance)
			So(root.Deriv(), ShouldAlmostEqual, 1.0/6, tolerance)
		})

		Convey("When applying abs", func() {
			neg := dual.Abs(dual.Seed(-4))
			pos := dual.Abs(dual.Seed(4))

			Convey("Then the tangent carries the sign of the primal", func() {
				So(neg.Real(), ShouldAlmostEqual, 4, tolerance)
				So(neg.Deriv(), ShouldAlmostEqual, -1, tolerance)
				So(pos.Real(), ShouldAlmostEqual, 4, tolerance)
				So(pos.Deriv(), ShouldAlmostEqual, 1, tolerance)
			})
		})
	})
}

func TestConstants(t *testing.T) {
	Convey("Given the named constants", t, func() {
		Convey("Then they match the math package", func() {
			So(dual.Pi, ShouldAlmostEqual, math.Pi, tolerance)
			So(dual.E, ShouldAlmostEqual, math.E, tolerance)
		})
	})
}

func TestDomainErrors(t *testing.T) {
	Convey("Given arguments outside function domains", t, func() {
		cases := []struct {
			name string
			err  error
		}{
			{"sqrt of negative", func() error { _, err := dual.Sqrt(dual.Seed(-1)); return err }()},
			{"ln of zero", func() error { _, err := dual.Ln(dual.Seed(0)); return err }()},
			{"log base one", func() error { _, err := dual.LogBase(dual.Seed(4), 1); return err }()},
			{"arcsin above one", func() error { _, err := dual.Arcsin(dual.Seed(1.5)); return err }()},
			{"arccos below minus one", func() error { _, err := dual.Arccos(dual.Seed(-2)); return err }()},
			{"csc at zero", func() error { _, err := dual.Csc(dual.Seed(0)); return err }()},
		}

		Convey("Then every case reports a domain error", func() {
			for _, tc := range cases {
				So(tc.err, ShouldEqual, dual.ErrDomain)
			}
		})
	})
}
