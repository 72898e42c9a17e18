package dual

import "math"

// Elementary functions over dual numbers. Each propagates the tangent by
// the chain rule. Functions with a restricted domain return ErrDomain when
// the primal value falls outside it.

// Abs returns |n|. The tangent flips sign with the primal; at zero the
// right-hand derivative is used.
func Abs(n Number) Number {
	if n.re < 0 {
		return Number{re: -n.re, du: -n.du}
	}
	return n
}

// Sqrt returns the square root of n. The primal value must be positive;
// the derivative of sqrt is unbounded at zero.
func Sqrt(n Number) (Number, error) {
	if n.re <= 0 {
		return Number{}, ErrDomain
	}
	root := math.Sqrt(n.re)
	return Number{re: root, du: n.du / (2 * root)}, nil
}

// Exp returns e**n.
func Exp(n Number) Number {
	ex := math.Exp(n.re)
	return Number{re: ex, du: n.du * ex}
}

// Ln returns the natural logarithm of n. The primal value must be positive.
func Ln(n Number) (Number, error) {
	if n.re <= 0 {
		return Number{}, ErrDomain
	}
	return Number{re: math.Log(n.re), du: n.du / n.re}, nil
}

// LogBase returns the logarithm of n in the given base.
func LogBase(n Number, base float64) (Number, error) {
	if base <= 0 || base == 1 {
		return Number{}, ErrDomain
	}
	ln, err := Ln(n)
	if err != nil {
		return Number{}, err
	}
	return ln.MulFloat(1 / math.Log(base)), nil
}

// Sin returns the sine of n.
func Sin(n Number) Number {
	return Number{re: math.Sin(n.re), du: n.du * math.Cos(n.re)}
}

// Cos returns the cosine of n.
func Cos(n Number) Number {
	return Number{re: math.Cos(n.re), du: -n.du * math.Sin(n.re)}
}

// Tan returns the tangent of n. d/dx tan = sec**2.
func Tan(n Number) (Number, error) {
	c := math.Cos(n.re)
	if c == 0 {
		return Number{}, ErrDomain
	}
	return Number{re: math.Tan(n.re), du: n.du / (c * c)}, nil
}

// Csc returns the cosecant of n. d/dx csc = -csc*cot.
func Csc(n Number) (Number, error) {
	s := math.Sin(n.re)
	if s == 0 {
		return Number{}, ErrDomain
	}
	return Number{
		re: 1 / s,
		du: -n.du * math.Cos(n.re) / (s * s),
	}, nil
}

// Sec returns the secant of n. d/dx sec = sec*tan.
func Sec(n Number) (Number, error) {
	c := math.Cos(n.re)
	if c == 0 {
		return Number{}, ErrDomain
	}
	return Number{
		re: 1 / c,
		du: n.du * math.Sin(n.re) / (c * c),
	}, nil
}

// Cot returns the cotangent of n. d/dx cot = -csc**2.
func Cot(n Number) (Number, error) {
	s := math.Sin(n.re)
	if s == 0 {
		return Number{}, ErrDomain
	}
	return Number{
		re: math.Cos(n.re) / s,
		du: -n.du / (s * s),
	}, nil
}

// Arcsin returns the inverse sine of n. The primal value must lie in the
// open interval (-1, 1); the derivative diverges at the endpoints.
func Arcsin(n Number) (Number, error) {
	if n.re <= -1 || n.re >= 1 {
		return Number{}, ErrDomain
	}
	return Number{
		re: math.Asin(n.re),
		du: n.du / math.Sqrt(1-n.re*n.re),
	}, nil
}

// Arccos returns the inverse cosine of n, with the same domain as Arcsin.
func Arccos(n Number) (Number, error) {
	if n.re <= -1 || n.re >= 1 {
		return Number{}, ErrDomain
	}
	return Number{
		re: math.Acos(n.re),
		du: -n.du / math.Sqrt(1-n.re*n.re),
	}, nil
}

// Arctan returns the inverse tangent of n.
func Arctan(n Number) Number {
	return Number{
		re: math.Atan(n.re),
		du: n.du / (1 + n.re*n.re),
	}
}

// Sinh returns the hyperbolic sine of n.
func Sinh(n Number) Number {
	return Number{re: math.Sinh(n.re), du: n.du * math.Cosh(n.re)}
}

// Cosh returns the hyperbolic cosine of n.
func Cosh(n Number) Number {
	return Number{re: math.Cosh(n.re), du: n.du * math.Sinh(n.re)}
}

// Tanh returns the hyperbolic tangent of n. d/dx tanh = 1/cosh**2.
func Tanh(n Number) Number {
	ch := math.Cosh(n.re)
	return Number{re: math.Tanh(n.re), du: n.du / (ch * ch)}
}
