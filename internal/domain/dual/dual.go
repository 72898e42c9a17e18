// Package dual implements forward-mode automatic differentiation over
// dual numbers.
//
// A dual number carries a primal value and a tangent (derivative) value
// through every arithmetic operation, so evaluating a function with a
// seeded input yields both f(x) and f'(x) in one pass.
package dual

import "math"

// Named constants available to expression sources.
const (
	Pi = math.Pi
	E  = math.E
)

// Number is a dual number. The zero value is the dual zero.
type Number struct {
	re float64 // primal value
	du float64 // tangent value
}

// New builds a dual number with an explicit tangent part.
func New(real, deriv float64) Number {
	return Number{re: real, du: deriv}
}

// Const builds a dual number with a zero tangent, i.e. a constant.
func Const(v float64) Number {
	return Number{re: v}
}

// Seed builds a dual number seeded for differentiation with respect to
// itself (tangent 1).
func Seed(v float64) Number {
	return Number{re: v, du: 1}
}

// Real returns the primal value.
func (n Number) Real() float64 { return n.re }

// Deriv returns the tangent value.
func (n Number) Deriv() float64 { return n.du }

// Add returns n + m.
func (n Number) Add(m Number) Number {
	return Number{re: n.re + m.re, du: n.du + m.du}
}

// AddFloat returns n + c for a constant c.
func (n Number) AddFloat(c float64) Number {
	return Number{re: n.re + c, du: n.du}
}

// Sub returns n - m.
func (n Number) Sub(m Number) Number {
	return Number{re: n.re - m.re, du: n.du - m.du}
}

// SubFloat returns n - c for a constant c.
func (n Number) SubFloat(c float64) Number {
	return Number{re: n.re - c, du: n.du}
}

// Mul returns n * m using the product rule.
func (n Number) Mul(m Number) Number {
	return Number{re: n.re * m.re, du: n.du*m.re + n.re*m.du}
}

// MulFloat returns n * c for a constant c.
func (n Number) MulFloat(c float64) Number {
	return Number{re: n.re * c, du: n.du * c}
}

// Div returns n / m using the quotient rule.
// Returns ErrDivisionByZero when the primal value of m is zero.
func (n Number) Div(m Number) (Number, error) {
	if m.re == 0 {
		return Number{}, ErrDivisionByZero
	}
	return Number{
		re: n.re / m.re,
		du: (n.du*m.re - n.re*m.du) / (m.re * m.re),
	}, nil
}

// Neg returns -n.
func (n Number) Neg() Number {
	return Number{re: -n.re, du: -n.du}
}

// PowFloat returns n raised to a constant exponent p.
func (n Number) PowFloat(p float64) Number {
	return Number{
		re: math.Pow(n.re, p),
		du: p * math.Pow(n.re, p-1) * n.du,
	}
}

// Pow returns n raised to a dual exponent m, computed as exp(m * ln n).
// The primal value of n must be positive.
func (n Number) Pow(m Number) (Number, error) {
	if m.du == 0 {
		return n.PowFloat(m.re), nil
	}
	ln, err := Ln(n)
	if err != nil {
		return Number{}, err
	}
	return Exp(m.Mul(ln)), nil
}
