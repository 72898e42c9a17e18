package reverse

import "math"

// Elementary functions over tape nodes. Each records the local partial
// derivative on its operand; domain checks mirror the dual package.

// Abs returns |v|. At zero the right-hand derivative is used.
func Abs(v *Var) *Var {
	if v.val < 0 {
		out := &Var{val: -v.val}
		v.attach(out, -1)
		return out
	}
	out := &Var{val: v.val}
	v.attach(out, 1)
	return out
}

// Sqrt returns the square root of v. The value must be positive.
func Sqrt(v *Var) (*Var, error) {
	if v.val <= 0 {
		return nil, ErrDomain
	}
	root := math.Sqrt(v.val)
	out := &Var{val: root}
	v.attach(out, 1/(2*root))
	return out, nil
}

// Exp returns e**v.
func Exp(v *Var) *Var {
	ex := math.Exp(v.val)
	out := &Var{val: ex}
	v.attach(out, ex)
	return out
}

// Ln returns the natural logarithm of v. The value must be positive.
func Ln(v *Var) (*Var, error) {
	if v.val <= 0 {
		return nil, ErrDomain
	}
	out := &Var{val: math.Log(v.val)}
	v.attach(out, 1/v.val)
	return out, nil
}

// LogBase returns the logarithm of v in the given base.
func LogBase(v *Var, base float64) (*Var, error) {
	if base <= 0 || base == 1 {
		return nil, ErrDomain
	}
	if v.val <= 0 {
		return nil, ErrDomain
	}
	lb := math.Log(base)
	out := &Var{val: math.Log(v.val) / lb}
	v.attach(out, 1/(v.val*lb))
	return out, nil
}

// Sin returns the sine of v.
func Sin(v *Var) *Var {
	out := &Var{val: math.Sin(v.val)}
	v.attach(out, math.Cos(v.val))
	return out
}

// Cos returns the cosine of v.
func Cos(v *Var) *Var {
	out := &Var{val: math.Cos(v.val)}
	v.attach(out, -math.Sin(v.val))
	return out
}

// Tan returns the tangent of v.
func Tan(v *Var) (*Var, error) {
	c := math.Cos(v.val)
	if c == 0 {
		return nil, ErrDomain
	}
	out := &Var{val: math.Tan(v.val)}
	v.attach(out, 1/(c*c))
	return out, nil
}

// Csc returns the cosecant of v.
func Csc(v *Var) (*Var, error) {
	s := math.Sin(v.val)
	if s == 0 {
		return nil, ErrDomain
	}
	out := &Var{val: 1 / s}
	v.attach(out, -math.Cos(v.val)/(s*s))
	return out, nil
}

// Sec returns the secant of v.
func Sec(v *Var) (*Var, error) {
	c := math.Cos(v.val)
	if c == 0 {
		return nil, ErrDomain
	}
	out := &Var{val: 1 / c}
	v.attach(out, math.Sin(v.val)/(c*c))
	return out, nil
}

// Cot returns the cotangent of v.
func Cot(v *Var) (*Var, error) {
	s := math.Sin(v.val)
	if s == 0 {
		return nil, ErrDomain
	}
	out := &Var{val: math.Cos(v.val) / s}
	v.attach(out, -1/(s*s))
	return out, nil
}

// Arcsin returns the inverse sine of v for values in (-1, 1).
func Arcsin(v *Var) (*Var, error) {
	if v.val <= -1 || v.val >= 1 {
		return nil, ErrDomain
	}
	out := &Var{val: math.Asin(v.val)}
	v.attach(out, 1/math.Sqrt(1-v.val*v.val))
	return out, nil
}

// Arccos returns the inverse cosine of v for values in (-1, 1).
func Arccos(v *Var) (*Var, error) {
	if v.val <= -1 || v.val >= 1 {
		return nil, ErrDomain
	}
	out := &Var{val: math.Acos(v.val)}
	v.attach(out, -1/math.Sqrt(1-v.val*v.val))
	return out, nil
}

// Arctan returns the inverse tangent of v.
func Arctan(v *Var) *Var {
	out := &Var{val: math.Atan(v.val)}
	v.attach(out, 1/(1+v.val*v.val))
	return out
}

// Sinh returns the hyperbolic sine of v.
func Sinh(v *Var) *Var {
	out := &Var{val: math.Sinh(v.val)}
	v.attach(out, math.Cosh(v.val))
	return out
}

// Cosh returns the hyperbolic cosine of v.
func Cosh(v *Var) *Var {
	out := &Var{val: math.Cosh(v.val)}
	v.attach(out, math.Sinh(v.val))
	return out
}

// Tanh returns the hyperbolic tangent of v.
func Tanh(v *Var) *Var {
	ch := math.Cosh(v.val)
	out := &Var{val: math.Tanh(v.val)}
	v.attach(out, 1/(ch*ch))
	return out
}
