// Package reverse implements reverse-mode automatic differentiation.
//
// Every operation records, on its operands, the local partial derivative
// toward the new node. After the output node is seeded with gradient 1,
// Grad on any input accumulates the chain-rule products over all paths
// to the output.
package reverse

import "math"

// edge links a node to a node that consumed it, weighted by the local
// partial derivative d(consumer)/d(node).
type edge struct {
	weight float64
	to     *Var
}

// Var is a node on the reverse-mode tape.
type Var struct {
	val      float64
	children []edge
	grad     float64
	cached   bool
}

// NewVar creates an input node holding v.
func NewVar(v float64) *Var {
	return &Var{val: v}
}

// Value returns the primal value carried by the node.
func (v *Var) Value() float64 { return v.val }

// Seed marks the node as the differentiation root with the given adjoint,
// normally 1 on the function output.
func (v *Var) Seed(g float64) {
	v.grad = g
	v.cached = true
}

// Grad returns the adjoint of the node with respect to the seeded output.
// The result is cached; call Reset before reusing the node in another tape.
func (v *Var) Grad() float64 {
	if v.cached {
		return v.grad
	}
	var sum float64
	for _, e := range v.children {
		sum += e.weight * e.to.Grad()
	}
	v.grad = sum
	v.cached = true
	return sum
}

// Reset detaches the node from the tape so it can be reused as an input
// for another function evaluation.
func (v *Var) Reset() {
	v.children = nil
	v.grad = 0
	v.cached = false
}

// attach records w = d(out)/d(v) on the operand.
func (v *Var) attach(out *Var, w float64) {
	v.children = append(v.children, edge{weight: w, to: out})
}

// Add returns v + u.
func (v *Var) Add(u *Var) *Var {
	out := &Var{val: v.val + u.val}
	v.attach(out, 1)
	u.attach(out, 1)
	return out
}

// AddFloat returns v + c for a constant c.
func (v *Var) AddFloat(c float64) *Var {
	out := &Var{val: v.val + c}
	v.attach(out, 1)
	return out
}

// Sub returns v - u.
func (v *Var) Sub(u *Var) *Var {
	out := &Var{val: v.val - u.val}
	v.attach(out, 1)
	u.attach(out, -1)
	return out
}

// SubFloat returns v - c for a constant c.
func (v *Var) SubFloat(c float64) *Var {
	out := &Var{val: v.val - c}
	v.attach(out, 1)
	return out
}

// Mul returns v * u.
func (v *Var) Mul(u *Var) *Var {
	out := &Var{val: v.val * u.val}
	v.attach(out, u.val)
	u.attach(out, v.val)
	return out
}

// MulFloat returns v * c for a constant c.
func (v *Var) MulFloat(c float64) *Var {
	out := &Var{val: v.val * c}
	v.attach(out, c)
	return out
}

// Div returns v / u. Returns ErrDivisionByZero when u holds zero.
func (v *Var) Div(u *Var) (*Var, error) {
	if u.val == 0 {
		return nil, ErrDivisionByZero
	}
	out := &Var{val: v.val / u.val}
	v.attach(out, 1/u.val)
	u.attach(out, -v.val/(u.val*u.val))
	return out, nil
}

// Neg returns -v.
func (v *Var) Neg() *Var {
	out := &Var{val: -v.val}
	v.attach(out, -1)
	return out
}

// PowFloat returns v raised to a constant exponent p.
func (v *Var) PowFloat(p float64) *Var {
	out := &Var{val: math.Pow(v.val, p)}
	v.attach(out, p*math.Pow(v.val, p-1))
	return out
}

// Pow returns v raised to the power u, computed as exp(u * ln v).
// The value of v must be positive.
func (v *Var) Pow(u *Var) (*Var, error) {
	if v.val <= 0 {
		return nil, ErrDomain
	}
	out := &Var{val: math.Pow(v.val, u.val)}
	v.attach(out, u.val*math.Pow(v.val, u.val-1))
	u.attach(out, out.val*math.Log(v.val))
	return out, nil
}
