package dual

import "errors"

// Sentinel kinds for dual-number arithmetic errors.
var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrDomain         = errors.New("argument outside function domain")
)
