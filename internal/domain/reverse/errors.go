package reverse

import "errors"

// Sentinel kinds for reverse-mode arithmetic errors.
var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrDomain         = errors.New("argument outside function domain")
)
