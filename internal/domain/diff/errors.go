package diff

import "errors"

// Sentinel kinds for differentiation driver errors.
var (
	ErrNoFuncs     = errors.New("no functions to differentiate")
	ErrEmptyPoint  = errors.New("evaluation point is empty")
	ErrUnknownMode = errors.New("unknown differentiation mode")
)
