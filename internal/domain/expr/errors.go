package expr

import "errors"

// Sentinel kinds for expression compilation and evaluation errors.
var (
	ErrParse        = errors.New("expression does not parse")
	ErrUnsupported  = errors.New("unsupported expression construct")
	ErrUnknownIdent = errors.New("unknown identifier")
	ErrArgCount     = errors.New("wrong argument count")
	ErrConstantArg  = errors.New("argument must be constant")
	ErrPoint        = errors.New("point has fewer values than the expression uses")
)

// IsCompileError reports whether err came from compiling a source
// string, as opposed to evaluating a compiled program.
func IsCompileError(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrUnsupported) ||
		errors.Is(err, ErrUnknownIdent) ||
		errors.Is(err, ErrArgCount) ||
		errors.Is(err, ErrConstantArg)
}
